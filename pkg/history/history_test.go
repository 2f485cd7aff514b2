package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"patternweb/playground/pkg/config"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	stores := map[string]Store{
		"sqlite": sqlite,
		"memory": NewMemoryStore(),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func insertRuns(t *testing.T, s Store, n int) []*Record {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	var out []*Record
	for i := 0; i < n; i++ {
		r := NewRecord("editor", "dump.bin", "u8 x @ 0;", []byte{byte(i)})
		r.StartedAt = base.Add(time.Duration(i) * time.Second)
		r.Finish(map[string]int{"info": i}, nil)
		if err := s.Insert(context.Background(), r); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		out = append(out, r)
	}
	return out
}

func TestNewRecord(t *testing.T) {
	r := NewRecord("gist", "a.bin", "abc", []byte("abc"))
	if r.ID == "" || r.Origin != "gist" || r.DataBytes != 3 {
		t.Errorf("unexpected record %+v", r)
	}
	// sha256("abc")
	const want = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if r.SourceHash != want || r.DataHash != want {
		t.Errorf("hashes = %s / %s", r.SourceHash, r.DataHash)
	}
	if NewRecord("gist", "", "", nil).ID == r.ID {
		t.Error("ids must be unique")
	}

	r.SetSource("editor", "")
	if r.Origin != "editor" || r.SourceHash != HashString("") {
		t.Errorf("SetSource did not update the record %+v", r)
	}

	r.Finish(map[string]int{"error": 1}, errors.New("boom"))
	if r.EngineErr != "boom" || r.LineCounts["error"] != 1 || r.Duration() < 0 {
		t.Errorf("unexpected finished record %+v", r)
	}
}

func TestStore_InsertListCount(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			runs := insertRuns(t, s, 3)

			n, err := s.Count(context.Background())
			if err != nil || n != 3 {
				t.Fatalf("Count = %d, %v", n, err)
			}

			all, err := s.List(context.Background(), 0)
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 3 || all[0].ID != runs[2].ID || all[2].ID != runs[0].ID {
				t.Fatalf("expected newest first, got %v", ids(all))
			}
			if all[0].LineCounts["info"] != 2 || all[0].DataHash != runs[2].DataHash {
				t.Errorf("record not preserved: %+v", all[0])
			}
			if !all[0].StartedAt.Equal(runs[2].StartedAt) {
				t.Errorf("StartedAt = %v, want %v", all[0].StartedAt, runs[2].StartedAt)
			}

			limited, err := s.List(context.Background(), 2)
			if err != nil || len(limited) != 2 || limited[0].ID != runs[2].ID {
				t.Errorf("List(2) = %v, %v", ids(limited), err)
			}
		})
	}
}

func TestStore_DeleteOldest(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			runs := insertRuns(t, s, 5)

			deleted, err := s.DeleteOldest(context.Background(), 2)
			if err != nil || deleted != 3 {
				t.Fatalf("DeleteOldest = %d, %v", deleted, err)
			}
			left, _ := s.List(context.Background(), 0)
			if len(left) != 2 || left[0].ID != runs[4].ID || left[1].ID != runs[3].ID {
				t.Errorf("expected two newest to remain, got %v", ids(left))
			}

			deleted, err = s.DeleteOldest(context.Background(), 10)
			if err != nil || deleted != 0 {
				t.Errorf("DeleteOldest above count = %d, %v", deleted, err)
			}
		})
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	s := NewMemoryStore()
	_ = s.Close()
	if err := s.Insert(context.Background(), NewRecord("x", "", "", nil)); !errors.Is(err, ErrStoreClosed) {
		t.Errorf("expected ErrStoreClosed, got %v", err)
	}
}

func TestNewStore(t *testing.T) {
	for _, backend := range []string{"sqlite", "memory"} {
		s, err := NewStore(config.HistoryConfig{Backend: backend})
		if err != nil {
			t.Fatalf("NewStore(%s) failed: %v", backend, err)
		}
		s.Close()
	}
	if _, err := NewStore(config.HistoryConfig{Backend: "redis"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestPruner(t *testing.T) {
	s := NewMemoryStore()
	insertRuns(t, s, 10)

	deleted, err := NewPruner(s, 4, nil).Prune(context.Background())
	if err != nil || deleted != 6 {
		t.Fatalf("Prune = %d, %v", deleted, err)
	}
	if n, _ := s.Count(context.Background()); n != 4 {
		t.Errorf("Count = %d, want 4", n)
	}

	deleted, _ = NewPruner(s, 0, nil).Prune(context.Background())
	if deleted != 0 {
		t.Error("max 0 keeps everything")
	}
}

func TestScheduler(t *testing.T) {
	s := NewMemoryStore()
	insertRuns(t, s, 3)

	sched := NewScheduler(NewPruner(s, 1, nil), "@every 1s")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if !sched.IsRunning() || sched.NextRun() == nil {
		t.Fatal("scheduler should be running with a next run")
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := s.Count(context.Background()); n == 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if n, _ := s.Count(context.Background()); n != 1 {
		t.Errorf("scheduled prune did not run, count = %d", n)
	}

	sched.Stop()
	if sched.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}

func TestScheduler_InvalidAndEmpty(t *testing.T) {
	p := NewPruner(NewMemoryStore(), 1, nil)

	if err := NewScheduler(p, "").Start(context.Background()); err != nil {
		t.Errorf("empty schedule should be a no-op, got %v", err)
	}
	if err := NewScheduler(p, "not a schedule").Start(context.Background()); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func ids(rs []*Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
