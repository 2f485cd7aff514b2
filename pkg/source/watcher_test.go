package source

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestFileWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pattern.pat")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatal(err)
	}

	store := NewStore()
	fw, err := NewFileWatcher(path, store, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer fw.Stop()

	if err := fw.Load(); err != nil {
		t.Fatal(err)
	}
	if cur := store.Current(); cur.Content != "v1" || cur.Origin != OriginLocalFile {
		t.Fatalf("unexpected source %+v", cur)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fw.Watch(ctx) }()
	time.Sleep(50 * time.Millisecond)

	// Unrelated files in the directory are ignored.
	if err := os.WriteFile(filepath.Join(dir, "other.pat"), []byte("other"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
		t.Fatal(err)
	}

	waitFor(t, func() bool { return store.Current().Content == "v2" })
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.pat")
	fw, err := NewFileWatcher(path, NewStore(), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := fw.Stop(); err != nil {
		t.Fatal(err)
	}
	if err := fw.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestFileWatcher_LoadMissingFile(t *testing.T) {
	store := NewStore()
	fw, err := NewFileWatcher(filepath.Join(t.TempDir(), "missing.pat"), store, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer fw.Stop()

	if err := fw.Load(); err == nil {
		t.Fatal("expected error")
	}
	if store.Current().Origin != OriginNone {
		t.Error("failed load must not touch the store")
	}
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var calls, last atomic.Int32
	for i := int32(1); i <= 5; i++ {
		d.Trigger(func() {
			calls.Add(1)
			last.Store(i)
		})
	}

	waitFor(t, func() bool { return calls.Load() == 1 })
	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 1 || last.Load() != 5 {
		t.Errorf("calls=%d last=%d, want 1 and 5", calls.Load(), last.Load())
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var calls atomic.Int32
	d.Trigger(func() { calls.Add(1) })
	d.Stop()

	time.Sleep(60 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("stopped debouncer must not fire")
	}
	d.Trigger(func() { calls.Add(1) })
	time.Sleep(40 * time.Millisecond)
	if calls.Load() != 0 {
		t.Error("triggers after Stop are ignored")
	}
}
