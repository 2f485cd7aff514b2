package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"patternweb/playground/pkg/config"
	"patternweb/playground/pkg/console"
	"patternweb/playground/pkg/engine"
	"patternweb/playground/pkg/engine/lua"
	"patternweb/playground/pkg/history"
	"patternweb/playground/pkg/source"
)

type failingRuntime struct {
	*lua.Runtime
}

func (failingRuntime) Initialize(context.Context) error {
	return errors.New("module failed to load")
}

// slowDataRuntime widens the window between loading data and executing.
type slowDataRuntime struct {
	*lua.Runtime
}

func (r slowDataRuntime) SetData(ctx context.Context, ptr engine.Ptr, length uint32) error {
	time.Sleep(time.Millisecond)
	return r.Runtime.SetData(ctx, ptr, length)
}

func newController(t *testing.T, opts Options) *Controller {
	t.Helper()
	bridge := engine.NewBridge(lua.New(lua.Options{}), engine.Options{Backend: "lua"})
	c := New(bridge, opts)
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func waitClosed(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting")
	}
}

func TestController_PickFileRunsCurrentSource(t *testing.T) {
	store := history.NewMemoryStore()
	c := newController(t, Options{History: store})

	if c.Label() != NoFileLabel {
		t.Errorf("initial label = %q", c.Label())
	}

	c.SetEditorSource(`log.info("size " .. data.size()); log.warn("careful")`)
	out := c.PickFile(context.Background(), "dump.bin", []byte{1, 2, 3, 4})
	if out.Err != nil {
		t.Fatalf("unexpected error: %v", out.Err)
	}

	if c.Label() != "dump.bin" {
		t.Errorf("label = %q, want dump.bin", c.Label())
	}

	want := []console.Line{
		{Text: "[INFO]  size 4", Severity: console.SeverityInfo},
		{Text: "[WARN]  careful", Severity: console.SeverityWarning},
		{Text: "", Severity: console.SeverityPlain},
	}
	lines := c.Lines()
	if len(lines) != len(want) {
		t.Fatalf("got %d lines: %+v", len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %+v, want %+v", i, lines[i], want[i])
		}
	}

	runs, err := c.History(context.Background(), 0)
	if err != nil || len(runs) != 1 {
		t.Fatalf("History = %v, %v", runs, err)
	}
	if runs[0].ID != out.RunID || runs[0].DataBytes != 4 || runs[0].Origin != string(source.OriginEditor) {
		t.Errorf("unexpected record %+v", runs[0])
	}
	if runs[0].LineCounts["info"] != 1 || runs[0].LineCounts["warning"] != 1 {
		t.Errorf("unexpected counts %v", runs[0].LineCounts)
	}
}

func TestController_ConcurrentPicksRunAgainstTheirOwnData(t *testing.T) {
	store := history.NewMemoryStore()
	bridge := engine.NewBridge(slowDataRuntime{lua.New(lua.Options{})}, engine.Options{Backend: "lua"})
	c := New(bridge, Options{History: store})
	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	c.SetEditorSource(`log.info(data.read(0, data.size()))`)

	const rounds = 20
	files := []string{"AAAA", "BBBB"}
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		mismatches []string
	)
	for _, name := range files {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				out := c.PickFile(context.Background(), name, []byte(name))
				if len(out.Lines) == 0 || out.Lines[0].Text != "[INFO]  "+name {
					mu.Lock()
					mismatches = append(mismatches, name+": "+fmt.Sprint(out.Lines))
					mu.Unlock()
				}
			}
		}(name)
	}
	wg.Wait()

	if len(mismatches) > 0 {
		t.Fatalf("%d picks ran against another file's data, first: %s", len(mismatches), mismatches[0])
	}

	runs, err := c.History(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != rounds*len(files) {
		t.Fatalf("recorded %d runs, want %d", len(runs), rounds*len(files))
	}
	for _, run := range runs {
		if run.DataHash != history.HashString(run.DataName) {
			t.Errorf("run %s for %s has a foreign data hash", run.ID, run.DataName)
		}
	}
}

func TestController_FeedClearedBetweenRuns(t *testing.T) {
	c := newController(t, Options{})

	c.SetEditorSource(`log.info("a"); log.info("b"); log.info("c")`)
	c.PickFile(context.Background(), "one.bin", nil)
	c.SetEditorSource(`log.error("only")`)
	c.PickFile(context.Background(), "two.bin", nil)

	lines := c.Lines()
	if len(lines) != 2 || lines[0].Text != "[ERROR] only" {
		t.Errorf("feed must hold only the last run, got %+v", lines)
	}
}

func TestController_BridgeFailureRendersErrorLine(t *testing.T) {
	bridge := engine.NewBridge(failingRuntime{lua.New(lua.Options{})}, engine.Options{})
	c := New(bridge, Options{})
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Close(context.Background())

	out := c.PickFile(context.Background(), "dump.bin", []byte{1})
	if !errors.Is(out.Err, engine.ErrEngineNotReady) {
		t.Fatalf("expected ErrEngineNotReady, got %v", out.Err)
	}
	if len(out.Lines) != 1 || out.Lines[0].Severity != console.SeverityError {
		t.Fatalf("expected one error line, got %+v", out.Lines)
	}
	if !strings.Contains(out.Lines[0].Text, "module failed to load") {
		t.Errorf("error line should carry the cause: %q", out.Lines[0].Text)
	}

	st := c.State()
	if st.EngineReady || st.EngineError == "" {
		t.Errorf("state should report the failed engine: %+v", st)
	}
}

func TestController_MountResolvesOnce(t *testing.T) {
	c := newController(t, Options{})

	c.Mount(context.Background(), url.Values{"code": {source.EncodeURLParam("first")}})
	waitClosed(t, c.DeepLinkDone())
	c.Mount(context.Background(), url.Values{"code": {source.EncodeURLParam("second")}})

	// A second resolution would race; give it a moment to show up.
	time.Sleep(50 * time.Millisecond)
	if src := c.Source(); src.Content != "first" || src.Origin != source.OriginURLParam {
		t.Errorf("unexpected source %+v", src)
	}
}

func TestController_StartResolvesConfiguredDeepLink(t *testing.T) {
	c := newController(t, Options{
		DeepLink: url.Values{"code": {source.EncodeURLParam(`log.info("hi")`)}},
	})
	waitClosed(t, c.DeepLinkDone())

	out := c.PickFile(context.Background(), "x.bin", nil)
	if len(out.Lines) == 0 || out.Lines[0].Text != "[INFO]  hi" {
		t.Errorf("unexpected output %+v", out.Lines)
	}
}

func TestController_Rerun(t *testing.T) {
	c := newController(t, Options{})

	c.SetEditorSource(`log.info(data.u8(0))`)
	c.PickFile(context.Background(), "d.bin", []byte{42})

	c.SetEditorSource(`log.info(data.u8(0) + 1)`)
	out := c.Rerun(context.Background())
	if out.Err != nil {
		t.Fatal(out.Err)
	}
	if out.Lines[0].Text != "[INFO]  43" {
		t.Errorf("rerun should use the loaded data, got %+v", out.Lines)
	}
	if c.Label() != "d.bin" {
		t.Errorf("rerun must not change the label, got %q", c.Label())
	}
}

func TestController_State(t *testing.T) {
	c := newController(t, Options{})
	if err := c.Bridge().Wait(context.Background()); err != nil {
		t.Fatal(err)
	}

	c.SetEditorSource("print(1)")
	st := c.State()
	if !st.EngineReady || st.Label != NoFileLabel || st.SourceOrigin != source.OriginEditor || st.SourceBytes != 8 {
		t.Errorf("unexpected state %+v", st)
	}
}

func TestController_CloseIsIdempotent(t *testing.T) {
	bridge := engine.NewBridge(lua.New(lua.Options{}), engine.Options{})
	c := New(bridge, Options{History: history.NewMemoryStore()})
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(context.Background()); err != nil {
		t.Fatal(err)
	}

	out := c.PickFile(context.Background(), "late.bin", nil)
	if out.Err == nil {
		t.Error("picks after Close must fail")
	}
}

func TestNewRuntime(t *testing.T) {
	if _, err := NewRuntime(config.EngineConfig{Backend: "lua"}, nil); err != nil {
		t.Errorf("lua: %v", err)
	}
	if _, err := NewRuntime(config.EngineConfig{Backend: "wasm"}, nil); err != nil {
		t.Errorf("wasm: %v", err)
	}
	if _, err := NewRuntime(config.EngineConfig{Backend: "jvm"}, nil); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewFromConfig(t *testing.T) {
	pattern := filepath.Join(t.TempDir(), "p.pat")
	if err := os.WriteFile(pattern, []byte(`log.debug("from file")`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewDefaultConfig()
	cfg.Source.PatternFile = pattern

	c, err := NewFromConfig(cfg, Deps{})
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Close(context.Background())

	if src := c.Source(); src.Origin != source.OriginLocalFile {
		t.Errorf("pattern file not loaded: %+v", src)
	}

	out := c.PickFile(context.Background(), "x.bin", nil)
	if out.Lines[0].Text != "[DEBUG] from file" {
		t.Errorf("unexpected output %+v", out.Lines)
	}
	runs, err := c.History(context.Background(), 10)
	if err != nil || len(runs) != 1 {
		t.Errorf("expected one recorded run, got %d, %v", len(runs), err)
	}
}
