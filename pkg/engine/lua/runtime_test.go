package lua

import (
	"context"
	"strings"
	"testing"
	"time"

	"patternweb/playground/pkg/engine"
)

func newBridge(t *testing.T, opts Options) (*engine.Bridge, *Runtime) {
	t.Helper()
	rt := New(opts)
	b := engine.NewBridge(rt, engine.Options{Backend: "lua"})
	if err := b.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { _ = b.Close(context.Background()) })
	return b, rt
}

func TestRuntime_LogFormat(t *testing.T) {
	b, _ := newBridge(t, Options{})

	res, err := b.Execute(context.Background(), `
log.debug("d")
log.info("i")
log.warn("w")
log.error("e")
print("p", 1)
`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	want := "[DEBUG] d\n\x01[INFO]  i\n\x01[WARN]  w\n\x01[ERROR] e\n\x01[INFO]  p\t1\n\x01"
	if res.Console != want {
		t.Errorf("console = %q, want %q", res.Console, want)
	}
	if res.UIConfig != "[]" {
		t.Errorf("UIConfig = %q, want []", res.UIConfig)
	}
}

func TestRuntime_DataAccess(t *testing.T) {
	b, _ := newBridge(t, Options{})

	if err := b.LoadBinaryData(context.Background(), []byte{0x01, 0x02, 0xff, 0xfe, 'A', 'B'}); err != nil {
		t.Fatal(err)
	}

	res, err := b.Execute(context.Background(), `
log.info(data.size())
log.info(data.u8(0))
log.info(data.u16(0))
log.info(data.u16(0, "be"))
log.info(data.i8(2))
log.info(data.i16(2))
log.info(data.read(4, 2))
`)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"6", "1", "513", "258", "-1", "-257", "AB"}
	lines := strings.Split(strings.TrimSuffix(res.Console, "\n\x01"), "\n\x01")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines: %q", len(lines), res.Console)
	}
	for i, w := range want {
		if lines[i] != "[INFO]  "+w {
			t.Errorf("line %d = %q, want %q", i, lines[i], "[INFO]  "+w)
		}
	}
}

func TestRuntime_ProgramErrorsGoToConsole(t *testing.T) {
	tests := []struct {
		name    string
		program string
		want    string
	}{
		{"syntax", "u8 x @ 0x00;", "[ERROR] "},
		{"runtime", `error("bad header")`, "bad header"},
		{"out of bounds", "data.u32(100)", "data access out of bounds"},
		{"sandboxed io", `io.open("/etc/passwd")`, "[ERROR] "},
		{"sandboxed load", `load("return 1")()`, "[ERROR] "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newBridge(t, Options{})

			res, err := b.Execute(context.Background(), tt.program)
			if err != nil {
				t.Fatalf("program errors must not fail the call: %v", err)
			}
			if !strings.HasPrefix(res.Console, "[ERROR] ") || !strings.Contains(res.Console, tt.want) {
				t.Errorf("console = %q, want error containing %q", res.Console, tt.want)
			}
			if !strings.HasSuffix(res.Console, "\n\x01") {
				t.Errorf("error entry not terminated: %q", res.Console)
			}
		})
	}
}

func TestRuntime_Timeout(t *testing.T) {
	b, _ := newBridge(t, Options{ExecutionTimeout: 50 * time.Millisecond})

	res, err := b.Execute(context.Background(), "while true do end")
	if err != nil {
		t.Fatalf("timeout must be reported in the console: %v", err)
	}
	if !strings.Contains(res.Console, "[ERROR] execution timed out") {
		t.Errorf("console = %q", res.Console)
	}
}

func TestRuntime_CallerCancellation(t *testing.T) {
	b, _ := newBridge(t, Options{ExecutionTimeout: time.Minute})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := b.Execute(ctx, "while true do end"); err == nil {
		t.Fatal("expected error when caller context ends")
	}
}

func TestRuntime_UIConfig(t *testing.T) {
	b, _ := newBridge(t, Options{})

	res, err := b.Execute(context.Background(), `
property("Header", "magic", "unsigned", 4)
property("Header", "delta", "signed", 1)
property("Body", "title", "string", 16)
property("Body", "mode", "enum", {ON = 1, OFF = 0})
property("Body", "ratio", "float")
`)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := engine.ParseUIConfig(res.UIConfig)
	if err != nil {
		t.Fatalf("invalid UI config %q: %v", res.UIConfig, err)
	}
	if len(cfg) != 2 || cfg[0].CategoryName != "Body" || cfg[1].CategoryName != "Header" {
		t.Fatalf("categories not sorted: %+v", cfg)
	}

	body := cfg[0].Items
	if body[0].Name != "mode" || body[1].Name != "ratio" || body[2].Name != "title" {
		t.Errorf("items not sorted by name: %+v", body)
	}
	if f := body[0].Properties.Fields; len(f) != 2 || f[0].Name != "OFF" || f[1].Value != 1 {
		t.Errorf("unexpected enum fields %+v", f)
	}
	if body[2].ID != 2 || *body[2].Properties.Length != 16 {
		t.Errorf("unexpected string item %+v", body[2])
	}

	header := cfg[1].Items
	if header[0].Name != "delta" || *header[0].Properties.Min != -128 || *header[0].Properties.Max != 127 {
		t.Errorf("unexpected signed bounds %+v", header[0])
	}
	if header[1].Name != "magic" || *header[1].Properties.Max != 1<<32-1 || header[1].ID != 0 {
		t.Errorf("unexpected unsigned item %+v", header[1])
	}
}

func TestRuntime_InvalidPropertyKind(t *testing.T) {
	b, _ := newBridge(t, Options{})

	res, err := b.Execute(context.Background(), `property("a", "b", "complex", 1)`)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Console, `unknown kind "complex"`) {
		t.Errorf("console = %q", res.Console)
	}
}

func TestRuntime_NoLeaksAcrossRuns(t *testing.T) {
	b, rt := newBridge(t, Options{})

	for i := 0; i < 5; i++ {
		if err := b.LoadBinaryData(context.Background(), make([]byte, 1024)); err != nil {
			t.Fatal(err)
		}
		if _, err := b.Execute(context.Background(), `log.info(data.size())`); err != nil {
			t.Fatal(err)
		}
	}

	// Only the last console and UI buffers stay allocated.
	if n := rt.Heap().Allocated(); n != 2 {
		t.Errorf("expected 2 live allocations, got %d", n)
	}
}

func TestRuntime_RequiresInitialize(t *testing.T) {
	rt := New(Options{})
	if _, err := rt.Allocate(context.Background(), 8); err == nil {
		t.Error("expected error before Initialize")
	}
}
