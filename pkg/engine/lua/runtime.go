package lua

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"patternweb/playground/pkg/engine"
)

// Default limits.
const (
	DefaultHeapSize         = 256 << 20
	DefaultExecutionTimeout = 10 * time.Second
)

// chunkName names the program in error messages.
const chunkName = "<Source Code>"

// ErrNotInitialized is returned by calls made before Initialize.
var ErrNotInitialized = errors.New("lua engine not initialized")

// Options configures a Runtime.
type Options struct {
	// HeapSize bounds the simulated linear memory.
	HeapSize uint32

	// ExecutionTimeout bounds a single program run.
	ExecutionTimeout time.Duration

	// Logger receives host diagnostics.
	Logger *slog.Logger
}

// Runtime is an engine.Runtime that runs Lua programs against the loaded
// data. Programs log through log.debug/info/warn/error and register UI
// properties with property().
type Runtime struct {
	heap    *Heap
	timeout time.Duration
	logger  *slog.Logger

	initialized bool
	data        []byte
	console     consoleBuffer
	consolePtr  engine.Ptr
	uiPtr       engine.Ptr
}

var _ engine.Runtime = (*Runtime)(nil)

// New creates a Lua runtime.
func New(opts Options) *Runtime {
	if opts.HeapSize == 0 {
		opts.HeapSize = DefaultHeapSize
	}
	if opts.ExecutionTimeout <= 0 {
		opts.ExecutionTimeout = DefaultExecutionTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runtime{
		heap:    NewHeap(opts.HeapSize),
		timeout: opts.ExecutionTimeout,
		logger:  logger.With("component", "lua_engine"),
	}
}

// Initialize implements engine.Runtime.
func (r *Runtime) Initialize(context.Context) error {
	r.initialized = true
	r.logger.Debug("pattern language module loaded")
	return nil
}

// Allocate implements engine.Runtime.
func (r *Runtime) Allocate(_ context.Context, size uint32) (engine.Ptr, error) {
	if !r.initialized {
		return engine.Null, ErrNotInitialized
	}
	return r.heap.Allocate(size)
}

// Free implements engine.Runtime.
func (r *Runtime) Free(_ context.Context, ptr engine.Ptr) error {
	return r.heap.Free(ptr)
}

// Write implements engine.Runtime.
func (r *Runtime) Write(ptr engine.Ptr, data []byte) error {
	return r.heap.Write(ptr, data)
}

// ReadString implements engine.Runtime.
func (r *Runtime) ReadString(ptr engine.Ptr) ([]byte, error) {
	return r.heap.ReadString(ptr)
}

// SetData implements engine.Runtime. The runtime keeps its own copy.
func (r *Runtime) SetData(_ context.Context, ptr engine.Ptr, length uint32) error {
	if !r.initialized {
		return ErrNotInitialized
	}
	if length == 0 {
		r.data = nil
		return nil
	}
	src, err := r.heap.Read(ptr, length)
	if err != nil {
		return err
	}
	r.data = append(make([]byte, 0, length), src...)
	return nil
}

// ExecutePatternLanguageCode implements engine.Runtime. Program errors are
// reported in the console stream, not as a returned error. An error is
// returned only when the host cannot run the program at all or ctx ended.
func (r *Runtime) ExecutePatternLanguageCode(ctx context.Context, ptr engine.Ptr) error {
	if !r.initialized {
		return ErrNotInitialized
	}

	program, err := r.heap.ReadString(ptr)
	if err != nil {
		return err
	}
	source := string(program)

	r.releaseResults()
	r.console.Reset()

	ui, err := r.run(ctx, source)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return err
	}

	if r.consolePtr, err = r.heap.WriteString(r.console.String()); err != nil {
		return fmt.Errorf("failed to store console result: %w", err)
	}
	if r.uiPtr, err = r.heap.WriteString(ui); err != nil {
		return fmt.Errorf("failed to store UI config: %w", err)
	}
	return nil
}

// run executes source in a fresh sandboxed state and returns the UI
// descriptor. Program failures end up in the console.
func (r *Runtime) run(ctx context.Context, source string) (ui string, err error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	L := newSandboxedState()
	defer L.Close()
	L.SetContext(runCtx)

	env := &run{data: r.data, console: &r.console, props: newPropertySet()}
	env.install(L)

	r.logger.Debug("executing program", "bytes", len(source), "data_bytes", len(r.data))

	defer func() {
		if rec := recover(); rec != nil {
			r.console.raw("[ERROR]: Exception thrown: " + describe(rec))
			ui, err = "", nil
		}
	}()

	fn, loadErr := L.Load(strings.NewReader(source), chunkName)
	if loadErr != nil {
		r.console.log(levelError, errorMessage(loadErr))
		return "[]", nil
	}

	L.Push(fn)
	if callErr := L.PCall(0, lua.MultRet, nil); callErr != nil {
		switch {
		case ctx.Err() != nil:
			return "", nil
		case runCtx.Err() != nil:
			r.console.log(levelError, fmt.Sprintf("execution timed out after %s", r.timeout))
		default:
			r.console.log(levelError, errorMessage(callErr))
		}
		return "[]", nil
	}

	ui, err = env.props.JSON()
	if err != nil {
		return "", err
	}
	r.logger.Debug("properties produced", "count", len(env.props.items))
	return ui, nil
}

// errorMessage strips the Lua traceback from an error.
func errorMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}

func (r *Runtime) releaseResults() {
	for _, p := range []*engine.Ptr{&r.consolePtr, &r.uiPtr} {
		if *p != engine.Null {
			_ = r.heap.Free(*p)
			*p = engine.Null
		}
	}
}

// ConsoleResult implements engine.Runtime.
func (r *Runtime) ConsoleResult(context.Context) (engine.Ptr, error) {
	return r.consolePtr, nil
}

// UIConfig implements engine.Runtime.
func (r *Runtime) UIConfig(context.Context) (engine.Ptr, error) {
	return r.uiPtr, nil
}

// Close implements engine.Runtime.
func (r *Runtime) Close(context.Context) error {
	r.releaseResults()
	r.data = nil
	r.initialized = false
	return nil
}

// Heap exposes the simulated memory for diagnostics.
func (r *Runtime) Heap() *Heap {
	return r.heap
}
