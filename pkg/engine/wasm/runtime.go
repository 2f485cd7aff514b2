package wasm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/emscripten"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"patternweb/playground/pkg/engine"
)

// SourcesMount is where SourcesDir appears inside the module. The engine
// resolves #include against /sources/includes and /sources/patterns.
const SourcesMount = "/sources"

// moduleName names the instance in wazero error messages.
const moduleName = "plwasm"

// Exported functions the module must provide.
const (
	exportMalloc     = "malloc"
	exportFree       = "free"
	exportInitialize = "initialize"
	exportSetData    = "setData"
	exportExecute    = "executePatternLanguageCode"
	exportConsole    = "getConsoleResult"
	exportUIConfig   = "getUIConfig"
)

var requiredExports = []string{
	exportMalloc, exportFree, exportInitialize, exportSetData,
	exportExecute, exportConsole, exportUIConfig,
}

var (
	// ErrNotInitialized is returned by calls made before Initialize.
	ErrNotInitialized = errors.New("wasm runtime not initialized")

	// ErrMissingExport is returned when the module lacks part of the ABI.
	ErrMissingExport = errors.New("module is missing a required export")

	// ErrMemoryAccess is returned for reads or writes outside linear memory.
	ErrMemoryAccess = errors.New("linear memory access out of range")
)

// Options configures the wasm runtime.
type Options struct {
	// ModulePath is the compiled module on disk. Ignored when ModuleBytes is set.
	ModulePath string

	// ModuleBytes is the compiled module itself.
	ModuleBytes []byte

	// SourcesDir is mounted read-only at SourcesMount when set.
	SourcesDir string

	// MemoryLimitPages caps memory growth in 64KiB pages. 0 keeps the
	// wazero default.
	MemoryLimitPages uint32

	Logger *slog.Logger
}

// Runtime hosts the compiled pattern language module on wazero.
type Runtime struct {
	opts   Options
	logger *slog.Logger

	rt  wazero.Runtime
	mod api.Module
	fns map[string]api.Function

	stdout, stderr *logWriter
}

// New creates a runtime. The module is loaded by Initialize.
func New(opts Options) *Runtime {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "engine.wasm")
	return &Runtime{
		opts:   opts,
		logger: logger,
		stdout: newLogWriter(logger, slog.LevelInfo, "stdout"),
		stderr: newLogWriter(logger, slog.LevelWarn, "stderr"),
	}
}

// Initialize implements engine.Runtime. It compiles and instantiates the
// module, then calls its initialize export.
func (r *Runtime) Initialize(ctx context.Context) error {
	code := r.opts.ModuleBytes
	if code == nil {
		var err error
		if code, err = os.ReadFile(r.opts.ModulePath); err != nil {
			return fmt.Errorf("failed to read module: %w", err)
		}
	}

	rcfg := wazero.NewRuntimeConfig()
	if r.opts.MemoryLimitPages > 0 {
		rcfg = rcfg.WithMemoryLimitPages(r.opts.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rcfg)

	if err := r.instantiate(ctx, rt, code); err != nil {
		_ = rt.Close(ctx)
		return err
	}
	r.rt = rt

	if _, err := r.call(ctx, exportInitialize); err != nil {
		_ = r.Close(ctx)
		return err
	}

	r.logger.Info("module instantiated",
		"module_bytes", len(code),
		"memory_bytes", r.mod.Memory().Size(),
		"sources_dir", r.opts.SourcesDir,
	)
	return nil
}

func (r *Runtime) instantiate(ctx context.Context, rt wazero.Runtime, code []byte) error {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, code)
	if err != nil {
		return fmt.Errorf("failed to compile module: %w", err)
	}

	// Host functions for invoke_* trampolines the module imports.
	if _, err := emscripten.InstantiateForModule(ctx, rt, compiled); err != nil {
		return fmt.Errorf("failed to instantiate emscripten imports: %w", err)
	}

	mcfg := wazero.NewModuleConfig().
		WithName(moduleName).
		WithStdout(r.stdout).
		WithStderr(r.stderr).
		WithStartFunctions("_initialize")
	if r.opts.SourcesDir != "" {
		mcfg = mcfg.WithFSConfig(wazero.NewFSConfig().WithReadOnlyDirMount(r.opts.SourcesDir, SourcesMount))
	}

	mod, err := rt.InstantiateModule(ctx, compiled, mcfg)
	if err != nil {
		return fmt.Errorf("failed to instantiate module: %w", err)
	}

	fns := make(map[string]api.Function, len(requiredExports))
	for _, name := range requiredExports {
		fn := mod.ExportedFunction(name)
		if fn == nil {
			return fmt.Errorf("%w: %s", ErrMissingExport, name)
		}
		fns[name] = fn
	}
	if mod.Memory() == nil {
		return fmt.Errorf("%w: memory", ErrMissingExport)
	}

	r.mod = mod
	r.fns = fns
	return nil
}

func (r *Runtime) call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	if r.mod == nil {
		return nil, ErrNotInitialized
	}
	res, err := r.fns[name].Call(ctx, params...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return res, nil
}

func (r *Runtime) callPtr(ctx context.Context, name string, params ...uint64) (engine.Ptr, error) {
	res, err := r.call(ctx, name, params...)
	if err != nil {
		return engine.Null, err
	}
	if len(res) == 0 {
		return engine.Null, fmt.Errorf("%s returned no value", name)
	}
	return engine.Ptr(api.DecodeU32(res[0])), nil
}

// Allocate implements engine.Runtime.
func (r *Runtime) Allocate(ctx context.Context, size uint32) (engine.Ptr, error) {
	return r.callPtr(ctx, exportMalloc, api.EncodeU32(size))
}

// Free implements engine.Runtime.
func (r *Runtime) Free(ctx context.Context, ptr engine.Ptr) error {
	_, err := r.call(ctx, exportFree, api.EncodeU32(uint32(ptr)))
	return err
}

// Write implements engine.Runtime.
func (r *Runtime) Write(ptr engine.Ptr, data []byte) error {
	if r.mod == nil {
		return ErrNotInitialized
	}
	if !r.mod.Memory().Write(uint32(ptr), data) {
		return fmt.Errorf("%w: %d bytes at %d", ErrMemoryAccess, len(data), ptr)
	}
	return nil
}

// ReadString implements engine.Runtime. The result aliases linear memory.
func (r *Runtime) ReadString(ptr engine.Ptr) ([]byte, error) {
	if r.mod == nil {
		return nil, ErrNotInitialized
	}
	mem := r.mod.Memory()
	size := mem.Size()
	if uint32(ptr) >= size {
		return nil, fmt.Errorf("%w: string at %d", ErrMemoryAccess, ptr)
	}
	buf, ok := mem.Read(uint32(ptr), size-uint32(ptr))
	if !ok {
		return nil, fmt.Errorf("%w: string at %d", ErrMemoryAccess, ptr)
	}
	n := bytes.IndexByte(buf, 0)
	if n < 0 {
		return nil, fmt.Errorf("%w: unterminated string at %d", ErrMemoryAccess, ptr)
	}
	return buf[:n:n], nil
}

// SetData implements engine.Runtime.
func (r *Runtime) SetData(ctx context.Context, ptr engine.Ptr, length uint32) error {
	_, err := r.call(ctx, exportSetData, api.EncodeU32(uint32(ptr)), api.EncodeU32(length))
	return err
}

// ExecutePatternLanguageCode implements engine.Runtime.
func (r *Runtime) ExecutePatternLanguageCode(ctx context.Context, ptr engine.Ptr) error {
	_, err := r.call(ctx, exportExecute, api.EncodeU32(uint32(ptr)))
	return err
}

// ConsoleResult implements engine.Runtime.
func (r *Runtime) ConsoleResult(ctx context.Context) (engine.Ptr, error) {
	return r.callPtr(ctx, exportConsole)
}

// UIConfig implements engine.Runtime.
func (r *Runtime) UIConfig(ctx context.Context) (engine.Ptr, error) {
	return r.callPtr(ctx, exportUIConfig)
}

// Close implements engine.Runtime.
func (r *Runtime) Close(ctx context.Context) error {
	r.stdout.Flush()
	r.stderr.Flush()
	r.mod = nil
	r.fns = nil
	if r.rt == nil {
		return nil
	}
	rt := r.rt
	r.rt = nil
	return rt.Close(ctx)
}
