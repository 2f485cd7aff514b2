package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"patternweb/playground/pkg/telemetry/metrics"
	"patternweb/playground/pkg/telemetry/tracing"
)

// Options configures a Bridge.
type Options struct {
	// Logger receives bridge diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics records engine calls and executions. Optional.
	Metrics *metrics.Collector

	// Tracer traces loads and executions. Optional.
	Tracer *tracing.Tracer

	// Backend names the runtime in logs and spans.
	Backend string
}

// Result is the owned output of one execution.
type Result struct {
	// Console is the raw console stream, entries separated by "\n\x01".
	Console string

	// UIConfig is the raw UI descriptor JSON.
	UIConfig string

	// Duration is the time spent in the run entry point.
	Duration time.Duration
}

// Bridge is the single gateway to a Runtime.
type Bridge struct {
	runtime Runtime
	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	backend string

	initOnce sync.Once
	ready    chan struct{}
	isReady  atomic.Bool
	initErr  error

	// lock is a one-slot semaphore so waiting callers can give up with ctx.
	lock   chan struct{}
	closed bool

	// generation counts runtime calls; views taken at an older generation
	// are invalid.
	generation atomic.Uint64
}

// NewBridge creates a bridge over rt. The runtime is not touched until
// Start or Initialize is called.
func NewBridge(rt Runtime, opts Options) *Bridge {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		runtime: rt,
		logger:  logger.With("component", "engine", "backend", opts.Backend),
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
		backend: opts.Backend,
		ready:   make(chan struct{}),
		lock:    make(chan struct{}, 1),
	}
}

// Start initializes the runtime on a new goroutine and returns immediately.
func (b *Bridge) Start(ctx context.Context) {
	go func() {
		_ = b.Initialize(ctx)
	}()
}

// Initialize initializes the runtime once and opens the readiness gate.
// Later calls return the outcome of the first.
func (b *Bridge) Initialize(ctx context.Context) error {
	b.initOnce.Do(func() {
		defer close(b.ready)

		start := time.Now()
		b.lock <- struct{}{}
		var err error
		if b.closed {
			err = ErrEngineClosed
		} else {
			err = b.call("initialize", func() error { return b.runtime.Initialize(ctx) })
		}
		<-b.lock

		if err != nil {
			b.initErr = err
			b.logger.Error("engine initialization failed", "error", err)
			return
		}

		b.isReady.Store(true)
		b.metrics.SetEngineReady(true)
		b.logger.Info("engine initialized", "duration", time.Since(start))
	})
	return b.initErr
}

// Ready reports whether initialization completed successfully.
func (b *Bridge) Ready() bool {
	return b.isReady.Load()
}

// InitErr returns the initialization failure, if any.
func (b *Bridge) InitErr() error {
	select {
	case <-b.ready:
		return b.initErr
	default:
		return nil
	}
}

// Wait blocks until initialization finished. It returns ErrEngineNotReady
// wrapping the cause if initialization failed or ctx ended first.
func (b *Bridge) Wait(ctx context.Context) error {
	select {
	case <-b.ready:
		if b.initErr != nil {
			return notReady(b.initErr)
		}
		return nil
	case <-ctx.Done():
		return notReady(ctx.Err())
	}
}

// acquire passes the readiness gate and takes the call lock.
func (b *Bridge) acquire(ctx context.Context) (release func(), err error) {
	if err := b.Wait(ctx); err != nil {
		return nil, err
	}

	select {
	case b.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, notReady(ctx.Err())
	}

	if b.closed {
		<-b.lock
		return nil, ErrEngineClosed
	}
	return func() { <-b.lock }, nil
}

// call runs one runtime operation, advancing the generation and recording
// the outcome.
func (b *Bridge) call(op string, fn func() error) error {
	b.generation.Add(1)
	if err := fn(); err != nil {
		b.metrics.RecordEngineCall(op, "error")
		return &CallError{Op: op, Err: err}
	}
	b.metrics.RecordEngineCall(op, "ok")
	return nil
}

func (b *Bridge) allocate(ctx context.Context, size uint32) (Ptr, error) {
	var ptr Ptr
	err := b.call("malloc", func() error {
		p, err := b.runtime.Allocate(ctx, size)
		if err != nil {
			return err
		}
		if p == Null {
			return fmt.Errorf("allocation of %d bytes returned NULL", size)
		}
		ptr = p
		return nil
	})
	return ptr, err
}

// freer returns an idempotent release of ptr. Failures are logged; they
// cannot be reported to a caller that already has a result.
func (b *Bridge) freer(ctx context.Context, ptr Ptr) func() {
	var done bool
	return func() {
		if done {
			return
		}
		done = true
		if err := b.call("free", func() error { return b.runtime.Free(ctx, ptr) }); err != nil {
			b.logger.Warn("failed to free engine allocation", "ptr", ptr, "error", err)
		}
	}
}

// LoadBinaryData copies data into the engine and makes it the data source
// of subsequent executions. The engine-side buffer is freed before
// LoadBinaryData returns, on every path.
func (b *Bridge) LoadBinaryData(ctx context.Context, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		return ErrDataTooLarge
	}

	ctx, span := b.tracer.Start(ctx, "engine.load_data")
	span.SetAttributes(tracing.AttrDataBytes.Int(len(data)))
	defer span.End()

	release, err := b.acquire(ctx)
	if err != nil {
		tracing.SetStatus(span, err)
		return err
	}
	defer release()

	err = b.loadLocked(ctx, data)
	tracing.SetStatus(span, err)
	return err
}

func (b *Bridge) loadLocked(ctx context.Context, data []byte) error {
	start := time.Now()
	size := uint32(len(data))

	if size == 0 {
		if err := b.call("setData", func() error { return b.runtime.SetData(ctx, Null, 0) }); err != nil {
			return err
		}
		b.metrics.RecordDataLoad(0, time.Since(start))
		return nil
	}

	ptr, err := b.allocate(ctx, size)
	if err != nil {
		return err
	}
	free := b.freer(ctx, ptr)
	defer free()

	if err := b.call("write", func() error { return b.runtime.Write(ptr, data) }); err != nil {
		return err
	}
	if err := b.call("setData", func() error { return b.runtime.SetData(ctx, ptr, size) }); err != nil {
		return err
	}

	b.metrics.RecordDataLoad(len(data), time.Since(start))
	b.logger.Debug("binary data loaded", "bytes", len(data))
	return nil
}

// Execute runs source against the loaded data and returns owned copies of
// the console stream and the UI descriptor.
func (b *Bridge) Execute(ctx context.Context, source string) (Result, error) {
	ctx, span := b.tracer.Start(ctx, "engine.execute")
	span.SetAttributes(
		tracing.AttrEngineBackend.String(b.backend),
		tracing.AttrSourceBytes.Int(len(source)),
	)
	defer span.End()

	release, err := b.acquire(ctx)
	if err != nil {
		tracing.SetStatus(span, err)
		return Result{}, err
	}
	defer release()

	result, err := b.executeLocked(ctx, source)
	if err != nil {
		tracing.SetError(span, err)
	}
	tracing.SetStatus(span, err)
	return result, err
}

func (b *Bridge) executeLocked(ctx context.Context, source string) (Result, error) {
	program := make([]byte, len(source)+1)
	copy(program, source)

	if uint64(len(program)) > math.MaxUint32 {
		return Result{}, ErrDataTooLarge
	}

	ptr, err := b.allocate(ctx, uint32(len(program)))
	if err != nil {
		return Result{}, err
	}
	free := b.freer(ctx, ptr)
	defer free()

	if err := b.call("write", func() error { return b.runtime.Write(ptr, program) }); err != nil {
		return Result{}, err
	}

	start := time.Now()
	if err := b.call("executePatternLanguageCode", func() error {
		return b.runtime.ExecutePatternLanguageCode(ctx, ptr)
	}); err != nil {
		return Result{}, err
	}
	elapsed := time.Since(start)
	free()

	console, err := b.readOwned(ctx, "getConsoleResult", b.runtime.ConsoleResult)
	if err != nil {
		return Result{}, err
	}
	ui, err := b.readOwned(ctx, "getUIConfig", b.runtime.UIConfig)
	if err != nil {
		return Result{}, err
	}

	if b.logger.Enabled(ctx, slog.LevelDebug) {
		b.logger.DebugContext(ctx, "ui config", "config", ui)
	}

	return Result{Console: console, UIConfig: ui, Duration: elapsed}, nil
}

// readOwned takes a view and copies it before any further call.
func (b *Bridge) readOwned(ctx context.Context, op string, get func(context.Context) (Ptr, error)) (string, error) {
	view, err := b.view(ctx, op, get)
	if err != nil {
		return "", err
	}
	return view.String()
}

func (b *Bridge) view(ctx context.Context, op string, get func(context.Context) (Ptr, error)) (View, error) {
	var data []byte
	err := b.call(op, func() error {
		ptr, err := get(ctx)
		if err != nil {
			return err
		}
		if ptr == Null {
			return nil
		}
		data, err = b.runtime.ReadString(ptr)
		return err
	})
	if err != nil {
		return View{}, err
	}
	return View{data: data, gen: b.generation.Load(), cur: &b.generation}, nil
}

// ConsoleView returns a borrowed view of the last console result. The view
// becomes invalid with the next engine call made through the bridge.
func (b *Bridge) ConsoleView(ctx context.Context) (View, error) {
	release, err := b.acquire(ctx)
	if err != nil {
		return View{}, err
	}
	defer release()

	return b.view(ctx, "getConsoleResult", b.runtime.ConsoleResult)
}

// Close tears the runtime down. Calls made after Close return
// ErrEngineClosed. Close waits for an in-flight call to finish.
func (b *Bridge) Close(ctx context.Context) error {
	select {
	case b.lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-b.lock }()

	if b.closed {
		return nil
	}
	b.closed = true
	b.isReady.Store(false)
	b.metrics.SetEngineReady(false)
	b.generation.Add(1)

	if err := b.runtime.Close(ctx); err != nil {
		return &CallError{Op: "close", Err: err}
	}
	b.logger.Info("engine closed")
	return nil
}
