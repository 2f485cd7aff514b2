package app

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"patternweb/playground/pkg/console"
	"patternweb/playground/pkg/engine"
	"patternweb/playground/pkg/history"
	"patternweb/playground/pkg/source"
	"patternweb/playground/pkg/telemetry/logging"
	"patternweb/playground/pkg/telemetry/metrics"
	"patternweb/playground/pkg/telemetry/tracing"
)

// NoFileLabel is shown until a data file is picked.
const NoFileLabel = "No file selected"

// Options holds the optional collaborators of a Controller.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer

	// Store holds the current pattern source. A new one is created when nil.
	Store *source.Store

	// Gist fetches gist deep links. Gist links are ignored when nil.
	Gist source.GistFetcher

	// History records executions. Nothing is recorded when nil.
	History history.Store

	// Scheduler prunes History in the background.
	Scheduler *history.Scheduler

	// Watcher keeps a pattern file on disk in sync with Store.
	Watcher *source.FileWatcher

	// DeepLink is resolved by Start as if the page had been mounted with it.
	DeepLink url.Values
}

// Outcome is what one execution produced.
type Outcome struct {
	RunID    string         `json:"run_id"`
	Lines    []console.Line `json:"lines"`
	UIConfig string         `json:"ui_config,omitempty"`
	Duration time.Duration  `json:"duration_ns"`

	// Err is set when the bridge itself failed. It is also shown as an
	// [ERROR] line.
	Err error `json:"-"`
}

// State is a snapshot for the UI.
type State struct {
	Label        string         `json:"label"`
	SourceOrigin source.Origin  `json:"source_origin"`
	SourceBytes  int            `json:"source_bytes"`
	EngineReady  bool           `json:"engine_ready"`
	EngineError  string         `json:"engine_error,omitempty"`
	Lines        []console.Line `json:"lines"`
}

// Controller wires the acquirer, the engine bridge and the console feed for
// one session.
type Controller struct {
	bridge    *engine.Bridge
	store     *source.Store
	acquirer  *source.Acquirer
	feed      *console.Feed
	history   history.Store
	scheduler *history.Scheduler
	watcher   *source.FileWatcher

	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer

	deepLink     url.Values
	mountOnce    sync.Once
	deepLinkDone chan struct{}

	// runMu serializes executions so a load and its execute are never
	// split by another trigger.
	runMu sync.Mutex

	mu    sync.RWMutex
	label string

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a controller around bridge. Nothing runs until Start.
func New(bridge *engine.Bridge, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := opts.Store
	if store == nil {
		store = source.NewStore()
	}

	c := &Controller{
		bridge:       bridge,
		store:        store,
		feed:         console.NewFeed(),
		history:      opts.History,
		scheduler:    opts.Scheduler,
		watcher:      opts.Watcher,
		logger:       logger.With("component", "app"),
		metrics:      opts.Metrics,
		tracer:       opts.Tracer,
		deepLink:     opts.DeepLink,
		deepLinkDone: make(chan struct{}),
		label:        NoFileLabel,
		cancel:       func() {},
	}
	c.acquirer = source.NewAcquirer(store, bridge, opts.Gist, source.Options{
		Logger:  logger,
		Metrics: opts.Metrics,
		Tracer:  opts.Tracer,
	})
	return c
}

// Start begins engine initialization and the background services. It
// never blocks on any of them.
func (c *Controller) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.bridge.Start(ctx)

	if c.watcher != nil {
		if err := c.watcher.Load(); err != nil {
			c.logger.Warn("initial pattern file load failed", "error", err)
		}
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := c.watcher.Watch(ctx); err != nil {
				c.logger.Error("pattern file watcher stopped", "error", err)
			}
		}()
	}

	if c.scheduler != nil {
		if err := c.scheduler.Start(ctx); err != nil {
			cancel()
			return err
		}
	}

	if len(c.deepLink) > 0 {
		c.Mount(ctx, c.deepLink)
	}
	return nil
}

// Mount handles the first page mount of the session: at most one deep-link
// strategy is resolved, in the background. Later mounts do nothing.
func (c *Controller) Mount(ctx context.Context, query url.Values) {
	c.mountOnce.Do(func() {
		// Resolution outlives the request that mounted the page.
		ctx := context.WithoutCancel(ctx)
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			defer close(c.deepLinkDone)
			strategy, ok := c.acquirer.ResolveDeepLink(ctx, query)
			c.logger.Debug("deep link resolved", "strategy", strategy, "applied", ok)
		}()
	})
}

// DeepLinkDone is closed once the mount's deep-link resolution finished.
// It stays open if the session was never mounted.
func (c *Controller) DeepLinkDone() <-chan struct{} {
	return c.deepLinkDone
}

// PickFile handles a data file pick: the label changes to name, the data is
// loaded, and the current source runs against it.
func (c *Controller) PickFile(ctx context.Context, name string, data []byte) Outcome {
	ctx, span := c.tracer.Start(ctx, "app.pick_file")
	defer span.End()

	c.runMu.Lock()
	defer c.runMu.Unlock()

	c.mu.Lock()
	c.label = name
	c.mu.Unlock()

	record := history.NewRecord("", name, "", data)
	ctx = logging.WithRunID(ctx, record.ID)

	src, res, err := c.acquirer.FromLocalFile(ctx, name, data)
	record.SetSource(string(src.Origin), src.Content)
	out := c.finish(ctx, record, src.Origin, res, err)
	tracing.SetConsoleAttributes(span, len(out.Lines), console.Counts(out.Lines)[console.SeverityError])
	tracing.SetStatus(span, err)
	return out
}

// SetEditorSource makes text the current source.
func (c *Controller) SetEditorSource(text string) source.PatternSource {
	return c.acquirer.SetFromEditor(text)
}

// Source returns the current source.
func (c *Controller) Source() source.PatternSource {
	return c.store.Current()
}

// Rerun executes the current source against the data the engine already
// holds.
func (c *Controller) Rerun(ctx context.Context) Outcome {
	ctx, span := c.tracer.Start(ctx, "app.rerun")
	defer span.End()

	c.runMu.Lock()
	defer c.runMu.Unlock()

	src := c.store.Current()
	record := history.NewRecord(string(src.Origin), c.Label(), src.Content, nil)
	ctx = logging.WithRunID(ctx, record.ID)

	res, err := c.bridge.Execute(ctx, src.Content)
	out := c.finish(ctx, record, src.Origin, res, err)
	tracing.SetStatus(span, err)
	return out
}

// finish renders the result, records it and updates metrics.
func (c *Controller) finish(ctx context.Context, record *history.Record, origin source.Origin, res engine.Result, err error) Outcome {
	raw := res.Console
	status := "success"
	if err != nil {
		raw = "[ERROR] " + err.Error()
		status = "error"
		c.logger.ErrorContext(ctx, "execution failed", "error", err)
	}
	lines := c.feed.Replace(raw)

	counts := make(map[string]int)
	for sev, n := range console.Counts(lines) {
		counts[string(sev)] = n
	}
	c.metrics.RecordExecution(string(origin), status, res.Duration, counts)

	record.Finish(counts, err)
	if c.history != nil {
		if herr := c.history.Insert(ctx, record); herr != nil {
			c.logger.WarnContext(ctx, "failed to record run", "error", herr)
		}
	}

	c.logger.InfoContext(ctx, "execution finished",
		"origin", origin,
		"status", status,
		"lines", len(lines),
		"errors", counts[string(console.SeverityError)],
		"duration", res.Duration,
	)
	return Outcome{
		RunID:    record.ID,
		Lines:    lines,
		UIConfig: res.UIConfig,
		Duration: res.Duration,
		Err:      err,
	}
}

// Label returns the picked file name.
func (c *Controller) Label() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.label
}

// Lines returns the console feed.
func (c *Controller) Lines() []console.Line {
	return c.feed.Lines()
}

// History returns up to limit recent runs, newest first.
func (c *Controller) History(ctx context.Context, limit int) ([]*history.Record, error) {
	if c.history == nil {
		return []*history.Record{}, nil
	}
	return c.history.List(ctx, limit)
}

// Bridge returns the engine bridge.
func (c *Controller) Bridge() *engine.Bridge {
	return c.bridge
}

// State returns a snapshot for the UI.
func (c *Controller) State() State {
	src := c.store.Current()
	st := State{
		Label:        c.Label(),
		SourceOrigin: src.Origin,
		SourceBytes:  len(src.Content),
		EngineReady:  c.bridge.Ready(),
		Lines:        c.feed.Lines(),
	}
	if err := c.bridge.InitErr(); err != nil {
		st.EngineError = err.Error()
	}
	return st
}

// Close stops background work and tears down the engine and the history.
func (c *Controller) Close(ctx context.Context) error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		if c.watcher != nil {
			if werr := c.watcher.Stop(); werr != nil {
				c.logger.Warn("failed to stop watcher", "error", werr)
			}
		}
		if c.scheduler != nil {
			c.scheduler.Stop()
		}
		c.wg.Wait()

		err = c.bridge.Close(ctx)
		if c.history != nil {
			if herr := c.history.Close(); herr != nil && err == nil {
				err = herr
			}
		}
		c.logger.Info("session closed")
	})
	return err
}
