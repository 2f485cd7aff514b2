package app

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"

	"patternweb/playground/pkg/config"
	"patternweb/playground/pkg/engine"
	"patternweb/playground/pkg/history"
	"patternweb/playground/pkg/source"
	"patternweb/playground/pkg/telemetry/metrics"
	"patternweb/playground/pkg/telemetry/tracing"
)

// Deps are the process-wide services a controller built from configuration
// shares with the rest of the program.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer

	// DeepLink is passed through to Options.DeepLink.
	DeepLink url.Values
}

// NewFromConfig builds a controller and everything it owns from cfg.
func NewFromConfig(cfg *config.Config, deps Deps) (*Controller, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rt, err := NewRuntime(cfg.Engine, logger)
	if err != nil {
		return nil, err
	}
	bridge := engine.NewBridge(rt, engine.Options{
		Logger:  logger,
		Metrics: deps.Metrics,
		Tracer:  deps.Tracer,
		Backend: cfg.Engine.Backend,
	})

	opts := Options{
		Logger:   logger,
		Metrics:  deps.Metrics,
		Tracer:   deps.Tracer,
		Store:    source.NewStore(),
		Gist:     source.NewGistFetcher(cfg.Source.Gist),
		DeepLink: deps.DeepLink,
	}

	if cfg.History.Enabled {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return nil, fmt.Errorf("failed to create history store: %w", err)
		}
		opts.History = store
		if cfg.History.MaxRecords > 0 {
			pruner := history.NewPruner(store, cfg.History.MaxRecords, logger)
			opts.Scheduler = history.NewScheduler(pruner, cfg.History.PruneSchedule)
		}
	}

	if cfg.Source.PatternFile != "" {
		if cfg.Source.Watch {
			w, err := source.NewFileWatcher(cfg.Source.PatternFile, opts.Store, cfg.Source.WatchDebounce, logger)
			if err != nil {
				if opts.History != nil {
					opts.History.Close()
				}
				return nil, err
			}
			opts.Watcher = w
		} else {
			if err := loadPatternFile(opts.Store, cfg.Source.PatternFile); err != nil {
				logger.Warn("pattern file not loaded", "path", cfg.Source.PatternFile, "error", err)
			}
		}
	}

	return New(bridge, opts), nil
}

func loadPatternFile(store *source.Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pattern file: %w", err)
	}
	store.Set(string(data), source.OriginLocalFile)
	return nil
}
