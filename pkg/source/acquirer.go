package source

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"patternweb/playground/pkg/engine"
	"patternweb/playground/pkg/telemetry/metrics"
	"patternweb/playground/pkg/telemetry/tracing"
)

// Strategy names a deep-link resolution strategy.
type Strategy string

const (
	StrategyGist     Strategy = "gist"
	StrategyURLParam Strategy = "url-param"
	StrategyNone     Strategy = "none"
)

// Deep-link query parameters.
const (
	ParamGist = "gist"
	ParamCode = "code"
)

// Loader is the part of the engine bridge a file pick drives.
type Loader interface {
	LoadBinaryData(ctx context.Context, data []byte) error
	Execute(ctx context.Context, source string) (engine.Result, error)
}

// Options holds optional collaborators of an Acquirer.
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Collector
	Tracer  *tracing.Tracer
}

// Acquirer resolves pattern source text and hands picked data files to the
// engine.
type Acquirer struct {
	store   *Store
	loader  Loader
	gist    GistFetcher
	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
}

// NewAcquirer creates an acquirer. gist may be nil, in which case gist deep
// links are ignored.
func NewAcquirer(store *Store, loader Loader, gist GistFetcher, opts Options) *Acquirer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Acquirer{
		store:   store,
		loader:  loader,
		gist:    gist,
		logger:  logger.With("component", "source"),
		metrics: opts.Metrics,
		tracer:  opts.Tracer,
	}
}

// Store returns the source store the acquirer writes to.
func (a *Acquirer) Store() *Store {
	return a.store
}

// FromLocalFile loads data into the engine and immediately executes the
// source current at that moment against it. It returns the source snapshot
// that was executed. Callers that share the engine must serialize calls.
func (a *Acquirer) FromLocalFile(ctx context.Context, name string, data []byte) (PatternSource, engine.Result, error) {
	ctx, span := a.tracer.Start(ctx, "source.local_file")
	defer span.End()

	start := time.Now()
	src := a.store.Current()
	tracing.SetSourceAttributes(span, string(src.Origin), name, len(data))

	if err := a.loader.LoadBinaryData(ctx, data); err != nil {
		a.metrics.RecordAcquisition(string(OriginLocalFile), "error", time.Since(start))
		tracing.SetError(span, err)
		return src, engine.Result{}, err
	}

	res, err := a.loader.Execute(ctx, src.Content)
	status := "success"
	if err != nil {
		status = "error"
	}
	a.metrics.RecordAcquisition(string(OriginLocalFile), status, time.Since(start))
	tracing.SetStatus(span, err)

	a.logger.DebugContext(ctx, "data file executed",
		"file", name,
		"bytes", len(data),
		"source_origin", src.Origin,
		"error", err,
	)
	return src, res, err
}

// FromGist fetches the first file of gist id and makes it the current
// source. Failures leave the current source untouched and are only logged.
func (a *Acquirer) FromGist(ctx context.Context, id string) bool {
	if a.gist == nil {
		a.logger.DebugContext(ctx, "gist deep link ignored, no fetcher configured", "gist_id", id)
		return false
	}

	ctx, span := a.tracer.Start(ctx, "source.gist")
	defer span.End()
	tracing.SetGistAttributes(span, id, a.gist.Transport())

	start := time.Now()
	file, err := a.gist.Fetch(ctx, id)
	if err != nil {
		a.metrics.RecordAcquisition(string(StrategyGist), "error", time.Since(start))
		tracing.SetError(span, err)
		a.logger.WarnContext(ctx, "gist fetch failed", "gist_id", id, "transport", a.gist.Transport(), "error", err)
		return false
	}

	a.store.Set(file.Content, OriginGist)
	a.metrics.RecordAcquisition(string(StrategyGist), "success", time.Since(start))
	tracing.SetSourceAttributes(span, string(OriginGist), file.Name, len(file.Content))
	a.logger.InfoContext(ctx, "pattern source loaded from gist",
		"gist_id", id,
		"file", file.Name,
		"bytes", len(file.Content),
	)
	return true
}

// FromURLParam decodes a code deep-link value and makes it the current
// source. A malformed value is a no-op.
func (a *Acquirer) FromURLParam(code string) bool {
	start := time.Now()
	text, err := DecodeURLParam(code)
	if err != nil {
		a.metrics.RecordAcquisition(string(StrategyURLParam), "error", time.Since(start))
		a.logger.Debug("code deep link could not be decoded", "error", err)
		return false
	}

	a.store.Set(text, OriginURLParam)
	a.metrics.RecordAcquisition(string(StrategyURLParam), "success", time.Since(start))
	a.logger.Info("pattern source loaded from url parameter", "bytes", len(text))
	return true
}

// ResolveDeepLink runs at most one strategy: gist, then code, then none.
// A parameter selects its strategy by presence, so an empty gist still
// blocks code and an empty code sets an empty source.
// It reports which strategy ran and whether it set the source.
func (a *Acquirer) ResolveDeepLink(ctx context.Context, query url.Values) (Strategy, bool) {
	if query.Has(ParamGist) {
		return StrategyGist, a.FromGist(ctx, query.Get(ParamGist))
	}
	if query.Has(ParamCode) {
		return StrategyURLParam, a.FromURLParam(query.Get(ParamCode))
	}
	return StrategyNone, false
}

// SetFromEditor makes text the current source.
func (a *Acquirer) SetFromEditor(text string) PatternSource {
	return a.store.Set(text, OriginEditor)
}
