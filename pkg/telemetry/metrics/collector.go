package metrics

import (
	"time"

	"patternweb/playground/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector owns every Prometheus metric of the playground and the registry
// they are registered with.
//
// All methods are safe to call on a nil *Collector, which records nothing.
// Components therefore take a *Collector without caring whether metrics are
// enabled.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	executionMetrics *ExecutionMetrics
	sourceMetrics    *SourceMetrics
	engineMetrics    *EngineMetrics
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "playground",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	if len(cfg.ExecutionDurationBuckets) == 0 {
		cfg.ExecutionDurationBuckets = append([]float64(nil), config.DefaultExecutionDurationBuckets...)
	}

	return &Collector{
		config:           cfg,
		registry:         registry,
		executionMetrics: NewExecutionMetrics(cfg, registry),
		sourceMetrics:    NewSourceMetrics(cfg, registry),
		engineMetrics:    NewEngineMetrics(cfg, registry),
	}
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordExecution records a completed pattern execution.
//
// Parameters:
//   - origin: where the executed source came from ("local-file", "gist", ...)
//   - status: "success" or "error"
//   - duration: time spent inside the engine
//   - counts: console lines per severity
func (c *Collector) RecordExecution(origin, status string, duration time.Duration, counts map[string]int) {
	if !c.enabled() {
		return
	}

	c.executionMetrics.RecordExecution(origin, status, duration)
	for severity, n := range counts {
		c.executionMetrics.RecordConsoleLines(severity, n)
	}
}

// RecordDataLoad records a binary data transfer into the engine.
func (c *Collector) RecordDataLoad(sizeBytes int, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.executionMetrics.RecordDataLoad(sizeBytes, duration)
}

// RecordAcquisition records a pattern source acquisition attempt.
//
// Parameters:
//   - strategy: "gist", "url-param", "editor" or "local-file"
//   - status: "success" or "error"
func (c *Collector) RecordAcquisition(strategy, status string, duration time.Duration) {
	if !c.enabled() {
		return
	}

	c.sourceMetrics.RecordAcquisition(strategy, status, duration)
}

// RecordEngineCall records one call across the engine boundary.
func (c *Collector) RecordEngineCall(op, status string) {
	if !c.enabled() {
		return
	}

	c.engineMetrics.RecordCall(op, status)
}

// SetEngineReady updates the readiness gauge (1 = ready, 0 = not ready).
func (c *Collector) SetEngineReady(ready bool) {
	if !c.enabled() {
		return
	}

	c.engineMetrics.SetReady(ready)
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}
