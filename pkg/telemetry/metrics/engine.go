package metrics

import (
	"patternweb/playground/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics tracks the engine boundary.
//
// Metrics:
//   - playground_engine_ready: 1 when the engine passed its readiness gate
//   - playground_engine_calls_total: calls by operation and status
type EngineMetrics struct {
	ready      prometheus.Gauge
	callsTotal *prometheus.CounterVec
}

// NewEngineMetrics creates and registers engine metrics with the provided registry.
func NewEngineMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *EngineMetrics {
	em := &EngineMetrics{
		ready: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "ready",
				Help:      "Whether the engine is initialized (1) or not (0)",
			},
		),

		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "engine",
				Name:      "calls_total",
				Help:      "Total number of calls into the engine",
			},
			[]string{"op", "status"},
		),
	}

	registry.MustRegister(em.ready, em.callsTotal)

	return em
}

// SetReady updates the readiness gauge.
func (em *EngineMetrics) SetReady(ready bool) {
	if ready {
		em.ready.Set(1)
	} else {
		em.ready.Set(0)
	}
}

// RecordCall records one engine call.
func (em *EngineMetrics) RecordCall(op, status string) {
	em.callsTotal.WithLabelValues(op, status).Inc()
}
