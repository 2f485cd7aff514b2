package metrics

import (
	"time"

	"patternweb/playground/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// SourceMetrics tracks pattern source acquisition.
//
// Metrics:
//   - playground_source_acquisitions_total: acquisitions by strategy and status
//   - playground_source_acquisition_duration_seconds: acquisition latency
type SourceMetrics struct {
	acquisitionsTotal   *prometheus.CounterVec
	acquisitionDuration *prometheus.HistogramVec
}

// NewSourceMetrics creates and registers source metrics with the provided registry.
func NewSourceMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *SourceMetrics {
	sm := &SourceMetrics{
		acquisitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "source",
				Name:      "acquisitions_total",
				Help:      "Total number of pattern source acquisitions",
			},
			[]string{"strategy", "status"},
		),

		acquisitionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "source",
				Name:      "acquisition_duration_seconds",
				Help:      "Duration of pattern source acquisitions in seconds",
				Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 15},
			},
			[]string{"strategy"},
		),
	}

	registry.MustRegister(sm.acquisitionsTotal, sm.acquisitionDuration)

	return sm
}

// RecordAcquisition records one acquisition attempt.
func (sm *SourceMetrics) RecordAcquisition(strategy, status string, duration time.Duration) {
	sm.acquisitionsTotal.WithLabelValues(strategy, status).Inc()
	sm.acquisitionDuration.WithLabelValues(strategy).Observe(duration.Seconds())
}
