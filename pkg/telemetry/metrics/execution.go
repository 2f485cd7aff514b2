package metrics

import (
	"time"

	"patternweb/playground/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ExecutionMetrics tracks pattern executions and data loads.
//
// Metrics:
//   - playground_executions_total: executions by origin and status
//   - playground_execution_duration_seconds: execution duration histogram
//   - playground_console_lines_total: console lines by severity
//   - playground_data_load_bytes: size of loaded binary data
//   - playground_data_load_duration_seconds: data transfer duration
type ExecutionMetrics struct {
	executionsTotal   *prometheus.CounterVec
	executionDuration *prometheus.HistogramVec
	consoleLines      *prometheus.CounterVec
	dataLoadBytes     prometheus.Histogram
	dataLoadDuration  prometheus.Histogram
}

// NewExecutionMetrics creates and registers execution metrics with the provided registry.
func NewExecutionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ExecutionMetrics {
	em := &ExecutionMetrics{
		executionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "executions_total",
				Help:      "Total number of pattern executions",
			},
			[]string{"origin", "status"},
		),

		executionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "execution_duration_seconds",
				Help:      "Duration of pattern executions in seconds",
				Buckets:   cfg.ExecutionDurationBuckets,
			},
			[]string{"origin"},
		),

		consoleLines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "console_lines_total",
				Help:      "Total number of console lines rendered",
			},
			[]string{"severity"},
		),

		dataLoadBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "data_load_bytes",
				Help:      "Size of binary data loaded into the engine",
				Buckets:   prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to 256MB
			},
		),

		dataLoadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "data_load_duration_seconds",
				Help:      "Duration of binary data transfers into the engine",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}

	registry.MustRegister(
		em.executionsTotal,
		em.executionDuration,
		em.consoleLines,
		em.dataLoadBytes,
		em.dataLoadDuration,
	)

	return em
}

// RecordExecution records a completed execution.
func (em *ExecutionMetrics) RecordExecution(origin, status string, duration time.Duration) {
	em.executionsTotal.WithLabelValues(origin, status).Inc()
	em.executionDuration.WithLabelValues(origin).Observe(duration.Seconds())
}

// RecordConsoleLines adds n lines of the given severity.
func (em *ExecutionMetrics) RecordConsoleLines(severity string, n int) {
	if n > 0 {
		em.consoleLines.WithLabelValues(severity).Add(float64(n))
	}
}

// RecordDataLoad records a data transfer.
func (em *ExecutionMetrics) RecordDataLoad(sizeBytes int, duration time.Duration) {
	em.dataLoadBytes.Observe(float64(sizeBytes))
	em.dataLoadDuration.Observe(duration.Seconds())
}
