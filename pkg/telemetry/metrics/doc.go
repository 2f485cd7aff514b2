// Package metrics exposes Prometheus metrics for the playground.
//
// # Metrics
//
// Executions:
//   - playground_executions_total{origin,status}
//   - playground_execution_duration_seconds{origin}
//   - playground_console_lines_total{severity}
//   - playground_data_load_bytes
//   - playground_data_load_duration_seconds
//
// Sources:
//   - playground_source_acquisitions_total{strategy,status}
//   - playground_source_acquisition_duration_seconds{strategy}
//
// Engine:
//   - playground_engine_ready
//   - playground_engine_calls_total{op,status}
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//	collector.RecordExecution("gist", "success", elapsed, counts)
package metrics
