// Package telemetry groups the observability packages of the playground.
//
// # Components
//
//   - logging: slog construction, run/request/session context fields and
//     secret redaction
//   - metrics: Prometheus collectors for executions, source acquisition
//     and engine readiness
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
//   - health: liveness, readiness (engine gate) and version endpoints
//
// # Usage
//
//	logger, _ := logging.New(logging.Config{Level: "info", Format: "json"})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	tracer, _ := tracing.New(&cfg.Telemetry.Tracing, version)
//	defer tracer.Shutdown(context.Background())
//
// A nil *metrics.Collector and a nil *tracing.Tracer are valid and record
// nothing, so library code and tests can leave them out.
//
// # Secret Redaction
//
// Gist tokens and other credentials are masked before they reach a log
// handler:
//
//	ghp_abc123... → gh*_***
//	Authorization: Bearer abc → Authorization: Bearer ***
package telemetry
