// Package tracing provides OpenTelemetry tracing for the playground.
//
// When enabled, spans are exported to an OTLP gRPC collector:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    sampler: ratio
//	    sample_ratio: 0.1
//
// Spans cover HTTP requests (HTTPMiddleware), source acquisition, gist
// fetches, data loads and executions. A nil or disabled *Tracer hands out
// noop spans.
package tracing
