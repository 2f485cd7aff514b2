package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys used on playground spans.
const (
	AttrSourceOrigin   = attribute.Key("playground.source.origin")
	AttrSourceName     = attribute.Key("playground.source.name")
	AttrSourceBytes    = attribute.Key("playground.source.bytes")
	AttrDataBytes      = attribute.Key("playground.data.bytes")
	AttrConsoleLines   = attribute.Key("playground.console.lines")
	AttrConsoleErrors  = attribute.Key("playground.console.errors")
	AttrGistID         = attribute.Key("playground.gist.id")
	AttrGistTransport  = attribute.Key("playground.gist.transport")
	AttrEngineBackend    = attribute.Key("playground.engine.backend")
	AttrEngineGeneration = attribute.Key("playground.engine.generation")
)

// SetSourceAttributes records which pattern source a span worked on.
func SetSourceAttributes(span trace.Span, origin, name string, size int) {
	span.SetAttributes(
		AttrSourceOrigin.String(origin),
		AttrSourceName.String(name),
		AttrSourceBytes.Int(size),
	)
}

// SetConsoleAttributes records the shape of an execution's console output.
func SetConsoleAttributes(span trace.Span, lines, errors int) {
	span.SetAttributes(
		AttrConsoleLines.Int(lines),
		AttrConsoleErrors.Int(errors),
	)
}

// SetGistAttributes records a gist fetch.
func SetGistAttributes(span trace.Span, id, transport string) {
	span.SetAttributes(
		AttrGistID.String(id),
		AttrGistTransport.String(transport),
	)
}
