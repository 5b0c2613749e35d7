package tracer

import (
	"crypto/rand"

	"go.opentelemetry.io/otel/trace"
)

// NewTraceID returns a random, valid trace ID. Every bit is random, unlike a
// version 4 UUID which fixes six of them.
func NewTraceID() trace.TraceID {
	var id trace.TraceID
	for !id.IsValid() {
		_, _ = rand.Read(id[:])
	}
	return id
}

// NewSpanID returns a random, valid span ID.
func NewSpanID() trace.SpanID {
	var id trace.SpanID
	for !id.IsValid() {
		_, _ = rand.Read(id[:])
	}
	return id
}
