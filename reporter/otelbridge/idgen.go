package otelbridge

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/aalemi-dev/apm-lab/tracer"
)

type eventKey struct{}

// eventIDs makes the SDK reuse the IDs the agent already assigned, so the
// exported span has the same trace and span ID as the reported unit. Spans
// started without an event get random IDs.
type eventIDs struct{}

func withEvent(ctx context.Context, ev *tracer.Event) context.Context {
	return context.WithValue(ctx, eventKey{}, ev)
}

func eventFrom(ctx context.Context) *tracer.Event {
	ev, _ := ctx.Value(eventKey{}).(*tracer.Event)
	return ev
}

func (eventIDs) NewIDs(ctx context.Context) (trace.TraceID, trace.SpanID) {
	if ev := eventFrom(ctx); ev != nil && ev.TraceID.IsValid() && ev.ID.IsValid() {
		return ev.TraceID, ev.ID
	}
	return tracer.NewTraceID(), tracer.NewSpanID()
}

func (eventIDs) NewSpanID(ctx context.Context, traceID trace.TraceID) trace.SpanID {
	if ev := eventFrom(ctx); ev != nil && ev.ID.IsValid() {
		return ev.ID
	}
	return tracer.NewSpanID()
}
