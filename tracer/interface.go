package tracer

import (
	"context"
)

// Tracer is the surface framework adapters program against.
//
// This interface is implemented by the concrete *TracerClient type.
type Tracer interface {
	// StartTransaction begins a transaction. When ctx carries a remote
	// OpenTelemetry span context (an incoming traceparent) the transaction
	// continues that trace.
	StartTransaction(ctx context.Context) *Unit

	// StartSpan begins a span under the current unit of ctx. It returns nil
	// when nothing is active.
	StartSpan(ctx context.Context, name string) *Unit

	// CreateSpan begins a span under parent.
	CreateSpan(parent *Unit) *Unit

	Activate(ctx context.Context, u *Unit) (context.Context, func())
	Deactivate(ctx context.Context, u *Unit)
	Current(ctx context.Context) *Unit
	CurrentTransaction(ctx context.Context) *Unit

	// Config returns the effective configuration, defaults applied.
	Config() Config

	// Recover must be deferred directly. It absorbs a panic raised by agent
	// code and logs it under op.
	Recover(op string)
}
