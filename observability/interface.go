package observability

import "time"

// Observer receives a notification for every completed agent operation.
// Packages never require one; a nil Observer means "not observed".
type Observer interface {
	// ObserveOperation is called once the operation has completed.
	ObserveOperation(ctx OperationContext)
}

// Component names used by the agent's packages.
const (
	ComponentTracer   = "tracer"
	ComponentReporter = "reporter"
	ComponentKafka    = "kafka"
	ComponentOTel     = "otel"
	ComponentHTTP     = "http"
)

// OperationContext describes one completed operation.
type OperationContext struct {
	// Component is the package that performed the operation, e.g. "tracer".
	Component string

	// Operation is what happened.
	// Examples:
	//   tracer:   "transaction_end", "span_end", "activation_mismatch", "internal_error"
	//   reporter: "report", "drop"
	//   kafka:    "produce"
	Operation string

	// Resource is the primary subject.
	// Examples:
	//   tracer: the unit kind ("transaction", "span")
	//   kafka:  the topic
	Resource string

	// SubResource gives extra context such as the result ("HTTP 2xx") or a
	// drop reason ("queue_full").
	SubResource string

	// Duration of the operation or, for end events, of the unit.
	Duration time.Duration

	// Error is the operation's error, nil on success.
	Error error

	// Size is the payload size in bytes or an item count.
	Size int64

	// Metadata holds anything that does not fit above.
	Metadata map[string]interface{}
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx OperationContext)

// ObserveOperation calls f.
func (f ObserverFunc) ObserveOperation(ctx OperationContext) { f(ctx) }
