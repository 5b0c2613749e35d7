package tracer

import (
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Kind distinguishes transactions from spans. Both share the Unit struct.
type Kind int

const (
	KindTransaction Kind = iota
	KindSpan
)

func (k Kind) String() string {
	if k == KindSpan {
		return "span"
	}
	return "transaction"
}

// MarshalText encodes the kind as "transaction" or "span".
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type unitState int

const (
	stateOpen unitState = iota
	stateEnding
	stateEnded
)

// Unit is a tracked unit of work: a transaction or a span inside one.
//
// All methods are safe for concurrent use and tolerate a nil receiver, so
// instrumentation can call them without checking what StartSpan returned.
// Once End has run, mutators are ignored.
type Unit struct {
	kind   Kind
	tracer *TracerClient

	traceID      trace.TraceID
	id           trace.SpanID
	parentID     trace.SpanID
	remoteParent bool
	parent       *Unit
	transaction  *Unit

	// activations counts entries across all execution paths; paths is keyed
	// by path token. Both, and purged, are guarded by the tracer's registry
	// lock. A purged unit is never pushed again.
	activations atomic.Int32
	paths       map[pathToken]int
	purged      bool

	mu                    sync.Mutex
	state                 unitState
	name                  string
	named                 bool
	namingPriority        Priority
	typ                   string
	result                string
	explicitResult        bool
	overrideStatusOnError bool
	err                   error
	ignored               bool
	start                 time.Time
	duration              time.Duration
	fillers               []func(*Unit)
	children              []*Unit
	context               *TransactionContext
}

// mutate runs fn under the unit lock unless the unit has ended.
func (u *Unit) mutate(op string, fn func()) (applied bool) {
	if u == nil {
		return false
	}
	defer u.tracer.Recover(op)

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state == stateEnded {
		u.tracer.logger.Debug("ignoring mutation of ended unit", ErrEndedUnit, u.logFields(op))
		return false
	}
	fn()
	return true
}

func (u *Unit) read(fn func()) {
	if u == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	fn()
}

// logFields must not take the unit lock.
func (u *Unit) logFields(op string) map[string]interface{} {
	return map[string]interface{}{
		"operation": op,
		"kind":      u.kind.String(),
		"trace_id":  u.traceID.String(),
		"unit_id":   u.id.String(),
	}
}

func (u *Unit) Kind() Kind {
	if u == nil {
		return KindTransaction
	}
	return u.kind
}

func (u *Unit) TraceID() trace.TraceID {
	if u == nil {
		return trace.TraceID{}
	}
	return u.traceID
}

func (u *Unit) ID() trace.SpanID {
	if u == nil {
		return trace.SpanID{}
	}
	return u.id
}

// ParentID is the parent span's ID, or the remote caller's span ID for a
// transaction continuing an incoming trace. It is zero for a root transaction.
func (u *Unit) ParentID() trace.SpanID {
	if u == nil {
		return trace.SpanID{}
	}
	return u.parentID
}

// Parent is the local parent unit; nil for transactions.
func (u *Unit) Parent() *Unit {
	if u == nil {
		return nil
	}
	return u.parent
}

// Transaction returns the transaction the unit belongs to; a transaction
// returns itself.
func (u *Unit) Transaction() *Unit {
	if u == nil {
		return nil
	}
	return u.transaction
}

// SpanContext expresses the unit's identity as an OpenTelemetry span context.
func (u *Unit) SpanContext() trace.SpanContext {
	if u == nil {
		return trace.SpanContext{}
	}
	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    u.traceID,
		SpanID:     u.id,
		TraceFlags: trace.FlagsSampled,
	})
}

// ActivationDepth is the number of activations of u not yet deactivated,
// summed over every execution path.
func (u *Unit) ActivationDepth() int {
	if u == nil {
		return 0
	}
	return int(u.activations.Load())
}

func (u *Unit) Name() (name string) {
	u.read(func() { name = u.name })
	return name
}

func (u *Unit) NamingPriority() (p Priority) {
	u.read(func() { p = u.namingPriority })
	return p
}

func (u *Unit) Type() (typ string) {
	u.read(func() { typ = u.typ })
	return typ
}

func (u *Unit) Result() (result string) {
	u.read(func() { result = u.result })
	return result
}

// Err returns the captured application error, if any.
func (u *Unit) Err() (err error) {
	u.read(func() { err = u.err })
	return err
}

// ErrorCaptured reports whether CaptureException stored an error.
func (u *Unit) ErrorCaptured() bool {
	return u.Err() != nil
}

func (u *Unit) IsIgnored() (ignored bool) {
	u.read(func() { ignored = u.ignored })
	return ignored
}

func (u *Unit) IsEnded() (ended bool) {
	u.read(func() { ended = u.state == stateEnded })
	return ended
}

// Timestamp is the start time.
func (u *Unit) Timestamp() (ts time.Time) {
	u.read(func() { ts = u.start })
	return ts
}

// Duration is zero until the unit has ended.
func (u *Unit) Duration() (d time.Duration) {
	u.read(func() { d = u.duration })
	return d
}

// Context returns the transaction's request/response/user context. Spans
// have none and return nil; the nil context accepts and drops every call.
func (u *Unit) Context() *TransactionContext {
	if u == nil {
		return nil
	}
	return u.context
}

// WithType sets the free-form type, e.g. "request".
func (u *Unit) WithType(typ string) *Unit {
	u.mutate("with_type", func() { u.typ = typ })
	return u
}

// WithResultIfUnset sets the result unless one is already present.
func (u *Unit) WithResultIfUnset(result string) *Unit {
	u.mutate("with_result_if_unset", func() {
		if u.result == "" {
			u.result = result
		}
	})
	return u
}

// WithResult forces the result. An explicit result also suppresses the
// status override on error.
func (u *Unit) WithResult(result string) *Unit {
	u.mutate("with_result", func() {
		u.result = result
		u.explicitResult = true
	})
	return u
}

// WithStatusOverrideOnError asks End to turn a 200 status into 500 when an
// error was captured and no explicit result was set.
func (u *Unit) WithStatusOverrideOnError(override bool) *Unit {
	u.mutate("with_status_override", func() { u.overrideStatusOnError = override })
	return u
}

// CaptureException records err on the unit. The first captured error wins;
// nil is ignored.
func (u *Unit) CaptureException(err error) *Unit {
	if err == nil {
		return u
	}
	u.mutate("capture_exception", func() {
		if u.err == nil {
			u.err = err
		}
	})
	return u
}

// IgnoreTransaction excludes the unit from reporting. It still ends and
// releases its activations normally.
func (u *Unit) IgnoreTransaction() *Unit {
	u.mutate("ignore", func() { u.ignored = true })
	return u
}

// BeforeEnd queues fn to run at the start of End, before the result and
// default name are computed. fn may call any mutator.
func (u *Unit) BeforeEnd(fn func(u *Unit)) *Unit {
	if fn == nil {
		return u
	}
	u.mutate("before_end", func() { u.fillers = append(u.fillers, fn) })
	return u
}

func (u *Unit) addChild(child *Unit) bool {
	return u.mutate("add_child", func() { u.children = append(u.children, child) })
}

// removeChild runs after the transaction may have ended, so it bypasses mutate.
func (u *Unit) removeChild(child *Unit) {
	u.read(func() {
		for i, c := range u.children {
			if c == child {
				u.children = append(u.children[:i], u.children[i+1:]...)
				return
			}
		}
	})
}
