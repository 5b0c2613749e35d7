package tracer

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/zoobzio/clockz"
	"go.opentelemetry.io/otel/trace"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/matcher"
	"github.com/aalemi-dev/apm-lab/observability"
)

// TracerClient creates units, tracks which unit is active on each execution
// path and finalizes units exactly once.
//
// TracerClient implements the Tracer interface.
type TracerClient struct {
	cfg       Config
	logger    logger.Logger
	observer  observability.Observer
	reporters []Reporter
	clock     clockz.Clock
	agentID   string

	captureContentTypes []*matcher.WildcardMatcher
	urlGroups           []*matcher.WildcardMatcher

	paths registry
}

// Option customizes a TracerClient.
type Option func(*TracerClient)

// WithReporter adds a destination for ended units. It may be given several times.
func WithReporter(r Reporter) Option {
	return func(t *TracerClient) {
		if r != nil {
			t.reporters = append(t.reporters, r)
		}
	}
}

// WithLogger sets the logger used for absorbed violations. The default discards.
func WithLogger(l logger.Logger) Option {
	return func(t *TracerClient) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithObserver sets the hook notified about unit starts, ends and violations.
func WithObserver(o observability.Observer) Option {
	return func(t *TracerClient) { t.observer = o }
}

// WithClock replaces the wall clock, mainly for tests with clockz.NewFakeClock.
func WithClock(c clockz.Clock) Option {
	return func(t *TracerClient) {
		if c != nil {
			t.clock = c
		}
	}
}

// NewClient builds a tracer from cfg.
//
//	t := tracer.NewClient(tracer.Config{ServiceName: "checkout"},
//	    tracer.WithLogger(log),
//	    tracer.WithReporter(collector),
//	)
func NewClient(cfg Config, opts ...Option) *TracerClient {
	cfg = cfg.withDefaults()
	t := &TracerClient{
		cfg:     cfg,
		logger:  logger.NewNop(),
		clock:   clockz.RealClock,
		agentID: uuid.NewString(),
	}
	for _, opt := range opts {
		opt(t)
	}

	t.captureContentTypes = matcher.CompileAll(cfg.CaptureBodyContentTypes)
	t.urlGroups = matcher.CompileAll(cfg.URLGroups)
	return t
}

func (t *TracerClient) Config() Config { return t.cfg }

// AgentID identifies this tracer instance on every Event.
func (t *TracerClient) AgentID() string { return t.agentID }

// Logger returns the tracer's logger so adapters log the same way.
func (t *TracerClient) Logger() logger.Logger { return t.logger }

// CaptureContentTypes are the compiled CaptureBodyContentTypes patterns.
func (t *TracerClient) CaptureContentTypes() []*matcher.WildcardMatcher {
	return t.captureContentTypes
}

// URLGroups are the compiled URLGroups patterns.
func (t *TracerClient) URLGroups() []*matcher.WildcardMatcher {
	return t.urlGroups
}

func (t *TracerClient) StartTransaction(ctx context.Context) *Unit {
	defer t.Recover("start_transaction")
	if ctx == nil {
		ctx = context.Background()
	}

	u := t.newUnit(KindTransaction)
	u.transaction = u
	u.context = newTransactionContext(u)

	if remote := trace.SpanContextFromContext(ctx); remote.IsValid() && remote.IsRemote() {
		u.traceID = remote.TraceID()
		u.parentID = remote.SpanID()
		u.remoteParent = true
	} else {
		u.traceID = NewTraceID()
	}

	t.observe(observabilityOp("transaction_start", u, nil))
	return u
}

func (t *TracerClient) StartSpan(ctx context.Context, name string) *Unit {
	parent := t.Current(ctx)
	if parent == nil {
		t.logger.DebugWithContext(ctx, "no active unit, span not started", nil, map[string]interface{}{
			"span": name,
		})
		return nil
	}
	span := t.CreateSpan(parent)
	span.WithName(name, PriorityUserSupplied)
	return span
}

func (t *TracerClient) CreateSpan(parent *Unit) *Unit {
	if parent == nil {
		return nil
	}
	defer t.Recover("create_span")

	tx := parent.Transaction()
	if parent.IsEnded() || tx.IsEnded() {
		t.logger.Warn("refusing to create a span under an ended unit", ErrEndedUnit, parent.logFields("create_span"))
		return nil
	}

	span := t.newUnit(KindSpan)
	span.traceID = parent.traceID
	span.parentID = parent.id
	span.parent = parent
	span.transaction = tx
	if !tx.addChild(span) {
		return nil
	}
	return span
}

func (t *TracerClient) newUnit(kind Kind) *Unit {
	return &Unit{
		kind:   kind,
		tracer: t,
		id:     NewSpanID(),
		start:  t.clock.Now(),
	}
}

// Recover must be deferred directly by the caller.
func (t *TracerClient) Recover(op string) {
	if r := recover(); r != nil {
		t.handlePanic(op, r)
	}
}

func (t *TracerClient) handlePanic(op string, r interface{}) {
	err := fmt.Errorf("%w: %s: %v", ErrInternal, op, r)
	t.logger.Error("recovered from internal failure", err, map[string]interface{}{
		"operation": op,
		"stack":     string(debug.Stack()),
	})
	observability.Observe(t.observer, observability.OperationContext{
		Component: observability.ComponentTracer,
		Operation: "internal_error",
		Resource:  op,
		Error:     err,
	})
}

func (t *TracerClient) observe(op observability.OperationContext) {
	observability.Observe(t.observer, op)
}

func (t *TracerClient) report(ev Event) {
	for _, r := range t.reporters {
		t.reportTo(r, ev)
	}
}

func (t *TracerClient) reportTo(r Reporter, ev Event) {
	defer t.Recover("report")
	r.Report(ev)
}

func observabilityOp(op string, u *Unit, err error) observability.OperationContext {
	return observability.OperationContext{
		Component: observability.ComponentTracer,
		Operation: op,
		Resource:  u.kind.String(),
		Error:     err,
		Metadata: map[string]interface{}{
			"trace_id": u.traceID.String(),
			"unit_id":  u.id.String(),
		},
	}
}
