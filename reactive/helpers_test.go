package reactive

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/tracer"
)

type events struct {
	mu  sync.Mutex
	all []tracer.Event
}

func (e *events) Report(ev tracer.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.all = append(e.all, ev)
}

func (e *events) list() []tracer.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]tracer.Event(nil), e.all...)
}

func (e *events) len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.all)
}

type fixture struct {
	tracer *tracer.TracerClient
	events *events
	logs   *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	rec := &events{}
	tr := tracer.NewClient(tracer.Config{ServiceName: "reactive-test"},
		tracer.WithReporter(rec),
		tracer.WithLogger(logger.NewFromZap(zap.New(core), false)),
	)
	return &fixture{tracer: tr, events: rec, logs: logs}
}

func (f *fixture) warnings() []string {
	var msgs []string
	for _, e := range f.logs.FilterLevelExact(zapcore.WarnLevel).All() {
		msgs = append(msgs, e.Message)
	}
	return msgs
}

// fakeExchange is a fixed request with an optional response status.
type fakeExchange struct {
	method  string
	path    string
	pattern string
	status  int
}

func (e *fakeExchange) Method() string       { return e.method }
func (e *fakeExchange) Path() string         { return e.path }
func (e *fakeExchange) RoutePattern() string { return e.pattern }
func (e *fakeExchange) StatusCode() int      { return e.status }

func (e *fakeExchange) FillRequest(u *tracer.Unit) {
	u.Context().Request().WithMethod(e.method).WithPathname(e.path)
}

// signals emits the given steps synchronously: a value, an error, or
// completion.
type step struct {
	value    int
	err      error
	complete bool
}

func signals(steps ...step) Publisher[int] {
	return PublisherFunc[int](func(ctx context.Context, s Subscriber[int]) {
		s.OnSubscribe(ctx, &cancelFlag{})
		for _, st := range steps {
			switch {
			case st.err != nil:
				s.OnError(ctx, st.err)
			case st.complete:
				s.OnComplete(ctx)
			default:
				s.OnNext(ctx, st.value)
			}
		}
	})
}

// probe records the transaction current at every signal.
type probe struct {
	t       *tracer.TracerClient
	mu      sync.Mutex
	current map[string][]*tracer.Unit
}

func newProbe(t *tracer.TracerClient) *probe {
	return &probe{t: t, current: make(map[string][]*tracer.Unit)}
}

func (p *probe) record(signal string, ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current[signal] = append(p.current[signal], p.t.CurrentTransaction(ctx))
}

func (p *probe) seen(signal string) []*tracer.Unit {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*tracer.Unit(nil), p.current[signal]...)
}

func (p *probe) subscriber() Subscriber[int] {
	return SubscriberFuncs[int]{
		Subscribe: func(ctx context.Context, _ Subscription) { p.record("subscribe", ctx) },
		Next:      func(ctx context.Context, _ int) { p.record("next", ctx) },
		Error:     func(ctx context.Context, _ error) { p.record("error", ctx) },
		Complete:  func(ctx context.Context) { p.record("complete", ctx) },
	}
}

func newRequest(method, target string) *http.Request {
	r, _ := http.NewRequest(method, target, nil)
	return r
}
