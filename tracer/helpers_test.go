package tracer

import (
	"sync"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/observability"
)

// recordingReporter keeps every reported event.
type recordingReporter struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingReporter) Report(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingReporter) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// recordingObserver keeps every observed operation.
type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (o *recordingObserver) ObserveOperation(op observability.OperationContext) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op)
}

func (o *recordingObserver) count(operation string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, op := range o.ops {
		if op.Operation == operation {
			n++
		}
	}
	return n
}

type fixture struct {
	tracer   *TracerClient
	reporter *recordingReporter
	observer *recordingObserver
	logs     *observer.ObservedLogs
	clock    fakeClock
}

type fakeClock interface {
	clockz.Clock
	Advance(d time.Duration)
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		reporter: &recordingReporter{},
		observer: &recordingObserver{},
		logs:     logs,
		clock:    clockz.NewFakeClock(),
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "test-service"
	}
	f.tracer = NewClient(cfg,
		WithLogger(logger.NewFromZap(zap.New(core), true)),
		WithReporter(f.reporter),
		WithObserver(f.observer),
		WithClock(f.clock),
	)
	return f
}

func (f *fixture) warnings(msg string) int {
	return f.logs.FilterMessage(msg).FilterLevelExact(zapcore.WarnLevel).Len()
}
