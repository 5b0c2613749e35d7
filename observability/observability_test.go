package observability_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aalemi-dev/apm-lab/observability"
)

type recordingObserver struct {
	mu  sync.Mutex
	ops []observability.OperationContext
}

func (r *recordingObserver) ObserveOperation(ctx observability.OperationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, ctx)
}

func TestNoOpObserver(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		observability.NewNoOpObserver().ObserveOperation(observability.OperationContext{
			Component: observability.ComponentTracer,
			Operation: "transaction_end",
		})
	})
}

func TestObserverFunc(t *testing.T) {
	t.Parallel()
	var got observability.OperationContext
	obs := observability.ObserverFunc(func(ctx observability.OperationContext) { got = ctx })

	obs.ObserveOperation(observability.OperationContext{
		Component:   observability.ComponentTracer,
		Operation:   "transaction_end",
		Resource:    "transaction",
		SubResource: "HTTP 2xx",
		Duration:    15 * time.Millisecond,
	})

	assert.Equal(t, "HTTP 2xx", got.SubResource)
	assert.Equal(t, 15*time.Millisecond, got.Duration)
}

func TestMulti(t *testing.T) {
	t.Parallel()
	a, b := &recordingObserver{}, &recordingObserver{}
	obs := observability.Multi(a, nil, b)

	obs.ObserveOperation(observability.OperationContext{Operation: "drop", Error: errors.New("queue full")})

	assert.Len(t, a.ops, 1)
	assert.Len(t, b.ops, 1)
	assert.EqualError(t, b.ops[0].Error, "queue full")
}

func TestMulti_Collapses(t *testing.T) {
	t.Parallel()
	a := &recordingObserver{}
	assert.Same(t, observability.Observer(a), observability.Multi(nil, a))
	assert.IsType(t, &observability.NoOpObserver{}, observability.Multi())
}

func TestObserve_NilObserver(t *testing.T) {
	t.Parallel()
	assert.NotPanics(t, func() {
		observability.Observe(nil, observability.OperationContext{})
	})
	r := &recordingObserver{}
	observability.Observe(r, observability.OperationContext{Operation: "report"})
	assert.Len(t, r.ops, 1)
}
