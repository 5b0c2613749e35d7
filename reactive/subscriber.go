package reactive

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// ErrSecondTerminal is logged when a publisher signals both error and
// completion, or either of them twice.
var ErrSecondTerminal = errors.New("reactive: second terminal signal")

// Tracer is what the wrappers need from the tracer.
type Tracer interface {
	tracer.Tracer
	Logger() logger.Logger
}

// TransactionSubscriber decorates a subscriber so that tx is current while
// each signal is delivered to it.
//
// Every signal runs on a new execution path derived from the signal's
// context: the transaction is activated, the signal forwarded, and the
// activation released even if the delegate panics. On error the transaction
// is filled from the exchange and ended with the error attached. On
// completion it is ended only when terminateOnComplete is set. A terminal
// signal after the first one is dropped with a warning.
type TransactionSubscriber[T any] struct {
	delegate            Subscriber[T]
	tracer              Tracer
	tx                  *tracer.Unit
	exchange            Exchange
	terminateOnComplete bool
	terminated          atomic.Bool
}

func NewTransactionSubscriber[T any](delegate Subscriber[T], t Tracer, tx *tracer.Unit, terminateOnComplete bool, ex Exchange) *TransactionSubscriber[T] {
	return &TransactionSubscriber[T]{
		delegate:            delegate,
		tracer:              t,
		tx:                  tx,
		exchange:            ex,
		terminateOnComplete: terminateOnComplete,
	}
}

func (s *TransactionSubscriber[T]) OnSubscribe(ctx context.Context, sub Subscription) {
	s.around(ctx, func(ctx context.Context) { s.delegate.OnSubscribe(ctx, sub) })
}

func (s *TransactionSubscriber[T]) OnNext(ctx context.Context, v T) {
	s.around(ctx, func(ctx context.Context) { s.delegate.OnNext(ctx, v) })
}

func (s *TransactionSubscriber[T]) OnError(ctx context.Context, err error) {
	if !s.terminate("error", err) {
		return
	}
	defer s.finish(err)
	s.around(ctx, func(ctx context.Context) { s.delegate.OnError(ctx, err) })
}

func (s *TransactionSubscriber[T]) OnComplete(ctx context.Context) {
	if !s.terminate("complete", nil) {
		return
	}
	if s.terminateOnComplete {
		defer s.finish(nil)
	}
	s.around(ctx, func(ctx context.Context) { s.delegate.OnComplete(ctx) })
}

func (s *TransactionSubscriber[T]) terminate(signal string, err error) bool {
	if s.terminated.CompareAndSwap(false, true) {
		return true
	}
	fields := map[string]interface{}{
		"signal":   signal,
		"trace_id": s.tx.TraceID().String(),
		"unit_id":  s.tx.ID().String(),
	}
	if err != nil {
		fields["signal_error"] = err.Error()
	}
	s.tracer.Logger().Warn("ignoring terminal signal after the subscription terminated", ErrSecondTerminal, fields)
	return false
}

// around forwards a signal with tx active. An ended transaction is not
// re-activated; the signal is forwarded as is.
func (s *TransactionSubscriber[T]) around(ctx context.Context, forward func(context.Context)) {
	if s.tx == nil || s.tx.IsEnded() {
		forward(ctx)
		return
	}
	actx, release := s.tracer.Activate(tracer.NewPath(ctx), s.tx)
	defer release()
	forward(actx)
}

// finish runs after the signal's activation was released. A transaction
// that an inner wrapper already ended is left alone.
func (s *TransactionSubscriber[T]) finish(err error) {
	tx := s.tx
	if tx == nil || tx.IsEnded() {
		return
	}
	func() {
		defer s.tracer.Recover("reactive_finish")
		if s.exchange == nil {
			tx.CaptureException(err)
			return
		}
		if err != nil && IsNoRoute(err) {
			tx.OverrideName(tracer.UnknownRouteName(s.exchange.Method()), tracer.PriorityHighLevelFramework)
		}
		s.exchange.FillRequest(tx)
		fillResponse(tx, s.exchange, err)
		tx.CaptureException(err)
	}()
	tx.End()
}

// fillResponse prefers the exchange status, then the status carried by err,
// then 500 for any other error and 200 otherwise.
func fillResponse(tx *tracer.Unit, ex Exchange, err error) {
	status := ex.StatusCode()
	if status == 0 {
		status = StatusOf(err)
	}
	if status == 0 {
		status = http.StatusOK
		if err != nil {
			status = http.StatusInternalServerError
		}
	}
	tx.WithResultIfUnset(tracer.ResultFromHTTPStatus(status))
	tx.Context().Response().
		WithFinished(true).
		WithStatusCode(status)
}
