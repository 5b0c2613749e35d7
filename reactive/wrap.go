package reactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/aalemi-dev/apm-lab/tracer"
)

// DispatcherWrap keeps tx current for every signal of p without ending it on
// completion. It is meant for the dispatch phase, where an inner HandlerWrap
// owns the end of the transaction.
func DispatcherWrap[T any](p Publisher[T], t Tracer, tx *tracer.Unit, ex Exchange) Publisher[T] {
	return Lift(p, func(s Subscriber[T]) Subscriber[T] {
		return NewTransactionSubscriber(s, t, tx, false, ex)
	})
}

// HandlerWrap keeps tx current for every signal of p and ends it when p
// terminates.
func HandlerWrap[T any](p Publisher[T], t Tracer, tx *tracer.Unit, ex Exchange) Publisher[T] {
	return Lift(p, func(s Subscriber[T]) Subscriber[T] {
		return NewTransactionSubscriber(s, t, tx, true, ex)
	})
}

// SetNameOnComplete names tx after the matched route, or the request path
// when no route matched, once p completes. The name is proposed at the high
// level framework priority before completion is forwarded.
func SetNameOnComplete[T any](p Publisher[T], tx *tracer.Unit, ex Exchange) Publisher[T] {
	return Lift(p, func(s Subscriber[T]) Subscriber[T] {
		return SubscriberFuncs[T]{
			Subscribe: s.OnSubscribe,
			Next:      s.OnNext,
			Error:     s.OnError,
			Complete: func(ctx context.Context) {
				if name := routeName(ex); name != "" {
					tx.WithName(name, tracer.PriorityHighLevelFramework)
				}
				s.OnComplete(ctx)
			},
		}
	})
}

func routeName(ex Exchange) string {
	if ex == nil {
		return ""
	}
	name := ex.RoutePattern()
	if name == "" {
		name = ex.Path()
	}
	if name == "" {
		return ""
	}
	if !strings.Contains(name, " ") && ex.Method() != "" {
		name = ex.Method() + " " + name
	}
	return name
}

// Handle runs handler with a transaction current and returns its publisher.
//
// When ctx already has a current transaction the handler runs under it and
// its publisher is returned untouched. Otherwise a transaction is started,
// active while handler runs, and the returned publisher is wrapped with
// SetNameOnComplete and HandlerWrap so that it ends with the stream. A
// handler that panics ends the transaction with the panic as its error
// before the panic continues.
func Handle[T any](ctx context.Context, t Tracer, ex Exchange, handler func(ctx context.Context) Publisher[T]) Publisher[T] {
	if t.CurrentTransaction(ctx) != nil {
		return handler(ctx)
	}

	tx := t.StartTransaction(ctx)
	tx.WithType("request")

	hctx, release := t.Activate(tracer.NewPath(ctx), tx)
	var p Publisher[T]
	func() {
		defer func() {
			release()
			if r := recover(); r != nil {
				tx.CaptureException(fmt.Errorf("panic: %v", r))
				tx.End()
				panic(r)
			}
		}()
		p = handler(hctx)
	}()

	if p == nil {
		p = Just[T]()
	}
	return HandlerWrap(SetNameOnComplete(p, tx, ex), t, tx, ex)
}
