package reactive

import (
	"context"
	"sync"
	"sync/atomic"
)

// Subscription is handed to a subscriber in OnSubscribe.
type Subscription interface {
	// Cancel asks the publisher to stop emitting. Signals already in flight
	// may still arrive.
	Cancel()
}

// Subscriber receives the signals of one subscription. Signals are delivered
// one at a time but not necessarily on the same goroutine. Each call carries
// the context the signal should run under.
type Subscriber[T any] interface {
	OnSubscribe(ctx context.Context, s Subscription)
	OnNext(ctx context.Context, v T)
	OnError(ctx context.Context, err error)
	OnComplete(ctx context.Context)
}

// Publisher emits signals to each subscriber that subscribes to it.
type Publisher[T any] interface {
	Subscribe(ctx context.Context, s Subscriber[T])
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc[T any] func(ctx context.Context, s Subscriber[T])

// Subscribe calls f.
func (f PublisherFunc[T]) Subscribe(ctx context.Context, s Subscriber[T]) { f(ctx, s) }

// Lift returns a publisher that subscribes wrap(s) to p in place of s.
func Lift[T any](p Publisher[T], wrap func(Subscriber[T]) Subscriber[T]) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		p.Subscribe(ctx, wrap(s))
	})
}

// SubscriberFuncs builds a Subscriber from optional callbacks.
type SubscriberFuncs[T any] struct {
	Subscribe func(ctx context.Context, s Subscription)
	Next      func(ctx context.Context, v T)
	Error     func(ctx context.Context, err error)
	Complete  func(ctx context.Context)
}

func (f SubscriberFuncs[T]) OnSubscribe(ctx context.Context, s Subscription) {
	if f.Subscribe != nil {
		f.Subscribe(ctx, s)
	}
}

func (f SubscriberFuncs[T]) OnNext(ctx context.Context, v T) {
	if f.Next != nil {
		f.Next(ctx, v)
	}
}

func (f SubscriberFuncs[T]) OnError(ctx context.Context, err error) {
	if f.Error != nil {
		f.Error(ctx, err)
	}
}

func (f SubscriberFuncs[T]) OnComplete(ctx context.Context) {
	if f.Complete != nil {
		f.Complete(ctx)
	}
}

type cancelFlag struct {
	cancelled atomic.Bool
}

func (c *cancelFlag) Cancel()          { c.cancelled.Store(true) }
func (c *cancelFlag) isCancelled() bool { return c.cancelled.Load() }

// Just emits values on the subscribing goroutine, then completes.
func Just[T any](values ...T) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		sub := &cancelFlag{}
		s.OnSubscribe(ctx, sub)
		for _, v := range values {
			if sub.isCancelled() {
				return
			}
			s.OnNext(ctx, v)
		}
		if !sub.isCancelled() {
			s.OnComplete(ctx)
		}
	})
}

// Fail signals err right after subscription.
func Fail[T any](err error) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		s.OnSubscribe(ctx, &cancelFlag{})
		s.OnError(ctx, err)
	})
}

// FromFunc runs fn on a new goroutine and emits its result. A context that is
// already done by the time fn would run is signalled as an error instead.
func FromFunc[T any](fn func(ctx context.Context) (T, error)) Publisher[T] {
	return PublisherFunc[T](func(ctx context.Context, s Subscriber[T]) {
		sub := &cancelFlag{}
		s.OnSubscribe(ctx, sub)
		go func() {
			if err := ctx.Err(); err != nil {
				s.OnError(ctx, err)
				return
			}
			v, err := fn(ctx)
			if sub.isCancelled() {
				return
			}
			if err != nil {
				s.OnError(ctx, err)
				return
			}
			s.OnNext(ctx, v)
			s.OnComplete(ctx)
		}()
	})
}

// Await subscribes to p and blocks until it terminates or ctx is done,
// returning every emitted value.
func Await[T any](ctx context.Context, p Publisher[T]) ([]T, error) {
	var (
		mu     sync.Mutex
		values []T
		sub    Subscription
	)
	done := make(chan error, 1)
	p.Subscribe(ctx, SubscriberFuncs[T]{
		Subscribe: func(_ context.Context, s Subscription) {
			mu.Lock()
			sub = s
			mu.Unlock()
		},
		Next: func(_ context.Context, v T) {
			mu.Lock()
			values = append(values, v)
			mu.Unlock()
		},
		Error: func(_ context.Context, err error) {
			select {
			case done <- err:
			default:
			}
		},
		Complete: func(context.Context) {
			select {
			case done <- nil:
			default:
			}
		},
	})

	select {
	case err := <-done:
		mu.Lock()
		defer mu.Unlock()
		return values, err
	case <-ctx.Done():
		mu.Lock()
		if sub != nil {
			sub.Cancel()
		}
		mu.Unlock()
		return nil, ctx.Err()
	}
}
