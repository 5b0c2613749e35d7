// Package reactive keeps a transaction current across asynchronous signal
// streams.
//
// A Publisher delivers signals to a Subscriber: one OnSubscribe, any number of
// OnNext, then at most one of OnError or OnComplete. Those calls may happen on
// any goroutine, long after the code that started the request has returned,
// so a context-threaded "current transaction" cannot be inherited from the
// caller. TransactionSubscriber re-activates the transaction on a fresh
// execution path around every signal and releases it right after, whatever
// the downstream subscriber does.
//
// Basic usage:
//
//	tx := t.StartTransaction(ctx)
//	p := reactive.HandlerWrap(reactive.FromFunc(loadUser), t, tx, exchange)
//	users, err := reactive.Await(ctx, p)
//
// DispatcherWrap owns activation only and is meant for the outer dispatch
// phase; HandlerWrap additionally ends the transaction on completion. Both end
// it on error, naming it "<METHOD> unknown route" when the error means that no
// route matched.
package reactive
