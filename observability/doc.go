// Package observability defines the hook through which agent packages report
// their own operations.
//
// The tracer reports every ended transaction and span, absorbed protocol
// violations and recovered internal errors. Reporters report deliveries and
// drops. An application plugs in metrics.NewObserver to turn these into
// Prometheus series, a logging observer, or both via Multi:
//
//	obs := observability.Multi(
//	    metrics.NewObserver(m),
//	    observability.ObserverFunc(func(op observability.OperationContext) {
//	        log.Debug("agent operation", op.Error, map[string]interface{}{
//	            "component": op.Component,
//	            "operation": op.Operation,
//	        })
//	    }),
//	)
//
// No package requires an observer. Observe tolerates a nil one.
package observability
