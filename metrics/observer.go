package metrics

import (
	"github.com/aalemi-dev/apm-lab/observability"
)

// Series created by NewObserver.
const (
	OperationsTotalName     = "operations_total"
	UnitDurationSecondsName = "unit_duration_seconds"
	OpenTransactionsName    = "open_transactions"
	ReportedBytesTotalName  = "reported_bytes_total"
)

var unitDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}

type agentObserver struct {
	operations Counter
	durations  Histogram
	open       Gauge
	bytes      Counter
}

// NewObserver registers the agent series on c and returns an Observer that
// feeds them:
//
//	<ns>_operations_total{component,operation,resource,outcome}
//	<ns>_unit_duration_seconds{kind,result}      on transaction_end and span_end
//	<ns>_open_transactions                       started minus ended or ignored
//	<ns>_reported_bytes_total{component,resource} on successful deliveries
//
// Call it once per collector.
func NewObserver(c MetricsCollector) observability.Observer {
	return &agentObserver{
		operations: c.CreateCounter(OperationsTotalName,
			"Agent operations by component and outcome.",
			[]string{"component", "operation", "resource", "outcome"}),
		durations: c.CreateHistogram(UnitDurationSecondsName,
			"Duration of ended transactions and spans.",
			[]string{"kind", "result"}, unitDurationBuckets),
		open: c.CreateGauge(OpenTransactionsName,
			"Transactions started and not yet ended.", nil),
		bytes: c.CreateCounter(ReportedBytesTotalName,
			"Bytes handed to a transport.",
			[]string{"component", "resource"}),
	}
}

func (o *agentObserver) ObserveOperation(op observability.OperationContext) {
	outcome := "success"
	if op.Error != nil {
		outcome = "error"
	}
	o.operations.WithLabelValues(op.Component, op.Operation, op.Resource, outcome).Inc()

	if op.Component != observability.ComponentTracer {
		if op.Size > 0 && op.Error == nil {
			o.bytes.WithLabelValues(op.Component, op.Resource).Add(float64(op.Size))
		}
		return
	}

	switch op.Operation {
	case "transaction_start":
		o.open.Inc()
	case "transaction_end", "span_end":
		o.durations.WithLabelValues(op.Resource, op.SubResource).Observe(op.Duration.Seconds())
		if op.Operation == "transaction_end" {
			o.open.Dec()
		}
	case "ignored":
		// Ignored transactions are not reported, so they stay out of the
		// duration histogram.
		if op.Resource == "transaction" {
			o.open.Dec()
		}
	}
}
