package metrics_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalemi-dev/apm-lab/metrics"
	"github.com/aalemi-dev/apm-lab/observability"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// newAppMetrics returns a Metrics with no HTTP servers.
func newAppMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	return metrics.NewMetrics(metrics.Config{
		ServiceName:               "test-service",
		SystemMetricsAddress:      metrics.Ptr(""),
		ApplicationMetricsAddress: metrics.Ptr(""),
	})
}

func TestNewMetrics_Defaults(t *testing.T) {
	t.Parallel()
	m := metrics.NewMetrics(metrics.Config{ServiceName: "svc"})

	require.NotNil(t, m.SystemRegistry)
	require.NotNil(t, m.SystemServer)
	require.NotNil(t, m.ApplicationServer)
	assert.Equal(t, metrics.DefaultSystemMetricsAddress, m.SystemServer.Addr)
	assert.Equal(t, metrics.DefaultApplicationMetricsAddress, m.ApplicationServer.Addr)
}

func TestNewMetrics_DisabledEndpointsStillCollect(t *testing.T) {
	t.Parallel()
	m := newAppMetrics(t)

	assert.Nil(t, m.SystemServer)
	assert.Nil(t, m.SystemRegistry)
	assert.Nil(t, m.ApplicationServer)
	require.NotNil(t, m.ApplicationRegistry)

	m.CreateCounter("units_total", "help", nil).Inc()
	n, err := testutil.GatherAndCount(m.ApplicationRegistry, "apm_agent_units_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMetricTypes(t *testing.T) {
	t.Parallel()
	m := newAppMetrics(t)

	c := m.CreateCounter("c_total", "help", []string{"kind"})
	c.WithLabelValues("span").Inc()
	c.WithLabelValues("span").Add(2)
	labeled := c.WithLabelValues("transaction")
	assert.Same(t, labeled, labeled.WithLabelValues("ignored"))

	g := m.CreateGauge("g", "help", nil)
	g.Set(10)
	g.Inc()
	g.Dec()
	g.Add(-4)

	h := m.CreateHistogram("h_seconds", "help", []string{"kind"}, []float64{0.1, 1})
	h.WithLabelValues("transaction").Observe(0.5)

	expected := `
# HELP apm_agent_g help
# TYPE apm_agent_g gauge
apm_agent_g{service="test-service"} 6
`
	require.NoError(t, testutil.GatherAndCompare(m.ApplicationRegistry, strings.NewReader(expected), "apm_agent_g"))
}

func TestObserver_FeedsSeries(t *testing.T) {
	t.Parallel()
	m := newAppMetrics(t)
	obs := metrics.NewObserver(m)

	obs.ObserveOperation(observability.OperationContext{
		Component: observability.ComponentTracer, Operation: "transaction_start", Resource: "transaction",
	})
	obs.ObserveOperation(observability.OperationContext{
		Component: observability.ComponentTracer, Operation: "transaction_end", Resource: "transaction",
		SubResource: "HTTP 2xx", Duration: 20 * time.Millisecond,
	})
	obs.ObserveOperation(observability.OperationContext{
		Component: observability.ComponentKafka, Operation: "produce", Resource: "apm-events", Size: 512,
	})
	obs.ObserveOperation(observability.OperationContext{
		Component: observability.ComponentReporter, Operation: "drop", Resource: "transaction",
		Error: errors.New("queue full"),
	})

	expected := `
# HELP apm_agent_open_transactions Transactions started and not yet ended.
# TYPE apm_agent_open_transactions gauge
apm_agent_open_transactions{service="test-service"} 0
# HELP apm_agent_reported_bytes_total Bytes handed to a transport.
# TYPE apm_agent_reported_bytes_total counter
apm_agent_reported_bytes_total{component="kafka",resource="apm-events",service="test-service"} 512
`
	require.NoError(t, testutil.GatherAndCompare(m.ApplicationRegistry, strings.NewReader(expected),
		"apm_agent_open_transactions", "apm_agent_reported_bytes_total"))

	n, err := testutil.GatherAndCount(m.ApplicationRegistry, "apm_agent_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = testutil.GatherAndCount(m.ApplicationRegistry, "apm_agent_unit_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestObserver_IgnoredAndRepeatedEnds(t *testing.T) {
	t.Parallel()
	m := newAppMetrics(t)
	tr := tracer.NewClient(tracer.Config{ServiceName: "test-service"}, tracer.WithObserver(metrics.NewObserver(m)))

	ignored := tr.StartTransaction(context.Background())
	ignored.IgnoreTransaction()
	ignored.End()
	ignored.End()

	kept := tr.StartTransaction(context.Background())
	kept.End()
	kept.End()

	expected := `
# HELP apm_agent_open_transactions Transactions started and not yet ended.
# TYPE apm_agent_open_transactions gauge
apm_agent_open_transactions{service="test-service"} 0
`
	require.NoError(t, testutil.GatherAndCompare(m.ApplicationRegistry, strings.NewReader(expected),
		"apm_agent_open_transactions"))

	families, err := m.ApplicationRegistry.Gather()
	require.NoError(t, err)
	var samples uint64
	for _, mf := range families {
		if mf.GetName() != "apm_agent_unit_duration_seconds" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			samples += metric.GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(1), samples)
}

func TestApplicationServer_ServesMetrics(t *testing.T) {
	t.Parallel()
	m := metrics.NewMetrics(metrics.Config{
		ServiceName:               "http-test",
		SystemMetricsAddress:      metrics.Ptr(""),
		ApplicationMetricsAddress: metrics.Ptr("127.0.0.1:0"),
	})
	m.CreateCounter("served_total", "help", nil).Inc()

	rec := httptest.NewRecorder()
	m.ApplicationServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `apm_agent_served_total{service="http-test"} 1`)
}
