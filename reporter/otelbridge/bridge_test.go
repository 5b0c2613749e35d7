package otelbridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/aalemi-dev/apm-lab/tracer"
)

func newTestBridge(t *testing.T) (*Bridge, *tracetest.InMemoryExporter) {
	t.Helper()
	exp := tracetest.NewInMemoryExporter()
	b, err := NewBridge(Config{ServiceName: "svc", AppEnv: "test"}, WithSyncer(exp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Shutdown(context.Background()) })
	return b, exp
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestBridge_TransactionKeepsIDsAndTiming(t *testing.T) {
	t.Parallel()
	b, exp := newTestBridge(t)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	b.Report(tracer.Event{
		Kind:      tracer.KindTransaction,
		TraceID:   trace.TraceID{0xaa, 1},
		ID:        trace.SpanID{0xbb, 2},
		Name:      "GET /users/{id}",
		Type:      "request",
		Result:    "HTTP 2xx",
		Timestamp: start,
		Duration:  250 * time.Millisecond,
		Context: &tracer.ContextSnapshot{
			Request:  tracer.RequestSnapshot{Method: "GET", URL: tracer.URL{Full: "http://x/users/1"}},
			Response: tracer.ResponseSnapshot{StatusCode: 200},
			User:     tracer.UserSnapshot{Username: "alice"},
		},
	})

	spans := exp.GetSpans()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "GET /users/{id}", s.Name)
	assert.Equal(t, trace.TraceID{0xaa, 1}, s.SpanContext.TraceID())
	assert.Equal(t, trace.SpanID{0xbb, 2}, s.SpanContext.SpanID())
	assert.False(t, s.Parent.IsValid())
	assert.Equal(t, trace.SpanKindServer, s.SpanKind)
	assert.Equal(t, start, s.StartTime)
	assert.Equal(t, start.Add(250*time.Millisecond), s.EndTime)
	assert.Equal(t, codes.Unset, s.Status.Code)

	attrs := attrMap(s.Attributes)
	assert.Equal(t, "GET", attrs["http.method"].AsString())
	assert.Equal(t, int64(200), attrs["http.status_code"].AsInt64())
	assert.Equal(t, "http://x/users/1", attrs["http.url"].AsString())
	assert.Equal(t, "alice", attrs["enduser.id"].AsString())
	assert.Equal(t, "HTTP 2xx", attrs["apm.result"].AsString())
}

func TestBridge_SpanAttachesToRemoteParent(t *testing.T) {
	t.Parallel()
	b, exp := newTestBridge(t)

	b.Report(tracer.Event{
		Kind:          tracer.KindSpan,
		TraceID:       trace.TraceID{1},
		ID:            trace.SpanID{3},
		ParentID:      trace.SpanID{2},
		TransactionID: trace.SpanID{2},
		Name:          "db query",
		Timestamp:     time.Now(),
	})

	s := exp.GetSpans()[0]
	assert.Equal(t, trace.SpanID{3}, s.SpanContext.SpanID())
	assert.Equal(t, trace.SpanID{2}, s.Parent.SpanID())
	assert.True(t, s.Parent.IsRemote())
	assert.Equal(t, trace.SpanKindInternal, s.SpanKind)
}

func TestBridge_RecordsError(t *testing.T) {
	t.Parallel()
	b, exp := newTestBridge(t)
	boom := errors.New("boom")

	b.Report(tracer.Event{
		Kind:      tracer.KindTransaction,
		TraceID:   trace.TraceID{1},
		ID:        trace.SpanID{1},
		Name:      "POST /orders",
		Timestamp: time.Now(),
		Error:     &tracer.ErrorRecord{Message: "boom", Err: boom},
	})

	s := exp.GetSpans()[0]
	assert.Equal(t, codes.Error, s.Status.Code)
	assert.Equal(t, "boom", s.Status.Description)
	require.Len(t, s.Events, 1)
	assert.Equal(t, "exception", s.Events[0].Name)
}

func TestBridge_EndToEndWithTracer(t *testing.T) {
	t.Parallel()
	b, exp := newTestBridge(t)
	tr := tracer.NewClient(tracer.Config{ServiceName: "svc"}, tracer.WithReporter(b))

	tx := tr.StartTransaction(context.Background())
	span := tr.CreateSpan(tx)
	span.End()
	tx.Context().Response().WithStatusCode(503)
	tx.End()

	spans := exp.GetSpans()
	require.Len(t, spans, 2)
	child, root := spans[0], spans[1]
	assert.Equal(t, root.SpanContext.TraceID(), child.SpanContext.TraceID())
	assert.Equal(t, root.SpanContext.SpanID(), child.Parent.SpanID())
	assert.Equal(t, tx.ID(), root.SpanContext.SpanID())
	assert.Equal(t, codes.Error, root.Status.Code)
}
