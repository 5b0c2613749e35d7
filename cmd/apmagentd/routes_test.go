package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"

	"github.com/aalemi-dev/apm-lab/config"
	"github.com/aalemi-dev/apm-lab/reporter"
	"github.com/aalemi-dev/apm-lab/tracer"
)

func newTestRoutes(t *testing.T) (*tracer.TracerClient, *reporter.Collector, http.Handler) {
	t.Helper()
	c := reporter.NewCollector(16, nil)
	c.SetSyncMode(true)
	t.Cleanup(c.Close)
	tr := tracer.NewClient(tracer.Config{ServiceName: "apmagentd-test"}, tracer.WithReporter(c))
	return tr, c, routes(tr)
}

func TestRoutes_SyncUserLookup(t *testing.T) {
	t.Parallel()
	tr, c, h := newTestRoutes(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"1","name":"alice"}`, w.Body.String())

	tx, ok := c.FirstTransaction(time.Second)
	require.True(t, ok)
	assert.Equal(t, "GET /users/{id}", tx.Name)
	assert.Equal(t, "HTTP 2xx", tx.Result)

	spans := c.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "users.lookup", spans[0].Name)
	assert.Equal(t, tx.ID, spans[0].ParentID)
	assert.Zero(t, tr.ActivePaths())
}

func TestRoutes_AsyncUserLookup(t *testing.T) {
	t.Parallel()
	tr, c, h := newTestRoutes(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/async/users/2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"2","name":"bob"}`, w.Body.String())

	tx, ok := c.FirstTransaction(time.Second)
	require.True(t, ok)
	assert.Equal(t, "GET /async/users/{id}", tx.Name)
	assert.Equal(t, "HTTP 2xx", tx.Result)
	assert.Equal(t, 1, c.Count())
	assert.Eventually(t, func() bool { return tr.ActivePaths() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRoutes_AsyncMissingUser(t *testing.T) {
	t.Parallel()
	_, c, h := newTestRoutes(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/async/users/9", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	tx, ok := c.FirstTransaction(time.Second)
	require.True(t, ok)
	assert.Equal(t, "GET unknown route", tx.Name)
	assert.Equal(t, tracer.PriorityHighLevelFramework, tx.NamingPriority)
	assert.Equal(t, "HTTP 4xx", tx.Result)
}

func TestAppOptions_Validate(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.ServiceName = "apmagentd-test"
	require.NoError(t, fx.ValidateApp(appOptions(cfg, "127.0.0.1:0")))

	cfg.Reporters.OTel = true
	cfg.Reporters.Kafka = true
	cfg.Kafka.Brokers = []string{"localhost:9092"}
	require.NoError(t, fx.ValidateApp(appOptions(cfg, "127.0.0.1:0")))
}
