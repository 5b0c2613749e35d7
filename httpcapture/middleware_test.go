package httpcapture

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aalemi-dev/apm-lab/tracer"
)

func newServer(t *testing.T, cfg tracer.Config, mux *http.ServeMux) (*tracer.TracerClient, *events, http.Handler) {
	t.Helper()
	rec := &events{}
	tr := tracer.NewClient(cfg, tracer.WithReporter(rec))
	return tr, rec, Middleware(tr)(mux)
}

func TestMiddleware_NamesFromRoutePattern(t *testing.T) {
	t.Parallel()
	var seen *tracer.Unit
	var tr *tracer.TracerClient
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = tr.CurrentTransaction(r.Context())
		w.Header().Set("X-User", r.PathValue("id"))
		_, _ = io.WriteString(w, "ok")
	})
	tr, rec, handler := newServer(t, tracer.Config{CaptureHeaders: true}, mux)

	req := httptest.NewRequest(http.MethodGet, "http://api.example/users/42?full=1", nil)
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: "session", Value: "abc"})
	req.SetBasicAuth("alice", "secret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, seen, "transaction is current inside the handler")

	evs := rec.list()
	require.Len(t, evs, 1)
	ev := evs[0]
	assert.Equal(t, "GET /users/{id}", ev.Name)
	assert.Equal(t, tracer.PriorityHighLevelFramework, ev.NamingPriority)
	assert.Equal(t, "HTTP 2xx", ev.Result)
	assert.Equal(t, "request", ev.Type)
	assert.Equal(t, seen.ID(), ev.ID)

	reqSnap := ev.Context.Request
	assert.Equal(t, "GET", reqSnap.Method)
	assert.Equal(t, "1.1", reqSnap.HTTPVersion)
	assert.Equal(t, "http://api.example/users/42?full=1", reqSnap.URL.Full)
	assert.Equal(t, []string{"application/json"}, reqSnap.Headers["Accept"])
	assert.NotContains(t, reqSnap.Headers, "Cookie")
	assert.Equal(t, []string{"abc"}, reqSnap.Cookies["session"])
	assert.Equal(t, tracer.BodyRedacted, reqSnap.BodyCapture)
	assert.Equal(t, "alice", ev.Context.User.Username)
	assert.Equal(t, []string{"42"}, ev.Context.Response.Headers["X-User"])
	assert.True(t, ev.Context.Response.HeadersSent)

	assert.Equal(t, 0, tr.ActivePaths())
}

func TestMiddleware_UnmatchedRouteForcesUnknownRoute(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {})
	_, rec, handler := newServer(t, tracer.Config{}, mux)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Equal(t, http.StatusNotFound, w.Code)
	ev := rec.list()[0]
	assert.Equal(t, "GET unknown route", ev.Name)
	assert.Equal(t, "HTTP 4xx", ev.Result)
}

func TestMiddleware_PanicIsRecordedAndReraised(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		panic("handler bug")
	})
	tr, rec, handler := newServer(t, tracer.Config{}, mux)

	assert.PanicsWithValue(t, "handler bug", func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/orders", nil))
	})

	evs := rec.list()
	require.Len(t, evs, 1)
	assert.Equal(t, "POST /orders", evs[0].Name)
	assert.Equal(t, "HTTP 5xx", evs[0].Result)
	require.NotNil(t, evs[0].Error)
	assert.Contains(t, evs[0].Error.Message, "handler bug")
	assert.Equal(t, 0, tr.ActivePaths())
}

func TestMiddleware_CapturesJSONBody(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	})
	_, rec, handler := newServer(t, tracer.Config{CaptureBody: tracer.CaptureBodyAll}, mux)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"sku":"A1"}`))
	req.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	ev := rec.list()[0]
	assert.Equal(t, tracer.BodyBuffered, ev.Context.Request.BodyCapture)
	assert.Equal(t, `{"sku":"A1"}`, ev.Context.Request.Body)
	assert.Equal(t, "HTTP 2xx", ev.Result)
	assert.Equal(t, 201, ev.Context.Response.StatusCode)
}

func TestMiddleware_CapturesFormParametersAfterHandler(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	_, rec, handler := newServer(t, tracer.Config{CaptureBody: tracer.CaptureBodyAll}, mux)

	form := url.Values{"user": {"alice"}, "remember": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", ContentTypeFormURLEncoded)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	ev := rec.list()[0]
	assert.Equal(t, tracer.BodyRedacted, ev.Context.Request.BodyCapture)
	assert.Equal(t, []string{"alice"}, ev.Context.Request.FormParameters["user"])
	assert.Equal(t, []string{"1"}, ev.Context.Request.FormParameters["remember"])
}

func TestMiddleware_NestedDoesNotStartSecondTransaction(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {})
	tr, rec, handler := newServer(t, tracer.Config{}, mux)
	outer := Middleware(tr)(handler)

	outer.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Len(t, rec.list(), 1)
}

func TestMiddleware_ContinuesIncomingTrace(t *testing.T) {
	t.Parallel()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {})
	_, rec, handler := newServer(t, tracer.Config{}, mux)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	ev := rec.list()[0]
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", ev.TraceID.String())
	assert.Equal(t, "00f067aa0ba902b7", ev.ParentID.String())
	assert.True(t, ev.RemoteParent)
}

func TestHandlerTypeName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "ServeMux", handlerTypeName(http.NewServeMux()))
	assert.Equal(t, "HandlerFunc", handlerTypeName(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})))
	assert.Equal(t, "", handlerTypeName(nil))
}
