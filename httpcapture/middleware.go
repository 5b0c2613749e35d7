package httpcapture

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/felixge/httpsnoop"
	"go.opentelemetry.io/otel/propagation"

	"github.com/aalemi-dev/apm-lab/tracer"
)

var traceContext = propagation.TraceContext{}

// Middleware traces every request handled by next.
//
// It starts and activates a transaction unless the request context already
// has one, continues an incoming W3C traceparent, records the request and,
// when enabled, its headers and cookies. After next returns it names the
// transaction from the matched http.ServeMux pattern, falls back to
// "<METHOD> unknown route" for unmatched 404s, captures form parameters and
// runs OnAfter. A panic in next is recorded as an error with status 500 and
// then re-raised.
func Middleware(t Tracer) func(http.Handler) http.Handler {
	h := NewHelper(t)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if t.CurrentTransaction(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}
			h.serve(next, w, r)
		})
	}
}

type responseState struct {
	status    int
	committed bool
}

func (s *responseState) commit(status int) {
	if !s.committed {
		s.status = status
		s.committed = true
	}
}

func (h *Helper) serve(next http.Handler, w http.ResponseWriter, r *http.Request) {
	ctx := traceContext.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	tx := h.tracer.StartTransaction(ctx)
	ctx, release := h.tracer.Activate(ctx, tx)
	r = r.WithContext(ctx)

	info := requestInfo(r)
	h.FillRequestContext(tx, info)
	if h.cfg.CaptureHeaders {
		h.captureRequestHeaders(tx, r)
	}
	if username, _, ok := r.BasicAuth(); ok {
		SetUsernameIfUnset(username, tx)
	}
	if tx.Context().Request().BodyCapture() == tracer.BodyBuffered && r.Body != nil {
		r.Body = &bodyRecorder{ReadCloser: r.Body, req: tx.Context().Request()}
	}
	SetNameByHandler(r.Method, next, tx)

	state := &responseState{}
	wrapped := httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				state.commit(code)
				next(code)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				state.commit(http.StatusOK)
				return next(b)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				state.commit(http.StatusOK)
				return next(src)
			}
		},
	})

	defer func() {
		recovered := recover()
		var err error
		if recovered != nil {
			err = fmt.Errorf("panic: %v", recovered)
			state.commit(http.StatusInternalServerError)
		}
		status := state.status
		if status == 0 {
			status = http.StatusOK
		}

		h.nameFromPattern(tx, r, status)
		if h.cfg.CaptureHeaders {
			for name, values := range w.Header() {
				tx.Context().Response().AddHeader(name, values...)
			}
		}

		h.OnAfter(tx, AfterInfo{
			Err:                   err,
			Committed:             state.committed,
			Status:                status,
			OverrideStatusOnError: true,
			Method:                r.Method,
			Params:                h.formParams(r),
			Path:                  r.URL.Path,
			ContentType:           info.ContentType,
			Release:               release,
		})

		if recovered != nil {
			panic(recovered)
		}
	}()

	next.ServeHTTP(wrapped, r)
}

// nameFromPattern uses the pattern http.ServeMux matched. The mux records it
// on the request it was handed, which is r.
func (h *Helper) nameFromPattern(tx *tracer.Unit, r *http.Request, status int) {
	pattern := r.Pattern
	if pattern == "" {
		if status == http.StatusNotFound {
			tx.OverrideName(tracer.UnknownRouteName(r.Method), tracer.PriorityHighLevelFramework)
		}
		return
	}
	if !strings.Contains(pattern, " ") {
		pattern = r.Method + " " + pattern
	}
	tx.WithName(pattern, tracer.PriorityHighLevelFramework)
}

// formParams decodes the form after the handler ran. Errors are logged and
// yield no parameters.
func (h *Helper) formParams(r *http.Request) (params map[string][]string) {
	contentType := r.Header.Get("Content-Type")
	if !h.CaptureParameters(r.Method, contentType) {
		return nil
	}
	defer h.tracer.Recover("parse_form")

	if r.PostForm == nil {
		if err := r.ParseForm(); err != nil {
			h.log.Debug("could not decode form parameters", err, map[string]interface{}{
				"path": r.URL.Path,
			})
			return nil
		}
	}
	return r.PostForm
}

func (h *Helper) captureRequestHeaders(tx *tracer.Unit, r *http.Request) {
	req := tx.Context().Request()
	for name, values := range r.Header {
		if name == "Cookie" {
			continue
		}
		req.AddHeader(name, values...)
	}
	for _, c := range r.Cookies() {
		req.AddCookie(c.Name, c.Value)
	}
}

func requestInfo(r *http.Request) RequestInfo {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host, port := r.Host, 0
	if h, p, err := net.SplitHostPort(r.Host); err == nil {
		host = h
		port, _ = strconv.Atoi(p)
	} else if scheme == "https" {
		port = 443
	} else {
		port = 80
	}
	return RequestInfo{
		Protocol:    fmt.Sprintf("%d.%d", r.ProtoMajor, r.ProtoMinor),
		Method:      r.Method,
		Secure:      r.TLS != nil,
		Scheme:      scheme,
		Host:        host,
		Port:        port,
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		RemoteAddr:  r.RemoteAddr,
		ContentType: r.Header.Get("Content-Type"),
	}
}

// bodyRecorder copies what the handler reads into the transaction.
type bodyRecorder struct {
	io.ReadCloser
	req *tracer.Request
}

func (b *bodyRecorder) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.req.AppendBody(p[:n])
	}
	return n, err
}

func handlerTypeName(handler interface{}) string {
	if handler == nil {
		return ""
	}
	name := strings.TrimLeft(fmt.Sprintf("%T", handler), "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
