package reactive

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/aalemi-dev/apm-lab/tracer"
)

// Exchange is the request/response pair a wrapped publisher serves.
type Exchange interface {
	Method() string
	Path() string
	// RoutePattern is the matched route, or "" when routing did not match.
	RoutePattern() string
	// StatusCode is the response status, or 0 when none was set.
	StatusCode() int
	// FillRequest copies the request into u's context.
	FillRequest(u *tracer.Unit)
}

// ErrNoRoute is returned by routers when no handler matched the request.
var ErrNoRoute = &StatusError{Status: http.StatusNotFound, Reason: "no matching route"}

// StatusError is an error carrying the HTTP status it should produce.
type StatusError struct {
	Status int
	Reason string
	Err    error
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%d %s", e.Status, http.StatusText(e.Status))
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StatusError) Unwrap() error   { return e.Err }
func (e *StatusError) HTTPStatus() int { return e.Status }

type httpStatusError interface {
	HTTPStatus() int
}

// StatusOf returns the status carried by err, or 0.
func StatusOf(err error) int {
	var se httpStatusError
	if errors.As(err, &se) {
		return se.HTTPStatus()
	}
	return 0
}

// IsNoRoute reports whether err means that no route matched, that is any
// error in the chain exposing HTTPStatus() == 404.
func IsNoRoute(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// HTTPExchange adapts a net/http request to Exchange. The route pattern is
// taken from http.Request.Pattern; SetStatus records the response status.
type HTTPExchange struct {
	Request *http.Request
	status  atomic.Int32
}

func NewHTTPExchange(r *http.Request) *HTTPExchange {
	return &HTTPExchange{Request: r}
}

func (e *HTTPExchange) Method() string       { return e.Request.Method }
func (e *HTTPExchange) Path() string         { return e.Request.URL.Path }
func (e *HTTPExchange) RoutePattern() string { return e.Request.Pattern }
func (e *HTTPExchange) StatusCode() int      { return int(e.status.Load()) }

func (e *HTTPExchange) SetStatus(code int) {
	e.status.Store(int32(code))
}

func (e *HTTPExchange) FillRequest(u *tracer.Unit) {
	r := e.Request
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	host, port := r.Host, 0
	if h, p, err := net.SplitHostPort(r.Host); err == nil {
		host = h
		port, _ = strconv.Atoi(p)
	}

	req := u.Context().Request().
		WithMethod(r.Method).
		WithHTTPVersion(fmt.Sprintf("%d.%d", r.ProtoMajor, r.ProtoMinor)).
		WithSocket(r.RemoteAddr, r.TLS != nil).
		WithProtocol(scheme).
		WithHostname(host).
		WithPort(port).
		WithPathname(r.URL.Path).
		WithSearch(r.URL.RawQuery)

	full := scheme + "://" + r.Host + r.URL.RequestURI()
	req.WithFullURL(full)

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
