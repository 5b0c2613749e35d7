package tracer

import (
	"strings"
)

// BodyCapture is the request body capture state.
type BodyCapture int

const (
	BodyNone BodyCapture = iota
	BodyBuffered
	BodyRedacted
)

// RedactedBody replaces a body that was not captured.
const RedactedBody = "[REDACTED]"

func (b BodyCapture) String() string {
	switch b {
	case BodyBuffered:
		return "buffered"
	case BodyRedacted:
		return "redacted"
	default:
		return "none"
	}
}

// MarshalText encodes the state as "none", "buffered" or "redacted".
func (b BodyCapture) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// URL holds the request URL components.
type URL struct {
	Protocol string `json:"protocol,omitempty"`
	Hostname string `json:"hostname,omitempty"`
	Port     int    `json:"port,omitempty"`
	Pathname string `json:"pathname,omitempty"`
	Search   string `json:"search,omitempty"`
	Full     string `json:"full,omitempty"`
}

// Socket describes the client connection.
type Socket struct {
	RemoteAddress string `json:"remote_address,omitempty"`
	Encrypted     bool   `json:"encrypted"`
}

// TransactionContext groups the request, response and user records of a
// transaction. Every mutator goes through the owning unit's lock and is
// ignored once the unit has ended.
type TransactionContext struct {
	owner    *Unit
	request  Request
	response Response
	user     User
}

func newTransactionContext(owner *Unit) *TransactionContext {
	c := &TransactionContext{owner: owner}
	c.request.owner = owner
	c.response.owner = owner
	c.user.owner = owner
	return c
}

func (c *TransactionContext) Request() *Request {
	if c == nil {
		return nil
	}
	return &c.request
}

func (c *TransactionContext) Response() *Response {
	if c == nil {
		return nil
	}
	return &c.response
}

func (c *TransactionContext) User() *User {
	if c == nil {
		return nil
	}
	return &c.user
}

// Request is the incoming request record.
type Request struct {
	owner *Unit

	method      string
	httpVersion string
	url         URL
	headers     map[string][]string
	cookies     map[string][]string
	socket      Socket
	bodyCapture BodyCapture
	body        strings.Builder
	truncated   bool
	formParams  map[string][]string
}

func (r *Request) set(op string, fn func()) *Request {
	if r != nil {
		r.owner.mutate(op, fn)
	}
	return r
}

func (r *Request) WithMethod(method string) *Request {
	return r.set("request_method", func() { r.method = method })
}

func (r *Request) WithHTTPVersion(version string) *Request {
	return r.set("request_http_version", func() { r.httpVersion = version })
}

func (r *Request) WithProtocol(protocol string) *Request {
	return r.set("request_url", func() { r.url.Protocol = protocol })
}

func (r *Request) WithHostname(hostname string) *Request {
	return r.set("request_url", func() { r.url.Hostname = hostname })
}

func (r *Request) WithPort(port int) *Request {
	return r.set("request_url", func() { r.url.Port = port })
}

func (r *Request) WithPathname(path string) *Request {
	return r.set("request_url", func() { r.url.Pathname = path })
}

func (r *Request) WithSearch(query string) *Request {
	return r.set("request_url", func() { r.url.Search = query })
}

func (r *Request) WithFullURL(full string) *Request {
	return r.set("request_url", func() { r.url.Full = full })
}

// AddHeader appends values under name. Repeated names accumulate.
func (r *Request) AddHeader(name string, values ...string) *Request {
	return r.set("request_header", func() { r.headers = appendMulti(r.headers, name, values) })
}

func (r *Request) AddCookie(name, value string) *Request {
	return r.set("request_cookie", func() { r.cookies = appendMulti(r.cookies, name, []string{value}) })
}

func (r *Request) WithSocket(remoteAddress string, encrypted bool) *Request {
	return r.set("request_socket", func() { r.socket = Socket{RemoteAddress: remoteAddress, Encrypted: encrypted} })
}

// WithBodyBuffer switches the request to buffered capture. It returns false
// when a capture decision was already made.
func (r *Request) WithBodyBuffer() bool {
	var ok bool
	r.set("request_body_buffer", func() {
		if r.bodyCapture == BodyNone {
			r.bodyCapture = BodyBuffered
			ok = true
		}
	})
	return ok
}

// AppendBody adds p to a buffered body, stopping at the configured maximum
// size. It returns the number of bytes kept.
func (r *Request) AppendBody(p []byte) int {
	var n int
	r.set("request_body_append", func() {
		if r.bodyCapture != BodyBuffered {
			return
		}
		room := r.owner.tracer.cfg.MaxBodySize - r.body.Len()
		if room <= 0 {
			r.truncated = r.truncated || len(p) > 0
			return
		}
		if len(p) > room {
			p = p[:room]
			r.truncated = true
		}
		n, _ = r.body.Write(p)
	})
	return n
}

// RedactBody marks the body as not captured and drops anything buffered.
func (r *Request) RedactBody() *Request {
	return r.set("request_body_redact", func() {
		r.bodyCapture = BodyRedacted
		r.body.Reset()
		r.truncated = false
	})
}

// AddFormURLEncodedParameters appends decoded form values under name.
func (r *Request) AddFormURLEncodedParameters(name string, values ...string) *Request {
	return r.set("request_form_params", func() { r.formParams = appendMulti(r.formParams, name, values) })
}

func (r *Request) get(fn func()) {
	if r != nil {
		r.owner.read(fn)
	}
}

func (r *Request) Method() (m string) {
	r.get(func() { m = r.method })
	return m
}

func (r *Request) URL() (u URL) {
	r.get(func() { u = r.url })
	return u
}

func (r *Request) Header(name string) (values []string) {
	r.get(func() { values = append([]string(nil), r.headers[name]...) })
	return values
}

func (r *Request) BodyCapture() (b BodyCapture) {
	r.get(func() { b = r.bodyCapture })
	return b
}

func (r *Request) Body() (body string) {
	r.get(func() { body = r.body.String() })
	return body
}

func (r *Request) FormParameters() (params map[string][]string) {
	r.get(func() { params = cloneMulti(r.formParams) })
	return params
}

// Response is the outgoing response record.
type Response struct {
	owner *Unit

	statusCode  int
	headersSent bool
	finished    bool
	headers     map[string][]string
}

func (r *Response) set(op string, fn func()) *Response {
	if r != nil {
		r.owner.mutate(op, fn)
	}
	return r
}

func (r *Response) WithStatusCode(code int) *Response {
	return r.set("response_status", func() { r.statusCode = code })
}

func (r *Response) WithHeadersSent(sent bool) *Response {
	return r.set("response_headers_sent", func() { r.headersSent = sent })
}

func (r *Response) WithFinished(finished bool) *Response {
	return r.set("response_finished", func() { r.finished = finished })
}

func (r *Response) AddHeader(name string, values ...string) *Response {
	return r.set("response_header", func() { r.headers = appendMulti(r.headers, name, values) })
}

func (r *Response) StatusCode() (code int) {
	if r != nil {
		r.owner.read(func() { code = r.statusCode })
	}
	return code
}

// User identifies the authenticated end user.
type User struct {
	owner    *Unit
	username string
}

// WithUsernameIfUnset sets the username only when none is recorded yet and
// reports whether it did.
func (u *User) WithUsernameIfUnset(username string) bool {
	if u == nil || username == "" {
		return false
	}
	var ok bool
	u.owner.mutate("user_username", func() {
		if u.username == "" {
			u.username = username
			ok = true
		}
	})
	return ok
}

func (u *User) Username() (name string) {
	if u != nil {
		u.owner.read(func() { name = u.username })
	}
	return name
}

func appendMulti(m map[string][]string, key string, values []string) map[string][]string {
	if len(values) == 0 {
		return m
	}
	if m == nil {
		m = make(map[string][]string)
	}
	m[key] = append(m[key], values...)
	return m
}

func cloneMulti(m map[string][]string) map[string][]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}
