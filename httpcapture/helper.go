package httpcapture

import (
	"errors"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/matcher"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// ContentTypeFormURLEncoded is the content type whose body is recorded as
// decoded parameters instead of raw text.
const ContentTypeFormURLEncoded = "application/x-www-form-urlencoded"

// Tracer is what the helper needs from the tracer.
type Tracer interface {
	tracer.Tracer
	CaptureContentTypes() []*matcher.WildcardMatcher
	URLGroups() []*matcher.WildcardMatcher
	Logger() logger.Logger
}

// BodyDecision is the outcome of DecideBodyCapture.
type BodyDecision int

const (
	BodyRedact BodyDecision = iota
	BodyBuffer
)

func (d BodyDecision) String() string {
	if d == BodyBuffer {
		return "buffer"
	}
	return "redact"
}

var endsWithJSP = matcher.Compile("*.jsp")

// ContainerInternalError marks errors a server raises for its own control
// flow, for example to register a resource on first use. A transaction that
// ends with one is ignored rather than reported.
type ContainerInternalError interface {
	error
	ContainerInternal() bool
}

// IsContainerInternal reports whether err, or an error it wraps, is a
// ContainerInternalError.
func IsContainerInternal(err error) bool {
	var ci ContainerInternalError
	return errors.As(err, &ci) && ci.ContainerInternal()
}

// Helper applies the HTTP capture rules for one tracer.
type Helper struct {
	tracer Tracer
	cfg    tracer.Config
	log    logger.Logger
}

// NewHelper returns a Helper bound to t's configuration.
func NewHelper(t Tracer) *Helper {
	return &Helper{tracer: t, cfg: t.Config(), log: t.Logger()}
}

// HasBody reports whether method conventionally carries a request body.
func HasBody(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH", "DELETE":
		return true
	}
	return false
}

func isFormURLEncoded(contentType string) bool {
	return strings.HasPrefix(contentType, ContentTypeFormURLEncoded)
}

// DecideBodyCapture decides whether the body of a request may be buffered.
// The reason explains a redaction.
func (h *Helper) DecideBodyCapture(method, contentType string) (BodyDecision, string) {
	switch {
	case !HasBody(method):
		return BodyRedact, "method does not carry a body"
	case !h.cfg.BodyCaptureEnabled():
		return BodyRedact, "capture_body is off"
	case contentType == "":
		return BodyRedact, "request has no Content-Type header"
	case isFormURLEncoded(contentType):
		return BodyRedact, "form bodies are captured as parameters"
	case !matcher.IsAnyMatch(h.tracer.CaptureContentTypes(), contentType):
		return BodyRedact, "content type is not listed in capture_body_content_types"
	}
	return BodyBuffer, ""
}

// StartCaptureBody applies DecideBodyCapture to the transaction.
func (h *Helper) StartCaptureBody(u *tracer.Unit, method, contentType string) BodyDecision {
	req := u.Context().Request()
	decision, reason := h.DecideBodyCapture(method, contentType)
	if decision == BodyBuffer {
		req.WithBodyBuffer()
		return decision
	}
	req.RedactBody()
	h.log.Debug("not capturing request body", nil, map[string]interface{}{
		"reason":       reason,
		"method":       method,
		"content_type": contentType,
	})
	return decision
}

// CaptureParameters reports whether decoded form parameters of the request
// should be recorded.
func (h *Helper) CaptureParameters(method, contentType string) bool {
	return isFormURLEncoded(contentType) &&
		HasBody(method) &&
		h.cfg.BodyCaptureEnabled() &&
		matcher.IsAnyMatch(h.tracer.CaptureContentTypes(), contentType)
}

// FillRequestParameters records params as form parameters when the request
// is a form post and body capture is on. It must run after the handler.
func (h *Helper) FillRequestParameters(u *tracer.Unit, method, contentType string, params map[string][]string) {
	defer h.tracer.Recover("fill_request_parameters")

	if params == nil || !HasBody(method) || !h.cfg.BodyCaptureEnabled() || !isFormURLEncoded(contentType) {
		return
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	req := u.Context().Request()
	for _, name := range names {
		req.AddFormURLEncodedParameters(name, params[name]...)
	}
}

// RequestInfo is what an adapter knows about the incoming request.
type RequestInfo struct {
	Protocol    string
	Method      string
	Secure      bool
	Scheme      string
	Host        string
	Port        int
	Path        string
	Query       string
	RemoteAddr  string
	ContentType string
}

// FillRequestContext starts body capture and records the request.
func (h *Helper) FillRequestContext(u *tracer.Unit, info RequestInfo) {
	defer h.tracer.Recover("fill_request_context")

	h.StartCaptureBody(u, info.Method, info.ContentType)

	u.Context().Request().
		WithHTTPVersion(info.Protocol).
		WithMethod(info.Method).
		WithSocket(info.RemoteAddr, info.Secure).
		WithProtocol(info.Scheme).
		WithHostname(info.Host).
		WithPort(info.Port).
		WithPathname(info.Path).
		WithSearch(info.Query).
		WithFullURL(fullURL(info))
}

func fullURL(info RequestInfo) string {
	var b strings.Builder
	if info.Scheme != "" {
		b.WriteString(info.Scheme)
		b.WriteString("://")
	}
	host := info.Host
	if info.Port > 0 && !isDefaultPort(info.Scheme, info.Port) {
		host = net.JoinHostPort(host, strconv.Itoa(info.Port))
	}
	b.WriteString(host)
	b.WriteString(info.Path)
	if info.Query != "" {
		b.WriteByte('?')
		b.WriteString(info.Query)
	}
	return b.String()
}

func isDefaultPort(scheme string, port int) bool {
	return (scheme == "http" && port == 80) || (scheme == "https" && port == 443)
}

// AfterInfo is what an adapter knows once the handler has returned.
type AfterInfo struct {
	Err       error
	Committed bool
	Status    int

	// OverrideStatusOnError turns a 200 into a 500 when Err is set.
	OverrideStatusOnError bool

	Method      string
	Params      map[string][]string
	Path        string
	PathInfo    string
	ContentType string

	// Release, when set, deactivates the transaction before it ends.
	Release func()
}

// OnAfter completes the transaction after the handler returned and ends it.
// A container-internal error marks it ignored instead. Failures inside the
// bookkeeping are logged; the transaction is always released and ended.
func (h *Helper) OnAfter(u *tracer.Unit, info AfterInfo) {
	func() {
		defer h.tracer.Recover("on_after")
		if IsContainerInternal(info.Err) {
			u.IgnoreTransaction()
			return
		}
		h.doOnAfter(u, info)
	}()

	if info.Release != nil {
		info.Release()
	}
	u.End()
}

func (h *Helper) doOnAfter(u *tracer.Unit, info AfterInfo) {
	h.FillRequestParameters(u, info.Method, info.ContentType, info.Params)

	status := info.Status
	if info.Err != nil && status == 200 && info.OverrideStatusOnError {
		status = 500
	}
	u.Context().Response().
		WithFinished(true).
		WithHeadersSent(info.Committed).
		WithStatusCode(status)

	if result := tracer.ResultFromHTTPStatus(status); result != "" {
		u.WithResultIfUnset(result)
	}
	u.WithType("request")
	h.ApplyDefaultTransactionName(info.Method, info.Path, info.PathInfo, u)
	u.CaptureException(info.Err)
}

// ApplyDefaultTransactionName names the transaction after its path when
// use_path_as_name is set or the path ends in .jsp, collapsing it to a
// matching URL group if any. Otherwise it proposes "<METHOD> unknown route"
// at the lowest priority.
func (h *Helper) ApplyDefaultTransactionName(method, path, pathInfo string, u *tracer.Unit) {
	if h.cfg.UsePathAsName || endsWithJSP.MatchesParts(path, pathInfo) {
		buf := u.AcquireName(tracer.PriorityLowLevelFrameworkPath, false)
		if buf == nil {
			return
		}
		_, _ = buf.WriteString(method)
		_ = buf.WriteByte(' ')
		if group := matcher.AnyMatchParts(h.tracer.URLGroups(), path, pathInfo); group != nil {
			_, _ = buf.WriteString(group.String())
		} else {
			_, _ = buf.WriteString(path)
			_, _ = buf.WriteString(pathInfo)
		}
		buf.Commit()
		return
	}
	u.WithName(tracer.UnknownRouteName(method), tracer.PriorityDefault)
}

// SetNameByHandler names the transaction after the handler's type, e.g.
// "UserHandler#GET", at the low-level framework priority.
func SetNameByHandler(method string, handler interface{}, u *tracer.Unit) {
	name := handlerTypeName(handler)
	if name == "" {
		return
	}
	buf := u.AcquireName(tracer.PriorityLowLevelFramework, false)
	if buf == nil {
		return
	}
	_, _ = buf.WriteString(name)
	if method != "" {
		_ = buf.WriteByte('#')
		_, _ = buf.WriteString(method)
	}
	buf.Commit()
}

// SetUsernameIfUnset records username unless one was set already, e.g. by
// application code.
func SetUsernameIfUnset(username string, u *tracer.Unit) {
	u.Context().User().WithUsernameIfUnset(username)
}
