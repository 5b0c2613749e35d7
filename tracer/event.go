package tracer

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// Reporter receives every ended, non-ignored unit. Report is called on the
// goroutine that ended the unit and must not block.
type Reporter interface {
	Report(ev Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ev Event)

// Report calls f.
func (f ReporterFunc) Report(ev Event) { f(ev) }

// Event is the immutable snapshot of an ended unit.
type Event struct {
	Kind          Kind          `json:"kind"`
	AgentID       string        `json:"agent_id"`
	Service       string        `json:"service"`
	Environment   string        `json:"environment,omitempty"`
	TraceID       trace.TraceID `json:"trace_id"`
	ID            trace.SpanID  `json:"id"`
	ParentID      trace.SpanID  `json:"parent_id"`
	TransactionID trace.SpanID  `json:"transaction_id"`
	RemoteParent  bool          `json:"remote_parent,omitempty"`

	Name           string        `json:"name"`
	NamingPriority Priority      `json:"naming_priority"`
	Type           string        `json:"type,omitempty"`
	Result         string        `json:"result,omitempty"`
	Timestamp      time.Time     `json:"timestamp"`
	Duration       time.Duration `json:"duration_ns"`
	Ignored        bool          `json:"-"`

	Error   *ErrorRecord     `json:"error,omitempty"`
	Context *ContextSnapshot `json:"context,omitempty"`
}

// HasParent reports whether ParentID is set.
func (e Event) HasParent() bool {
	return e.ParentID.IsValid()
}

// ErrorRecord describes a captured application error.
type ErrorRecord struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Err     error  `json:"-"`
}

func newErrorRecord(err error) *ErrorRecord {
	if err == nil {
		return nil
	}
	return &ErrorRecord{Message: err.Error(), Type: fmt.Sprintf("%T", err), Err: err}
}

// ContextSnapshot is a deep copy of a TransactionContext.
type ContextSnapshot struct {
	Request  RequestSnapshot  `json:"request"`
	Response ResponseSnapshot `json:"response"`
	User     UserSnapshot     `json:"user"`
}

type RequestSnapshot struct {
	Method         string              `json:"method,omitempty"`
	HTTPVersion    string              `json:"http_version,omitempty"`
	URL            URL                 `json:"url"`
	Headers        map[string][]string `json:"headers,omitempty"`
	Cookies        map[string][]string `json:"cookies,omitempty"`
	Socket         Socket              `json:"socket"`
	BodyCapture    BodyCapture         `json:"body_capture"`
	Body           string              `json:"body,omitempty"`
	BodyTruncated  bool                `json:"body_truncated,omitempty"`
	FormParameters map[string][]string `json:"form_parameters,omitempty"`
}

type ResponseSnapshot struct {
	StatusCode  int                 `json:"status_code,omitempty"`
	HeadersSent bool                `json:"headers_sent"`
	Finished    bool                `json:"finished"`
	Headers     map[string][]string `json:"headers,omitempty"`
}

type UserSnapshot struct {
	Username string `json:"username,omitempty"`
}

// snapshotLocked must be called with u.mu held.
func (u *Unit) snapshotLocked() Event {
	t := u.tracer
	ev := Event{
		Kind:           u.kind,
		AgentID:        t.agentID,
		Service:        t.cfg.ServiceName,
		Environment:    t.cfg.AppEnv,
		TraceID:        u.traceID,
		ID:             u.id,
		ParentID:       u.parentID,
		TransactionID:  u.transaction.id,
		RemoteParent:   u.remoteParent,
		Name:           u.name,
		NamingPriority: u.namingPriority,
		Type:           u.typ,
		Result:         u.result,
		Timestamp:      u.start,
		Duration:       u.duration,
		Ignored:        u.ignored,
		Error:          newErrorRecord(u.err),
	}
	if u.context != nil {
		ev.Context = u.context.snapshotLocked(t.cfg, u.err != nil)
	}
	return ev
}

func (c *TransactionContext) snapshotLocked(cfg Config, failed bool) *ContextSnapshot {
	req := &c.request
	snap := &ContextSnapshot{
		Request: RequestSnapshot{
			Method:         req.method,
			HTTPVersion:    req.httpVersion,
			URL:            req.url,
			Headers:        cloneMulti(req.headers),
			Cookies:        cloneMulti(req.cookies),
			Socket:         req.socket,
			BodyCapture:    req.bodyCapture,
			Body:           req.body.String(),
			BodyTruncated:  req.truncated,
			FormParameters: cloneMulti(req.formParams),
		},
		Response: ResponseSnapshot{
			StatusCode:  c.response.statusCode,
			HeadersSent: c.response.headersSent,
			Finished:    c.response.finished,
			Headers:     cloneMulti(c.response.headers),
		},
		User: UserSnapshot{Username: c.user.username},
	}

	// With capture_body=errors bodies and form parameters are only kept for
	// failed requests.
	body := &snap.Request
	keep := cfg.CaptureBody == CaptureBodyAll || cfg.CaptureBody == CaptureBodyTransactions ||
		(cfg.CaptureBody == CaptureBodyErrors && failed)
	if !keep {
		body.FormParameters = nil
	}
	if body.BodyCapture == BodyRedacted || (body.BodyCapture == BodyBuffered && !keep) {
		body.BodyCapture = BodyRedacted
		body.Body = RedactedBody
		body.BodyTruncated = false
	}
	return snap
}
