package tracer

import (
	"fmt"
	"net/http"
)

// ResultFailure is the result of a transaction that ends without a valid
// HTTP status and without an explicit result.
const ResultFailure = "failure"

// ResultFromHTTPStatus classifies a status code as "HTTP 2xx" and so on. It
// returns "" for codes outside 100-599.
func ResultFromHTTPStatus(status int) string {
	if status < 100 || status >= 600 {
		return ""
	}
	return fmt.Sprintf("HTTP %dxx", status/100)
}

// End finalizes the unit. Only the first call has any effect; later calls
// are logged and ignored.
//
// For a transaction End runs the BeforeEnd fillers, turns a 200 status into
// 500 when an error was captured and the override was requested, derives the
// result from the status, falls back to "<METHOD> unknown route" when nothing
// named the transaction, and marks it ended. It then ends any spans still
// open under it, drops every remaining activation of the transaction on every
// execution path, and reports it unless it was ignored.
func (u *Unit) End() {
	if u == nil {
		return
	}
	t := u.tracer
	defer t.Recover("end")

	u.mu.Lock()
	if u.state != stateOpen {
		u.mu.Unlock()
		t.logger.Warn("unit already ended", ErrAlreadyEnded, u.logFields("end"))
		t.observe(observabilityOp("double_end", u, ErrAlreadyEnded))
		return
	}
	u.state = stateEnding
	fillers := u.fillers
	u.fillers = nil
	u.mu.Unlock()

	for _, fn := range fillers {
		u.runFiller(fn)
	}

	ev, children := u.finalize()

	for i := len(children) - 1; i >= 0; i-- {
		children[i].End()
	}
	if u.kind == KindSpan {
		u.transaction.removeChild(u)
	}
	t.paths.purge(u)

	op := observabilityOp(u.kind.String()+"_end", u, nil)
	op.SubResource = ev.Result
	op.Duration = ev.Duration
	if ev.Error != nil {
		op.Error = ev.Error.Err
	}
	if ev.Ignored {
		op.Operation = "ignored"
		t.observe(op)
		return
	}
	t.report(ev)
	t.observe(op)
}

func (u *Unit) runFiller(fn func(*Unit)) {
	defer u.tracer.Recover("before_end")
	fn(u)
}

// finalize applies the end-of-life defaults under the lock and marks the
// unit ended even if a step fails.
func (u *Unit) finalize() (ev Event, children []*Unit) {
	u.mu.Lock()
	defer u.mu.Unlock()
	defer func() {
		u.state = stateEnded
		u.fillers = nil
	}()

	u.duration = u.tracer.clock.Now().Sub(u.start)

	if u.kind == KindTransaction {
		resp := &u.context.response
		if u.err != nil && !u.explicitResult && u.overrideStatusOnError && resp.statusCode == http.StatusOK {
			resp.statusCode = http.StatusInternalServerError
		}
		if u.result == "" {
			u.result = ResultFromHTTPStatus(resp.statusCode)
		}
		if u.result == "" {
			u.result = ResultFailure
		}
		if u.name == "" {
			u.name = UnknownRouteName(u.context.request.method)
			u.namingPriority = PriorityDefault
		}
		children = append(children, u.children...)
		u.children = nil
	} else if u.name == "" {
		u.name = "unnamed"
	}

	ev = u.snapshotLocked()
	ev.Ignored = u.ignored
	return ev, children
}
