package tracer

import (
	"context"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
)

// pathToken identifies one execution path. It travels in context.Context;
// the stacks live in the tracer's registry.
type pathToken uint64

type pathKey struct{}

var lastPath atomic.Uint64

func pathFrom(ctx context.Context) (pathToken, bool) {
	if ctx == nil {
		return 0, false
	}
	tok, ok := ctx.Value(pathKey{}).(pathToken)
	return tok, ok
}

// NewPath returns a context carrying a fresh, empty execution path. Work
// handed to another goroutine should start its own path rather than share
// the caller's.
func NewPath(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, pathKey{}, pathToken(lastPath.Add(1)))
}

type activation struct {
	unit  *Unit
	depth int
}

// registry holds one stack per live execution path. A path whose stack
// empties is dropped.
type registry struct {
	mu     sync.Mutex
	stacks map[pathToken][]*activation
}

// push adds one activation level of u to the path. It reports false, and
// changes nothing, once u has been purged by End.
func (r *registry) push(tok pathToken, u *Unit) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.purged {
		return false
	}
	if r.stacks == nil {
		r.stacks = make(map[pathToken][]*activation)
	}
	st := r.stacks[tok]
	if n := len(st); n > 0 && st[n-1].unit == u {
		st[n-1].depth++
	} else {
		r.stacks[tok] = append(st, &activation{unit: u, depth: 1})
	}

	if u.paths == nil {
		u.paths = make(map[pathToken]int)
	}
	u.paths[tok]++
	u.activations.Add(1)
	return true
}

type popResult int

const (
	popTop popResult = iota
	popMismatch
	popNotFound
)

// pop removes one activation level of u from the path, searching from the
// top so that a mismatched deactivate removes the most recent entry of u.
func (r *registry) pop(tok pathToken, u *Unit) popResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stacks[tok]
	idx := -1
	for i := len(st) - 1; i >= 0; i-- {
		if st[i].unit == u {
			idx = i
			break
		}
	}
	if idx < 0 {
		return popNotFound
	}

	result := popTop
	if idx != len(st)-1 {
		result = popMismatch
	}

	st[idx].depth--
	if st[idx].depth == 0 {
		st = append(st[:idx], st[idx+1:]...)
	}
	r.store(tok, st)

	u.activations.Add(-1)
	if u.paths[tok]--; u.paths[tok] <= 0 {
		delete(u.paths, tok)
	}
	return result
}

// purge removes every activation of u on every path.
func (r *registry) purge(u *Unit) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for tok := range u.paths {
		st := r.stacks[tok]
		kept := st[:0]
		for _, a := range st {
			if a.unit == u {
				removed += a.depth
				continue
			}
			kept = append(kept, a)
		}
		r.store(tok, kept)
	}
	u.paths = nil
	u.purged = true
	u.activations.Store(0)
	return removed
}

func (r *registry) store(tok pathToken, st []*activation) {
	if len(st) == 0 {
		delete(r.stacks, tok)
		return
	}
	r.stacks[tok] = st
}

func (r *registry) top(tok pathToken) *Unit {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stacks[tok]
	if len(st) == 0 {
		return nil
	}
	return st[len(st)-1].unit
}

func (r *registry) depth(tok pathToken) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stacks[tok])
}

func (r *registry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stacks)
}

// describe lists the stack from bottom to top for debug logging.
func (r *registry) describe(tok pathToken) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stacks[tok]
	out := make([]string, 0, len(st))
	for _, a := range st {
		out = append(out, a.unit.kind.String()+":"+a.unit.id.String())
	}
	return out
}

// Activate makes u the current unit on ctx's execution path and returns the
// context to run the activated scope with, together with a release function
// that deactivates u exactly once. When ctx carries no path a new one is
// started. The returned context also carries u's IDs as an OpenTelemetry span
// context, which is what the logger correlates on.
//
//	ctx, release := t.Activate(ctx, tx)
//	defer release()
//
// Activating the unit already on top of the path nests: it must be released
// the same number of times before it leaves the stack.
func (t *TracerClient) Activate(ctx context.Context, u *Unit) (actx context.Context, release func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	actx, release = ctx, func() {}
	if u == nil {
		return actx, release
	}
	defer t.Recover("activate")

	if u.IsEnded() {
		t.logger.Warn("refusing to activate an ended unit", ErrEndedUnit, u.logFields("activate"))
		return actx, release
	}

	tok, ok := pathFrom(ctx)
	if !ok {
		ctx = NewPath(ctx)
		tok, _ = pathFrom(ctx)
	}
	if !t.paths.push(tok, u) {
		t.logger.Warn("refusing to activate an ended unit", ErrEndedUnit, u.logFields("activate"))
		return actx, release
	}

	actx = trace.ContextWithSpanContext(ctx, u.SpanContext())
	var once sync.Once
	release = func() {
		once.Do(func() { t.Deactivate(actx, u) })
	}
	return actx, release
}

// Deactivate removes one activation of u from ctx's execution path. A unit
// that is not on top is still removed (its most recent entry), and a unit
// that is not on the path at all is left alone; both cases are logged, never
// raised.
func (t *TracerClient) Deactivate(ctx context.Context, u *Unit) {
	if u == nil {
		return
	}
	defer t.Recover("deactivate")

	tok, ok := pathFrom(ctx)
	if !ok {
		t.logger.Warn("deactivate called without an execution path", ErrNoPath, u.logFields("deactivate"))
		return
	}

	switch t.paths.pop(tok, u) {
	case popMismatch:
		fields := u.logFields("deactivate")
		if t.cfg.Debug {
			fields["stack"] = t.paths.describe(tok)
		}
		t.logger.Warn("deactivated unit was not on top of the stack", ErrActivationMismatch, fields)
		t.observe(observabilityOp("activation_mismatch", u, ErrActivationMismatch))
	case popNotFound:
		// End purges every activation, so a trailing release is expected.
		if u.IsEnded() {
			return
		}
		t.logger.Warn("deactivated unit is not active on this path", ErrNotActive, u.logFields("deactivate"))
		t.observe(observabilityOp("activation_mismatch", u, ErrNotActive))
	}
}

// Current returns the unit on top of ctx's execution path, or nil.
func (t *TracerClient) Current(ctx context.Context) *Unit {
	if t == nil {
		return nil
	}
	tok, ok := pathFrom(ctx)
	if !ok {
		return nil
	}
	return t.paths.top(tok)
}

// CurrentTransaction returns the transaction of the current unit, or nil.
func (t *TracerClient) CurrentTransaction(ctx context.Context) *Unit {
	return t.Current(ctx).Transaction()
}

// StackDepth is the number of distinct entries on ctx's execution path.
func (t *TracerClient) StackDepth(ctx context.Context) int {
	tok, ok := pathFrom(ctx)
	if !ok {
		return 0
	}
	return t.paths.depth(tok)
}

// ActivePaths is the number of execution paths with at least one active unit.
func (t *TracerClient) ActivePaths() int {
	return t.paths.size()
}
