package tracer

import (
	"errors"
	"strings"
)

// Priority ranks naming sources. A name written at one priority can only be
// replaced at the same or a higher one, unless the write is forced.
type Priority int

const (
	// PriorityDefault is used for fallback names such as "GET unknown route".
	PriorityDefault Priority = iota
	// PriorityLowLevelFramework is used by dispatcher or handler-class naming.
	PriorityLowLevelFramework
	// PriorityLowLevelFrameworkPath is used for path-based names; it beats
	// handler-class names but loses to resolved routes.
	PriorityLowLevelFrameworkPath
	// PriorityHighLevelFramework is used when a framework resolved a route pattern.
	PriorityHighLevelFramework
	// PriorityUserSupplied is used for names set explicitly by application code.
	PriorityUserSupplied
)

func (p Priority) String() string {
	switch p {
	case PriorityDefault:
		return "default"
	case PriorityLowLevelFramework:
		return "low_level_framework"
	case PriorityLowLevelFrameworkPath:
		return "low_level_framework_path"
	case PriorityHighLevelFramework:
		return "high_level_framework"
	case PriorityUserSupplied:
		return "user_supplied"
	default:
		return "unknown"
	}
}

// ErrNameCommitted is returned by writes to a NameBuffer after Commit.
var ErrNameCommitted = errors.New("tracer: name buffer already committed")

// NameBuffer is an owned, initially empty buffer granted by AcquireName. The
// unit's name changes only when Commit succeeds, so a caller holding a stale
// buffer can never interleave text with another writer's.
type NameBuffer struct {
	unit     *Unit
	priority Priority
	force    bool
	b        strings.Builder
	done     bool
}

func (b *NameBuffer) WriteString(s string) (int, error) {
	if b.done {
		return 0, ErrNameCommitted
	}
	return b.b.WriteString(s)
}

func (b *NameBuffer) Write(p []byte) (int, error) {
	if b.done {
		return 0, ErrNameCommitted
	}
	return b.b.Write(p)
}

func (b *NameBuffer) WriteByte(c byte) error {
	if b.done {
		return ErrNameCommitted
	}
	return b.b.WriteByte(c)
}

func (b *NameBuffer) Len() int           { return b.b.Len() }
func (b *NameBuffer) String() string     { return b.b.String() }
func (b *NameBuffer) Priority() Priority { return b.priority }

// Commit assigns the buffered text as the unit's name. The priority check is
// repeated under the unit lock: if a higher-priority name was committed since
// the buffer was granted, or the buffer is empty, or the unit has ended,
// nothing changes and Commit returns false. A buffer commits at most once.
func (b *NameBuffer) Commit() bool {
	if b == nil || b.done {
		return false
	}
	b.done = true
	if b.b.Len() == 0 {
		return false
	}

	u := b.unit
	var committed bool
	u.mutate("name_commit", func() {
		if !b.force && b.priority < u.namingPriority {
			return
		}
		u.name = b.b.String()
		u.named = true
		if b.force || b.priority > u.namingPriority {
			u.namingPriority = b.priority
		}
		committed = true
	})
	return committed
}

// AcquireName grants a name buffer at priority p. It returns nil when the
// unit already carries a name of higher priority and force is false, or
// when the unit has ended. A forced grant ignores the current priority, and
// its commit sets the priority to p even if that lowers it.
//
//	if buf := tx.AcquireName(tracer.PriorityLowLevelFramework, false); buf != nil {
//	    buf.WriteString(handlerType)
//	    buf.WriteByte('#')
//	    buf.WriteString(methodName)
//	    buf.Commit()
//	}
func (u *Unit) AcquireName(p Priority, force bool) *NameBuffer {
	var buf *NameBuffer
	u.mutate("name_acquire", func() {
		if !force && p < u.namingPriority {
			return
		}
		buf = &NameBuffer{unit: u, priority: p, force: force}
	})
	return buf
}

// GetOrOverrideName is AcquireName without force.
func (u *Unit) GetOrOverrideName(p Priority) *NameBuffer {
	return u.AcquireName(p, false)
}

// WithName acquires, writes and commits name at priority p.
func (u *Unit) WithName(name string, p Priority) bool {
	return u.setName(name, p, false)
}

// OverrideName is WithName with force, for corrective renames such as the
// unknown-route fallback after a wrong higher-priority name.
func (u *Unit) OverrideName(name string, p Priority) bool {
	return u.setName(name, p, true)
}

func (u *Unit) setName(name string, p Priority, force bool) bool {
	buf := u.AcquireName(p, force)
	if buf == nil {
		return false
	}
	_, _ = buf.WriteString(name)
	return buf.Commit()
}

// UnknownRouteName is the fallback name for a request that matched no route.
func UnknownRouteName(method string) string {
	if method == "" {
		return "unknown route"
	}
	return method + " unknown route"
}
