package tracer

import (
	"context"
	"sync/atomic"
)

var installed atomic.Pointer[TracerClient]

// Install makes t the process-wide tracer used by Active and
// ActiveTransaction. Call sites that can receive a Tracer explicitly should
// do so; the installed tracer serves code that only has a context.
func Install(t *TracerClient) error {
	if t == nil {
		return nil
	}
	if !installed.CompareAndSwap(nil, t) && installed.Load() != t {
		return ErrAlreadyInstalled
	}
	return nil
}

// Uninstall removes t if it is the installed tracer.
func Uninstall(t *TracerClient) {
	installed.CompareAndSwap(t, nil)
}

// Installed returns the installed tracer, or nil.
func Installed() *TracerClient {
	return installed.Load()
}

// Active returns the current unit of ctx according to the installed tracer.
func Active(ctx context.Context) *Unit {
	return Installed().Current(ctx)
}

// ActiveTransaction returns the current transaction of ctx according to the
// installed tracer.
func ActiveTransaction(ctx context.Context) *Unit {
	return Active(ctx).Transaction()
}
