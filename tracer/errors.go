package tracer

import "errors"

// Sentinel errors attached to the warnings the tracer logs when it absorbs a
// protocol violation. None of them is ever returned into application code.
var (
	ErrAlreadyEnded       = errors.New("tracer: unit already ended")
	ErrEndedUnit          = errors.New("tracer: mutation or activation of an ended unit")
	ErrActivationMismatch = errors.New("tracer: deactivated unit is not on top of the stack")
	ErrNotActive          = errors.New("tracer: deactivated unit is not active on this path")
	ErrNoPath             = errors.New("tracer: context carries no execution path")
	ErrInternal           = errors.New("tracer: internal failure")
	ErrAlreadyInstalled   = errors.New("tracer: another tracer is already installed")
)
