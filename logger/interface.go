package logger

import (
	"context"
)

// Logger is the structured logging contract used across the agent.
// Every method takes an optional error and any number of field maps; later
// maps override earlier keys.
//
// This interface is implemented by the concrete *LoggerClient type.
type Logger interface {
	Debug(msg string, err error, fields ...map[string]interface{})
	Info(msg string, err error, fields ...map[string]interface{})
	Warn(msg string, err error, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})

	// Context-aware variants add trace_id/span_id when tracing correlation is on.

	DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
	ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{})
}
