// Package logger provides the agent's structured logger.
//
// It wraps go.uber.org/zap behind the Logger interface so that the tracer,
// the HTTP capture helpers and the reporters share one calling convention:
//
//	log.Warn("deactivating unit that is not on top of the stack", nil, map[string]interface{}{
//	    "unit_id": id,
//	})
//
// Entries are JSON on stderr with ISO8601 timestamps. When Config.EnableTracing
// is set, the ...WithContext variants add "trace_id" and "span_id" taken from
// the OpenTelemetry span context in ctx; the tracer places the activated
// unit's IDs there on every Activate, so any log line written while a
// transaction is active is correlated with it.
//
// NewNop returns a discarding logger and is the default for components that
// are built without one. FXModule wires the logger into an fx application and
// flushes it on stop.
package logger
