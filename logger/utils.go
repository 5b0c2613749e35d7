package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// extractTracingFields returns trace_id and span_id for the span context
// carried by ctx. The agent stores the activated unit's IDs there, so the
// span does not have to be a recording otel span.
func (l *LoggerClient) extractTracingFields(ctx context.Context) []zap.Field {
	if !l.tracingEnabled || ctx == nil {
		return nil
	}

	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return nil
	}

	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}

// convertToZapFields turns the error and field maps into zap fields.
func (l *LoggerClient) convertToZapFields(err error, fields ...map[string]interface{}) []zap.Field {
	var zapFields []zap.Field
	if err != nil {
		zapFields = append(zapFields, zap.Error(err))
	}
	for _, fieldMap := range fields {
		for key, value := range fieldMap {
			zapFields = append(zapFields, zap.Any(key, value))
		}
	}
	return zapFields
}

func (l *LoggerClient) withContext(ctx context.Context, err error, fields []map[string]interface{}) []zap.Field {
	return append(l.convertToZapFields(err, fields...), l.extractTracingFields(ctx)...)
}

// Debug logs at debug level.
func (l *LoggerClient) Debug(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.convertToZapFields(err, fields...)...)
}

// Info logs at info level.
//
// Example:
//
//	log.Info("reporter connected", nil, map[string]interface{}{
//	    "topic": "apm-events",
//	})
func (l *LoggerClient) Info(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.convertToZapFields(err, fields...)...)
}

// Warn logs at warn level. The tracer uses it for absorbed protocol violations.
func (l *LoggerClient) Warn(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.convertToZapFields(err, fields...)...)
}

// Error logs at error level.
func (l *LoggerClient) Error(msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.convertToZapFields(err, fields...)...)
}

// DebugWithContext logs at debug level with trace correlation.
func (l *LoggerClient) DebugWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Debug(msg, l.withContext(ctx, err, fields)...)
}

// InfoWithContext logs at info level with trace correlation.
func (l *LoggerClient) InfoWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Info(msg, l.withContext(ctx, err, fields)...)
}

// WarnWithContext logs at warn level with trace correlation.
func (l *LoggerClient) WarnWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Warn(msg, l.withContext(ctx, err, fields)...)
}

// ErrorWithContext logs at error level with trace correlation.
//
// Example:
//
//	log.ErrorWithContext(ctx, "kafka publish failed", err, map[string]interface{}{
//	    "topic": cfg.Topic,
//	})
func (l *LoggerClient) ErrorWithContext(ctx context.Context, msg string, err error, fields ...map[string]interface{}) {
	l.Zap.Error(msg, l.withContext(ctx, err, fields)...)
}
