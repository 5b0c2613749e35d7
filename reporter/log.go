package reporter

import (
	"strings"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// LogReporter writes one structured log line per reported unit.
type LogReporter struct {
	log   logger.Logger
	debug bool
}

// NewLogReporter logs at debug level when level is "debug" and at info level
// otherwise.
func NewLogReporter(log logger.Logger, level string) *LogReporter {
	if log == nil {
		log = logger.NewNop()
	}
	return &LogReporter{log: log, debug: strings.EqualFold(level, logger.Debug)}
}

func (r *LogReporter) Report(ev tracer.Event) {
	fields := map[string]interface{}{
		"kind":        ev.Kind.String(),
		"name":        ev.Name,
		"trace_id":    ev.TraceID.String(),
		"unit_id":     ev.ID.String(),
		"result":      ev.Result,
		"duration_ms": float64(ev.Duration.Microseconds()) / 1000,
	}
	if ev.HasParent() {
		fields["parent_id"] = ev.ParentID.String()
	}
	if ev.Type != "" {
		fields["type"] = ev.Type
	}
	if ev.Context != nil && ev.Context.Response.StatusCode != 0 {
		fields["status_code"] = ev.Context.Response.StatusCode
	}

	var err error
	if ev.Error != nil {
		err = ev.Error.Err
		fields["error_type"] = ev.Error.Type
	}

	if r.debug {
		r.log.Debug("unit reported", err, fields)
		return
	}
	r.log.Info("unit reported", err, fields)
}
