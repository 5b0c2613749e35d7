package reporter

import (
	"context"

	"go.uber.org/fx"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/observability"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// FXModule provides the in-memory *Collector and, when Config.LogEvents is
// set, a LogReporter. Both join the tracer's "reporters" group.
var FXModule = fx.Module("reporter",
	fx.Provide(
		NewCollectorWithDI,
		fx.Annotate(
			func(c *Collector) tracer.Reporter { return c },
			fx.ResultTags(`group:"reporters"`),
		),
		fx.Annotate(
			NewLogReportersWithDI,
			fx.ResultTags(`group:"reporters,flatten"`),
		),
	),
	fx.Invoke(RegisterCollectorLifecycle),
)

// CollectorParams groups the dependencies of NewCollectorWithDI.
type CollectorParams struct {
	fx.In

	Config   Config
	Observer observability.Observer `name:"metrics" optional:"true"`
}

func NewCollectorWithDI(p CollectorParams) *Collector {
	c := NewCollector(p.Config.CollectorBufferSize, p.Observer)
	c.SetCapacity(p.Config.CollectorCapacity)
	c.SetSyncMode(p.Config.CollectorSync)
	return c
}

// LogReporterParams groups the dependencies of NewLogReportersWithDI.
type LogReporterParams struct {
	fx.In

	Config Config
	Logger logger.Logger `optional:"true"`
}

// NewLogReportersWithDI returns the log reporter, or nothing when event
// logging is off.
func NewLogReportersWithDI(p LogReporterParams) []tracer.Reporter {
	if !p.Config.LogEvents {
		return nil
	}
	return []tracer.Reporter{NewLogReporter(p.Logger, p.Config.LogLevel)}
}

// RegisterCollectorLifecycle closes the collector on stop.
func RegisterCollectorLifecycle(lc fx.Lifecycle, c *Collector) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			c.Close()
			return nil
		},
	})
}
