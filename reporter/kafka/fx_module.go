package kafka

import (
	"context"

	"go.uber.org/fx"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/observability"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// FXModule provides the Kafka *Reporter, adds it to the tracer's
// "reporters" group and drains it on stop.
var FXModule = fx.Module("kafka_reporter",
	fx.Provide(
		NewReporterWithDI,
		fx.Annotate(
			func(r *Reporter) tracer.Reporter { return r },
			fx.ResultTags(`group:"reporters"`),
		),
	),
	fx.Invoke(RegisterReporterLifecycle),
)

// ReporterParams groups the dependencies of NewReporterWithDI.
type ReporterParams struct {
	fx.In

	Config     Config
	Logger     logger.Logger          `optional:"true"`
	Serializer Serializer             `optional:"true"`
	Observer   observability.Observer `name:"metrics" optional:"true"`
	Writer     MessageWriter          `optional:"true"`
}

func NewReporterWithDI(p ReporterParams) (*Reporter, error) {
	opts := []Option{
		WithLogger(p.Logger),
		WithObserver(p.Observer),
		WithSerializer(p.Serializer),
	}
	if p.Writer != nil {
		opts = append(opts, WithWriter(p.Writer))
	}
	return NewReporter(p.Config, opts...)
}

type ReporterLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Reporter  *Reporter
}

func RegisterReporterLifecycle(p ReporterLifecycleParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Reporter.log.Info("Kafka reporter started", nil, map[string]interface{}{
				"topic":   p.Reporter.cfg.Topic,
				"brokers": p.Reporter.cfg.Brokers,
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Reporter.log.Info("Shutting down Kafka reporter", nil, map[string]interface{}{
				"dropped": p.Reporter.Dropped(),
			})
			return p.Reporter.Close(ctx)
		},
	})
}
