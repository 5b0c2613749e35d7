package tracer

import (
	"context"

	"go.uber.org/fx"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/observability"
)

// FXModule provides *TracerClient and the Tracer interface, and installs the
// tracer as the process-wide one for the lifetime of the app.
//
// Reporters join through the "reporters" value group:
//
//	fx.Provide(fx.Annotate(newCollector, fx.As(new(tracer.Reporter)), fx.ResultTags(`group:"reporters"`)))
var FXModule = fx.Module("tracer",
	fx.Provide(
		NewClientWithDI,
		fx.Annotate(
			func(t *TracerClient) Tracer { return t },
			fx.As(new(Tracer)),
		),
	),
	fx.Invoke(RegisterTracerLifecycle),
)

// TracerParams groups the dependencies of NewClientWithDI.
type TracerParams struct {
	fx.In

	Config    Config
	Logger    logger.Logger          `optional:"true"`
	Observer  observability.Observer `name:"metrics" optional:"true"`
	Reporters []Reporter             `group:"reporters"`
}

// NewClientWithDI builds a TracerClient from injected dependencies.
func NewClientWithDI(p TracerParams) *TracerClient {
	opts := []Option{WithLogger(p.Logger)}
	if p.Observer != nil {
		opts = append(opts, WithObserver(p.Observer))
	}
	for _, r := range p.Reporters {
		opts = append(opts, WithReporter(r))
	}
	return NewClient(p.Config, opts...)
}

// RegisterTracerLifecycle installs t on start and uninstalls it on stop.
func RegisterTracerLifecycle(lc fx.Lifecycle, t *TracerClient) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := Install(t); err != nil {
				return err
			}
			t.logger.Info("tracer installed", nil, map[string]interface{}{
				"service":      t.cfg.ServiceName,
				"agent_id":     t.agentID,
				"capture_body": t.cfg.CaptureBody,
			})
			return nil
		},
		OnStop: func(ctx context.Context) error {
			Uninstall(t)
			if n := t.ActivePaths(); n > 0 {
				t.logger.Warn("tracer stopped with active execution paths", nil, map[string]interface{}{
					"paths": n,
				})
			}
			return nil
		},
	})
}
