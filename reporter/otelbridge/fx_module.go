package otelbridge

import (
	"context"

	"go.uber.org/fx"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/observability"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// FXModule provides *Bridge, adds it to the tracer's "reporters" group and
// shuts the provider down on stop.
var FXModule = fx.Module("otelbridge",
	fx.Provide(
		NewBridgeWithDI,
		fx.Annotate(
			func(b *Bridge) tracer.Reporter { return b },
			fx.ResultTags(`group:"reporters"`),
		),
	),
	fx.Invoke(RegisterBridgeLifecycle),
)

type BridgeParams struct {
	fx.In

	Config   Config
	Logger   logger.Logger          `optional:"true"`
	Observer observability.Observer `name:"metrics" optional:"true"`
}

func NewBridgeWithDI(p BridgeParams) (*Bridge, error) {
	return NewBridge(p.Config, WithLogger(p.Logger), WithObserver(p.Observer))
}

func RegisterBridgeLifecycle(lc fx.Lifecycle, b *Bridge) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			b.log.Info("shutting down otel bridge", nil)
			return b.Shutdown(ctx)
		},
	})
}
