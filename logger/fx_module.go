package logger

import (
	"context"

	"go.uber.org/fx"
)

// FXModule provides *LoggerClient and the Logger interface and flushes the
// logger on shutdown. A logger.Config must be present in the graph.
//
//	app := fx.New(
//	    config.FXModule,
//	    logger.FXModule,
//	)
var FXModule = fx.Module("logger",
	fx.Provide(
		NewLoggerClient,
		fx.Annotate(
			func(l *LoggerClient) Logger { return l },
			fx.As(new(Logger)),
		),
	),
	fx.Invoke(RegisterLoggerLifecycle),
)

// RegisterLoggerLifecycle syncs buffered entries when the application stops.
func RegisterLoggerLifecycle(lc fx.Lifecycle, client *LoggerClient) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			// Sync on stderr returns EINVAL on some platforms; it is not actionable.
			_ = client.Zap.Sync()
			return nil
		},
	})
}
