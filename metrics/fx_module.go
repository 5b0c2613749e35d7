package metrics

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/observability"
)

// FXModule provides *Metrics, MetricsCollector and an observability.Observer
// tagged `name:"metrics"`, and runs the HTTP servers for the app's lifetime.
var FXModule = fx.Module("metrics",
	fx.Provide(
		NewMetrics,
		fx.Annotate(
			func(m *Metrics) MetricsCollector { return m },
			fx.As(new(MetricsCollector)),
		),
		fx.Annotate(
			func(c MetricsCollector) observability.Observer { return NewObserver(c) },
			fx.ResultTags(`name:"metrics"`),
		),
	),
	fx.Invoke(RegisterMetricsLifecycle),
)

// RegisterMetricsLifecycle starts the enabled servers on start and shuts them
// down on stop.
func RegisterMetricsLifecycle(lc fx.Lifecycle, m *Metrics, log *logger.LoggerClient) {
	servers := []struct {
		name string
		srv  *http.Server
	}{
		{"system", m.SystemServer},
		{"application", m.ApplicationServer},
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			for _, s := range servers {
				if s.srv == nil {
					continue
				}
				go func(name string, srv *http.Server) {
					log.Info("Starting metrics server", nil, map[string]interface{}{
						"endpoint": name,
						"address":  srv.Addr,
					})
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						log.Error("Metrics server failed", err, map[string]interface{}{"endpoint": name})
					}
				}(s.name, s.srv)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			for _, s := range servers {
				if s.srv == nil {
					continue
				}
				if err := s.srv.Shutdown(ctx); err != nil {
					log.Error("Error shutting down metrics server", err, map[string]interface{}{"endpoint": s.name})
				}
			}
			return nil
		},
	})
}
