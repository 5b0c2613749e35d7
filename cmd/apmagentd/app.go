package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/aalemi-dev/apm-lab/config"
	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/metrics"
	"github.com/aalemi-dev/apm-lab/reporter"
	"github.com/aalemi-dev/apm-lab/reporter/kafka"
	"github.com/aalemi-dev/apm-lab/reporter/otelbridge"
	"github.com/aalemi-dev/apm-lab/tracer"
)

func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	fx.New(appOptions(cfg, listenAddr)).Run()
	return nil
}

// appOptions wires every module the configuration enables.
func appOptions(cfg *config.Config, addr string) fx.Option {
	opts := []fx.Option{
		fx.Supply(cfg),
		config.FXModule,
		logger.FXModule,
		metrics.FXModule,
		reporter.FXModule,
		tracer.FXModule,
		fx.Provide(func() listenAddress { return listenAddress(addr) }),
		fx.Provide(newServer),
		fx.Invoke(registerServerLifecycle),
	}
	if cfg.Reporters.OTel {
		opts = append(opts, otelbridge.FXModule)
	}
	if cfg.Reporters.Kafka {
		opts = append(opts, kafka.FXModule)
	}
	return fx.Options(opts...)
}

type listenAddress string

func newServer(addr listenAddress, t *tracer.TracerClient) *http.Server {
	return &http.Server{
		Addr:              string(addr),
		Handler:           routes(t),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func registerServerLifecycle(lc fx.Lifecycle, srv *http.Server, log logger.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info("Starting demo HTTP service", nil, map[string]interface{}{"address": srv.Addr})
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("Demo HTTP service failed", err, nil)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Stopping demo HTTP service", nil)
			return srv.Shutdown(ctx)
		},
	})
}
