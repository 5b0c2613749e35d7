package config

import (
	"go.uber.org/fx"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/metrics"
	"github.com/aalemi-dev/apm-lab/reporter"
	"github.com/aalemi-dev/apm-lab/reporter/kafka"
	"github.com/aalemi-dev/apm-lab/reporter/otelbridge"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// FXModule splits a supplied *Config into the per-package configs the other
// modules depend on.
//
//	fx.New(
//	    fx.Supply(cfg),
//	    config.FXModule,
//	    logger.FXModule,
//	    tracer.FXModule,
//	)
var FXModule = fx.Module("config",
	fx.Provide(Sections),
)

// Out carries the per-package configs.
type Out struct {
	fx.Out

	Logger   logger.Config
	Metrics  metrics.Config
	Tracer   tracer.Config
	Reporter reporter.Config
	OTel     otelbridge.Config
	Kafka    kafka.Config
}

func Sections(c *Config) Out {
	return Out{
		Logger:   c.Logger,
		Metrics:  c.Metrics,
		Tracer:   c.Tracer,
		Reporter: c.Reporter,
		OTel:     c.OTel,
		Kafka:    c.Kafka,
	}
}
