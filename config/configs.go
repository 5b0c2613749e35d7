package config

import (
	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/metrics"
	"github.com/aalemi-dev/apm-lab/reporter"
	"github.com/aalemi-dev/apm-lab/reporter/kafka"
	"github.com/aalemi-dev/apm-lab/reporter/otelbridge"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "APM"

// Config is the whole agent configuration.
//
// ServiceName and AppEnv are copied into the sections that leave them empty.
type Config struct {
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	AppEnv      string `yaml:"app_env" envconfig:"APP_ENV"`

	Logger   logger.Config     `yaml:"logger"`
	Metrics  metrics.Config    `yaml:"metrics"`
	Tracer   tracer.Config     `yaml:"tracer"`
	Reporter reporter.Config   `yaml:"reporter"`
	OTel     otelbridge.Config `yaml:"otel"`
	Kafka    kafka.Config      `yaml:"kafka"`

	// Reporters switches the optional reporters on.
	Reporters Reporters `yaml:"reporters"`
}

// Reporters selects the optional reporters. The in-memory collector is
// always wired.
type Reporters struct {
	OTel  bool `yaml:"otel" envconfig:"REPORT_OTEL"`
	Kafka bool `yaml:"kafka" envconfig:"REPORT_KAFKA"`
}

// Default returns the configuration used for anything a file or the
// environment does not set.
func Default() *Config {
	return &Config{
		AppEnv: "development",
		Logger: logger.Config{
			Level: logger.Info,
		},
		Metrics: metrics.Config{
			Namespace: metrics.DefaultNamespace,
		},
		Tracer: tracer.Config{
			CaptureBody:    tracer.CaptureBodyOff,
			CaptureHeaders: true,
			MaxBodySize:    tracer.DefaultMaxBodySize,
		},
		Reporter: reporter.Config{
			CollectorBufferSize: reporter.DefaultCollectorBufferSize,
			CollectorCapacity:   reporter.DefaultCollectorCapacity,
			LogLevel:            logger.Info,
		},
		Kafka: kafka.Config{
			Topic: "apm-events",
		},
	}
}
