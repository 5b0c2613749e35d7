package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/aalemi-dev/apm-lab/tracer"
)

// ErrMissingServiceName is returned when no section names the service.
var ErrMissingServiceName = errors.New("service_name is required")

// ConfigError reports a problem in a configuration file.
type ConfigError struct {
	Path    string
	Line    int
	Message string
}

func (e *ConfigError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.Path, e.Line, e.Message)
	}
	return e.Path + ": " + e.Message
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then APM_* environment variables.
//
// Nested fields are read from APM_<SECTION>_<VAR>, e.g.
// APM_TRACER_CAPTURE_BODY, or from the bare variable name (CAPTURE_BODY)
// when the prefixed one is unset.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cerr := &ConfigError{Path: path, Message: err.Error()}
		var typeErr *yaml.TypeError
		if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
			cerr.Message = typeErr.Errors[0]
		}
		return cerr
	}
	return nil
}

// normalize copies the shared service identity into every section.
func (c *Config) normalize() {
	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	fill(&c.Logger.ServiceName, c.ServiceName)
	fill(&c.Metrics.ServiceName, c.ServiceName)
	fill(&c.Tracer.ServiceName, c.ServiceName)
	fill(&c.OTel.ServiceName, c.ServiceName)
	fill(&c.Tracer.AppEnv, c.AppEnv)
	fill(&c.OTel.AppEnv, c.AppEnv)
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Tracer.ServiceName == "" {
		return ErrMissingServiceName
	}
	switch c.Tracer.CaptureBody {
	case "", tracer.CaptureBodyOff, tracer.CaptureBodyErrors, tracer.CaptureBodyTransactions, tracer.CaptureBodyAll:
	default:
		return fmt.Errorf("invalid capture_body %q", c.Tracer.CaptureBody)
	}
	if c.Reporters.Kafka && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka reporter enabled without brokers")
	}
	return nil
}
