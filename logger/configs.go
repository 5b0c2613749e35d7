package logger

// Log levels accepted by Config.Level.
const (
	Debug   = "debug"
	Info    = "info"
	Warning = "warning"
	Error   = "error"
)

// Config controls the agent's own logger.
type Config struct {
	// Level is the minimum level written: "debug", "info", "warning" or "error".
	// Unknown values fall back to "info".
	//
	// YAML key "level", environment variable APM_LOG_LEVEL.
	Level string `yaml:"level" envconfig:"LOG_LEVEL"`

	// EnableTracing adds trace_id and span_id fields to the ...WithContext
	// methods whenever the context carries an activated transaction or span.
	//
	// YAML key "enable_tracing", environment variable APM_LOG_ENABLE_TRACING.
	EnableTracing bool `yaml:"enable_tracing" envconfig:"LOG_ENABLE_TRACING"`

	// ServiceName populates the "service" field of every entry.
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`

	// CallerSkip is the number of wrapper frames between the caller and zap.
	// Values <= 0 mean 1.
	CallerSkip int `yaml:"caller_skip" envconfig:"LOG_CALLER_SKIP"`
}
