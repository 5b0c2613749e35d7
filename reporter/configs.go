package reporter

// Config controls the built-in reporters.
type Config struct {
	// CollectorBufferSize is the number of events the in-memory collector
	// queues before it starts dropping.
	CollectorBufferSize int `yaml:"collector_buffer_size" envconfig:"REPORTER_COLLECTOR_BUFFER_SIZE"`

	// CollectorCapacity is the number of events the collector keeps. Once it
	// is reached new events are dropped until they are exported.
	CollectorCapacity int `yaml:"collector_capacity" envconfig:"REPORTER_COLLECTOR_CAPACITY"`

	// CollectorSync makes the collector buffer events on the reporting
	// goroutine. Tests use it for deterministic assertions.
	CollectorSync bool `yaml:"collector_sync" envconfig:"REPORTER_COLLECTOR_SYNC"`

	// LogEvents writes one log line per reported unit.
	LogEvents bool `yaml:"log_events" envconfig:"REPORTER_LOG_EVENTS"`

	// LogLevel is the level of those lines: "debug" or "info".
	LogLevel string `yaml:"log_level" envconfig:"REPORTER_LOG_LEVEL"`
}

const (
	// DefaultCollectorBufferSize applies when CollectorBufferSize is not positive.
	DefaultCollectorBufferSize = 1024

	// DefaultCollectorCapacity applies when CollectorCapacity is not positive.
	DefaultCollectorCapacity = 10000
)
