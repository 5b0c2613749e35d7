package kafka

import (
	"time"
)

// Config defines the connection and delivery settings of the Kafka reporter.
//
// Fields carry yaml tags for config files and envconfig tags for environment
// overrides under the APM_ prefix.
type Config struct {
	// Brokers is the list of bootstrap addresses, e.g. ["kafka-1:9092"].
	Brokers []string `yaml:"brokers" envconfig:"KAFKA_BROKERS"`

	// Topic receives one message per reported unit.
	Topic string `yaml:"topic" envconfig:"KAFKA_TOPIC"`

	// RequiredAcks is RequireNone, RequireOne or RequireAll.
	RequiredAcks int `yaml:"required_acks" envconfig:"KAFKA_REQUIRED_ACKS"`

	// WriteTimeout bounds a single produce call.
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"KAFKA_WRITE_TIMEOUT"`

	// BatchSize and BatchTimeout control the writer's batching.
	BatchSize    int           `yaml:"batch_size" envconfig:"KAFKA_BATCH_SIZE"`
	BatchTimeout time.Duration `yaml:"batch_timeout" envconfig:"KAFKA_BATCH_TIMEOUT"`

	// CompressionCodec is one of "gzip", "snappy", "lz4", "zstd" or empty.
	CompressionCodec string `yaml:"compression_codec" envconfig:"KAFKA_COMPRESSION_CODEC"`

	// MaxAttempts is the number of delivery attempts per batch.
	MaxAttempts int `yaml:"max_attempts" envconfig:"KAFKA_MAX_ATTEMPTS"`

	AllowAutoTopicCreation bool `yaml:"allow_auto_topic_creation" envconfig:"KAFKA_ALLOW_AUTO_TOPIC_CREATION"`

	// QueueSize is the number of events held between Report and the
	// background writer. Events reported while it is full are dropped.
	QueueSize int `yaml:"queue_size" envconfig:"KAFKA_QUEUE_SIZE"`

	TLS  TLSConfig  `yaml:"tls"`
	SASL SASLConfig `yaml:"sasl"`
}

// TLSConfig enables TLS towards the brokers.
type TLSConfig struct {
	Enabled            bool   `yaml:"enabled" envconfig:"KAFKA_TLS_ENABLED"`
	CACertPath         string `yaml:"ca_cert_path" envconfig:"KAFKA_TLS_CA_CERT_PATH"`
	ClientCertPath     string `yaml:"client_cert_path" envconfig:"KAFKA_TLS_CLIENT_CERT_PATH"`
	ClientKeyPath      string `yaml:"client_key_path" envconfig:"KAFKA_TLS_CLIENT_KEY_PATH"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify" envconfig:"KAFKA_TLS_INSECURE_SKIP_VERIFY"`
}

// SASLConfig enables SASL authentication. Mechanism is "PLAIN",
// "SCRAM-SHA-256" or "SCRAM-SHA-512".
type SASLConfig struct {
	Enabled   bool   `yaml:"enabled" envconfig:"KAFKA_SASL_ENABLED"`
	Mechanism string `yaml:"mechanism" envconfig:"KAFKA_SASL_MECHANISM"`
	Username  string `yaml:"username" envconfig:"KAFKA_SASL_USERNAME"`
	Password  string `yaml:"password" envconfig:"KAFKA_SASL_PASSWORD"` //nolint:gosec
}

const (
	DefaultRequiredAcks = RequireAll
	DefaultBatchSize    = 100
	DefaultBatchTimeout = 1 * time.Second
	DefaultMaxAttempts  = 10
	DefaultWriteTimeout = 10 * time.Second
	DefaultQueueSize    = 1024

	RequireNone = 0  // Fire-and-forget (no acknowledgment)
	RequireOne  = 1  // Wait for leader only
	RequireAll  = -1 // Wait for all in-sync replicas (most durable)
)

func (c Config) withDefaults() Config {
	if c.RequiredAcks == 0 {
		c.RequiredAcks = DefaultRequiredAcks
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.BatchTimeout == 0 {
		c.BatchTimeout = DefaultBatchTimeout
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = DefaultWriteTimeout
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	return c
}
