package kafka

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/aalemi-dev/apm-lab/logger"
	"github.com/aalemi-dev/apm-lab/observability"
	"github.com/aalemi-dev/apm-lab/tracer"
)

// MessageWriter is the part of *kafka.Writer the reporter uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Reporter publishes every reported unit to a Kafka topic.
//
// Report only enqueues; a background goroutine serializes and writes. The
// message key is the trace ID, so all units of a trace land on the same
// partition, and a W3C traceparent header identifies the unit.
//
// It implements tracer.Reporter.
type Reporter struct {
	cfg        Config
	writer     MessageWriter
	serializer Serializer
	log        logger.Logger
	observer   observability.Observer

	mu      sync.RWMutex
	queue   chan tracer.Event
	closed  bool
	done    chan struct{}
	dropped atomic.Int64
}

// Option customizes a Reporter.
type Option func(*Reporter)

func WithLogger(l logger.Logger) Option {
	return func(r *Reporter) {
		if l != nil {
			r.log = l
		}
	}
}

func WithObserver(o observability.Observer) Option {
	return func(r *Reporter) {
		if o != nil {
			r.observer = o
		}
	}
}

func WithSerializer(s Serializer) Option {
	return func(r *Reporter) {
		if s != nil {
			r.serializer = s
		}
	}
}

// WithWriter replaces the kafka-go writer built from the config.
func WithWriter(w MessageWriter) Option {
	return func(r *Reporter) { r.writer = w }
}

// NewReporter builds the writer from cfg and starts the background worker.
func NewReporter(cfg Config, opts ...Option) (*Reporter, error) {
	cfg = cfg.withDefaults()
	r := &Reporter{
		cfg:        cfg,
		serializer: JSONSerializer{},
		log:        logger.NewNop(),
		observer:   observability.NewNoOpObserver(),
		queue:      make(chan tracer.Event, cfg.QueueSize),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.writer == nil {
		if len(cfg.Brokers) == 0 {
			return nil, fmt.Errorf("kafka reporter: no brokers configured")
		}
		var tlsConfig *tls.Config
		var err error
		if cfg.TLS.Enabled {
			tlsConfig, err = createTLSConfig(cfg.TLS)
			if err != nil {
				return nil, fmt.Errorf("failed to create TLS config: %w", err)
			}
		}
		var mechanism sasl.Mechanism
		if cfg.SASL.Enabled {
			mechanism, err = createSASLMechanism(cfg.SASL)
			if err != nil {
				return nil, fmt.Errorf("failed to create SASL mechanism: %w", err)
			}
		}
		r.writer = createWriter(cfg, tlsConfig, mechanism, r.log)
	}

	go r.run()
	return r, nil
}

// Report enqueues ev. It never blocks: when the queue is full or the
// reporter is closed the event is dropped and counted.
func (r *Reporter) Report(ev tracer.Event) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.drop(ev, ErrClosed)
		return
	}
	select {
	case r.queue <- ev:
	default:
		r.drop(ev, ErrQueueFull)
	}
}

// Dropped is the number of events that were never handed to the writer.
func (r *Reporter) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Reporter) drop(ev tracer.Event, reason error) {
	r.dropped.Add(1)
	r.observe("drop", ev, 0, 0, reason)
}

func (r *Reporter) run() {
	defer close(r.done)
	for ev := range r.queue {
		r.publish(ev)
	}
}

func (r *Reporter) publish(ev tracer.Event) {
	start := time.Now()
	value, err := r.serializer.Serialize(ev)
	if err != nil {
		r.log.Error("Failed to serialize event", err, eventFields(ev))
		r.observe("produce", ev, time.Since(start), 0, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.cfg.WriteTimeout)
	defer cancel()

	err = r.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(ev.TraceID.String()),
		Value:   value,
		Headers: headers(ev),
	})
	if err != nil {
		fields := eventFields(ev)
		fields["cause"] = TranslateError(err).Error()
		r.log.Error("Failed to publish event", err, fields)
	}
	r.observe("produce", ev, time.Since(start), int64(len(value)), err)
}

// headers carries the unit's identity as a W3C traceparent plus its kind.
func headers(ev tracer.Event) []kafka.Header {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    ev.TraceID,
		SpanID:     ev.ID,
		TraceFlags: trace.FlagsSampled,
	})
	carrier := propagation.MapCarrier{}
	propagation.TraceContext{}.Inject(trace.ContextWithSpanContext(context.Background(), sc), carrier)

	out := make([]kafka.Header, 0, len(carrier)+1)
	for _, key := range carrier.Keys() {
		out = append(out, kafka.Header{Key: key, Value: []byte(carrier.Get(key))})
	}
	return append(out, kafka.Header{Key: "apm-kind", Value: []byte(ev.Kind.String())})
}

func eventFields(ev tracer.Event) map[string]interface{} {
	return map[string]interface{}{
		"trace_id": ev.TraceID.String(),
		"unit_id":  ev.ID.String(),
		"kind":     ev.Kind.String(),
	}
}

func (r *Reporter) observe(op string, ev tracer.Event, d time.Duration, size int64, err error) {
	r.observer.ObserveOperation(observability.OperationContext{
		Component:   observability.ComponentKafka,
		Operation:   op,
		Resource:    r.cfg.Topic,
		SubResource: ev.Kind.String(),
		Duration:    d,
		Error:       err,
		Size:        size,
	})
}

// Close stops accepting events, waits for the queue to drain or ctx to be
// done, then closes the writer.
func (r *Reporter) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	select {
	case <-r.done:
	case <-ctx.Done():
		r.log.Warn("Kafka reporter closed before the queue drained", ctx.Err(), map[string]interface{}{
			"pending": len(r.queue),
		})
	}
	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer: %w", err)
	}
	return nil
}

func createWriter(cfg Config, tlsConfig *tls.Config, mechanism sasl.Mechanism, log logger.Logger) *kafka.Writer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		MaxAttempts:            cfg.MaxAttempts,
		WriteTimeout:           cfg.WriteTimeout,
		BatchSize:              cfg.BatchSize,
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		AllowAutoTopicCreation: cfg.AllowAutoTopicCreation,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Error("Kafka internal error", nil, map[string]interface{}{
				"error": fmt.Sprintf(msg, args...),
			})
		}),
		Transport: &kafka.Transport{
			TLS:  tlsConfig,
			SASL: mechanism,
		},
	}

	switch cfg.CompressionCodec {
	case "gzip":
		w.Compression = compress.Gzip
	case "snappy":
		w.Compression = compress.Snappy
	case "lz4":
		w.Compression = compress.Lz4
	case "zstd":
		w.Compression = compress.Zstd
	}
	return w
}

func createTLSConfig(cfg TLSConfig) (*tls.Config, error) {
	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec
	}

	if cfg.CACertPath != "" {
		caCert, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA cert: %w", err)
		}
		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM(caCert) {
			return nil, fmt.Errorf("failed to parse CA cert")
		}
		tlsConfig.RootCAs = caCertPool
	}

	if cfg.ClientCertPath != "" && cfg.ClientKeyPath != "" {
		cert, err := tls.LoadX509KeyPair(cfg.ClientCertPath, cfg.ClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client cert: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	return tlsConfig, nil
}

func createSASLMechanism(cfg SASLConfig) (sasl.Mechanism, error) {
	switch cfg.Mechanism {
	case "PLAIN":
		return plain.Mechanism{
			Username: cfg.Username,
			Password: cfg.Password,
		}, nil
	case "SCRAM-SHA-256":
		return scram.Mechanism(scram.SHA256, cfg.Username, cfg.Password)
	case "SCRAM-SHA-512":
		return scram.Mechanism(scram.SHA512, cfg.Username, cfg.Password)
	default:
		return nil, fmt.Errorf("unsupported SASL mechanism: %s", cfg.Mechanism)
	}
}
