// Package kafka publishes reported units to a Kafka topic with
// segmentio/kafka-go.
//
// Each ended unit becomes one JSON message keyed by its trace ID, with a
// W3C traceparent header naming the unit:
//
//	r, err := kafka.NewReporter(kafka.Config{
//	    Brokers: []string{"localhost:9092"},
//	    Topic:   "apm-events",
//	})
//	if err != nil {
//	    return err
//	}
//	defer r.Close(ctx)
//
//	t := tracer.NewClient(cfg, tracer.WithReporter(r))
//
// Report never blocks the goroutine that ended the unit. Events wait in a
// bounded queue for a background writer; when the queue is full they are
// dropped, counted in Dropped and observed as a "drop" operation. TLS, SASL
// (PLAIN, SCRAM-SHA-256, SCRAM-SHA-512) and compression (gzip, snappy, lz4,
// zstd) are configured through Config.
package kafka
