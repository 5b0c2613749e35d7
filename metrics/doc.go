// Package metrics exposes the agent's Prometheus metrics.
//
// Two registries are kept apart so they can be scraped with different
// policies: the system registry carries the Go runtime, process and build
// info collectors, and the application registry carries the agent's own
// series. Every series has a constant "service" label.
//
// NewObserver turns observability events from the tracer and the reporters
// into counters, a unit duration histogram and an open-transactions gauge:
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "checkout"})
//	t := tracer.New(cfg, tracer.WithObserver(metrics.NewObserver(m)))
//
// FXModule provides the same wiring inside an fx application.
package metrics
