package metrics

// MetricsCollector creates metrics on the application registry. Names are
// prefixed with the configured namespace and every series carries the
// service label. Registering the same name twice panics, as with Prometheus.
type MetricsCollector interface {
	CreateCounter(name, help string, labels []string) Counter
	CreateGauge(name, help string, labels []string) Gauge
	CreateHistogram(name, help string, labels []string, buckets []float64) Histogram
}
