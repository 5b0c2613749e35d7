package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the system and application registries and their HTTP servers.
type Metrics struct {
	// SystemServer serves SystemRegistry on /metrics. Nil when disabled.
	SystemServer *http.Server

	// ApplicationServer serves ApplicationRegistry on /metrics. Nil when disabled.
	ApplicationServer *http.Server

	// SystemRegistry holds the Go runtime, process and build info collectors.
	// Nil when the system endpoint is disabled.
	SystemRegistry *prometheus.Registry

	// ApplicationRegistry holds the agent series and host-defined metrics.
	ApplicationRegistry *prometheus.Registry

	namespace  string
	registerer prometheus.Registerer
}

// NewMetrics builds the registries and servers described by cfg. Servers are
// started by RegisterMetricsLifecycle, or by the caller:
//
//	m := metrics.NewMetrics(metrics.Config{ServiceName: "checkout"})
//	go m.ApplicationServer.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	labels := prometheus.Labels{"service": cfg.ServiceName}

	m := &Metrics{namespace: cfg.Namespace}
	if m.namespace == "" {
		m.namespace = DefaultNamespace
	}

	if addr := resolveAddress(cfg.SystemMetricsAddress, DefaultSystemMetricsAddress); addr != "" {
		reg := prometheus.NewRegistry()
		prometheus.WrapRegistererWith(labels, reg).MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
		m.SystemRegistry = reg
		m.SystemServer = newServer(addr, reg)
	}

	m.ApplicationRegistry = prometheus.NewRegistry()
	m.registerer = prometheus.WrapRegistererWith(labels, m.ApplicationRegistry)
	if addr := resolveAddress(cfg.ApplicationMetricsAddress, DefaultApplicationMetricsAddress); addr != "" {
		m.ApplicationServer = newServer(addr, m.ApplicationRegistry)
	}

	return m
}

func newServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{Addr: addr, Handler: mux}
}
