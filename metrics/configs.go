package metrics

// Default listen addresses.
const (
	DefaultSystemMetricsAddress      = ":9090"
	DefaultApplicationMetricsAddress = ":9091"
	DefaultNamespace                 = "apm_agent"
)

// Config controls the two Prometheus endpoints.
//
// The system endpoint exposes Go runtime, process and build info collectors.
// The application endpoint exposes the agent's own series (units ended,
// reporter drops, activation mismatches) plus anything the host registers
// through MetricsCollector.
type Config struct {
	// SystemMetricsAddress is the listen address of the system endpoint.
	// nil means DefaultSystemMetricsAddress; a pointer to "" disables it.
	//
	// YAML key "system_metrics_address", environment variable APM_METRICS_SYSTEM_ADDRESS.
	SystemMetricsAddress *string `yaml:"system_metrics_address" envconfig:"METRICS_SYSTEM_ADDRESS"`

	// ApplicationMetricsAddress is the listen address of the application
	// endpoint. nil means DefaultApplicationMetricsAddress; a pointer to ""
	// disables the HTTP server but the registry still collects.
	//
	// YAML key "application_metrics_address", environment variable APM_METRICS_APPLICATION_ADDRESS.
	ApplicationMetricsAddress *string `yaml:"application_metrics_address" envconfig:"METRICS_APPLICATION_ADDRESS"`

	// ServiceName becomes the constant "service" label on every series.
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`

	// Namespace prefixes every application metric name. Defaults to
	// DefaultNamespace.
	Namespace string `yaml:"namespace" envconfig:"METRICS_NAMESPACE"`
}

// Ptr returns a pointer to s, for disabling endpoints in literals:
//
//	cfg := metrics.Config{SystemMetricsAddress: metrics.Ptr("")}
func Ptr(s string) *string {
	return &s
}

func resolveAddress(addr *string, def string) string {
	if addr == nil {
		return def
	}
	return *addr
}
