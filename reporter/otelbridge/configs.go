package otelbridge

// Config controls how reported units are re-emitted as OpenTelemetry spans.
type Config struct {
	// ServiceName identifies the service in the span resource.
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`

	// AppEnv is the deployment environment, e.g. "production".
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV"`

	// EnableExport sends spans to an OTLP/HTTP collector. The endpoint comes
	// from Endpoint or the standard OTEL_EXPORTER_OTLP_* variables.
	EnableExport bool `yaml:"enable_export" envconfig:"OTEL_ENABLE_EXPORT"`

	// Endpoint is the collector host:port. Empty uses the exporter default.
	Endpoint string `yaml:"endpoint" envconfig:"OTEL_ENDPOINT"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" envconfig:"OTEL_INSECURE"`

	// RegisterGlobal installs the provider and the W3C propagators as the
	// otel globals.
	RegisterGlobal bool `yaml:"register_global" envconfig:"OTEL_REGISTER_GLOBAL"`
}
