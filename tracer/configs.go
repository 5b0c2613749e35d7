package tracer

// Body capture modes for Config.CaptureBody.
const (
	CaptureBodyOff          = "off"
	CaptureBodyErrors       = "errors"
	CaptureBodyTransactions = "transactions"
	CaptureBodyAll          = "all"
)

// DefaultMaxBodySize bounds a buffered request body.
const DefaultMaxBodySize = 2048

// DefaultCaptureBodyContentTypes are the wildcard patterns a request
// content type must match for its body to be buffered.
var DefaultCaptureBodyContentTypes = []string{
	"application/x-www-form-urlencoded*",
	"text/*",
	"application/json*",
	"application/xml*",
}

// Config defines the agent's tracing behaviour.
type Config struct {
	// ServiceName is stamped on every reported event.
	//
	// YAML key "service_name", environment variable APM_SERVICE_NAME.
	ServiceName string `yaml:"service_name" envconfig:"SERVICE_NAME"`

	// AppEnv is the deployment environment, e.g. "production".
	//
	// YAML key "app_env", environment variable APM_APP_ENV.
	AppEnv string `yaml:"app_env" envconfig:"APP_ENV"`

	// CaptureBody selects when request bodies are recorded: "off", "errors",
	// "transactions" or "all". Empty means "off".
	//
	// YAML key "capture_body", environment variable APM_CAPTURE_BODY.
	CaptureBody string `yaml:"capture_body" envconfig:"CAPTURE_BODY"`

	// CaptureBodyContentTypes lists wildcard patterns for content types whose
	// bodies may be buffered. Nil means DefaultCaptureBodyContentTypes.
	//
	// YAML key "capture_body_content_types", environment variable
	// APM_CAPTURE_BODY_CONTENT_TYPES (comma separated).
	CaptureBodyContentTypes []string `yaml:"capture_body_content_types" envconfig:"CAPTURE_BODY_CONTENT_TYPES"`

	// URLGroups are wildcard patterns that collapse request paths into one
	// transaction name when UsePathAsName is set, e.g. "/users/*".
	//
	// YAML key "url_groups", environment variable APM_URL_GROUPS.
	URLGroups []string `yaml:"url_groups" envconfig:"URL_GROUPS"`

	// UsePathAsName names transactions after the request path instead of
	// "<METHOD> unknown route" when no framework supplied a name.
	//
	// YAML key "use_path_as_name", environment variable APM_USE_PATH_AS_NAME.
	UsePathAsName bool `yaml:"use_path_as_name" envconfig:"USE_PATH_AS_NAME"`

	// CaptureHeaders records request and response headers and cookies.
	//
	// YAML key "capture_headers", environment variable APM_CAPTURE_HEADERS.
	CaptureHeaders bool `yaml:"capture_headers" envconfig:"CAPTURE_HEADERS"`

	// MaxBodySize bounds a buffered body in bytes. Values <= 0 mean
	// DefaultMaxBodySize.
	MaxBodySize int `yaml:"max_body_size" envconfig:"MAX_BODY_SIZE"`

	// Debug logs the full execution-path stack whenever a deactivation does
	// not match the top of the stack.
	Debug bool `yaml:"debug" envconfig:"DEBUG"`
}

// BodyCaptureEnabled reports whether CaptureBody is anything other than off.
func (c Config) BodyCaptureEnabled() bool {
	return c.CaptureBody != "" && c.CaptureBody != CaptureBodyOff
}

func (c Config) withDefaults() Config {
	if c.CaptureBody == "" {
		c.CaptureBody = CaptureBodyOff
	}
	if c.CaptureBodyContentTypes == nil {
		c.CaptureBodyContentTypes = append([]string(nil), DefaultCaptureBodyContentTypes...)
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = DefaultMaxBodySize
	}
	return c
}
