package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/aalemi-dev/apm-lab/tracer"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "apm.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
service_name: checkout
app_env: production
tracer:
  capture_body: errors
  capture_headers: false
  url_groups: ["/users/*", "/orders/*"]
kafka:
  brokers: ["k1:9092"]
reporters:
  kafka: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "checkout", cfg.Tracer.ServiceName)
	assert.Equal(t, "checkout", cfg.Logger.ServiceName)
	assert.Equal(t, "checkout", cfg.OTel.ServiceName)
	assert.Equal(t, "production", cfg.Tracer.AppEnv)
	assert.Equal(t, tracer.CaptureBodyErrors, cfg.Tracer.CaptureBody)
	assert.False(t, cfg.Tracer.CaptureHeaders)
	assert.Equal(t, []string{"/users/*", "/orders/*"}, cfg.Tracer.URLGroups)
	assert.Equal(t, tracer.DefaultMaxBodySize, cfg.Tracer.MaxBodySize)
	assert.Equal(t, "apm-events", cfg.Kafka.Topic)
	assert.True(t, cfg.Reporters.Kafka)
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("APM_SERVICE_NAME", "svc")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.Tracer.CaptureHeaders)
	assert.Equal(t, tracer.CaptureBodyOff, cfg.Tracer.CaptureBody)
	assert.Equal(t, "development", cfg.Tracer.AppEnv)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.False(t, cfg.Reporters.OTel)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeFile(t, `
service_name: checkout
tracer:
  capture_body: errors
`)
	t.Setenv("APM_TRACER_CAPTURE_BODY", "all")
	t.Setenv("USE_PATH_AS_NAME", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, tracer.CaptureBodyAll, cfg.Tracer.CaptureBody)
	assert.True(t, cfg.Tracer.UsePathAsName)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]string{
		"missing service": "app_env: test\n",
		"bad capture":     "service_name: x\ntracer:\n  capture_body: sometimes\n",
		"kafka brokers":   "service_name: x\nreporters:\n  kafka: true\n",
		"wrong type":      "service_name: x\ntracer:\n  max_body_size: lots\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_TypeErrorIsConfigError(t *testing.T) {
	path := writeFile(t, "service_name: x\ntracer:\n  max_body_size: lots\n")

	_, err := Load(path)

	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, path, cerr.Path)
	assert.Contains(t, cerr.Error(), "lots")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFXModule_ProvidesSections(t *testing.T) {
	cfg := Default()
	cfg.ServiceName = "svc"
	cfg.normalize()

	var got tracer.Config
	app := fxtest.New(t,
		fx.Supply(cfg),
		FXModule,
		fx.Populate(&got),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Equal(t, "svc", got.ServiceName)
	assert.True(t, got.CaptureHeaders)
}
