package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultValues(t *testing.T) {
	t.Parallel()

	config, err := loadConfig("fsmctl", "test", map[string]string{})
	require.NoError(t, err)

	assert.False(t, config.Enabled)
	assert.Equal(t, "fsmctl", config.ServiceName)
	assert.Equal(t, "1.0.0", config.ServiceVersion)
	assert.Equal(t, "test", config.Environment)
	assert.Empty(t, config.Endpoint)
	assert.Equal(t, 5*time.Second, config.Timeout)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Parallel()

	config, err := loadConfig("fsmctl", "dev", map[string]string{
		"OTEL_ENABLED":                       "true",
		"OTEL_SERVICE_NAME":                  "walker-bench",
		"OTEL_SERVICE_VERSION":               "2.0.0",
		"OTEL_DEPLOYMENT_ENVIRONMENT":        "staging",
		"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT": "http://collector:4318",
		"OTEL_EXPORTER_OTLP_TRACES_TIMEOUT":  "250ms",
	})
	require.NoError(t, err)

	assert.True(t, config.Enabled)
	assert.Equal(t, "walker-bench", config.ServiceName)
	assert.Equal(t, "2.0.0", config.ServiceVersion)
	assert.Equal(t, "staging", config.Environment)
	assert.Equal(t, "http://collector:4318", config.Endpoint)
	assert.Equal(t, 250*time.Millisecond, config.Timeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	_, err := loadConfig("fsmctl", "dev", map[string]string{"OTEL_ENABLED": "maybe"})
	require.Error(t, err)

	_, err = loadConfig("fsmctl", "dev", map[string]string{"OTEL_EXPORTER_OTLP_TRACES_TIMEOUT": "soon"})
	require.Error(t, err)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "http://localhost:4318")

	config, err := LoadConfigFromEnv("fsmctl", "cli")
	require.NoError(t, err)

	assert.True(t, config.Enabled)
	assert.Equal(t, "http://localhost:4318", config.Endpoint)
}

//nolint:paralleltest // Installs the global tracer provider
func TestInitializeAndShutdown(t *testing.T) {
	require.NoError(t, Initialize(t.Context(), &Config{Enabled: false}))
	assert.False(t, Enabled())

	require.NoError(t, Initialize(t.Context(), &Config{Enabled: true}))
	assert.False(t, Enabled())

	require.NoError(t, Initialize(t.Context(), &Config{
		ServiceName: "fsmctl",
		Environment: "test",
		Endpoint:    "http://127.0.0.1:4318",
		Enabled:     true,
		Timeout:     time.Second,
	}))
	assert.True(t, Enabled())

	require.NoError(t, Shutdown(t.Context()))
	assert.False(t, Enabled())
	require.NoError(t, Shutdown(t.Context()))
}
