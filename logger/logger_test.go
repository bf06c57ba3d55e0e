package logger

import (
	"bytes"
	"log"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLoggingWithOptions(t *testing.T) { //nolint:paralleltest
	previous := slog.Default()
	t.Cleanup(func() { slog.SetDefault(previous) })

	var out bytes.Buffer

	logger := ConfigureLoggingWithOptions(Options{
		App:      "fsmctl",
		JSON:     true,
		MinLevel: slog.LevelInfo,
		Output:   &out,
	})
	assert.Same(t, logger, slog.Default())

	slog.Debug("hidden")
	slog.Info("shown", "trigger", "walk")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), `"msg":"shown"`)
	assert.Contains(t, out.String(), `"app":"fsmctl"`)
	assert.Contains(t, out.String(), `"trigger":"walk"`)

	out.Reset()
	log.Println("legacy")
	assert.Contains(t, out.String(), `"msg":"legacy"`)

	out.Reset()
	ConfigureLoggingWithOptions(Options{Output: &out})
	slog.Info("plain")
	assert.Contains(t, out.String(), "msg=plain")
	assert.NotContains(t, out.String(), "app=")
}

func TestLoadOptions(t *testing.T) {
	t.Parallel()

	defaults := Options{App: "fsmctl", MinLevel: slog.LevelWarn, LegacyLevel: slog.LevelWarn}

	opts, err := loadOptions(defaults, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, defaults, opts)

	opts, err = loadOptions(defaults, map[string]string{
		"LOG_JSON":         "true",
		"LOG_LEVEL":        "debug",
		"LEGACY_LOG_LEVEL": "error",
	})
	require.NoError(t, err)
	assert.True(t, opts.JSON)
	assert.Equal(t, slog.LevelDebug, opts.MinLevel)
	assert.Equal(t, slog.LevelError, opts.LegacyLevel)
	assert.Equal(t, "fsmctl", opts.App)

	_, err = loadOptions(defaults, map[string]string{"LOG_LEVEL": "loud"})
	require.Error(t, err)

	_, err = loadOptions(defaults, map[string]string{"LOG_JSON": "sometimes"})
	require.Error(t, err)
}
