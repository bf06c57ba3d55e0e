package statemachine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer) *DefaultLogger {
	return NewSlogLogger(slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	buf.Reset()

	return line
}

func TestDefaultLoggerLevels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := jsonLogger(&buf)
	ctx := context.Background()

	logger.TriggerFailed(ctx, Diagnostic{
		Machine:    "lamp",
		Trigger:    "on",
		Kind:       EffectError,
		Capability: "Light",
		Message:    "Effect Light caused an error.",
		Err:        errors.New("fuse"), //nolint:err113
	})

	line := decodeLine(t, &buf)
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "Effect Light caused an error.", line["msg"])
	assert.Equal(t, "Light", line["capability"])
	assert.Equal(t, "fuse", line["error"])

	logger.TriggerFailed(ctx, Diagnostic{Machine: "lamp", Trigger: "x", Kind: TriggerUndefined, Message: "undefined"})

	line = decodeLine(t, &buf)
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "TriggerUndefined", line["kind"])
	assert.NotContains(t, line, "capability")

	logger.StateChanged(ctx, Diagnostic{Machine: "lamp", Trigger: "on", From: "off", To: "on", Message: "State changed to on"})

	line = decodeLine(t, &buf)
	assert.Equal(t, "off", line["from"])
	assert.Equal(t, "on", line["to"])
}

func TestVerboseMachineLogsThroughSlog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	m := New(&lamp{Current: "off"}, lampTable, nil,
		WithName("lamp"),
		WithVerbosity(true),
		WithLogger(jsonLogger(&buf)),
	)

	_, err := m.Trigger("on")
	require.NoError(t, err)

	line := decodeLine(t, &buf)
	assert.Equal(t, "State changed to on", line["msg"])
	assert.Equal(t, "lamp", line["machine"])
	assert.NotEmpty(t, line["call_id"])
}

func TestSlogtLogger(t *testing.T) {
	t.Parallel()

	m := New(&lamp{Current: "off", Broken: true}, lampTable, nil,
		WithVerbosity(true),
		WithLogger(NewSlogLogger(slogt.New(t))),
	)

	result, err := m.Trigger("on")
	require.NoError(t, err)
	assert.Equal(t, "flicker", result.Current)
}

func TestNewSlogLoggerNil(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, NewSlogLogger(nil).logger)
	assert.NotNil(t, NewDefaultLogger().logger)
}
