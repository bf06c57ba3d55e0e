package statemachine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lampYAML = `
name: lamp
initial: off
capabilities:
  guards: Working
  effects: [Light]
triggers:
  on:
    - origins: off
      destination: on
      conditions: Working
      effects: Light
    - origins: [off]
      destination: flicker
  off:
    origins: [on, flicker]
    destination: off
`

func TestLoadConfigFromBytes(t *testing.T) {
	t.Parallel()

	config, err := LoadConfigFromBytes([]byte(lampYAML))
	require.NoError(t, err)

	assert.Equal(t, "lamp", config.Name)
	assert.Equal(t, "off", config.Initial)
	require.NotNil(t, config.Capabilities)
	assert.Equal(t, StringList{"Working"}, config.Capabilities.Guards)
	assert.Equal(t, StringList{"Light"}, config.Capabilities.Effects)

	require.Len(t, config.Triggers["on"], 2)
	assert.Equal(t, StringList{"off"}, config.Triggers["on"][0].Origins)
	assert.Equal(t, StringList{"Working"}, config.Triggers["on"][0].Conditions)
	assert.Empty(t, config.Triggers["on"][1].Conditions)

	require.Len(t, config.Triggers["off"], 1, "a single mapping is a one-candidate list")
	assert.Equal(t, StringList{"on", "flicker"}, config.Triggers["off"][0].Origins)
}

func TestTableFromConfigRunsLikeLiteral(t *testing.T) {
	t.Parallel()

	config, err := LoadConfigFromBytes([]byte(lampYAML))
	require.NoError(t, err)

	table := TableFromConfig[string, string](config)
	assert.Equal(t, lampTable, table)

	l := &lamp{Current: config.Initial}
	result, err := New(l, table, nil).Trigger("on")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "on", l.Current)
	assert.Equal(t, 1, l.Lit)
}

func TestConfigValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
		want error
	}{
		{"missing name", "triggers: {go: {origins: a, destination: b}}", ErrConfigNameRequired},
		{"no triggers", "name: x", ErrTriggerRequired},
		{"empty trigger", "name: x\ntriggers: {go: []}", ErrCandidateRequired},
		{"null trigger", "name: x\ntriggers: {go: ~}", ErrCandidateRequired},
		{"no origins", "name: x\ntriggers: {go: {destination: b}}", ErrOriginsRequired},
		{"no destination", "name: x\ntriggers: {go: {origins: a}}", ErrDestinationRequired},
		{"empty origin", "name: x\ntriggers: {go: {origins: '', destination: b}}", ErrOriginsRequired},
		{"blank origin in list", "name: x\ntriggers: {go: {origins: [a, ' '], destination: b}}", ErrOriginsRequired},
		{"blank destination", "name: x\ntriggers: {go: {origins: a, destination: '  '}}", ErrDestinationRequired},
		{"empty condition", "name: x\ntriggers: {go: {origins: a, destination: b, conditions: ['']}}", ErrCapabilityNameRequired},
		{"scalar trigger", "name: x\ntriggers: {go: nope}", ErrInvalidShape},
		{"mapping list", "name: x\ntriggers: {go: {origins: {a: b}, destination: b}}", ErrInvalidShape},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadConfigFromBytes([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfigFromPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "lamp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lampYAML), 0o600))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "lamp", config.Name)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadConfigFromFS(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{"machines/lamp.yaml": {Data: []byte(lampYAML)}}

	config, err := LoadConfigFromFS(fsys, "machines/lamp.yaml")
	require.NoError(t, err)
	assert.Equal(t, "lamp", config.Name)

	_, err = LoadConfigFromFS(fsys, "machines/none.yaml")
	require.Error(t, err)
}

type mapLoader map[string]string

func (l mapLoader) LoadByName(name string) ([]byte, error) {
	data, ok := l[name]
	if !ok {
		return nil, os.ErrNotExist
	}

	return []byte(data), nil
}

func (l mapLoader) ListAvailable() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}

	return names
}

//nolint:paralleltest // Test modifies the global config loader
func TestLoadConfigByName(t *testing.T) {
	SetConfigLoader(nil)

	_, err := LoadConfig("lamp")
	require.ErrorIs(t, err, ErrNoConfigLoader)

	SetConfigLoader(mapLoader{"lamp": lampYAML})
	t.Cleanup(func() { SetConfigLoader(nil) })

	config, err := LoadConfig("lamp")
	require.NoError(t, err)
	assert.Equal(t, "lamp", config.Name)

	_, err = LoadConfig("torch")
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Contains(t, err.Error(), "available: [lamp]")
}
