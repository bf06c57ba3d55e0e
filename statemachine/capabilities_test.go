package statemachine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBurnedOut = errors.New("burned out")

// bulb exercises every method shape MethodCapabilities understands.
type bulb struct {
	lamp

	Watts float64
}

func (b *bulb) Bright() bool {
	return b.Watts > 60
}

func (b *bulb) Reset() {
	b.Watts = 0
}

func (b *bulb) Burn() error {
	return errBurnedOut
}

func (b *bulb) Tune(props Props) {
	b.Watts, _ = props.Float64("watts")
}

func (b *bulb) TryTune(props Props) error {
	b.Tune(props)

	return nil
}

func (b *bulb) Label() string {
	return "bulb"
}

func (b *bulb) Compare(other int) bool {
	return other > 0
}

// switcher is an interface subject; its methods carry no receiver in reflection.
type switcher interface {
	Stateful[string]
	Working() bool
	Light()
}

func TestMethodCapabilities(t *testing.T) {
	t.Parallel()

	caps := MethodCapabilities[*bulb]()

	assert.Equal(t, []string{"Bright", "Working"}, caps.GuardNames())
	assert.Equal(t, []string{"Burn", "Light", "Reset", "TryTune", "Tune"}, caps.EffectNames())

	b := &bulb{Watts: 100}

	bright, ok := caps.LookupGuard("Bright")
	require.True(t, ok)
	assert.True(t, bright(b))

	tune, ok := caps.LookupEffect("Tune")
	require.True(t, ok)
	require.NoError(t, tune(b, Props{"watts": 40}))
	assert.InDelta(t, 40.0, b.Watts, 0)
	assert.False(t, bright(b))

	burn, ok := caps.LookupEffect("Burn")
	require.True(t, ok)
	require.ErrorIs(t, burn(b, nil), errBurnedOut)

	reset, ok := caps.LookupEffect("Reset")
	require.True(t, ok)
	require.NoError(t, reset(b, nil))
	assert.Zero(t, b.Watts)

	_, ok = caps.LookupGuard("Label")
	assert.False(t, ok, "methods of other shapes are ignored")
	_, ok = caps.LookupGuard("Compare")
	assert.False(t, ok)
	_, ok = caps.LookupEffect("SetState")
	assert.False(t, ok)
}

func TestMethodCapabilitiesOnInterface(t *testing.T) {
	t.Parallel()

	caps := MethodCapabilities[switcher]()
	assert.Equal(t, []string{"Working"}, caps.GuardNames())
	assert.Equal(t, []string{"Light"}, caps.EffectNames())

	var subject switcher = &lamp{Current: "off"}

	result, err := New(subject, lampTable, caps).Trigger("on")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "on", subject.State())
}

func TestCapabilityNamespacesAreSeparate(t *testing.T) {
	t.Parallel()

	caps := NewCapabilities[*lamp]().
		Guard("ready", func(*lamp) bool { return true }).
		Do("light", (*lamp).Light)

	_, ok := caps.LookupEffect("ready")
	assert.False(t, ok)
	_, ok = caps.LookupGuard("light")
	assert.False(t, ok)

	table := Table[string, string]{
		"on": One(Transition[string]{
			Origins:     []string{"off"},
			Destination: "on",
			Conditions:  []CapabilityName{"light"},
		}),
	}

	_, err := New(&lamp{Current: "off"}, table, caps).Trigger("on")
	require.ErrorIs(t, err, ErrConditionUndefined)
}

func TestCapabilityBuilders(t *testing.T) {
	t.Parallel()

	var got Props

	caps := NewCapabilities[*lamp]().
		DoWithProps("record", func(_ *lamp, props Props) { got = props }).
		Try("fail", func(*lamp) error { return errBurnedOut }).
		Guard("nil", nil)

	record, ok := caps.LookupEffect("record")
	require.True(t, ok)
	require.NoError(t, record(&lamp{}, Props{"a": 1}))
	assert.Equal(t, Props{"a": 1}, got)

	fail, ok := caps.LookupEffect("fail")
	require.True(t, ok)
	require.ErrorIs(t, fail(&lamp{}, nil), errBurnedOut)

	_, ok = caps.LookupGuard("nil")
	assert.False(t, ok, "a nil guard is treated as undefined")
}

func TestNilCapabilities(t *testing.T) {
	t.Parallel()

	var caps *Capabilities[*lamp]

	_, ok := caps.LookupGuard("x")
	assert.False(t, ok)
	_, ok = caps.LookupEffect("x")
	assert.False(t, ok)
	assert.Nil(t, caps.GuardNames())
	assert.Nil(t, caps.EffectNames())
}
