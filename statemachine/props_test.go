package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropsAccessors(t *testing.T) {
	t.Parallel()

	props := Props{
		"name":  "walker",
		"fast":  true,
		"steps": 3,
		"temp":  float32(1.5),
		"big":   uint64(7),
	}

	name, ok := props.String("name")
	assert.True(t, ok)
	assert.Equal(t, "walker", name)

	_, ok = props.String("fast")
	assert.False(t, ok)

	fast, ok := props.Bool("fast")
	assert.True(t, ok)
	assert.True(t, fast)

	steps, ok := props.Int("steps")
	assert.True(t, ok)
	assert.Equal(t, 3, steps)

	temp, ok := props.Float64("temp")
	assert.True(t, ok)
	assert.InDelta(t, 1.5, temp, 0.0001)

	big, ok := props.Float64("big")
	assert.True(t, ok)
	assert.InDelta(t, 7.0, big, 0)

	_, ok = props.Float64("name")
	assert.False(t, ok)

	raw, ok := props.Get("steps")
	assert.True(t, ok)
	assert.Equal(t, 3, raw)

	_, ok = props.Get("missing")
	assert.False(t, ok)
}

func TestPropsFloat64Or(t *testing.T) {
	t.Parallel()

	props := Props{"pressure": 90, "bad": "high"}

	val, err := props.Float64Or("pressure", 101.325)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, val, 0)

	val, err = props.Float64Or("missing", 101.325)
	require.NoError(t, err)
	assert.InDelta(t, 101.325, val, 0)

	_, err = props.Float64Or("bad", 0)
	require.ErrorIs(t, err, ErrPropType)
}

func TestPropsDecode(t *testing.T) {
	t.Parallel()

	var env struct {
		Temperature float64 `props:"temperature"`
		Pressure    float64 `props:"pressure"`
		Label       string  `props:"label"`
	}

	env.Pressure = 101.325

	err := Props{"temperature": "20", "label": "lab"}.Decode(&env)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, env.Temperature, 0)
	assert.InDelta(t, 101.325, env.Pressure, 0, "absent props leave defaults alone")
	assert.Equal(t, "lab", env.Label)

	var nilProps Props
	require.NoError(t, nilProps.Decode(&env))

	err = Props{"temperature": []int{1}}.Decode(&env)
	require.Error(t, err)
}
