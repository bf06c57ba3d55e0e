package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// cell has private state that only its own Snapshot can preserve.
type cell struct {
	state  string
	charge int
}

func (c *cell) State() string {
	return c.state
}

func (c *cell) SetState(state string) {
	c.state = state
}

func (c *cell) Snapshot() *cell {
	copied := *c

	return &copied
}

func TestTakeSnapshotDeepCopies(t *testing.T) {
	t.Parallel()

	type holder struct {
		Tags  []string
		Props Props
		inner int
	}

	original := &holder{Tags: []string{"a"}, Props: Props{"k": 1}, inner: 5}
	copied := TakeSnapshot(original)

	assert.NotSame(t, original, copied)
	assert.Equal(t, original.Tags, copied.Tags)
	assert.Zero(t, copied.inner, "unexported fields are not copied reflectively")

	original.Tags[0] = "b"
	original.Props["k"] = 2

	assert.Equal(t, "a", copied.Tags[0])
	assert.Equal(t, 1, copied.Props["k"])
}

func TestTakeSnapshotUsesSnapshotter(t *testing.T) {
	t.Parallel()

	original := &cell{state: "full", charge: 9}
	copied := TakeSnapshot(original)

	assert.NotSame(t, original, copied)
	assert.Equal(t, "full", copied.state)
	assert.Equal(t, 9, copied.charge)

	result, err := New(original, Table[string, string]{
		"drain": One(Transition[string]{Origins: []string{"full"}, Destination: "empty"}),
	}, NewCapabilities[*cell]()).Trigger("drain")

	assert.NoError(t, err)
	assert.Equal(t, "full", result.PreSnapshot.state)
	assert.Equal(t, "empty", result.PostSnapshot.state)
}
