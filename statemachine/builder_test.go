package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	t.Parallel()

	table, err := NewBuilder[string, string]().
		On("on").
		From("off").To("on").When("Working").Do("Light").
		From("off").To("flicker").
		On("off").From("on", "flicker").To("off").
		Table()
	require.NoError(t, err)
	assert.Equal(t, lampTable, table)
}

func TestBuilderReopensTrigger(t *testing.T) {
	t.Parallel()

	b := NewBuilder[string, string]().
		On("go").From("a").To("b").
		On("back").From("b").To("a").
		On("go").From("c").To("b")

	table, err := b.Table()
	require.NoError(t, err)
	require.Len(t, table["go"], 2)
	assert.Equal(t, []string{"c"}, table["go"][1].Origins)
}

func TestBuilderErrors(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder[string, string]().From("a").To("b").Table()
	require.ErrorIs(t, err, ErrBuilderNoTrigger)

	_, err = NewBuilder[string, string]().On("go").To("b").Table()
	require.ErrorIs(t, err, ErrBuilderNoCandidate)

	_, err = NewBuilder[string, string]().On("go").Table()
	require.ErrorIs(t, err, ErrCandidateRequired)

	_, err = NewBuilder[string, string]().On("go").From().To("b").Table()
	require.ErrorIs(t, err, ErrOriginsRequired)
	assert.ErrorContains(t, err, "trigger go")

	assert.Panics(t, func() {
		NewBuilder[string, string]().On("go").When("x").MustTable()
	})
}

func TestBuilderTableIsDetached(t *testing.T) {
	t.Parallel()

	b := NewBuilder[string, string]().On("go").From("a").To("b")

	first := b.MustTable()
	first["go"][0].Destination = "z"

	assert.Equal(t, "b", b.MustTable()["go"][0].Destination)
}
