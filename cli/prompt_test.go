package cli

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectWithoutChoices(t *testing.T) {
	t.Parallel()

	_, err := NewPrompter(nil, nil).Select("Trigger")
	require.ErrorIs(t, err, ErrNoChoices)
}

func TestNewPrompterStreams(t *testing.T) {
	t.Parallel()

	defaults := NewPrompter(nil, nil)
	assert.Equal(t, os.Stdin, defaults.stdin)
	assert.Equal(t, os.Stdout, defaults.stdout)

	var out bytes.Buffer

	custom := NewPrompter(&bytes.Buffer{}, &out)

	_, err := custom.stdout.Write([]byte("drawn"))
	require.NoError(t, err)
	require.NoError(t, custom.stdout.Close())
	require.NoError(t, custom.stdin.Close())
	assert.Equal(t, "drawn", out.String())
}

func TestSearchPrefix(t *testing.T) {
	t.Parallel()

	search := searchPrefix([]string{"melt", "sublimate", "[Quit]"})

	assert.True(t, search("me", 0))
	assert.False(t, search("me", 1))
	assert.True(t, search("sub", 1))
	assert.False(t, search("", 0))
}

func TestAbortOr(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, abortOr(promptui.ErrInterrupt), ErrAborted)
	require.ErrorIs(t, abortOr(promptui.ErrEOF), ErrAborted)

	other := errors.New("terminal gone")
	assert.Equal(t, other, abortOr(other))
}
