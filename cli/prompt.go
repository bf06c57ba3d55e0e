// Package cli holds the terminal prompts used by fsmctl's interactive commands.
package cli

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

var (
	// ErrNoChoices is returned by Select when there is nothing to pick.
	ErrNoChoices = errors.New("nothing to choose from")
	// ErrAborted is returned when the user interrupts a prompt.
	ErrAborted = errors.New("prompt aborted")
)

// Prompter asks questions on a terminal.
type Prompter struct {
	stdin  io.ReadCloser
	stdout io.WriteCloser
}

// NewPrompter creates a prompter reading from in and drawing on out. Nil
// streams default to the process's stdin and stdout.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	p := &Prompter{stdin: os.Stdin, stdout: os.Stdout}

	if in != nil {
		p.stdin = io.NopCloser(in)
	}

	if out != nil {
		p.stdout = nopWriteCloser{out}
	}

	return p
}

// Select asks the user to pick one of choices. Typing "/" searches by prefix.
func (p *Prompter) Select(label string, choices ...string) (string, error) {
	if len(choices) == 0 {
		return "", ErrNoChoices
	}

	sel := &promptui.Select{
		Label:    label,
		Items:    choices,
		Size:     min(len(choices), 10), //nolint:mnd
		Searcher: searchPrefix(choices),
		Stdin:    p.stdin,
		Stdout:   p.stdout,
	}

	_, value, err := sel.Run()
	if err != nil {
		return "", abortOr(err)
	}

	return value, nil
}

// Confirm asks a yes/no question. Anything but yes counts as no.
func (p *Prompter) Confirm(label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
		Stdin:     p.stdin,
		Stdout:    p.stdout,
	}

	_, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}

		return false, abortOr(err)
	}

	return true, nil
}

func searchPrefix(choices []string) func(input string, index int) bool {
	return func(input string, index int) bool {
		if input == "" {
			return false
		}

		return strings.HasPrefix(choices[index], input)
	}
}

func abortOr(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
		return ErrAborted
	}

	return err
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}
