package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/amp-labs/statemixin/cli"
	"github.com/amp-labs/statemixin/examples/matter"
	"github.com/amp-labs/statemixin/examples/walker"
	"github.com/amp-labs/statemixin/statemachine"
	"github.com/spf13/cobra"
)

const quitChoice = "[Quit]"

type prompter interface {
	Select(label string, choices ...string) (string, error)
	Confirm(label string) (bool, error)
}

// newPrompter is replaced in tests.
var newPrompter = func(cmd *cobra.Command) prompter { //nolint:gochecknoglobals
	return cli.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
}

type runOptions struct {
	energy  int
	phase   string
	verbose bool
	strict  bool
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <machine>",
		Short: "Step a built-in machine by picking permitted triggers",
		Long: `run binds a built-in machine (matter, walker) to a fresh subject and
offers the triggers permitted from its current state. Each pick is
fired and its outcome printed. With --verbose the machine's
diagnostics are printed as well.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"matter", "walker"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			machineOpts := []statemachine.Option{
				statemachine.WithThrowExceptions(false),
				statemachine.WithStrictOrigins(opts.strict),
				statemachine.WithVerbosity(opts.verbose),
				statemachine.WithLogger(statemachine.NewSlogLogger(slog.New(
					slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug})))),
			}

			s := &session{out: out, prompt: newPrompter(cmd)}

			switch args[0] {
			case "walker":
				if opts.energy < 0 {
					return fmt.Errorf("%w: --energy must not be negative", errInvalidFlag)
				}

				return drive(cmd.Context(), s, walker.Merge(walker.New(opts.energy), machineOpts...))
			case "matter":
				phase := matter.State(opts.phase)
				if !slices.Contains([]matter.State{matter.Solid, matter.Liquid, matter.Gas, matter.Plasma}, phase) {
					return fmt.Errorf("%w: unknown phase %q", errInvalidFlag, opts.phase)
				}

				return drive(cmd.Context(), s, matter.Merge(matter.New(phase), machineOpts...))
			default:
				return fmt.Errorf("%w: %s (run needs a built-in subject: matter, walker)", errUnknownMachine, args[0])
			}
		},
	}

	cmd.Flags().IntVar(&opts.energy, "energy", 1, "Starting energy of the walker")
	cmd.Flags().StringVar(&opts.phase, "phase", string(matter.Solid), "Starting phase of the matter")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "Print the machine's diagnostics")
	cmd.Flags().BoolVar(&opts.strict, "strict-origins", false, "Skip candidates whose own origins exclude the current state")

	return cmd
}

type session struct {
	out    io.Writer
	prompt prompter
}

// drive loops until the user quits. A dead end offers to start over from the
// state the subject began in.
func drive[S comparable, T ~string, O statemachine.Stateful[S]](
	ctx context.Context,
	s *session,
	merged *statemachine.Merged[S, T, O],
) error {
	start := merged.State()

	for {
		permitted := merged.Permitted()

		if len(permitted) == 0 {
			fmt.Fprintf(s.out, "No triggers permitted from %v\n", merged.State())

			again, err := s.prompt.Confirm("Start over")
			if err != nil || !again {
				return quit(err)
			}

			merged.SetState(start)

			continue
		}

		choices := make([]string, 0, len(permitted)+1)
		for _, trigger := range permitted {
			choices = append(choices, string(trigger))
		}

		choice, err := s.prompt.Select(fmt.Sprint(merged.State()), append(choices, quitChoice)...)
		if err != nil || choice == quitChoice {
			return quit(err)
		}

		result, err := merged.TriggerContext(ctx, T(choice))
		if err != nil {
			return err
		}

		printResult(s.out, result)
	}
}

func printResult[S comparable, T ~string, O any](out io.Writer, result *statemachine.Result[S, T, O]) {
	if result.Success {
		fmt.Fprintf(out, "%s: %v -> %v", result.Trigger, result.Previous, result.Current)

		if fallbacks := result.Fallbacks(); fallbacks > 0 {
			fmt.Fprintf(out, " after %d fallback(s)", fallbacks)
		}

		fmt.Fprintln(out)

		return
	}

	failure := result.Failure
	fmt.Fprintf(out, "%s: %s: %s (still %v)\n", result.Trigger, failure.Kind, failure.Message, result.Current)

	for _, attempt := range result.Attempts {
		var guards []string
		for _, condition := range attempt.Conditions {
			guards = append(guards, fmt.Sprintf("%s=%t", condition.Name, condition.Success))
		}

		fmt.Fprintf(out, "  candidate %d -> %v [%s]\n",
			attempt.Index, attempt.Transition.Destination, strings.Join(guards, ", "))
	}
}

func quit(err error) error {
	if errors.Is(err, cli.ErrAborted) {
		return nil
	}

	return err
}
