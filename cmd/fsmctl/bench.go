package main

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/amp-labs/statemixin/examples/walker"
	"github.com/amp-labs/statemixin/statemachine"
	"github.com/spf13/cobra"
	"go.uber.org/atomic"
)

type benchOptions struct {
	subjects int
	rounds   int
	workers  int
}

// benchReport aggregates the machine stats of every subject.
type benchReport struct {
	Calls     uint64
	Successes uint64
	Failures  uint64
	Elapsed   time.Duration
}

func newBenchCmd() *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive many independent walkers on a worker pool",
		Long: `Each subject is a walker bound to its own machine. A round resets the walker and
fires walk then stop. Walkers only have energy for half of the rounds, so the
rest exercise the false-guard and disallowed-origin paths.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.subjects <= 0 || opts.rounds <= 0 || opts.workers <= 0 {
				return fmt.Errorf("%w: --subjects, --rounds and --workers must be positive", errInvalidFlag)
			}

			report := runBench(opts)

			perSecond := float64(report.Calls) / report.Elapsed.Seconds()

			_, err := fmt.Fprintf(cmd.OutOrStdout(),
				"subjects=%d rounds=%d workers=%d calls=%d successes=%d failures=%d elapsed=%s rate=%.0f/s\n",
				opts.subjects, opts.rounds, opts.workers,
				report.Calls, report.Successes, report.Failures,
				report.Elapsed.Round(time.Microsecond), perSecond)

			return err
		},
	}

	cmd.Flags().IntVar(&opts.subjects, "subjects", 1000, "Number of independent walkers")
	cmd.Flags().IntVar(&opts.rounds, "rounds", 10, "Walk/stop rounds per walker")
	cmd.Flags().IntVar(&opts.workers, "workers", runtime.NumCPU(), "Worker pool size")

	return cmd
}

func runBench(opts *benchOptions) benchReport {
	var calls, successes, failures atomic.Uint64

	pool := pond.NewPool(opts.workers)
	start := time.Now()

	for range opts.subjects {
		pool.Submit(func() {
			w := walker.New(opts.rounds / 2) //nolint:mnd

			m := walker.Merge(w,
				statemachine.WithName("bench"),
				statemachine.WithThrowExceptions(false))

			for range opts.rounds {
				m.SetState(walker.Initial)

				_, _ = m.Trigger(walker.Walk)
				_, _ = m.Trigger(walker.Stop)
			}

			stats := m.Machine().Stats()
			calls.Add(stats.Calls)
			successes.Add(stats.Successes)
			failures.Add(stats.Failures)
		})
	}

	pool.StopAndWait()

	report := benchReport{
		Calls:     calls.Load(),
		Successes: successes.Load(),
		Failures:  failures.Load(),
		Elapsed:   time.Since(start),
	}

	slog.Info("Benchmark finished",
		"subjects", opts.subjects,
		"workers", opts.workers,
		"calls", report.Calls,
		"elapsed", report.Elapsed)

	return report
}
