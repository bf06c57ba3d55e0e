package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"facette.io/natsort"
	"github.com/amp-labs/statemixin/examples/matter"
	"github.com/amp-labs/statemixin/examples/walker"
	"github.com/amp-labs/statemixin/logger"
	"github.com/amp-labs/statemixin/statemachine"
	"github.com/amp-labs/statemixin/telemetry"
	"github.com/spf13/cobra"
)

var errUnknownMachine = errors.New("unknown machine")

// builtinLoader serves the example machines by name, so "fsmctl graph walker"
// works without a file on disk.
type builtinLoader map[string]func() ([]byte, error)

func (l builtinLoader) LoadByName(name string) ([]byte, error) {
	load, ok := l[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownMachine, name)
	}

	return load()
}

func (l builtinLoader) ListAvailable() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}

	natsort.Sort(names)

	return names
}

func init() {
	statemachine.SetConfigLoader(builtinLoader{
		"matter": matter.ConfigYAML,
		"walker": walker.ConfigYAML,
	})
}

type rootOptions struct {
	logJSON      bool
	logLevel     string
	otlpEndpoint string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "fsmctl",
		Short: "Inspect and exercise trigger-driven state machines",
		Long: `fsmctl works on YAML machine tables. A table is given either as a path
(anything containing a slash or ending in .yaml/.yml) or as the name of a
built-in machine (matter, walker).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			err := configureLogging(cmd, opts)
			if err != nil {
				return err
			}

			return configureTracing(cmd.Context(), opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return telemetry.Shutdown(cmd.Context())
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Emit logs as JSON (default $LOG_JSON)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "",
		"Minimum log level: debug, info, warn or error (default $LOG_LEVEL, else warn)")
	cmd.PersistentFlags().StringVar(&opts.otlpEndpoint, "otlp-endpoint", "",
		"Export trigger spans to this OTLP/HTTP endpoint (default $OTEL_EXPORTER_OTLP_TRACES_ENDPOINT when $OTEL_ENABLED)")

	cmd.AddCommand(newValidateCmd(), newGraphCmd(), newBenchCmd(), newRunCmd())

	return cmd
}

// configureLogging installs the default slog logger for the command run.
// LOG_JSON and LOG_LEVEL apply unless the matching flag is given.
func configureLogging(cmd *cobra.Command, opts *rootOptions) error {
	options, err := logger.LoadOptionsFromEnv(logger.Options{
		App:         "fsmctl",
		MinLevel:    slog.LevelWarn,
		LegacyLevel: slog.LevelWarn,
		Output:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	flags := cmd.Flags()

	if flags.Changed("log-json") {
		options.JSON = opts.logJSON
	}

	if flags.Changed("log-level") {
		err = options.MinLevel.UnmarshalText([]byte(opts.logLevel))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
		}
	}

	logger.ConfigureLoggingWithOptions(options)

	return nil
}

// configureTracing exports trigger spans when an endpoint is configured by
// flag or environment.
func configureTracing(ctx context.Context, opts *rootOptions) error {
	config, err := telemetry.LoadConfigFromEnv("fsmctl", "cli")
	if err != nil {
		return err
	}

	if opts.otlpEndpoint != "" {
		config.Endpoint = opts.otlpEndpoint
		config.Enabled = true
	}

	return telemetry.Initialize(ctx, config)
}

// loadConfig loads a table by path or built-in name and logs its fingerprint.
func loadConfig(pathOrName string) (*statemachine.Config, *statemachine.Description, error) {
	config, err := statemachine.LoadConfig(pathOrName)
	if err != nil {
		return nil, nil, err
	}

	desc := config.Describe()

	slog.Debug("Loaded machine table",
		"source", pathOrName,
		"machine", desc.Name,
		"triggers", len(desc.Triggers),
		"fingerprint", desc.Fingerprint())

	return config, desc, nil
}
