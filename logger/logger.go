// Package logger configures the process-wide slog logger for command-line
// tools built on the state machine.
package logger

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	"github.com/caarlos0/env/v11"
)

// configMutex serializes ConfigureLoggingWithOptions, which replaces
// slog.Default and log.Default.
var configMutex sync.Mutex //nolint:gochecknoglobals

// Options is used to configure logging.
type Options struct {
	// App is attached to every record as the "app" attribute when set.
	App         string
	JSON        bool
	MinLevel    slog.Level
	LegacyLevel slog.Level
	Output      io.Writer
}

type envOptions struct {
	JSON        *bool       `env:"LOG_JSON"`
	MinLevel    *slog.Level `env:"LOG_LEVEL"`
	LegacyLevel *slog.Level `env:"LEGACY_LOG_LEVEL"`
}

// LoadOptionsFromEnv overlays LOG_JSON, LOG_LEVEL and LEGACY_LOG_LEVEL onto
// defaults. Unset variables keep the default.
func LoadOptionsFromEnv(defaults Options) (Options, error) {
	return loadOptions(defaults, env.ToMap(os.Environ()))
}

func loadOptions(defaults Options, environ map[string]string) (Options, error) {
	var parsed envOptions

	err := env.ParseWithOptions(&parsed, env.Options{Environment: environ})
	if err != nil {
		return defaults, fmt.Errorf("failed to parse logging config: %w", err)
	}

	if parsed.JSON != nil {
		defaults.JSON = *parsed.JSON
	}

	if parsed.MinLevel != nil {
		defaults.MinLevel = *parsed.MinLevel
	}

	if parsed.LegacyLevel != nil {
		defaults.LegacyLevel = *parsed.LegacyLevel
	}

	return defaults, nil
}

// ConfigureLoggingWithOptions installs the default logger and routes the
// standard log package through it. It returns the new default logger.
func ConfigureLoggingWithOptions(opts Options) *slog.Logger {
	configMutex.Lock()
	defer configMutex.Unlock()

	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{Level: opts.MinLevel}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		handler = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	if opts.App != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("app", opts.App)})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	// Third-party packages may still write through the log package.
	def := log.Default()
	*def = *slog.NewLogLogger(handler, opts.LegacyLevel)

	return logger
}
