// Package telemetry wires trigger spans to an OTLP collector for the fsmctl
// command. Library users configure their own tracer provider.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

var provider *sdktrace.TracerProvider

// Config holds the OpenTelemetry configuration.
type Config struct {
	ServiceName    string        `env:"OTEL_SERVICE_NAME"`
	ServiceVersion string        `env:"OTEL_SERVICE_VERSION"               envDefault:"1.0.0"`
	Environment    string        `env:"OTEL_DEPLOYMENT_ENVIRONMENT"`
	Endpoint       string        `env:"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT"`
	Enabled        bool          `env:"OTEL_ENABLED"                       envDefault:"false"`
	Timeout        time.Duration `env:"OTEL_EXPORTER_OTLP_TRACES_TIMEOUT"  envDefault:"5s"`
}

// LoadConfigFromEnv loads OpenTelemetry configuration from environment variables.
// serviceName and runningEnv apply when OTEL_SERVICE_NAME and
// OTEL_DEPLOYMENT_ENVIRONMENT are unset.
func LoadConfigFromEnv(serviceName, runningEnv string) (*Config, error) {
	return loadConfig(serviceName, runningEnv, env.ToMap(os.Environ()))
}

func loadConfig(serviceName, runningEnv string, environ map[string]string) (*Config, error) {
	config := &Config{
		ServiceName: serviceName,
		Environment: runningEnv,
	}

	err := env.ParseWithOptions(config, env.Options{Environment: environ})
	if err != nil {
		return nil, fmt.Errorf("failed to parse telemetry config: %w", err)
	}

	return config, nil
}

// Initialize installs a global tracer provider exporting to config.Endpoint.
// It is a no-op when tracing is disabled or no endpoint is set.
func Initialize(ctx context.Context, config *Config) error {
	switch {
	case !config.Enabled:
		slog.Debug("Span export disabled")

		return nil
	case config.Endpoint == "":
		slog.Warn("Span export enabled without an endpoint, spans will be dropped")

		return nil
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(config.ServiceName),
		semconv.ServiceVersionKey.String(config.ServiceVersion),
		semconv.DeploymentEnvironmentKey.String(config.Environment),
	))
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(config.Endpoint),
		otlptracehttp.WithTimeout(config.Timeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	slog.Info("Exporting trigger spans",
		"service", config.ServiceName,
		"endpoint", config.Endpoint)

	return nil
}

// Enabled reports whether Initialize installed a tracer provider.
func Enabled() bool {
	return provider != nil
}

// Shutdown flushes pending spans. It is safe to call when nothing was installed.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}

	err := provider.Shutdown(ctx)
	provider = nil

	if err != nil {
		return fmt.Errorf("failed to flush spans: %w", err)
	}

	return nil
}
