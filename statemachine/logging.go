package statemachine

import (
	"context"
	"log/slog"
)

// Diagnostic carries the fields of one diagnostic line.
type Diagnostic struct {
	Machine    string
	CallID     string
	Trigger    string
	Kind       ErrorKind
	Capability CapabilityName
	Candidate  int
	From       string
	To         string
	Message    string
	Err        error
}

// Logger provides logging hooks for trigger evaluation. Hooks are only called
// when the machine is verbose.
type Logger interface {
	TriggerFailed(ctx context.Context, diag Diagnostic)
	CandidateRejected(ctx context.Context, diag Diagnostic)
	StateChanged(ctx context.Context, diag Diagnostic)
}

// DefaultLogger implements Logger using slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger creates a logger writing to slog.Default().
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		logger: slog.Default(),
	}
}

// NewSlogLogger creates a logger writing to the given slog logger.
func NewSlogLogger(logger *slog.Logger) *DefaultLogger {
	if logger == nil {
		logger = slog.Default()
	}

	return &DefaultLogger{
		logger: logger,
	}
}

func (l *DefaultLogger) TriggerFailed(ctx context.Context, diag Diagnostic) {
	fields := diagnosticFields(ctx, diag)
	fields = append(fields, "kind", string(diag.Kind))

	if diag.Capability != "" {
		fields = append(fields, "capability", string(diag.Capability))
	}

	if diag.Err != nil {
		fields = append(fields, "error", diag.Err)
	}

	// Effect errors are the only runtime failures; everything else is a definition problem
	// or an expected guard outcome.
	if diag.Kind == EffectError {
		l.logger.WarnContext(ctx, diag.Message, fields...)
	} else {
		l.logger.InfoContext(ctx, diag.Message, fields...)
	}
}

func (l *DefaultLogger) CandidateRejected(ctx context.Context, diag Diagnostic) {
	fields := diagnosticFields(ctx, diag)
	fields = append(fields,
		"capability", string(diag.Capability),
		"candidate", diag.Candidate,
	)

	l.logger.InfoContext(ctx, diag.Message, fields...)
}

func (l *DefaultLogger) StateChanged(ctx context.Context, diag Diagnostic) {
	fields := diagnosticFields(ctx, diag)
	fields = append(fields,
		"from", diag.From,
		"to", diag.To,
		"candidate", diag.Candidate,
	)

	l.logger.InfoContext(ctx, diag.Message, fields...)
}

func diagnosticFields(ctx context.Context, diag Diagnostic) []any {
	fields := []any{
		"machine", diag.Machine,
		"trigger", diag.Trigger,
		"call_id", diag.CallID,
	}

	if traceID, spanID := extractTraceContext(ctx); traceID != "" {
		fields = append(fields,
			"trace_id", traceID,
			"span_id", spanID,
		)
	}

	return fields
}
