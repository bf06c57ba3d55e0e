package statemachine

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "statemachine"

// startTriggerSpan creates the span covering one trigger call.
// The caller is responsible for calling span.End().
//
//nolint:spancheck // Span lifecycle managed by caller (factory pattern)
func startTriggerSpan(ctx context.Context, machine, trigger, callID, state string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	spanName := "trigger." + trigger
	ctx, span := tracer.Start(ctx, spanName)
	span.SetAttributes(
		attribute.String("machine", machine),
		attribute.String("trigger", trigger),
		attribute.String("call_id", callID),
		attribute.String("state.previous", state),
	)
	logSpanDebug(ctx, "started", spanName, span)

	return ctx, span
}

// recordAttemptEvent adds one event per finished candidate attempt.
func recordAttemptEvent(span trace.Span, index int, destination string, success bool, kind ErrorKind) {
	span.AddEvent("candidate", trace.WithAttributes(
		attribute.Int("candidate.index", index),
		attribute.String("candidate.destination", destination),
		attribute.Bool("candidate.success", success),
		attribute.String("candidate.failure", sanitizeKind(kind)),
	))
}

// logSpanDebug logs span creation when STATEMACHINE_DEBUG is set.
func logSpanDebug(ctx context.Context, phase string, spanName string, span trace.Span) {
	if !isDebugMode() {
		return
	}

	spanCtx := span.SpanContext()
	slog.InfoContext(ctx, "OTEL Span "+phase,
		"span_name", spanName,
		"trace_id", spanCtx.TraceID().String(),
		"span_id", spanCtx.SpanID().String(),
	)
}

// extractTraceContext extracts trace ID and span ID from context for logging.
func extractTraceContext(ctx context.Context) (traceID, spanID string) {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		spanCtx := span.SpanContext()

		return spanCtx.TraceID().String(), spanCtx.SpanID().String()
	}

	return "", ""
}

// isDebugMode checks if STATEMACHINE_DEBUG mode is enabled.
func isDebugMode() bool {
	return strings.EqualFold(os.Getenv("STATEMACHINE_DEBUG"), "1") ||
		strings.EqualFold(os.Getenv("STATEMACHINE_DEBUG"), "true")
}
