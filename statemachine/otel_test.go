package statemachine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracer creates a test tracer with an in-memory exporter.
func setupTestTracer(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := trace.NewTracerProvider(
		trace.WithSyncer(exporter),
	)

	oldProvider := otel.GetTracerProvider()

	otel.SetTracerProvider(tp)

	cleanup := func() {
		otel.SetTracerProvider(oldProvider)
	}

	return exporter, cleanup
}

func spanAttributes(span tracetest.SpanStub) map[string]any {
	attrMap := make(map[string]any)
	for _, attr := range span.Attributes {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}

	return attrMap
}

// TestTriggerSpans verifies the span recorded for each trigger call.
// Subtests share the same exporter instance and use exporter.Reset() to ensure
// test isolation.
// Note: Cannot use t.Parallel() because setupTestTracer modifies global OTEL tracer provider.
//
//nolint:paralleltest // Test modifies global OTEL tracer provider
//nolint:tparallel // Subtests share exporter, must run sequentially
func TestTriggerSpans(t *testing.T) {
	exporter, cleanup := setupTestTracer(t)
	t.Cleanup(cleanup)

	//nolint:paralleltest // Subtests share exporter, must run sequentially
	t.Run("successful trigger", func(t *testing.T) {
		exporter.Reset()

		l := &lamp{Current: "off"}
		m := New(l, lampTable, nil, WithName("span-lamp"))

		result, err := m.TriggerContext(context.Background(), "on")
		require.NoError(t, err)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		span := spans[0]
		assert.Equal(t, "trigger.on", span.Name)
		assert.Equal(t, codes.Ok, span.Status.Code)

		attrs := spanAttributes(span)
		assert.Equal(t, "span-lamp", attrs["machine"])
		assert.Equal(t, "on", attrs["trigger"])
		assert.Equal(t, result.ID.String(), attrs["call_id"])
		assert.Equal(t, "off", attrs["state.previous"])
		assert.Equal(t, "on", attrs["state.current"])
		assert.Equal(t, "success", attrs["outcome"])
		assert.Equal(t, "none", attrs["failure"])
		assert.Equal(t, int64(1), attrs["attempts"])

		require.Len(t, span.Events, 1)
		assert.Equal(t, "candidate", span.Events[0].Name)
	})

	//nolint:paralleltest // Subtests share exporter, must run sequentially
	t.Run("fallback events", func(t *testing.T) {
		exporter.Reset()

		m := New(&lamp{Current: "off", Broken: true}, lampTable, nil, WithName("span-lamp"))

		_, err := m.Trigger("on")
		require.NoError(t, err)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		require.Len(t, spans[0].Events, 2)

		first := make(map[string]any)
		for _, attr := range spans[0].Events[0].Attributes {
			first[string(attr.Key)] = attr.Value.AsInterface()
		}

		assert.Equal(t, int64(0), first["candidate.index"])
		assert.Equal(t, false, first["candidate.success"])
		assert.Equal(t, "ConditionValue", first["candidate.failure"])
	})

	//nolint:paralleltest // Subtests share exporter, must run sequentially
	t.Run("raised failure", func(t *testing.T) {
		exporter.Reset()

		m := New(&lamp{Current: "off"}, lampTable, nil, WithName("span-lamp"))

		_, err := m.Trigger("off")
		require.Error(t, err)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "error", spanAttributes(spans[0])["outcome"])
		assert.Equal(t, "OriginDisallowed", spanAttributes(spans[0])["failure"])
		assert.NotEmpty(t, spans[0].Events, "the error is recorded as an event")
	})

	//nolint:paralleltest // Subtests share exporter, must run sequentially
	t.Run("trace context in diagnostics", func(t *testing.T) {
		exporter.Reset()

		ctx, span := startTriggerSpan(context.Background(), "m", "t", "id", "s")
		traceID, spanID := extractTraceContext(ctx)
		span.End()

		assert.Equal(t, span.SpanContext().TraceID().String(), traceID)
		assert.Equal(t, span.SpanContext().SpanID().String(), spanID)
	})
}

func TestExtractTraceContextWithoutSpan(t *testing.T) {
	t.Parallel()

	traceID, spanID := extractTraceContext(context.Background())
	assert.Empty(t, traceID)
	assert.Empty(t, spanID)
}

//nolint:paralleltest // Test modifies environment
func TestIsDebugMode(t *testing.T) {
	t.Setenv("STATEMACHINE_DEBUG", "true")
	assert.True(t, isDebugMode())

	t.Setenv("STATEMACHINE_DEBUG", "1")
	assert.True(t, isDebugMode())

	t.Setenv("STATEMACHINE_DEBUG", "")
	assert.False(t, isDebugMode())
}
