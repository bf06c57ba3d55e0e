package statemachine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metric outcome constants.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeError   = "error"
)

// Metric definitions with appropriate labels.
var (
	// triggersTotal tracks trigger calls by machine, trigger, outcome and failure kind.
	triggersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_triggers_total",
		Help: "Total number of trigger calls by machine, trigger, outcome (success, failure or error) and kind",
	}, []string{"machine", "trigger", "outcome", "kind"})

	// fallbacksTotal tracks candidates abandoned because a guard returned false.
	fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_fallbacks_total",
		Help: "Total number of fallbacks to the next candidate transition by machine and trigger",
	}, []string{"machine", "trigger"})

	// stateChangesTotal tracks successful state writes.
	stateChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statemachine_state_changes_total",
		Help: "Total number of state changes by machine, from_state and to_state",
	}, []string{"machine", "from_state", "to_state"})

	// triggerDuration tracks how long a trigger call takes end to end, snapshots included.
	triggerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statemachine_trigger_duration_seconds",
		Help:    "Duration of trigger calls by machine, trigger and outcome",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 0.5, 1, 5},
	}, []string{"machine", "trigger", "outcome"})
)

// outcomeOf maps a finished call onto a metric outcome label.
func outcomeOf(success bool, raised bool) string {
	switch {
	case success:
		return outcomeSuccess
	case raised:
		return outcomeError
	default:
		return outcomeFailure
	}
}

// Helper functions for label sanitization.
func sanitizeMachine(name string) string {
	if name == "" {
		return "unknown"
	}

	return name
}

// sanitizeTrigger folds undefined trigger names into one label value.
func sanitizeTrigger(trigger string, kind ErrorKind) string {
	if kind == TriggerUndefined {
		return "undefined"
	}

	return trigger
}

func sanitizeKind(kind ErrorKind) string {
	if kind == "" {
		return "none"
	}

	return string(kind)
}
