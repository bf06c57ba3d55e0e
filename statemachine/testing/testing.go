// Package testing provides testing utilities for state machine subjects.
//
//nolint:err113,varnamelen // Test machine uses dynamic errors; short names idiomatic
package testing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/amp-labs/statemixin/statemachine"
	"github.com/stretchr/testify/require"
)

// TestMachine wraps a merged subject and records every trigger call.
type TestMachine[S comparable, T ~string, O statemachine.Stateful[S]] struct {
	*statemachine.Merged[S, T, O]

	t              *testing.T
	executionTrace Trace
	assertions     []Assertion
}

// TraceEntry records a single trigger call.
type TraceEntry struct {
	Timestamp time.Time
	Trigger   string
	From      string
	To        string
	Success   bool
	Kind      statemachine.ErrorKind
	Attempts  int
	Duration  time.Duration
	Error     error
}

// Trace is the ordered record of trigger calls made through a TestMachine.
type Trace []TraceEntry

// Assertion represents a test assertion.
type Assertion struct {
	Name   string
	Passed bool
	Error  error
}

// NewTestMachine merges subject with table and returns a recording wrapper.
// A nil caps discovers capabilities from the subject's methods.
func NewTestMachine[S comparable, T ~string, O statemachine.Stateful[S]](
	t *testing.T,
	subject O,
	table statemachine.Table[S, T],
	caps *statemachine.Capabilities[O],
	opts ...statemachine.Option,
) *TestMachine[S, T, O] {
	t.Helper()

	opts = append([]statemachine.Option{statemachine.WithName(t.Name())}, opts...)

	return &TestMachine[S, T, O]{
		Merged:         statemachine.Merge(subject, table, caps, opts...),
		t:              t,
		executionTrace: make(Trace, 0),
		assertions:     make([]Assertion, 0),
	}
}

// Fire triggers a transition and records the call. It never fails the test on
// its own; use the Assert methods or a Matcher for that.
func (tm *TestMachine[S, T, O]) Fire(trigger T, opts ...statemachine.CallOption) (*statemachine.Result[S, T, O], error) {
	tm.t.Helper()

	result, err := tm.TriggerContext(context.Background(), trigger, opts...)
	require.NotNil(tm.t, result, "trigger must always return a result")

	entry := TraceEntry{
		Timestamp: time.Now(),
		Trigger:   string(trigger),
		From:      fmt.Sprint(result.Previous),
		To:        fmt.Sprint(result.Current),
		Success:   result.Success,
		Attempts:  len(result.Attempts),
		Duration:  result.Duration,
		Error:     err,
	}

	if result.Failure != nil {
		entry.Kind = result.Failure.Kind
	}

	tm.executionTrace = append(tm.executionTrace, entry)

	return result, err
}

// FireAll triggers each transition in order and stops at the first call that
// does not succeed. It returns the number of successful calls.
func (tm *TestMachine[S, T, O]) FireAll(triggers ...T) int {
	tm.t.Helper()

	for i, trigger := range triggers {
		result, _ := tm.Fire(trigger)
		if !result.Success {
			return i
		}
	}

	return len(triggers)
}

// AssertStateVisited checks if a state was entered or left during the recorded calls.
func (tm *TestMachine[S, T, O]) AssertStateVisited(state S) {
	tm.t.Helper()

	name := fmt.Sprint(state)
	visited := tm.executionTrace.visited(name)

	assertion := Assertion{
		Name:   fmt.Sprintf("State '%s' was visited", name),
		Passed: visited,
	}

	if !visited {
		assertion.Error = fmt.Errorf("%w: '%s'", ErrStateNotVisited, name)
	}

	tm.assertions = append(tm.assertions, assertion)
	require.True(tm.t, visited, "state '%s' should have been visited", name)
}

// AssertTransitionTaken checks if a successful call moved from one state to another.
func (tm *TestMachine[S, T, O]) AssertTransitionTaken(from, to S) {
	tm.t.Helper()

	fromName, toName := fmt.Sprint(from), fmt.Sprint(to)
	taken := tm.executionTrace.taken(fromName, toName)

	assertion := Assertion{
		Name:   fmt.Sprintf("Transition from '%s' to '%s' was taken", fromName, toName),
		Passed: taken,
	}

	if !taken {
		assertion.Error = fmt.Errorf("%w: from '%s' to '%s'", ErrTransitionNotTaken, fromName, toName)
	}

	tm.assertions = append(tm.assertions, assertion)
	require.True(tm.t, taken, "transition from '%s' to '%s' should have been taken", fromName, toName)
}

// AssertFinalState checks the subject's current state.
func (tm *TestMachine[S, T, O]) AssertFinalState(expected S) {
	tm.t.Helper()

	actual := tm.State()

	assertion := Assertion{
		Name:   fmt.Sprintf("Final state is '%v'", expected),
		Passed: actual == expected,
	}

	if actual != expected {
		assertion.Error = fmt.Errorf("expected final state '%v', got '%v'", expected, actual)
	}

	tm.assertions = append(tm.assertions, assertion)
	require.Equal(tm.t, expected, actual, "final state should be '%v'", expected)
}

// AssertLastFailure checks the failure kind of the most recent call. An empty
// kind asserts that the call succeeded.
func (tm *TestMachine[S, T, O]) AssertLastFailure(kind statemachine.ErrorKind) {
	tm.t.Helper()

	if len(tm.executionTrace) == 0 {
		tm.t.Fatal("no execution trace recorded")
	}

	last := tm.executionTrace[len(tm.executionTrace)-1]

	assertion := Assertion{
		Name:   fmt.Sprintf("Last failure is '%s'", kind),
		Passed: last.Kind == kind,
	}

	if last.Kind != kind {
		assertion.Error = fmt.Errorf("%w: expected '%s', got '%s'", ErrFailureKindMismatch, kind, last.Kind)
	}

	tm.assertions = append(tm.assertions, assertion)
	require.Equal(tm.t, kind, last.Kind, "last failure kind should be '%s'", kind)
}

// AssertExecutionTime checks total time spent in recorded calls.
func (tm *TestMachine[S, T, O]) AssertExecutionTime(maxDuration time.Duration) {
	tm.t.Helper()

	if len(tm.executionTrace) == 0 {
		tm.t.Fatal("no execution trace recorded")
	}

	totalDuration := tm.executionTrace.duration()

	assertion := Assertion{
		Name:   fmt.Sprintf("Execution time < %s", maxDuration),
		Passed: totalDuration <= maxDuration,
	}

	if totalDuration > maxDuration {
		assertion.Error = fmt.Errorf("%w: took %s, max %s", ErrExecutionTooSlow, totalDuration, maxDuration)
	}

	tm.assertions = append(tm.assertions, assertion)
	require.LessOrEqual(tm.t, totalDuration, maxDuration,
		"execution should take less than %s, took %s", maxDuration, totalDuration)
}

// Expect fails the test unless matcher matches the recorded trace.
func (tm *TestMachine[S, T, O]) Expect(matcher Matcher) {
	tm.t.Helper()

	matched, err := matcher.Match(tm.executionTrace)

	tm.assertions = append(tm.assertions, Assertion{
		Name:   matcher.Description(),
		Passed: matched,
		Error:  err,
	})

	require.True(tm.t, matched, "%s: %v", matcher.Description(), err)
}

// GetTrace returns the execution trace for inspection.
func (tm *TestMachine[S, T, O]) GetTrace() Trace {
	return tm.executionTrace
}

// GetAssertions returns all assertions made.
func (tm *TestMachine[S, T, O]) GetAssertions() []Assertion {
	return tm.assertions
}

func (tr Trace) visited(state string) bool {
	for _, entry := range tr {
		if entry.From == state || entry.To == state {
			return true
		}
	}

	return false
}

func (tr Trace) taken(from, to string) bool {
	for _, entry := range tr {
		if entry.Success && entry.From == from && entry.To == to {
			return true
		}
	}

	return false
}

func (tr Trace) duration() time.Duration {
	total := time.Duration(0)
	for _, entry := range tr {
		total += entry.Duration
	}

	return total
}
