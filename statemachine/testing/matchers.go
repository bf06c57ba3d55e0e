package testing

import (
	"errors"
	"fmt"
	"time"

	"github.com/amp-labs/statemixin/statemachine"
)

// Matcher errors.
var (
	ErrNoExecutionTrace          = errors.New("no execution trace available")
	ErrExecutionCompletedNoError = errors.New("execution completed without error")
	ErrNoMatchersPassed          = errors.New("no matchers passed")
	ErrStateNotVisited           = errors.New("state was not visited")
	ErrTransitionNotTaken        = errors.New("transition was not taken")
	ErrFailureKindMismatch       = errors.New("failure kind mismatch")
	ErrExecutionTooSlow          = errors.New("execution exceeded time limit")
)

// Matcher defines an assertion matcher over a recorded trace.
type Matcher interface {
	Match(trace Trace) (bool, error)
	Description() string
}

// StateWasVisited creates a matcher that checks if a state was visited.
func StateWasVisited(name string) Matcher {
	return &stateVisitedMatcher{stateName: name}
}

type stateVisitedMatcher struct {
	stateName string
}

func (m *stateVisitedMatcher) Match(trace Trace) (bool, error) {
	if trace.visited(m.stateName) {
		return true, nil
	}

	return false, fmt.Errorf("%w: '%s'", ErrStateNotVisited, m.stateName)
}

func (m *stateVisitedMatcher) Description() string {
	return fmt.Sprintf("state '%s' should be visited", m.stateName)
}

// TransitionWasTaken creates a matcher that checks if a transition occurred.
func TransitionWasTaken(from, to string) Matcher {
	return &transitionTakenMatcher{from: from, to: to}
}

type transitionTakenMatcher struct {
	from string
	to   string
}

func (m *transitionTakenMatcher) Match(trace Trace) (bool, error) {
	if trace.taken(m.from, m.to) {
		return true, nil
	}

	return false, fmt.Errorf("%w: from '%s' to '%s'", ErrTransitionNotTaken, m.from, m.to)
}

func (m *transitionTakenMatcher) Description() string {
	return fmt.Sprintf("transition from '%s' to '%s' should be taken", m.from, m.to)
}

// FailedWith creates a matcher that checks the failure kind of the last call.
func FailedWith(kind statemachine.ErrorKind) Matcher {
	return &failedWithMatcher{kind: kind}
}

type failedWithMatcher struct {
	kind statemachine.ErrorKind
}

func (m *failedWithMatcher) Match(trace Trace) (bool, error) {
	if len(trace) == 0 {
		return false, ErrNoExecutionTrace
	}

	last := trace[len(trace)-1]
	if last.Kind != m.kind {
		return false, fmt.Errorf("%w: expected '%s', got '%s'", ErrFailureKindMismatch, m.kind, last.Kind)
	}

	return true, nil
}

func (m *failedWithMatcher) Description() string {
	return fmt.Sprintf("last call should fail with %s", m.kind)
}

// ExecutionCompleted creates a matcher that checks if the last call succeeded.
func ExecutionCompleted() Matcher {
	return &executionCompletedMatcher{}
}

type executionCompletedMatcher struct{}

func (m *executionCompletedMatcher) Match(trace Trace) (bool, error) {
	if len(trace) == 0 {
		return false, ErrNoExecutionTrace
	}

	lastEntry := trace[len(trace)-1]
	if lastEntry.Error != nil {
		return false, fmt.Errorf("execution failed with error: %w", lastEntry.Error)
	}

	if !lastEntry.Success {
		return false, fmt.Errorf("%w: got '%s'", ErrFailureKindMismatch, lastEntry.Kind)
	}

	return true, nil
}

func (m *executionCompletedMatcher) Description() string {
	return "execution should complete successfully"
}

// ExecutionFailed creates a matcher that checks if the last call returned an error.
func ExecutionFailed() Matcher {
	return &executionFailedMatcher{}
}

type executionFailedMatcher struct{}

func (m *executionFailedMatcher) Match(trace Trace) (bool, error) {
	if len(trace) == 0 {
		return false, ErrNoExecutionTrace
	}

	lastEntry := trace[len(trace)-1]
	if lastEntry.Error == nil {
		return false, ErrExecutionCompletedNoError
	}

	return true, nil
}

func (m *executionFailedMatcher) Description() string {
	return "execution should fail"
}

// ExecutionTookLessThan creates a matcher that checks execution duration.
func ExecutionTookLessThan(duration time.Duration) Matcher {
	return &executionDurationMatcher{maxDuration: duration}
}

type executionDurationMatcher struct {
	maxDuration time.Duration
}

func (m *executionDurationMatcher) Match(trace Trace) (bool, error) {
	totalDuration := trace.duration()
	if totalDuration > m.maxDuration {
		return false, fmt.Errorf("%w: took %s, max %s", ErrExecutionTooSlow, totalDuration, m.maxDuration)
	}

	return true, nil
}

func (m *executionDurationMatcher) Description() string {
	return fmt.Sprintf("execution should take less than %s", m.maxDuration)
}

// All creates a matcher that requires all sub-matchers to pass.
func All(matchers ...Matcher) Matcher {
	return &allMatcher{matchers: matchers}
}

type allMatcher struct {
	matchers []Matcher
}

func (m *allMatcher) Match(trace Trace) (bool, error) {
	for _, matcher := range m.matchers {
		matched, err := matcher.Match(trace)
		if !matched || err != nil {
			return false, err
		}
	}

	return true, nil
}

func (m *allMatcher) Description() string {
	return "all matchers should pass"
}

// Any creates a matcher that requires at least one sub-matcher to pass.
func Any(matchers ...Matcher) Matcher {
	return &anyMatcher{matchers: matchers}
}

type anyMatcher struct {
	matchers []Matcher
}

func (m *anyMatcher) Match(trace Trace) (bool, error) {
	for _, matcher := range m.matchers {
		matched, err := matcher.Match(trace)
		if matched && err == nil {
			return true, nil
		}
	}

	return false, ErrNoMatchersPassed
}

func (m *anyMatcher) Description() string {
	return "at least one matcher should pass"
}
