package testing

import (
	"testing"

	"github.com/amp-labs/statemixin/statemachine"
	"github.com/stretchr/testify/require"
)

// TestScenario describes one trigger call against a Subject fixture.
type TestScenario struct {
	Name      string
	Table     statemachine.Table[string, string]
	Subject   *Subject
	Undefined []string
	Options   []statemachine.Option
	Trigger   string
	Call      []statemachine.CallOption

	WantState  string
	WantKind   statemachine.ErrorKind
	WantRaised bool
	WantCalls  []string
	Matchers   []Matcher
}

// RunScenario executes a test scenario and validates results.
func RunScenario(t *testing.T, scenario TestScenario) {
	t.Helper()
	t.Run(scenario.Name, func(t *testing.T) {
		subject := scenario.Subject
		if subject == nil {
			subject = NewSubject("start")
		}

		caps := FixtureCapabilities(scenario.Table, scenario.Undefined...)
		tm := NewTestMachine(t, subject, scenario.Table, caps, scenario.Options...)

		result, err := tm.Fire(scenario.Trigger, scenario.Call...)

		if scenario.WantRaised {
			require.Error(t, err)

			kind, ok := statemachine.KindOf(err)
			require.True(t, ok, "error should carry a kind: %v", err)
			require.Equal(t, scenario.WantKind, kind)
		} else {
			require.NoError(t, err)
		}

		if scenario.WantKind == "" {
			require.True(t, result.Success, "call should succeed")
			require.Nil(t, result.Failure)
		} else {
			require.False(t, result.Success, "call should fail")
			require.NotNil(t, result.Failure)
		}

		tm.AssertLastFailure(scenario.WantKind)

		if scenario.WantState != "" {
			tm.AssertFinalState(scenario.WantState)
		}

		switch {
		case scenario.WantCalls == nil:
		case len(scenario.WantCalls) == 0:
			require.Empty(t, subject.Calls)
		default:
			require.Equal(t, scenario.WantCalls, subject.Calls)
		}

		for _, matcher := range scenario.Matchers {
			tm.Expect(matcher)
		}
	})
}

// FallbackScenario falls through a false guard to the second candidate.
func FallbackScenario() TestScenario {
	return TestScenario{
		Name:      "Fallback",
		Table:     CommonTestTables.Fallback(),
		Subject:   NewSubject("start", "b"),
		Trigger:   "go",
		WantState: "second",
		WantCalls: []string{"guard:a", "guard:b"},
		Matchers:  []Matcher{TransitionWasTaken("start", "second")},
	}
}

// UndefinedTriggerScenario fires a trigger the table does not declare.
func UndefinedTriggerScenario() TestScenario {
	return TestScenario{
		Name:       "Undefined Trigger",
		Table:      CommonTestTables.Linear(),
		Trigger:    "fly",
		WantState:  "start",
		WantKind:   statemachine.TriggerUndefined,
		WantRaised: true,
		WantCalls:  []string{},
	}
}

// EffectErrorScenario fails the second of three effects.
func EffectErrorScenario() TestScenario {
	return TestScenario{
		Name:       "Effect Error",
		Table:      CommonTestTables.Effects(),
		Subject:    NewSubject("start").Fail("y"),
		Trigger:    "go",
		WantState:  "start",
		WantKind:   statemachine.EffectError,
		WantRaised: true,
		WantCalls:  []string{"effect:x", "effect:y"},
		Matchers:   []Matcher{ExecutionFailed()},
	}
}

// OriginDisallowedScenario fires a trigger from a state no candidate accepts.
func OriginDisallowedScenario() TestScenario {
	return TestScenario{
		Name:       "Origin Disallowed",
		Table:      CommonTestTables.Linear(),
		Subject:    NewSubject("end"),
		Trigger:    "finish",
		WantState:  "end",
		WantKind:   statemachine.OriginDisallowed,
		WantRaised: true,
	}
}
