package testing

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/amp-labs/statemixin/statemachine"
)

// Fixture errors.
var (
	ErrFixtureEffectFailed = errors.New("fixture effect failed")
)

// Subject is a configurable stateful fixture. Guards read Flags, effects
// append to Calls, and effects listed in Failing or Panicking misbehave on
// purpose.
type Subject struct {
	Current   string             `json:"state"`
	Flags     map[string]bool    `json:"flags"`
	Failing   map[string]bool    `json:"failing"`
	Panicking map[string]bool    `json:"panicking"`
	Calls     []string           `json:"calls"`
	Props     statemachine.Props `json:"props"`
}

// NewSubject creates a fixture in the given state with the given guards returning true.
func NewSubject(state string, trueGuards ...string) *Subject {
	s := &Subject{
		Current:   state,
		Flags:     make(map[string]bool),
		Failing:   make(map[string]bool),
		Panicking: make(map[string]bool),
	}

	for _, guard := range trueGuards {
		s.Flags[guard] = true
	}

	return s
}

func (s *Subject) State() string {
	return s.Current
}

func (s *Subject) SetState(state string) {
	s.Current = state
}

// Fail makes the named effects return ErrFixtureEffectFailed.
func (s *Subject) Fail(effects ...string) *Subject {
	for _, effect := range effects {
		s.Failing[effect] = true
	}

	return s
}

// Panic makes the named effects panic.
func (s *Subject) Panic(effects ...string) *Subject {
	for _, effect := range effects {
		s.Panicking[effect] = true
	}

	return s
}

// FixtureCapabilities registers every condition and effect named in table on
// Subject, except the names listed in undefined.
func FixtureCapabilities(table statemachine.Table[string, string], undefined ...string) *statemachine.Capabilities[*Subject] {
	caps := statemachine.NewCapabilities[*Subject]()

	skip := make(map[statemachine.CapabilityName]bool, len(undefined))
	for _, name := range undefined {
		skip[statemachine.CapabilityName(name)] = true
	}

	for _, candidates := range table {
		for _, candidate := range candidates {
			for _, name := range candidate.Conditions {
				if !skip[name] {
					caps.Guard(name, fixtureGuard(string(name)))
				}
			}

			for _, name := range candidate.Effects {
				if !skip[name] {
					caps.Effect(name, fixtureEffect(string(name)))
				}
			}
		}
	}

	return caps
}

func fixtureGuard(name string) statemachine.Guard[*Subject] {
	return func(s *Subject) bool {
		s.Calls = append(s.Calls, "guard:"+name)

		return s.Flags[name]
	}
}

func fixtureEffect(name string) statemachine.Effect[*Subject] {
	return func(s *Subject, props statemachine.Props) error {
		s.Calls = append(s.Calls, "effect:"+name)
		s.Props = props

		if s.Panicking[name] {
			panic("fixture effect " + name)
		}

		if s.Failing[name] {
			return fmt.Errorf("%w: %s", ErrFixtureEffectFailed, name)
		}

		return nil
	}
}

// LoadTestConfig loads a config from the testdata directory.
func LoadTestConfig(name string) (*statemachine.Config, error) {
	path := filepath.Join("testdata", name)

	return statemachine.LoadConfig(path)
}

// CommonTestTables provides frequently used test tables.
var CommonTestTables = struct {
	Linear   func() statemachine.Table[string, string]
	Fallback func() statemachine.Table[string, string]
	Guarded  func() statemachine.Table[string, string]
	Effects  func() statemachine.Table[string, string]
}{
	// Linear is start -> middle -> end with no capabilities.
	Linear: func() statemachine.Table[string, string] {
		return statemachine.NewBuilder[string, string]().
			On("begin").From("start").To("middle").
			On("finish").From("middle").To("end").
			MustTable()
	},
	// Fallback tries "a" then "b" then an unguarded default.
	Fallback: func() statemachine.Table[string, string] {
		return statemachine.NewBuilder[string, string]().
			On("go").
			From("start").To("first").When("a").
			From("start").To("second").When("b").
			From("start").To("default").
			MustTable()
	},
	// Guarded has two guarded candidates and no default.
	Guarded: func() statemachine.Table[string, string] {
		return statemachine.Table[string, string]{
			"go": {
				{Origins: []string{"start"}, Destination: "first", Conditions: []statemachine.CapabilityName{"a", "b"}},
				{Origins: []string{"start"}, Destination: "second", Conditions: []statemachine.CapabilityName{"c"}},
			},
		}
	},
	// Effects runs three effects in order.
	Effects: func() statemachine.Table[string, string] {
		return statemachine.Table[string, string]{
			"go": statemachine.One(statemachine.Transition[string]{
				Origins:     []string{"start"},
				Destination: "done",
				Effects:     []statemachine.CapabilityName{"x", "y", "z"},
			}),
		}
	},
}
