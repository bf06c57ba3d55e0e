package statemachine

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// NoIndex marks an index that does not apply to a failure, such as the
// candidate index of a TriggerUndefined failure.
const NoIndex = -1

// Stateful is implemented by any value whose state can be driven by a Machine.
// The machine reads and writes state exclusively through these methods.
type Stateful[S comparable] interface {
	State() S
	SetState(state S)
}

// CapabilityName names a guard or an effect registered in Capabilities.
type CapabilityName string

// Transition declares one allowed state change.
type Transition[S comparable] struct {
	Origins     []S
	Destination S
	Conditions  []CapabilityName
	Effects     []CapabilityName
}

// Allows reports whether state is one of the transition's origins.
func (t Transition[S]) Allows(state S) bool {
	return slices.Contains(t.Origins, state)
}

// Candidates is the ordered fallback chain declared for a single trigger.
type Candidates[S comparable] []Transition[S]

// One lifts a single transition into a one-element candidate list.
func One[S comparable](t Transition[S]) Candidates[S] {
	return Candidates[S]{t}
}

// Origins returns the union of every candidate's origins, in first-seen order.
func (c Candidates[S]) Origins() []S {
	var origins []S

	for _, candidate := range c {
		for _, origin := range candidate.Origins {
			if !slices.Contains(origins, origin) {
				origins = append(origins, origin)
			}
		}
	}

	return origins
}

// Table maps every trigger to its candidate transitions.
type Table[S comparable, T ~string] map[T]Candidates[S]

// clone copies the table so later edits by the caller cannot reach a bound machine.
func (t Table[S, T]) clone() Table[S, T] {
	out := make(Table[S, T], len(t))

	for trigger, candidates := range t {
		copied := make(Candidates[S], len(candidates))
		for i, candidate := range candidates {
			copied[i] = Transition[S]{
				Origins:     slices.Clone(candidate.Origins),
				Destination: candidate.Destination,
				Conditions:  slices.Clone(candidate.Conditions),
				Effects:     slices.Clone(candidate.Effects),
			}
		}

		out[trigger] = copied
	}

	return out
}

// CapabilityAttempt records one guard or effect invocation.
type CapabilityAttempt[O any] struct {
	Name     CapabilityName
	Success  bool
	Snapshot O
}

// Attempt records the evaluation of one candidate transition.
type Attempt[S comparable, T ~string, O any] struct {
	Trigger    T
	Index      int
	Transition Transition[S]
	Conditions []*CapabilityAttempt[O]
	Effects    []*CapabilityAttempt[O]
	Success    bool
	Failure    *Failure[T, O]
	Snapshot   O
}

// Failure describes why a trigger call (or a single candidate) did not succeed.
type Failure[T ~string, O any] struct {
	Kind            ErrorKind
	Undefined       bool
	Trigger         T
	Capability      CapabilityName
	CandidateIndex  int
	CapabilityIndex int
	Message         string
	Cause           error
	Snapshot        O
}

// Result is the audit trail of a single trigger call.
type Result[S comparable, T ~string, O any] struct {
	ID           uuid.UUID
	Trigger      T
	Success      bool
	Failure      *Failure[T, O]
	Previous     S
	Current      S
	Attempts     []*Attempt[S, T, O]
	PreSnapshot  O
	PostSnapshot O
	Duration     time.Duration
}

// Winner returns the attempt that changed state, or nil if the call failed.
func (r *Result[S, T, O]) Winner() *Attempt[S, T, O] {
	if !r.Success || len(r.Attempts) == 0 {
		return nil
	}

	return r.Attempts[len(r.Attempts)-1]
}

// Fallbacks returns how many candidates were abandoned for the next one.
func (r *Result[S, T, O]) Fallbacks() int {
	count := 0

	for _, attempt := range r.Attempts {
		if attempt.Failure != nil && attempt.Failure.Kind.Fallback() && attempt != r.Attempts[len(r.Attempts)-1] {
			count++
		}
	}

	return count
}
