package statemachine

import (
	"errors"
	"fmt"
)

var (
	// ErrBuilderNoTrigger indicates a candidate was opened before any trigger was selected.
	ErrBuilderNoTrigger = errors.New("no trigger selected; call On first")
	// ErrBuilderNoCandidate indicates a candidate was edited before From opened one.
	ErrBuilderNoCandidate = errors.New("no candidate open; call From first")
)

// Builder provides a fluent API for constructing machine tables.
//
//	table, err := NewBuilder[State, Trigger]().
//		On(Walk).From(Initial).To(Walking).When("hasEnergy").Do("speedUp").
//		On(Stop).From(Walking).To(Stopped).Do("slowDown").
//		Table()
//
// Every From opens a new candidate on the selected trigger, so repeated From
// calls declare a fallback chain in order.
type Builder[S comparable, T ~string] struct {
	table   Table[S, T]
	order   []T
	trigger T
	open    bool
	err     error
}

// NewBuilder creates a new table builder.
func NewBuilder[S comparable, T ~string]() *Builder[S, T] {
	return &Builder[S, T]{
		table: make(Table[S, T]),
	}
}

// On selects the trigger that following candidates belong to.
func (b *Builder[S, T]) On(trigger T) *Builder[S, T] {
	b.trigger = trigger
	b.open = false

	if _, ok := b.table[trigger]; !ok {
		b.table[trigger] = Candidates[S]{}
		b.order = append(b.order, trigger)
	}

	return b
}

// From opens a new candidate on the selected trigger. At least one origin is
// required.
func (b *Builder[S, T]) From(origins ...S) *Builder[S, T] {
	if len(b.order) == 0 {
		b.fail(ErrBuilderNoTrigger)

		return b
	}

	if len(origins) == 0 {
		b.fail(fmt.Errorf("trigger %s: %w", string(b.trigger), ErrOriginsRequired))
		b.open = false

		return b
	}

	b.table[b.trigger] = append(b.table[b.trigger], Transition[S]{Origins: origins})
	b.open = true

	return b
}

// To sets the destination of the open candidate.
func (b *Builder[S, T]) To(destination S) *Builder[S, T] {
	if candidate := b.current(); candidate != nil {
		candidate.Destination = destination
	}

	return b
}

// When appends conditions to the open candidate.
func (b *Builder[S, T]) When(conditions ...CapabilityName) *Builder[S, T] {
	if candidate := b.current(); candidate != nil {
		candidate.Conditions = append(candidate.Conditions, conditions...)
	}

	return b
}

// Do appends effects to the open candidate.
func (b *Builder[S, T]) Do(effects ...CapabilityName) *Builder[S, T] {
	if candidate := b.current(); candidate != nil {
		candidate.Effects = append(candidate.Effects, effects...)
	}

	return b
}

// Table returns the built table, or the first error recorded while building.
func (b *Builder[S, T]) Table() (Table[S, T], error) {
	if b.err != nil {
		return nil, b.err
	}

	for _, trigger := range b.order {
		if len(b.table[trigger]) == 0 {
			return nil, fmt.Errorf("trigger %s: %w", string(trigger), ErrCandidateRequired)
		}
	}

	return b.table.clone(), nil
}

// MustTable is like Table but panics on error. Use it for package-level tables.
func (b *Builder[S, T]) MustTable() Table[S, T] {
	table, err := b.Table()
	if err != nil {
		panic(err)
	}

	return table
}

func (b *Builder[S, T]) current() *Transition[S] {
	if !b.open {
		b.fail(ErrBuilderNoCandidate)

		return nil
	}

	candidates := b.table[b.trigger]

	return &candidates[len(candidates)-1]
}

func (b *Builder[S, T]) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}
