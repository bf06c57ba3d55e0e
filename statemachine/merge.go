package statemachine

import "context"

// Merged is a subject augmented with a bound machine. Trigger and state access
// go to the machine; everything else is reached through Subject, which returns
// the live subject rather than a copy.
type Merged[S comparable, T ~string, O Stateful[S]] struct {
	machine *Machine[S, T, O]
}

// Merge binds a new machine to subject and returns the merged view. It has no
// failure mode of its own; problems in the table surface from Trigger.
func Merge[S comparable, T ~string, O Stateful[S]](
	subject O,
	table Table[S, T],
	caps *Capabilities[O],
	opts ...Option,
) *Merged[S, T, O] {
	return &Merged[S, T, O]{
		machine: New(subject, table, caps, opts...),
	}
}

// Trigger attempts the named transition on the subject.
func (m *Merged[S, T, O]) Trigger(trigger T, opts ...CallOption) (*Result[S, T, O], error) {
	return m.machine.Trigger(trigger, opts...)
}

// TriggerContext attempts the named transition on the subject.
func (m *Merged[S, T, O]) TriggerContext(ctx context.Context, trigger T, opts ...CallOption) (*Result[S, T, O], error) {
	return m.machine.TriggerContext(ctx, trigger, opts...)
}

// State returns the subject's current state.
func (m *Merged[S, T, O]) State() S {
	return m.machine.State()
}

// SetState writes the subject's state directly, bypassing the table.
func (m *Merged[S, T, O]) SetState(state S) {
	m.machine.subject.SetState(state)
}

// Permitted returns the triggers whose origins include the current state.
func (m *Merged[S, T, O]) Permitted() []T {
	return m.machine.Permitted()
}

// Subject returns the live subject.
func (m *Merged[S, T, O]) Subject() O {
	return m.machine.subject
}

// Machine returns the bound machine.
func (m *Merged[S, T, O]) Machine() *Machine[S, T, O] {
	return m.machine
}
