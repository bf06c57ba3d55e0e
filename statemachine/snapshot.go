package statemachine

import (
	"github.com/mohae/deepcopy"
)

// Snapshotter lets a subject produce its own deep copy. Implement it when the
// subject holds unexported fields or references that a reflective copy would
// drop or share.
type Snapshotter[O any] interface {
	Snapshot() O
}

// TakeSnapshot returns an independent deep copy of subject. Subjects that
// implement Snapshotter copy themselves. Otherwise exported fields are copied
// reflectively; unexported fields come back zero, and cyclic values,
// channels and funcs are not supported.
func TakeSnapshot[O any](subject O) O {
	if snapshotter, ok := any(subject).(Snapshotter[O]); ok {
		return snapshotter.Snapshot()
	}

	copied, ok := deepcopy.Copy(subject).(O)
	if !ok {
		var zero O

		return zero
	}

	return copied
}
