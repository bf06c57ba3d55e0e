package statemachine

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed trigger call.
type ErrorKind string

const (
	TriggerUndefined   ErrorKind = "TriggerUndefined"
	OriginDisallowed   ErrorKind = "OriginDisallowed"
	ConditionUndefined ErrorKind = "ConditionUndefined"
	ConditionValue     ErrorKind = "ConditionValue"
	EffectUndefined    ErrorKind = "EffectUndefined"
	EffectError        ErrorKind = "EffectError"
)

// Predefined error types.
var (
	ErrTriggerUndefined   = errors.New("trigger undefined")
	ErrOriginDisallowed   = errors.New("origin disallowed")
	ErrConditionUndefined = errors.New("condition undefined")
	ErrConditionValue     = errors.New("condition false")
	ErrEffectUndefined    = errors.New("effect undefined")
	ErrEffectError        = errors.New("effect failed")

	// ErrEffectPanicked wraps a value recovered from a panicking effect.
	ErrEffectPanicked = errors.New("effect panicked")

	// ErrConfigNameRequired indicates that a configuration name is required.
	ErrConfigNameRequired = errors.New("config name is required")
	// ErrTriggerRequired indicates that at least one trigger is required.
	ErrTriggerRequired = errors.New("at least one trigger is required")
	// ErrCandidateRequired indicates that a trigger declares no transitions.
	ErrCandidateRequired = errors.New("trigger must declare at least one transition")
	// ErrOriginsRequired indicates that a transition declares no origins.
	ErrOriginsRequired = errors.New("transition origins are required")
	// ErrDestinationRequired indicates that a transition declares no destination.
	ErrDestinationRequired = errors.New("transition destination is required")
	// ErrCapabilityNameRequired indicates an empty condition or effect name.
	ErrCapabilityNameRequired = errors.New("capability name is required")
	// ErrNoConfigLoader indicates that no config loader is registered.
	ErrNoConfigLoader = errors.New("no config loader registered; use SetConfigLoader() or provide a file path")
	// ErrInvalidShape indicates a YAML node of an unexpected kind.
	ErrInvalidShape = errors.New("invalid shape")
	// ErrPropType indicates a prop value of an unexpected type.
	ErrPropType = errors.New("prop has wrong type")
)

// IsUndefinedReference reports whether the kind stems from a name that did not
// resolve to anything invocable.
func (k ErrorKind) IsUndefinedReference() bool {
	switch k {
	case TriggerUndefined, ConditionUndefined, EffectUndefined:
		return true
	default:
		return false
	}
}

// Fallback reports whether a failure of this kind advances to the next candidate.
func (k ErrorKind) Fallback() bool {
	return k == ConditionValue
}

// Raises reports whether a failure of this kind is returned as an error when
// exceptions are enabled. A false guard is an expected outcome and never raises.
func (k ErrorKind) Raises() bool {
	return k != ConditionValue
}

// Sentinel returns the predefined error matching the kind.
func (k ErrorKind) Sentinel() error {
	switch k {
	case TriggerUndefined:
		return ErrTriggerUndefined
	case OriginDisallowed:
		return ErrOriginDisallowed
	case ConditionUndefined:
		return ErrConditionUndefined
	case ConditionValue:
		return ErrConditionValue
	case EffectUndefined:
		return ErrEffectUndefined
	case EffectError:
		return ErrEffectError
	default:
		return nil
	}
}

// TransitionError is returned by Trigger when a failure is raised. It carries
// the full result built up to the point of failure.
type TransitionError[S comparable, T ~string, O any] struct {
	Kind    ErrorKind
	Trigger T
	Message string
	Result  *Result[S, T, O]
	Cause   error
}

func (e *TransitionError[S, T, O]) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *TransitionError[S, T, O]) Unwrap() []error {
	errs := make([]error, 0, 2) //nolint:mnd

	if sentinel := e.Kind.Sentinel(); sentinel != nil {
		errs = append(errs, sentinel)
	}

	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}

	return errs
}

// KindOf extracts the ErrorKind from an error returned by Trigger. It returns
// false when err does not wrap one of the predefined kind errors.
func KindOf(err error) (ErrorKind, bool) {
	for _, kind := range []ErrorKind{
		TriggerUndefined, OriginDisallowed, ConditionUndefined,
		ConditionValue, EffectUndefined, EffectError,
	} {
		if errors.Is(err, kind.Sentinel()) {
			return kind, true
		}
	}

	return "", false
}
