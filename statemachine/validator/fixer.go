package validator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/amp-labs/statemixin/statemachine"
)

var (
	// ErrTriggerNotFound is returned when a fix refers to a trigger the config does not declare.
	ErrTriggerNotFound = errors.New("trigger not found")
	// ErrCandidateNotFound is returned when attempting to remove a candidate that doesn't exist.
	ErrCandidateNotFound = errors.New("candidate not found")
	// ErrCapabilityNotFound is returned when attempting to remove an undeclared capability.
	ErrCapabilityNotFound = errors.New("capability not found")
	// ErrTriggerAlreadyExists is returned when attempting to rename to an existing trigger name.
	ErrTriggerAlreadyExists = errors.New("trigger already exists")
)

// CapabilityKind selects the guard or effect namespace.
type CapabilityKind string

const (
	GuardCapability  CapabilityKind = "guard"
	EffectCapability CapabilityKind = "effect"
)

// Fix represents an automatic fix for a validation issue. Fixes edit the
// configuration a description was built from.
type Fix struct {
	Description string
	Apply       func(config *statemachine.Config) error
}

// RemoveCandidate creates a fix that removes a candidate from a trigger. The
// last candidate equal to the described one is removed, so a fix stays valid
// after earlier candidates of the same trigger were removed.
func RemoveCandidate(trigger string, candidate statemachine.CandidateDescription) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove candidate '%s' -> '%s' from trigger '%s'", joinOrigins(candidate.Origins), candidate.Destination, trigger),
		Apply: func(config *statemachine.Config) error {
			candidates, ok := config.Triggers[trigger]
			if !ok {
				return fmt.Errorf("%w: '%s'", ErrTriggerNotFound, trigger)
			}

			for i := len(candidates) - 1; i >= 0; i-- {
				if matchesCandidate(candidates[i], candidate) {
					config.Triggers[trigger] = slices.Delete(slices.Clone(candidates), i, i+1)

					return nil
				}
			}

			return fmt.Errorf("%w: trigger '%s'", ErrCandidateNotFound, trigger)
		},
	}
}

// RemoveCapability creates a fix that removes a declared guard or effect.
func RemoveCapability(kind CapabilityKind, name string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Remove unused %s '%s' from capabilities", kind, name),
		Apply: func(config *statemachine.Config) error {
			if config.Capabilities == nil {
				return fmt.Errorf("%w: %s '%s'", ErrCapabilityNotFound, kind, name)
			}

			list := &config.Capabilities.Guards
			if kind == EffectCapability {
				list = &config.Capabilities.Effects
			}

			index := slices.Index(*list, name)
			if index < 0 {
				return fmt.Errorf("%w: %s '%s'", ErrCapabilityNotFound, kind, name)
			}

			*list = slices.Delete(*list, index, index+1)

			return nil
		},
	}
}

// RenameTrigger creates a fix that renames a trigger.
func RenameTrigger(from, to string) *Fix {
	return &Fix{
		Description: fmt.Sprintf("Rename trigger '%s' to '%s'", from, to),
		Apply: func(config *statemachine.Config) error {
			candidates, ok := config.Triggers[from]
			if !ok {
				return fmt.Errorf("%w: '%s'", ErrTriggerNotFound, from)
			}

			if _, exists := config.Triggers[to]; exists {
				return fmt.Errorf("%w: '%s'", ErrTriggerAlreadyExists, to)
			}

			delete(config.Triggers, from)
			config.Triggers[to] = candidates

			return nil
		},
	}
}

// ApplyFixes applies a list of fixes to a config.
func ApplyFixes(config *statemachine.Config, fixes []*Fix) error {
	for _, fix := range fixes {
		if fix != nil && fix.Apply != nil {
			err := fix.Apply(config)
			if err != nil {
				return fmt.Errorf("failed to apply fix '%s': %w", fix.Description, err)
			}
		}
	}

	return nil
}

// AutoFix validates config, applies every available fix and validates again.
func AutoFix(config *statemachine.Config) (ValidationResult, error) {
	before := ValidateConfig(config)

	err := ApplyFixes(config, before.Fixes())
	if err != nil {
		return before, err
	}

	return ValidateConfig(config), nil
}

func matchesCandidate(transition statemachine.TransitionConfig, candidate statemachine.CandidateDescription) bool {
	return slices.Equal([]string(transition.Origins), candidate.Origins) &&
		transition.Destination == candidate.Destination &&
		slices.Equal([]string(transition.Conditions), candidate.Conditions) &&
		slices.Equal([]string(transition.Effects), candidate.Effects)
}

func joinOrigins(origins []string) string {
	if len(origins) == 1 {
		return origins[0]
	}

	return fmt.Sprint(origins)
}
