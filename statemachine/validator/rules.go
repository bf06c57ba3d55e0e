//nolint:lll,mnd // Long validation messages; arithmetic for case conversion
package validator

import (
	"fmt"
	"slices"

	"github.com/amp-labs/statemixin/statemachine"
)

// Severity defines the severity level of a validation issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// RuleResult contains both errors and warnings from a rule check.
type RuleResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Rule defines a validation rule that can check a machine description for specific issues.
type Rule interface {
	Name() string
	Severity() Severity
	Check(desc *statemachine.Description) RuleResult
}

// DefaultRules returns the standard set of validation rules.
func DefaultRules() []Rule {
	return []Rule{
		&emptyTriggerRule{},
		&emptyOriginsRule{},
		&missingDestinationRule{},
		&undefinedCapabilityRule{},
		&shadowedCandidateRule{},
		&duplicateCandidateRule{},
		&originScopeRule{},
		&unreachableStateRule{},
		&unusedCapabilityRule{},
		&namingConventionRule{},
		&telemetryNamingRule{},
	}
}

// RegisteredRules stores custom validation rules. Validate runs them after the defaults.
var RegisteredRules []Rule

// RegisterRule adds a custom validation rule.
func RegisterRule(rule Rule) {
	RegisteredRules = append(RegisteredRules, rule)
}

func at(trigger string, candidate int) Location {
	return Location{Trigger: trigger, Candidate: candidate}
}

// emptyTriggerRule checks for triggers that declare no candidates.
type emptyTriggerRule struct{}

func (r *emptyTriggerRule) Name() string {
	return "EmptyTrigger"
}

func (r *emptyTriggerRule) Severity() Severity {
	return SeverityError
}

func (r *emptyTriggerRule) Check(desc *statemachine.Description) RuleResult {
	var errors []ValidationError

	for _, trigger := range desc.Triggers {
		if len(trigger.Candidates) == 0 {
			errors = append(errors, ValidationError{
				Code:     "EMPTY_TRIGGER",
				Message:  fmt.Sprintf("Trigger '%s' declares no transitions and always fails as undefined", trigger.Name),
				Location: at(trigger.Name, statemachine.NoIndex),
			})
		}
	}

	return RuleResult{Errors: errors}
}

// emptyOriginsRule checks for candidates that can never apply.
type emptyOriginsRule struct{}

func (r *emptyOriginsRule) Name() string {
	return "EmptyOrigins"
}

func (r *emptyOriginsRule) Severity() Severity {
	return SeverityError
}

func (r *emptyOriginsRule) Check(desc *statemachine.Description) RuleResult {
	var errors []ValidationError

	for _, trigger := range desc.Triggers {
		for i, candidate := range trigger.Candidates {
			if len(candidate.Origins) == 0 {
				errors = append(errors, ValidationError{
					Code:     "EMPTY_ORIGINS",
					Message:  fmt.Sprintf("Candidate %d of trigger '%s' has no origin states", i, trigger.Name),
					Location: at(trigger.Name, i),
					Fix:      RemoveCandidate(trigger.Name, candidate),
				})
			}
		}
	}

	return RuleResult{Errors: errors}
}

// missingDestinationRule checks for candidates without a destination.
type missingDestinationRule struct{}

func (r *missingDestinationRule) Name() string {
	return "MissingDestination"
}

func (r *missingDestinationRule) Severity() Severity {
	return SeverityError
}

func (r *missingDestinationRule) Check(desc *statemachine.Description) RuleResult {
	var errors []ValidationError

	for _, trigger := range desc.Triggers {
		for i, candidate := range trigger.Candidates {
			if candidate.Destination == "" {
				errors = append(errors, ValidationError{
					Code:     "MISSING_DESTINATION",
					Message:  fmt.Sprintf("Candidate %d of trigger '%s' has no destination state", i, trigger.Name),
					Location: at(trigger.Name, i),
				})
			}
		}
	}

	return RuleResult{Errors: errors}
}

// undefinedCapabilityRule checks that every referenced guard and effect is
// provided. It only runs when the capabilities are known.
type undefinedCapabilityRule struct{}

func (r *undefinedCapabilityRule) Name() string {
	return "UndefinedCapability"
}

func (r *undefinedCapabilityRule) Severity() Severity {
	return SeverityError
}

func (r *undefinedCapabilityRule) Check(desc *statemachine.Description) RuleResult {
	if !desc.CapabilitiesKnown {
		return RuleResult{}
	}

	var errors []ValidationError

	for _, trigger := range desc.Triggers {
		for i, candidate := range trigger.Candidates {
			for _, name := range candidate.Conditions {
				if !slices.Contains(desc.Guards, name) {
					errors = append(errors, ValidationError{
						Code:     "UNDEFINED_CONDITION",
						Message:  fmt.Sprintf("Condition '%s' used by trigger '%s' is not a known guard", name, trigger.Name),
						Location: at(trigger.Name, i),
					})
				}
			}

			for _, name := range candidate.Effects {
				if !slices.Contains(desc.Effects, name) {
					errors = append(errors, ValidationError{
						Code:     "UNDEFINED_EFFECT",
						Message:  fmt.Sprintf("Effect '%s' used by trigger '%s' is not a known effect", name, trigger.Name),
						Location: at(trigger.Name, i),
					})
				}
			}
		}
	}

	return RuleResult{Errors: errors}
}

// shadowedCandidateRule warns about candidates that can never be selected
// because an earlier unguarded candidate accepts all of their origins.
type shadowedCandidateRule struct{}

func (r *shadowedCandidateRule) Name() string {
	return "ShadowedCandidate"
}

func (r *shadowedCandidateRule) Severity() Severity {
	return SeverityWarning
}

func (r *shadowedCandidateRule) Check(desc *statemachine.Description) RuleResult {
	var warnings []ValidationWarning

	for _, trigger := range desc.Triggers {
		for j, later := range trigger.Candidates {
			if len(later.Origins) == 0 {
				continue
			}

			for i := range j {
				earlier := trigger.Candidates[i]
				if len(earlier.Conditions) > 0 || !covers(earlier.Origins, later.Origins) {
					continue
				}

				warnings = append(warnings, ValidationWarning{
					Code:     "SHADOWED_CANDIDATE",
					Message:  fmt.Sprintf("Candidate %d of trigger '%s' is never reached: candidate %d has no conditions and accepts the same origins", j, trigger.Name, i),
					Location: at(trigger.Name, j),
					Fix:      RemoveCandidate(trigger.Name, later),
				})

				break
			}
		}
	}

	return RuleResult{Warnings: warnings}
}

// duplicateCandidateRule warns about identical guarded candidates, which
// evaluate the same conditions twice. Unguarded duplicates are reported as shadowed.
type duplicateCandidateRule struct{}

func (r *duplicateCandidateRule) Name() string {
	return "DuplicateCandidate"
}

func (r *duplicateCandidateRule) Severity() Severity {
	return SeverityWarning
}

func (r *duplicateCandidateRule) Check(desc *statemachine.Description) RuleResult {
	var warnings []ValidationWarning

	for _, trigger := range desc.Triggers {
		for j, later := range trigger.Candidates {
			if len(later.Conditions) == 0 || len(later.Origins) == 0 {
				continue
			}

			for i := range j {
				if !sameCandidate(trigger.Candidates[i], later) {
					continue
				}

				warnings = append(warnings, ValidationWarning{
					Code:     "DUPLICATE_CANDIDATE",
					Message:  fmt.Sprintf("Candidate %d of trigger '%s' duplicates candidate %d", j, trigger.Name, i),
					Location: at(trigger.Name, j),
					Fix:      RemoveCandidate(trigger.Name, later),
				})

				break
			}
		}
	}

	return RuleResult{Warnings: warnings}
}

// originScopeRule warns when an unguarded candidate is followed by candidates
// with different origins. Without strict origins the unguarded candidate wins
// from every origin of the trigger, including origins it does not list.
type originScopeRule struct{}

func (r *originScopeRule) Name() string {
	return "OriginScope"
}

func (r *originScopeRule) Severity() Severity {
	return SeverityWarning
}

func (r *originScopeRule) Check(desc *statemachine.Description) RuleResult {
	var warnings []ValidationWarning

	for _, trigger := range desc.Triggers {
		for i, candidate := range trigger.Candidates {
			if len(candidate.Conditions) > 0 {
				continue
			}

			for _, later := range trigger.Candidates[i+1:] {
				if covers(candidate.Origins, later.Origins) {
					continue
				}

				warnings = append(warnings, ValidationWarning{
					Code:     "ORIGIN_SCOPE",
					Message:  fmt.Sprintf("Candidate %d of trigger '%s' has no conditions; later candidates are only reachable with strict origins enabled", i, trigger.Name),
					Location: at(trigger.Name, i),
				})

				break
			}
		}
	}

	return RuleResult{Warnings: warnings}
}

// unreachableStateRule checks for states that cannot be reached from the initial state.
type unreachableStateRule struct{}

func (r *unreachableStateRule) Name() string {
	return "UnreachableState"
}

func (r *unreachableStateRule) Severity() Severity {
	return SeverityWarning
}

func (r *unreachableStateRule) Check(desc *statemachine.Description) RuleResult {
	if desc.Initial == "" {
		return RuleResult{}
	}

	var warnings []ValidationWarning

	// Find all reachable states using BFS
	reachable := make(map[string]bool)
	reachable[desc.Initial] = true

	queue := []string{desc.Initial}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, trigger := range desc.Triggers {
			for _, destination := range destinationsFrom(desc, trigger, current) {
				if !reachable[destination] {
					reachable[destination] = true
					queue = append(queue, destination)
				}
			}
		}
	}

	for _, state := range desc.States() {
		if !reachable[state] {
			warnings = append(warnings, ValidationWarning{
				Code:     "UNREACHABLE_STATE",
				Message:  fmt.Sprintf("State '%s' cannot be reached from initial state '%s'", state, desc.Initial),
				Location: Location{State: state, Candidate: statemachine.NoIndex},
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// destinationsFrom lists the destinations trigger can move current to. Without
// strict origins, any origin of the trigger opens every candidate.
func destinationsFrom(desc *statemachine.Description, trigger statemachine.TriggerDescription, current string) []string {
	if !desc.StrictOrigins && !slices.ContainsFunc(trigger.Candidates, func(c statemachine.CandidateDescription) bool {
		return slices.Contains(c.Origins, current)
	}) {
		return nil
	}

	var destinations []string

	for _, candidate := range trigger.Candidates {
		if desc.StrictOrigins && !slices.Contains(candidate.Origins, current) {
			continue
		}

		destinations = append(destinations, candidate.Destination)
	}

	return destinations
}

// unusedCapabilityRule warns about declared guards and effects that no candidate uses.
type unusedCapabilityRule struct{}

func (r *unusedCapabilityRule) Name() string {
	return "UnusedCapability"
}

func (r *unusedCapabilityRule) Severity() Severity {
	return SeverityInfo
}

func (r *unusedCapabilityRule) Check(desc *statemachine.Description) RuleResult {
	if !desc.CapabilitiesKnown {
		return RuleResult{}
	}

	usedGuards := make(map[string]bool)
	usedEffects := make(map[string]bool)

	for _, trigger := range desc.Triggers {
		for _, candidate := range trigger.Candidates {
			for _, name := range candidate.Conditions {
				usedGuards[name] = true
			}

			for _, name := range candidate.Effects {
				usedEffects[name] = true
			}
		}
	}

	var warnings []ValidationWarning

	for _, name := range desc.Guards {
		if !usedGuards[name] {
			warnings = append(warnings, ValidationWarning{
				Code:     "UNUSED_CAPABILITY",
				Message:  fmt.Sprintf("Guard '%s' is declared but never used as a condition", name),
				Location: Location{Candidate: statemachine.NoIndex},
				Fix:      RemoveCapability(GuardCapability, name),
			})
		}
	}

	for _, name := range desc.Effects {
		if !usedEffects[name] {
			warnings = append(warnings, ValidationWarning{
				Code:     "UNUSED_CAPABILITY",
				Message:  fmt.Sprintf("Effect '%s' is declared but never used", name),
				Location: Location{Candidate: statemachine.NoIndex},
				Fix:      RemoveCapability(EffectCapability, name),
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// namingConventionRule warns about naming convention violations.
type namingConventionRule struct{}

func (r *namingConventionRule) Name() string {
	return "NamingConvention"
}

func (r *namingConventionRule) Severity() Severity {
	return SeverityWarning
}

func (r *namingConventionRule) Check(desc *statemachine.Description) RuleResult {
	var warnings []ValidationWarning

	// Check trigger and state names are snake_case
	for _, trigger := range desc.Triggers {
		if !isSnakeCase(trigger.Name) {
			warnings = append(warnings, ValidationWarning{
				Code:     "NAMING_CONVENTION",
				Message:  fmt.Sprintf("Trigger '%s' should use snake_case naming (suggested: '%s')", trigger.Name, toSnakeCase(trigger.Name)),
				Location: at(trigger.Name, statemachine.NoIndex),
				Fix:      RenameTrigger(trigger.Name, toSnakeCase(trigger.Name)),
			})
		}
	}

	for _, state := range desc.States() {
		if !isSnakeCase(state) {
			warnings = append(warnings, ValidationWarning{
				Code:     "NAMING_CONVENTION",
				Message:  fmt.Sprintf("State '%s' should use snake_case naming (suggested: '%s')", state, toSnakeCase(state)),
				Location: Location{State: state, Candidate: statemachine.NoIndex},
			})
		}
	}

	return RuleResult{Warnings: warnings}
}

// Helper functions

// covers reports whether every state in inner is also in outer.
func covers(outer, inner []string) bool {
	for _, state := range inner {
		if !slices.Contains(outer, state) {
			return false
		}
	}

	return true
}

func sameCandidate(a, b statemachine.CandidateDescription) bool {
	return slices.Equal(a.Origins, b.Origins) &&
		a.Destination == b.Destination &&
		slices.Equal(a.Conditions, b.Conditions) &&
		slices.Equal(a.Effects, b.Effects)
}

func isSnakeCase(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return false
		}

		if r == '-' || r == ' ' {
			return false
		}
	}

	return true
}

func toSnakeCase(s string) string {
	var result []rune

	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				result = append(result, '_')
			}

			result = append(result, r+32) // Convert to lowercase
		case r == '-' || r == ' ':
			result = append(result, '_')
		default:
			result = append(result, r)
		}
	}

	return string(result)
}
