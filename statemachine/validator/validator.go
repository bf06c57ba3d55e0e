// Package validator checks machine tables for problems that would otherwise
// only surface when a trigger is fired.
package validator

import (
	"fmt"
	"strings"

	"github.com/amp-labs/statemixin/statemachine"
)

// ValidationResult contains the results of validating a machine table.
type ValidationResult struct {
	Valid       bool
	Errors      []ValidationError
	Warnings    []ValidationWarning
	Suggestions []Suggestion
}

// ValidationError represents a validation error with fix suggestions.
type ValidationError struct {
	Code     string   // Error code like "UNDEFINED_CONDITION", "EMPTY_ORIGINS"
	Message  string   // Human-readable error message
	Location Location // Where the error occurred
	Fix      *Fix     // Optional auto-fix suggestion
}

// ValidationWarning represents a non-critical issue.
type ValidationWarning struct {
	Code     string   // Warning code
	Message  string   // Human-readable warning message
	Location Location // Where the warning occurred
	Fix      *Fix     // Optional auto-fix suggestion
}

// Suggestion provides improvement recommendations.
type Suggestion struct {
	Message string // Suggestion description
	Example string // YAML example showing the improvement
}

// Location identifies where an issue occurred.
type Location struct {
	File      string // Config file path
	Trigger   string // Trigger name if applicable
	Candidate int    // Candidate index, statemachine.NoIndex if not applicable
	State     string // State name if applicable
}

func (l Location) String() string {
	var parts []string

	if l.Trigger != "" {
		parts = append(parts, "trigger: "+l.Trigger)
	}

	if l.Trigger != "" && l.Candidate != statemachine.NoIndex {
		parts = append(parts, fmt.Sprintf("candidate: %d", l.Candidate))
	}

	if l.State != "" {
		parts = append(parts, "state: "+l.State)
	}

	return strings.Join(parts, ", ")
}

// Validate performs comprehensive validation on a machine description.
func Validate(desc *statemachine.Description) ValidationResult {
	return ValidateWithRules(desc, append(DefaultRules(), RegisteredRules...))
}

// ValidateConfig validates a loaded configuration.
func ValidateConfig(config *statemachine.Config) ValidationResult {
	return Validate(config.Describe())
}

// ValidateFile loads a config from a file and validates it.
func ValidateFile(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, false)
}

// ValidateFileStrict loads a config from a file and validates it in strict mode.
func ValidateFileStrict(path string) (ValidationResult, error) {
	return ValidateFileWithOptions(path, true)
}

// ValidateFileWithOptions loads a config from a file and validates it with options.
func ValidateFileWithOptions(path string, strict bool) (ValidationResult, error) {
	config, err := statemachine.LoadConfig(path)
	if err != nil {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{
				{
					Code:     "CONFIG_LOAD_FAILED",
					Message:  fmt.Sprintf("Failed to load config: %v", err),
					Location: Location{File: path, Candidate: statemachine.NoIndex},
				},
			},
		}, err
	}

	rules := append(DefaultRules(), RegisteredRules...)

	var result ValidationResult
	if strict {
		result = ValidateWithRulesStrict(config.Describe(), rules)
	} else {
		result = ValidateWithRules(config.Describe(), rules)
	}

	// Set file location for all errors and warnings
	for i := range result.Errors {
		if result.Errors[i].Location.File == "" {
			result.Errors[i].Location.File = path
		}
	}

	for i := range result.Warnings {
		if result.Warnings[i].Location.File == "" {
			result.Warnings[i].Location.File = path
		}
	}

	return result, nil
}

// ValidateWithRules validates using custom rules.
func ValidateWithRules(desc *statemachine.Description, rules []Rule) ValidationResult {
	var result ValidationResult

	result.Valid = true

	// Run all validation rules
	for _, rule := range rules {
		ruleResult := rule.Check(desc)
		result.Errors = append(result.Errors, ruleResult.Errors...)
		result.Warnings = append(result.Warnings, ruleResult.Warnings...)
	}

	// If any errors found, mark as invalid
	if len(result.Errors) > 0 {
		result.Valid = false
	}

	// Add general suggestions
	result.Suggestions = generateSuggestions(desc)

	return result
}

// ValidateWithRulesStrict validates with strict mode (treats warnings as errors).
func ValidateWithRulesStrict(desc *statemachine.Description, rules []Rule) ValidationResult {
	result := ValidateWithRules(desc, rules)

	// In strict mode, treat warnings as errors
	for _, warning := range result.Warnings {
		result.Errors = append(result.Errors, ValidationError{
			Code:     warning.Code,
			Message:  warning.Message,
			Location: warning.Location,
			Fix:      warning.Fix,
		})
	}

	// Clear warnings since they're now errors
	result.Warnings = nil

	// Mark as invalid if there are errors
	if len(result.Errors) > 0 {
		result.Valid = false
	}

	return result
}

// generateSuggestions provides general improvement suggestions.
func generateSuggestions(desc *statemachine.Description) []Suggestion {
	var suggestions []Suggestion

	if !desc.CapabilitiesKnown {
		suggestions = append(suggestions, Suggestion{
			Message: "Declare the subject's capabilities so undefined conditions and effects are caught before runtime",
			Example: `capabilities:
  guards: [hasEnergy]
  effects: [speedUp, slowDown]`,
		})
	}

	if desc.Initial == "" {
		suggestions = append(suggestions, Suggestion{
			Message: "Set the initial state so unreachable states can be detected",
			Example: `initial: idle`,
		})
	}

	// A trigger whose every candidate is guarded can end in a false condition.
	for _, trigger := range desc.Triggers {
		guarded := len(trigger.Candidates) > 0

		for _, candidate := range trigger.Candidates {
			if len(candidate.Conditions) == 0 {
				guarded = false

				break
			}
		}

		if guarded && len(trigger.Candidates) > 1 {
			suggestions = append(suggestions, Suggestion{
				Message: fmt.Sprintf("Consider an unguarded last candidate for '%s' so the fallback chain always ends in a transition", trigger.Name),
				Example: fmt.Sprintf(`triggers:
  %s:
    - origins: [...]
      destination: ...
      conditions: [...]
    - origins: [...]
      destination: fallback_state  # no conditions`, trigger.Name),
			})
		}
	}

	return suggestions
}

// HasErrors returns true if the result has any errors.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if the result has any warnings.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Fixes returns every fix attached to an error or warning.
func (r ValidationResult) Fixes() []*Fix {
	var fixes []*Fix

	for _, err := range r.Errors {
		if err.Fix != nil {
			fixes = append(fixes, err.Fix)
		}
	}

	for _, warn := range r.Warnings {
		if warn.Fix != nil {
			fixes = append(fixes, warn.Fix)
		}
	}

	return fixes
}

// String returns a human-readable summary of validation results.
func (r ValidationResult) String() string {
	var msg strings.Builder

	if r.Valid {
		msg.WriteString("✓ Configuration is valid\n")
	} else {
		fmt.Fprintf(&msg, "✗ Configuration has %d error(s)\n", len(r.Errors))

		for _, err := range r.Errors {
			fmt.Fprintf(&msg, "  [%s] %s", err.Code, err.Message)

			if loc := err.Location.String(); loc != "" {
				fmt.Fprintf(&msg, " (%s)", loc)
			}

			msg.WriteString("\n")

			if err.Fix != nil {
				fmt.Fprintf(&msg, "    Fix: %s\n", err.Fix.Description)
			}
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&msg, "\n⚠ %d warning(s):\n", len(r.Warnings))

		for _, warn := range r.Warnings {
			fmt.Fprintf(&msg, "  [%s] %s\n", warn.Code, warn.Message)
		}
	}

	if len(r.Suggestions) > 0 {
		fmt.Fprintf(&msg, "\n💡 %d suggestion(s) for improvement\n", len(r.Suggestions))
	}

	return msg.String()
}
