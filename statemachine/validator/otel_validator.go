package validator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/amp-labs/statemixin/statemachine"
)

// ValidateTelemetry checks that a machine's names produce usable span names
// and metric labels. Each trigger call opens a span named "trigger.<name>" and
// every metric is labelled with the machine name.
func ValidateTelemetry(desc *statemachine.Description) []ValidationError {
	if desc == nil {
		return []ValidationError{{
			Code:     "OTEL_DESCRIPTION_EXISTS",
			Message:  "description is nil - cannot validate telemetry naming",
			Location: Location{Candidate: statemachine.NoIndex},
		}}
	}

	return (&telemetryNamingRule{}).Check(desc).Errors
}

// telemetryNamingRule checks names that end up in spans and metric labels.
type telemetryNamingRule struct{}

func (r *telemetryNamingRule) Name() string {
	return "TelemetryNaming"
}

func (r *telemetryNamingRule) Severity() Severity {
	return SeverityError
}

func (r *telemetryNamingRule) Check(desc *statemachine.Description) RuleResult {
	var result RuleResult

	for _, trigger := range desc.Triggers {
		if trigger.Name == "" {
			result.Errors = append(result.Errors, ValidationError{
				Code:     "OTEL_TRIGGER_NAMING",
				Message:  "trigger with empty name - span would be named 'trigger.'",
				Location: at(trigger.Name, statemachine.NoIndex),
			})

			continue
		}

		if strings.ContainsFunc(trigger.Name, unicode.IsSpace) {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Code:     "OTEL_TRIGGER_NAMING",
				Message:  fmt.Sprintf("Trigger '%s' contains whitespace - span name 'trigger.%s' is hard to query", trigger.Name, trigger.Name),
				Location: at(trigger.Name, statemachine.NoIndex),
			})
		}
	}

	if desc.Name == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Code:     "OTEL_MACHINE_NAME",
			Message:  "machine has no name - metrics will be labelled 'unknown'",
			Location: Location{Candidate: statemachine.NoIndex},
		})
	}

	return result
}
