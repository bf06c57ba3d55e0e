// Package visualizer generates Mermaid state diagrams from machine tables.
//
//nolint:varnamelen // Short names idiomatic
package visualizer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/amp-labs/statemixin/statemachine"
)

// Visualizer errors.
var (
	ErrDescriptionNil   = errors.New("description cannot be nil")
	ErrInvalidDirection = errors.New("invalid diagram direction")
)

var directions = []string{"TB", "BT", "LR", "RL"}

type palette struct {
	terminal    string
	highlighted string
}

var themes = map[string]palette{
	"default": {
		terminal:    "fill:#c8e6c9,stroke:#2e7d32,stroke-width:2px",
		highlighted: "fill:#fff9c4,stroke:#f57f17,stroke-width:3px",
	},
	"dark": {
		terminal:    "fill:#1b5e20,stroke:#a5d6a7,color:#ffffff,stroke-width:2px",
		highlighted: "fill:#e65100,stroke:#ffcc80,color:#ffffff,stroke-width:3px",
	},
	"forest": {
		terminal:    "fill:#a5d6a7,stroke:#1b5e20,stroke-width:2px",
		highlighted: "fill:#dcedc8,stroke:#33691e,stroke-width:3px",
	},
}

// GenerateMermaid converts a machine description to a Mermaid state diagram.
func GenerateMermaid(desc *statemachine.Description) (string, error) {
	return GenerateMermaidWithOptions(desc, DefaultOptions())
}

// GenerateMermaidFromFile loads a config from a file and generates a Mermaid diagram.
func GenerateMermaidFromFile(path string) (string, error) {
	config, err := statemachine.LoadConfig(path)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}

	return GenerateMermaid(config.Describe())
}

// GenerateMermaidWithOptions generates a Mermaid diagram with custom options.
// Every origin of a candidate gets its own edge, labelled with the trigger
// name. States that are never an origin are drawn as terminal.
func GenerateMermaidWithOptions(desc *statemachine.Description, opts Options) (string, error) {
	if desc == nil {
		return "", ErrDescriptionNil
	}

	direction := opts.Direction
	if direction == "" {
		direction = "TB"
	}

	if !slices.Contains(directions, direction) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, opts.Direction)
	}

	colors, ok := themes[opts.Theme]
	if !ok {
		colors = themes["default"]
	}

	var sb strings.Builder

	sb.WriteString("```mermaid\n")
	sb.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&sb, "    direction %s\n", direction)

	if desc.Name != "" {
		fmt.Fprintf(&sb, "    %%%% %s\n", desc.Name)
	}

	states := desc.States()
	origins := make(map[string]bool)

	for _, trigger := range desc.Triggers {
		for _, candidate := range trigger.Candidates {
			for _, origin := range candidate.Origins {
				origins[origin] = true
			}
		}
	}

	// Names that are not valid Mermaid identifiers get an alias.
	for _, state := range states {
		if id := nodeID(state); id != state {
			fmt.Fprintf(&sb, "    state %q as %s\n", state, id)
		}
	}

	if desc.Initial != "" {
		fmt.Fprintf(&sb, "    [*] --> %s\n", nodeID(desc.Initial))
	}

	for _, trigger := range desc.Triggers {
		for _, candidate := range trigger.Candidates {
			if candidate.Destination == "" {
				continue
			}

			label := edgeLabel(trigger.Name, candidate, opts)

			for _, origin := range candidate.Origins {
				fmt.Fprintf(&sb, "    %s --> %s: %s\n", nodeID(origin), nodeID(candidate.Destination), label)
			}
		}
	}

	for _, state := range states {
		if !origins[state] {
			fmt.Fprintf(&sb, "    %s --> [*]\n", nodeID(state))
		}
	}

	highlighted := make(map[string]bool)
	for _, state := range opts.HighlightPath {
		highlighted[state] = true
	}

	sb.WriteString("\n")

	for _, state := range states {
		switch {
		case highlighted[state]:
			fmt.Fprintf(&sb, "    class %s highlighted\n", nodeID(state))
		case !origins[state]:
			fmt.Fprintf(&sb, "    class %s terminalState\n", nodeID(state))
		}
	}

	fmt.Fprintf(&sb, "    classDef terminalState %s\n", colors.terminal)
	fmt.Fprintf(&sb, "    classDef highlighted %s\n", colors.highlighted)

	sb.WriteString("```\n")

	return sb.String(), nil
}

func edgeLabel(trigger string, candidate statemachine.CandidateDescription, opts Options) string {
	label := trigger

	if opts.ShowConditions && len(candidate.Conditions) > 0 {
		label += " [" + strings.Join(candidate.Conditions, " && ") + "]"
	}

	if opts.ShowEffects && len(candidate.Effects) > 0 {
		label += " / " + strings.Join(candidate.Effects, ", ")
	}

	return label
}

// nodeID maps a state name to a Mermaid identifier.
func nodeID(state string) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, state)

	if id == "" || (id[0] >= '0' && id[0] <= '9') {
		id = "s_" + id
	}

	return id
}
