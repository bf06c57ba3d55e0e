package statemachine

import (
	"fmt"
	"slices"
	"strings"

	"facette.io/natsort"
	"github.com/zeebo/xxh3"
)

// Description is a string-typed view of a machine table used by tooling such
// as the validator and the visualizer.
type Description struct {
	Name     string
	Initial  string
	Triggers []TriggerDescription

	// CapabilitiesKnown is false when nothing is known about the subject's
	// capabilities, in which case Guards and Effects are empty and meaningless.
	CapabilitiesKnown bool
	Guards            []string
	Effects           []string

	// StrictOrigins mirrors the machine option: when false any origin of a
	// trigger admits every candidate of that trigger.
	StrictOrigins bool
}

// TriggerDescription describes one trigger and its candidates in fallback order.
type TriggerDescription struct {
	Name       string
	Candidates []CandidateDescription
}

// CandidateDescription describes one candidate transition.
type CandidateDescription struct {
	Origins     []string
	Destination string
	Conditions  []string
	Effects     []string
}

// Describe builds a description of a table. Triggers are in natural order.
func Describe[S comparable, T ~string](name string, table Table[S, T]) *Description {
	desc := &Description{Name: name}

	for trigger, candidates := range table {
		td := TriggerDescription{Name: string(trigger)}

		for _, candidate := range candidates {
			cd := CandidateDescription{
				Destination: stateLabel(candidate.Destination),
			}

			for _, origin := range candidate.Origins {
				cd.Origins = append(cd.Origins, stateLabel(origin))
			}

			for _, condition := range candidate.Conditions {
				cd.Conditions = append(cd.Conditions, string(condition))
			}

			for _, effect := range candidate.Effects {
				cd.Effects = append(cd.Effects, string(effect))
			}

			td.Candidates = append(td.Candidates, cd)
		}

		desc.Triggers = append(desc.Triggers, td)
	}

	slices.SortFunc(desc.Triggers, func(a, b TriggerDescription) int {
		switch {
		case a.Name == b.Name:
			return 0
		case natsort.Compare(a.Name, b.Name):
			return -1
		default:
			return 1
		}
	})

	return desc
}

// Describe describes the bound table together with the registered capabilities.
// Initial is the subject's current state.
func (m *Machine[S, T, O]) Describe() *Description {
	desc := Describe(m.opts.Name, m.table)
	desc.Initial = stateLabel(m.subject.State())
	desc.CapabilitiesKnown = true
	desc.Guards = m.caps.GuardNames()
	desc.Effects = m.caps.EffectNames()
	desc.StrictOrigins = m.opts.StrictOrigins

	return desc
}

// Describe describes the configured table. Capabilities are known only when
// the configuration declares them.
func (c *Config) Describe() *Description {
	desc := Describe(c.Name, TableFromConfig[string, string](c))
	desc.Initial = c.Initial

	if c.Capabilities != nil {
		desc.CapabilitiesKnown = true
		desc.Guards = slices.Clone(c.Capabilities.Guards)
		desc.Effects = slices.Clone(c.Capabilities.Effects)
		natsort.Sort(desc.Guards)
		natsort.Sort(desc.Effects)
	}

	return desc
}

// States returns every state mentioned by the table, plus Initial, in natural order.
func (d *Description) States() []string {
	var states []string

	add := func(state string) {
		if state != "" && !slices.Contains(states, state) {
			states = append(states, state)
		}
	}

	add(d.Initial)

	for _, trigger := range d.Triggers {
		for _, candidate := range trigger.Candidates {
			for _, origin := range candidate.Origins {
				add(origin)
			}

			add(candidate.Destination)
		}
	}

	natsort.Sort(states)

	return states
}

// Fingerprint returns a stable hash of the table's structure. Two tables with
// the same triggers, candidates and capability references share a fingerprint
// regardless of name.
func (d *Description) Fingerprint() string {
	var sb strings.Builder

	for _, trigger := range d.Triggers {
		for i, candidate := range trigger.Candidates {
			fmt.Fprintf(&sb, "%s#%d|%s|%s|%s|%s\n",
				trigger.Name, i,
				strings.Join(candidate.Origins, ","),
				candidate.Destination,
				strings.Join(candidate.Conditions, ","),
				strings.Join(candidate.Effects, ","),
			)
		}
	}

	return fmt.Sprintf("%016x", xxh3.HashString(sb.String()))
}
