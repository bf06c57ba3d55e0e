package statemachine

import (
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"

	"facette.io/natsort"
	"gopkg.in/yaml.v3"
)

// ConfigLoader is an interface for loading machine tables by name.
// Applications can implement this to provide embedded or custom config loading.
type ConfigLoader interface {
	LoadByName(name string) ([]byte, error)
	ListAvailable() []string
}

var (
	// defaultConfigLoader is the global config loader used by LoadConfig.
	defaultConfigLoader ConfigLoader
)

// SetConfigLoader sets the default config loader for name-based loading.
func SetConfigLoader(loader ConfigLoader) {
	defaultConfigLoader = loader
}

// Config is the YAML form of a machine table.
type Config struct {
	Name         string                      `json:"name"                   yaml:"name"`
	Initial      string                      `json:"initial,omitempty"      yaml:"initial,omitempty"`
	Capabilities *CapabilitiesConfig         `json:"capabilities,omitempty" yaml:"capabilities,omitempty"`
	Triggers     map[string]CandidatesConfig `json:"triggers"               yaml:"triggers"`
}

// CapabilitiesConfig optionally declares the guard and effect names the
// subject provides, so a table can be checked without the subject at hand.
type CapabilitiesConfig struct {
	Guards  StringList `json:"guards"  yaml:"guards"`
	Effects StringList `json:"effects" yaml:"effects"`
}

// TransitionConfig is the YAML form of a Transition.
type TransitionConfig struct {
	Origins     StringList `json:"origins"     yaml:"origins"`
	Destination string     `json:"destination" yaml:"destination"`
	Conditions  StringList `json:"conditions"  yaml:"conditions"`
	Effects     StringList `json:"effects"     yaml:"effects"`
}

// CandidatesConfig accepts either one transition mapping or a list of them.
type CandidatesConfig []TransitionConfig

// UnmarshalYAML decodes a single mapping as a one-element list.
func (c *CandidatesConfig) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		var transition TransitionConfig

		err := node.Decode(&transition)
		if err != nil {
			return err
		}

		*c = CandidatesConfig{transition}
	case yaml.SequenceNode:
		var transitions []TransitionConfig

		err := node.Decode(&transitions)
		if err != nil {
			return err
		}

		*c = transitions
	case yaml.ScalarNode:
		if node.Tag != "!!null" {
			return fmt.Errorf("%w: line %d: expected transition mapping or list", ErrInvalidShape, node.Line)
		}

		*c = nil
	default:
		return fmt.Errorf("%w: line %d: expected transition mapping or list", ErrInvalidShape, node.Line)
	}

	return nil
}

// StringList accepts either a scalar or a sequence of scalars.
type StringList []string

// UnmarshalYAML decodes a scalar as a one-element list.
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*l = nil

			return nil
		}

		*l = StringList{node.Value}
	case yaml.SequenceNode:
		var values []string

		err := node.Decode(&values)
		if err != nil {
			return err
		}

		*l = values
	default:
		return fmt.Errorf("%w: line %d: expected scalar or list", ErrInvalidShape, node.Line)
	}

	return nil
}

// LoadConfig loads a machine table by path or name.
// Supports two modes:
//   - Path mode: a value containing '/', '\', or ending in '.yaml'/'.yml' is read from the filesystem
//     Example: LoadConfig("testdata/walker.yaml")
//   - Name mode: a bare name is loaded via the registered ConfigLoader
//     Example: LoadConfig("walker")
func LoadConfig(pathOrName string) (*Config, error) {
	var (
		data []byte
		err  error
	)

	lower := strings.ToLower(pathOrName)
	isPath := strings.Contains(pathOrName, "/") ||
		strings.Contains(pathOrName, `\`) ||
		strings.HasSuffix(lower, ".yaml") ||
		strings.HasSuffix(lower, ".yml")

	if isPath {
		data, err = os.ReadFile(pathOrName) //nolint:gosec // Intentional path-based loading
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", pathOrName, err)
		}

		return LoadConfigFromBytes(data)
	}

	if defaultConfigLoader == nil {
		return nil, ErrNoConfigLoader
	}

	data, err = defaultConfigLoader.LoadByName(pathOrName)
	if err != nil {
		available := defaultConfigLoader.ListAvailable()

		return nil, fmt.Errorf("failed to load config %q (available: %v): %w", pathOrName, available, err)
	}

	return LoadConfigFromBytes(data)
}

// LoadConfigFromBytes loads a machine table from YAML bytes.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	err := yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS loads a configuration from a filesystem such as embed.FS.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// Validate checks the structure of the table. Whether the named capabilities
// exist is left to the validator package and to Trigger.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrConfigNameRequired
	}

	if len(c.Triggers) == 0 {
		return ErrTriggerRequired
	}

	for _, trigger := range c.triggerNames() {
		candidates := c.Triggers[trigger]
		if len(candidates) == 0 {
			return fmt.Errorf("trigger %s: %w", trigger, ErrCandidateRequired)
		}

		for i, transition := range candidates {
			if len(transition.Origins) == 0 || slices.ContainsFunc(transition.Origins, isBlank) {
				return fmt.Errorf("trigger %s, transition %d: %w", trigger, i, ErrOriginsRequired)
			}

			if isBlank(transition.Destination) {
				return fmt.Errorf("trigger %s, transition %d: %w", trigger, i, ErrDestinationRequired)
			}

			for _, name := range append(append([]string{}, transition.Conditions...), transition.Effects...) {
				if name == "" {
					return fmt.Errorf("trigger %s, transition %d: %w", trigger, i, ErrCapabilityNameRequired)
				}
			}
		}
	}

	return nil
}

func isBlank(name string) bool {
	return strings.TrimSpace(name) == ""
}

func (c *Config) triggerNames() []string {
	names := make([]string, 0, len(c.Triggers))
	for name := range c.Triggers {
		names = append(names, name)
	}

	natsort.Sort(names)

	return names
}

// TableFromConfig converts a configuration into a typed table.
func TableFromConfig[S ~string, T ~string](config *Config) Table[S, T] {
	table := make(Table[S, T], len(config.Triggers))

	for trigger, candidates := range config.Triggers {
		converted := make(Candidates[S], 0, len(candidates))

		for _, transition := range candidates {
			converted = append(converted, Transition[S]{
				Origins:     convertAll[S](transition.Origins),
				Destination: S(transition.Destination),
				Conditions:  convertAll[CapabilityName](transition.Conditions),
				Effects:     convertAll[CapabilityName](transition.Effects),
			})
		}

		table[T(trigger)] = converted
	}

	return table
}

func convertAll[To ~string](values []string) []To {
	if len(values) == 0 {
		return nil
	}

	out := make([]To, len(values))
	for i, value := range values {
		out[i] = To(value)
	}

	return out
}
