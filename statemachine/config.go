package statemachine

import (
	"fmt"
	"io/fs"
	"slices"

	"gopkg.in/yaml.v3"
)

// Config describes the states and edges of a machine. Guards are code and
// are attached through the Builder; the config only names the edges.
type Config struct {
	Name         string             `json:"name"         yaml:"name"`
	InitialState string             `json:"initialState" yaml:"initialState"`
	FinalStates  []string           `json:"finalStates"  yaml:"finalStates"`
	States       []StateConfig      `json:"states"       yaml:"states"`
	Transitions  []TransitionConfig `json:"transitions"  yaml:"transitions"`
}

// StateConfig describes a single state.
type StateConfig struct {
	Name     string         `json:"name"     yaml:"name"`
	Metadata map[string]any `json:"metadata" yaml:"metadata"`
}

// TransitionConfig describes a directed edge.
type TransitionConfig struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to"   yaml:"to"`
}

// LoadConfigFromBytes parses and validates a YAML machine description.
func LoadConfigFromBytes(data []byte) (*Config, error) {
	var config Config

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadConfigFromFS reads a YAML machine description from fsys, typically
// an embed.FS.
func LoadConfigFromFS(fsys fs.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS: %w", err)
	}

	return LoadConfigFromBytes(data)
}

// Validate checks the config for structural problems.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrConfigNameRequired
	}

	if c.InitialState == "" {
		return ErrInitialStateRequired
	}

	if len(c.FinalStates) == 0 {
		return ErrFinalStateRequired
	}

	if len(c.States) == 0 {
		return ErrStateRequired
	}

	stateNames := make(map[string]bool, len(c.States))

	for _, state := range c.States {
		if state.Name == "" {
			return ErrStateNameRequired
		}

		if stateNames[state.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateStateName, state.Name)
		}

		stateNames[state.Name] = true
	}

	if !stateNames[c.InitialState] {
		return fmt.Errorf("%w: %s", ErrInitialStateNotFound, c.InitialState)
	}

	for _, finalState := range c.FinalStates {
		if !stateNames[finalState] {
			return fmt.Errorf("%w: %s", ErrFinalStateNotFound, finalState)
		}
	}

	seen := make([]TransitionConfig, 0, len(c.Transitions))

	for i, trans := range c.Transitions {
		if trans.From == "" {
			return fmt.Errorf("transition %d: %w", i, ErrTransitionFromRequired)
		}

		if trans.To == "" {
			return fmt.Errorf("transition %d: %w", i, ErrTransitionToRequired)
		}

		if !stateNames[trans.From] {
			return fmt.Errorf("transition %d: %w: %s", i, ErrTransitionFromNotFound, trans.From)
		}

		if !stateNames[trans.To] {
			return fmt.Errorf("transition %d: %w: %s", i, ErrTransitionToNotFound, trans.To)
		}

		if slices.Contains(seen, trans) {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicateTransition, trans.From, trans.To)
		}

		seen = append(seen, trans)
	}

	return nil
}
