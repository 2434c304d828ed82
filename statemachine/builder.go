package statemachine

// Builder assembles an Engine fluently:
//
//	engine, err := statemachine.NewBuilder("wizard").
//	    WithInitialState("identity").
//	    WithFinalStates("submitted").
//	    AddState("identity").
//	    AddState("birth").
//	    AddState("submitted").
//	    AddTransition("identity", "birth", identityGuard).
//	    AddTransition("birth", "submitted", nil).
//	    Build()
type Builder struct {
	config *Config
	guards map[edge]Guard
}

type edge struct {
	from string
	to   string
}

// NewBuilder creates a builder for a machine with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{
		config: &Config{
			Name:        name,
			States:      []StateConfig{},
			Transitions: []TransitionConfig{},
		},
		guards: make(map[edge]Guard),
	}
}

// NewBuilderFromConfig starts from a loaded config. Guards are attached
// afterwards with WithGuard.
func NewBuilderFromConfig(config *Config) *Builder {
	b := NewBuilder(config.Name)

	b.config.InitialState = config.InitialState
	b.config.FinalStates = append(b.config.FinalStates, config.FinalStates...)
	b.config.States = append(b.config.States, config.States...)
	b.config.Transitions = append(b.config.Transitions, config.Transitions...)

	return b
}

// WithInitialState sets the initial state.
func (b *Builder) WithInitialState(state string) *Builder {
	b.config.InitialState = state

	return b
}

// WithFinalStates sets the final states.
func (b *Builder) WithFinalStates(states ...string) *Builder {
	b.config.FinalStates = states

	return b
}

// AddState declares a state.
func (b *Builder) AddState(name string) *Builder {
	b.config.States = append(b.config.States, StateConfig{Name: name})

	return b
}

// AddTransition declares an edge with an optional guard.
func (b *Builder) AddTransition(from, to string, guard Guard) *Builder {
	b.config.Transitions = append(b.config.Transitions, TransitionConfig{From: from, To: to})

	if guard != nil {
		b.guards[edge{from: from, to: to}] = guard
	}

	return b
}

// WithGuard attaches a guard to an edge declared in the config.
func (b *Builder) WithGuard(from, to string, guard Guard) *Builder {
	b.guards[edge{from: from, to: to}] = guard

	return b
}

// Build validates the config and creates the engine. Guards attached to
// undeclared edges fail with ErrTransitionNotFound.
func (b *Builder) Build() (*Engine, error) {
	for e := range b.guards {
		found := false

		for _, t := range b.config.Transitions {
			if t.From == e.from && t.To == e.to {
				found = true

				break
			}
		}

		if !found {
			return nil, WrapTransitionError(e.from, e.to, ErrTransitionNotFound)
		}
	}

	transitions := make([]Transition, 0, len(b.config.Transitions))

	for _, t := range b.config.Transitions {
		transitions = append(transitions, NewGuardedTransition(t.From, t.To, b.guards[edge{from: t.From, to: t.To}]))
	}

	return NewEngine(b.config, transitions)
}
