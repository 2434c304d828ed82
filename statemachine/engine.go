package statemachine

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"
)

const (
	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeNotFound = "not_found"
	outcomeFinal    = "final"
)

// Engine drives a Context through a fixed graph of states in response to
// events. It never moves on its own: callers ask it to Check or Advance
// toward a target state, and Reset is the only way back.
//
// The engine itself is immutable after Build and safe for concurrent use.
// Calls that share a Context must be serialized by the caller.
type Engine struct {
	name         string
	states       []string
	transitions  []Transition
	initialState string
	finalStates  []string
	logger       Logger
}

// NewEngine creates an engine from a config. When transitions is nil every
// configured edge is unguarded.
func NewEngine(config *Config, transitions []Transition) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if transitions == nil {
		for _, t := range config.Transitions {
			transitions = append(transitions, NewSimpleTransition(t.From, t.To))
		}
	}

	states := make([]string, 0, len(config.States))
	for _, s := range config.States {
		states = append(states, s.Name)
	}

	return &Engine{
		name:         config.Name,
		states:       states,
		transitions:  transitions,
		initialState: config.InitialState,
		finalStates:  slices.Clone(config.FinalStates),
	}, nil
}

// Name returns the machine name used in logs and metrics.
func (e *Engine) Name() string {
	return e.name
}

// InitialState returns the state new contexts start in.
func (e *Engine) InitialState() string {
	return e.initialState
}

// IsFinal reports whether state is a final state.
func (e *Engine) IsFinal(state string) bool {
	return slices.Contains(e.finalStates, state)
}

// SetLogger installs transition logging hooks. Call before use.
func (e *Engine) SetLogger(logger Logger) {
	e.logger = logger
}

// NewContext creates a context positioned on the initial state.
func (e *Engine) NewContext(sessionID string) *Context {
	smCtx := NewContext(sessionID)
	smCtx.reset(e.initialState)

	return smCtx
}

// Targets lists the states reachable from the current state, in
// declaration order, without evaluating guards.
func (e *Engine) Targets(smCtx *Context) []string {
	current := smCtx.State()

	var out []string

	for _, t := range e.transitions {
		if t.From() == current {
			out = append(out, t.To())
		}
	}

	return out
}

// Check evaluates the guard of the transition from the current state to
// target without moving.
func (e *Engine) Check(ctx context.Context, smCtx *Context, target string) error {
	_, err := e.check(ctx, smCtx, target)

	return err
}

func (e *Engine) check(ctx context.Context, smCtx *Context, target string) (string, error) {
	current := smCtx.State()

	if current == "" {
		return outcomeNotFound, WrapStateError(current, ErrStateNotFound)
	}

	if e.IsFinal(current) {
		return outcomeFinal, WrapTransitionError(current, target, ErrFinalState)
	}

	for _, transition := range e.transitions {
		if transition.From() != current || transition.To() != target {
			continue
		}

		start := time.Now()
		err := transition.Check(ctx, smCtx)

		guardDuration.WithLabelValues(e.name, current, target).Observe(time.Since(start).Seconds())

		if err != nil {
			return outcomeRejected, WrapTransitionError(current, target, err)
		}

		return outcomeSuccess, nil
	}

	return outcomeNotFound, WrapTransitionError(current, target, ErrTransitionNotFound)
}

// Advance evaluates the guard and, if it passes, moves to target.
func (e *Engine) Advance(ctx context.Context, smCtx *Context, target string) (err error) {
	from := smCtx.State()

	var outcome string

	ctx, span := startTransitionSpan(ctx, e.name, from, target, smCtx)
	defer func() { endTransitionSpan(span, outcome, err) }()

	outcome, err = e.check(ctx, smCtx, target)

	transitionTotal.WithLabelValues(e.name, from, target, outcome).Inc()

	if err != nil {
		if e.logger != nil {
			e.logger.TransitionRejected(ctx, from, target, err)
		}

		return err
	}

	smCtx.moveTo(from, target)

	if e.logger != nil {
		e.logger.TransitionExecuted(ctx, from, target)
	}

	return nil
}

// Reset returns the context to the initial state and clears its data.
func (e *Engine) Reset(ctx context.Context, smCtx *Context) {
	from := smCtx.State()

	smCtx.reset(e.initialState)

	resetTotal.WithLabelValues(e.name, from).Inc()

	if e.logger != nil {
		e.logger.StateReset(ctx, from, e.initialState)
	}
}

// IsRejected reports whether err came from a guard rejecting a transition,
// as opposed to a missing edge or a final state.
func IsRejected(err error) bool {
	var te *TransitionError
	if !errors.As(err, &te) {
		return false
	}

	return !errors.Is(te.Err, ErrTransitionNotFound) && !errors.Is(te.Err, ErrFinalState)
}
