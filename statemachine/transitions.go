package statemachine

import "context"

// Guard decides whether a transition may fire. A nil return allows it; any
// error rejects it and is surfaced to the caller inside a TransitionError.
type Guard func(ctx context.Context, smCtx *Context) error

// Transition is a directed edge between two states.
type Transition interface {
	From() string
	To() string
	Check(ctx context.Context, smCtx *Context) error
}

// SimpleTransition always allows the move.
type SimpleTransition struct {
	from string
	to   string
}

// NewSimpleTransition creates an unguarded transition.
func NewSimpleTransition(from, to string) *SimpleTransition {
	return &SimpleTransition{
		from: from,
		to:   to,
	}
}

func (t *SimpleTransition) From() string {
	return t.from
}

func (t *SimpleTransition) To() string {
	return t.to
}

func (t *SimpleTransition) Check(context.Context, *Context) error {
	return nil
}

// GuardedTransition allows the move only when its guard passes.
type GuardedTransition struct {
	from  string
	to    string
	guard Guard
}

// NewGuardedTransition creates a transition with a guard. A nil guard
// behaves like SimpleTransition.
func NewGuardedTransition(from, to string, guard Guard) *GuardedTransition {
	return &GuardedTransition{
		from:  from,
		to:    to,
		guard: guard,
	}
}

func (t *GuardedTransition) From() string {
	return t.from
}

func (t *GuardedTransition) To() string {
	return t.to
}

func (t *GuardedTransition) Check(ctx context.Context, smCtx *Context) error {
	if t.guard == nil {
		return nil
	}

	return t.guard(ctx, smCtx)
}

// RequireData returns a guard that passes when every key is present in the
// context data. Missing keys yield ErrValidationDataNotFound.
func RequireData(keys ...string) Guard {
	return func(_ context.Context, smCtx *Context) error {
		for _, key := range keys {
			if _, ok := smCtx.Get(key); !ok {
				return WrapStateError(smCtx.State(), ErrValidationDataNotFound)
			}
		}

		return nil
	}
}
