package statemachine

import (
	"errors"
	"fmt"
)

var (
	ErrStateNotFound          = errors.New("state not found")
	ErrTransitionNotFound     = errors.New("no valid transition found")
	ErrFinalState             = errors.New("state machine is in a final state")
	ErrValidationDataNotFound = errors.New("validation data not found in context")

	// Configuration validation errors.
	ErrConfigNameRequired     = errors.New("config name is required")
	ErrInitialStateRequired   = errors.New("initial state is required")
	ErrFinalStateRequired     = errors.New("at least one final state is required")
	ErrStateRequired          = errors.New("at least one state is required")
	ErrInitialStateNotFound   = errors.New("initial state does not exist")
	ErrFinalStateNotFound     = errors.New("final state does not exist")
	ErrStateNameRequired      = errors.New("state name is required")
	ErrDuplicateStateName     = errors.New("duplicate state name")
	ErrTransitionFromRequired = errors.New("transition from state is required")
	ErrTransitionToRequired   = errors.New("transition to state is required")
	ErrTransitionFromNotFound = errors.New("transition from state does not exist")
	ErrTransitionToNotFound   = errors.New("transition to state does not exist")
	ErrDuplicateTransition    = errors.New("duplicate transition")
)

// StateError ties an error to the state the machine was in.
type StateError struct {
	State string
	Err   error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("state %s: %v", e.State, e.Err)
}

func (e *StateError) Unwrap() error {
	return e.Err
}

// TransitionError is returned when a transition is missing or its guard
// rejects the move. Err is the guard's error, so callers can match the
// underlying cause with errors.Is.
type TransitionError struct {
	From string
	To   string
	Err  error
}

func (e *TransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("transition from %s: %v", e.From, e.Err)
	}

	return fmt.Sprintf("transition %s -> %s: %v", e.From, e.To, e.Err)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}

// WrapStateError wraps err with the state name. Returns nil for a nil error.
func WrapStateError(state string, err error) error {
	if err == nil {
		return nil
	}

	return &StateError{
		State: state,
		Err:   err,
	}
}

// WrapTransitionError wraps err with the transition endpoints. Returns nil
// for a nil error.
func WrapTransitionError(from, to string, err error) error {
	if err == nil {
		return nil
	}

	return &TransitionError{
		From: from,
		To:   to,
		Err:  err,
	}
}
