package statemachine

import (
	"context"

	"github.com/amp-labs/effort-economics/logger"
)

// Logger receives engine lifecycle events.
type Logger interface {
	TransitionExecuted(ctx context.Context, from, to string)
	TransitionRejected(ctx context.Context, from, to string, err error)
	StateReset(ctx context.Context, from, to string)
}

// DefaultLogger writes events through logger.Get, so context values such
// as the session id are attached automatically.
type DefaultLogger struct {
	machine string
}

// NewDefaultLogger creates a DefaultLogger for the named machine.
func NewDefaultLogger(machine string) *DefaultLogger {
	return &DefaultLogger{machine: machine}
}

func (l *DefaultLogger) TransitionExecuted(ctx context.Context, from, to string) {
	logger.Get(ctx).InfoContext(ctx, "Transition executed",
		"machine", l.machine,
		"from", from,
		"to", to)
}

// TransitionRejected logs at debug level: guard rejections are ordinary
// user input errors.
func (l *DefaultLogger) TransitionRejected(ctx context.Context, from, to string, err error) {
	logger.Get(ctx).DebugContext(ctx, "Transition rejected",
		"machine", l.machine,
		"from", from,
		"to", to,
		"error", err)
}

func (l *DefaultLogger) StateReset(ctx context.Context, from, to string) {
	logger.Get(ctx).InfoContext(ctx, "State machine reset",
		"machine", l.machine,
		"from", from,
		"to", to)
}
