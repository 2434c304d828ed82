package wizard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"slices"

	"github.com/amp-labs/effort-economics/lazy"
	"github.com/amp-labs/effort-economics/statemachine"
	"github.com/amp-labs/effort-economics/validate"
	"github.com/amp-labs/effort-economics/validators"
)

//go:embed flow.yaml
var flowFS embed.FS

const (
	StateIdentity  = "identity"
	StateBirth     = "birth"
	StateLocation  = "location"
	StateSubmitted = "submitted"
)

// Step is the 1-based wizard page.
type Step int

const (
	StepIdentity  Step = 1
	StepBirth     Step = 2
	StepLocation  Step = 3
	StepSubmitted Step = 4
)

func stepOf(state string) Step {
	switch state {
	case StateBirth:
		return StepBirth
	case StateLocation:
		return StepLocation
	case StateSubmitted:
		return StepSubmitted
	default:
		return StepIdentity
	}
}

// Keys of the data the guards inspect.
const (
	dataIdentity         = "identity"
	dataBirth            = "birth"
	dataLocationVerified = "locationVerified"
)

var flow = lazy.New[*statemachine.Engine](func() *statemachine.Engine { //nolint:gochecknoglobals
	engine, err := newFlow()
	if err != nil {
		panic(fmt.Sprintf("wizard flow: %v", err))
	}

	return engine
})

func newFlow() (*statemachine.Engine, error) {
	cfg, err := statemachine.LoadConfigFromFS(flowFS, "flow.yaml")
	if err != nil {
		return nil, err
	}

	engine, err := statemachine.NewBuilderFromConfig(cfg).
		WithGuard(StateIdentity, StateBirth, identityGuard).
		WithGuard(StateBirth, StateLocation, birthGuard).
		WithGuard(StateLocation, StateSubmitted, verifiedGuard).
		Build()
	if err != nil {
		return nil, err
	}

	engine.SetLogger(statemachine.NewDefaultLogger(cfg.Name))

	return engine, nil
}

func identityGuard(ctx context.Context, smCtx *statemachine.Context) error {
	raw, _ := smCtx.Get(dataIdentity)

	input, ok := raw.(validators.IdentityInput)
	if !ok {
		return statemachine.ErrValidationDataNotFound
	}

	return validate.Validate(ctx, input)
}

func birthGuard(ctx context.Context, smCtx *statemachine.Context) error {
	raw, _ := smCtx.Get(dataBirth)

	input, ok := raw.(validators.BirthInput)
	if !ok {
		return statemachine.ErrValidationDataNotFound
	}

	return validate.Validate(ctx, input)
}

func verifiedGuard(_ context.Context, smCtx *statemachine.Context) error {
	if verified, _ := smCtx.GetBool(dataLocationVerified); !verified {
		return ErrLocationNotVerified
	}

	return nil
}

// stage stores guard input, refusing events that have no edge from the
// current state.
func stage(engine *statemachine.Engine, smCtx *statemachine.Context, target, key string, value any) error {
	if !slices.Contains(engine.Targets(smCtx), target) {
		return statemachine.WrapTransitionError(smCtx.State(), target, statemachine.ErrTransitionNotFound)
	}

	smCtx.Set(key, value)

	return nil
}

// IsOutOfOrder reports whether err is an event sent on the wrong step.
func IsOutOfOrder(err error) bool {
	return errors.Is(err, statemachine.ErrTransitionNotFound) || errors.Is(err, statemachine.ErrFinalState)
}
