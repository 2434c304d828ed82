package statemachine

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNotReady = errors.New("not ready")

type recordingLogger struct {
	mu       sync.Mutex
	executed []string
	rejected []string
	resets   int
}

func (r *recordingLogger) TransitionExecuted(_ context.Context, from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.executed = append(r.executed, from+"->"+to)
}

func (r *recordingLogger) TransitionRejected(_ context.Context, from, to string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rejected = append(r.rejected, from+"->"+to)
}

func (r *recordingLogger) StateReset(context.Context, string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.resets++
}

func buildLinear(t *testing.T) *Engine {
	t.Helper()

	engine, err := NewBuilder("linear").
		WithInitialState("one").
		WithFinalStates("done").
		AddState("one").
		AddState("two").
		AddState("done").
		AddTransition("one", "two", func(_ context.Context, smCtx *Context) error {
			if ready, _ := smCtx.GetBool("ready"); !ready {
				return errNotReady
			}

			return nil
		}).
		AddTransition("two", "done", RequireData("payload")).
		Build()
	require.NoError(t, err)

	return engine
}

func TestEngineAdvance(t *testing.T) {
	t.Parallel()

	engine := buildLinear(t)
	log := &recordingLogger{}
	engine.SetLogger(log)

	smCtx := engine.NewContext("s1")
	assert.Equal(t, "one", smCtx.State())
	assert.Equal(t, []string{"one"}, smCtx.PathHistory)

	err := engine.Advance(t.Context(), smCtx, "two")
	require.ErrorIs(t, err, errNotReady)
	assert.True(t, IsRejected(err))
	assert.Equal(t, "one", smCtx.State())

	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "one", te.From)
	assert.Equal(t, "two", te.To)

	smCtx.Set("ready", true)
	require.NoError(t, engine.Check(t.Context(), smCtx, "two"))
	assert.Equal(t, "one", smCtx.State(), "Check must not move")

	require.NoError(t, engine.Advance(t.Context(), smCtx, "two"))
	assert.Equal(t, "two", smCtx.State())

	err = engine.Advance(t.Context(), smCtx, "done")
	require.ErrorIs(t, err, ErrValidationDataNotFound)

	smCtx.Set("payload", "x")
	require.NoError(t, engine.Advance(t.Context(), smCtx, "done"))
	assert.True(t, engine.IsFinal(smCtx.State()))
	assert.Equal(t, []string{"one", "two", "done"}, smCtx.PathHistory)
	assert.Len(t, smCtx.History, 2)

	err = engine.Advance(t.Context(), smCtx, "one")
	require.ErrorIs(t, err, ErrFinalState)
	assert.False(t, IsRejected(err))

	assert.Equal(t, []string{"one->two", "two->done"}, log.executed)
	assert.Equal(t, []string{"one->two", "two->done", "done->one"}, log.rejected)
}

func TestEngineOutOfOrder(t *testing.T) {
	t.Parallel()

	engine := buildLinear(t)
	smCtx := engine.NewContext("s2")

	err := engine.Advance(t.Context(), smCtx, "done")
	require.ErrorIs(t, err, ErrTransitionNotFound)
	assert.False(t, IsRejected(err))
	assert.Equal(t, "one", smCtx.State())

	assert.Equal(t, []string{"two"}, engine.Targets(smCtx))
}

func TestEngineReset(t *testing.T) {
	t.Parallel()

	engine := buildLinear(t)
	log := &recordingLogger{}
	engine.SetLogger(log)

	smCtx := engine.NewContext("s3")
	smCtx.Set("ready", true)
	require.NoError(t, engine.Advance(t.Context(), smCtx, "two"))

	engine.Reset(t.Context(), smCtx)

	assert.Equal(t, "one", smCtx.State())
	assert.Empty(t, smCtx.History)
	_, ok := smCtx.Get("ready")
	assert.False(t, ok)
	assert.Equal(t, 1, log.resets)
}

func TestBuilderRejectsGuardOnUnknownEdge(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder("bad").
		WithInitialState("a").
		WithFinalStates("b").
		AddState("a").
		AddState("b").
		WithGuard("a", "b", func(context.Context, *Context) error { return nil }).
		Build()
	require.ErrorIs(t, err, ErrTransitionNotFound)
}

func TestContextClone(t *testing.T) {
	t.Parallel()

	smCtx := NewContext("s4")
	smCtx.Set("k", "v")
	smCtx.Merge(map[string]any{"n": 1})

	clone := smCtx.Clone()
	clone.Set("k", "changed")
	clone.Delete("n")

	v, _ := smCtx.GetString("k")
	assert.Equal(t, "v", v)

	_, ok := smCtx.Get("n")
	assert.True(t, ok)
}
