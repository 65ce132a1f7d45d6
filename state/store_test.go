package state_test

import (
	"context"
	"testing"

	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Increment struct{ By int }

type Reset struct{}

func counter(name string) state.Feature {
	return state.NewFeature(name, 0,
		state.On(func(s int, a Increment) int { return s + a.By }),
		state.On(func(s int, _ Reset) int { return 0 }),
	)
}

func TestStoreReducesFeatures(t *testing.T) {
	s := di.NewServiceCollection()
	state.AddStore(s)
	state.AddFeature(s, counter("counter"))

	p := di.MustBuild(s)
	store := di.MustResolve[state.Store](p)
	require.NoError(t, store.Initialize(context.Background()))

	assert.Equal(t, []string{"counter"}, store.Features())

	store.Dispatch(Increment{By: 2})
	store.Dispatch(Increment{By: 3})
	v, ok := state.Select[int](store, "counter")
	require.True(t, ok)
	assert.Equal(t, 5, v)

	store.Dispatch(Reset{})
	v, _ = state.Select[int](store, "counter")
	assert.Equal(t, 0, v)

	store.Dispatch("unrelated")
	v, _ = state.Select[int](store, "counter")
	assert.Equal(t, 0, v)
}

func TestDispatchBeforeInitializeIsQueued(t *testing.T) {
	s := di.NewServiceCollection()
	state.AddStore(s)
	state.AddFeature(s, counter("counter"))

	store := di.MustResolve[state.Store](di.MustBuild(s))
	store.Dispatch(Increment{By: 1})

	_, ok := store.State("counter")
	assert.False(t, ok, "state must not exist before Initialize")

	require.NoError(t, store.Initialize(context.Background()))
	v, _ := state.Select[int](store, "counter")
	assert.Equal(t, 1, v)

	require.NoError(t, store.Initialize(context.Background()))
	v, _ = state.Select[int](store, "counter")
	assert.Equal(t, 1, v, "a second Initialize must not reset or replay")
}

func TestStateSurvivesProviderRebuild(t *testing.T) {
	base := di.NewServiceCollection()
	state.AddStore(base)
	state.AddFeature(base, counter("counter"))

	first := di.MustResolve[state.Store](di.MustBuild(base))
	require.NoError(t, first.Initialize(context.Background()))
	first.Dispatch(Increment{By: 4})

	var seen []string
	unsubscribe := first.Subscribe(func(name string, _ any) { seen = append(seen, name) })
	defer unsubscribe()

	module := di.NewServiceCollection()
	state.AddFeature(module, counter("feature2"))

	second := di.MustResolve[state.Store](di.MustBuild(base.Concat(module)))
	require.NoError(t, second.Initialize(context.Background()))

	assert.Equal(t, []string{"counter", "feature2"}, second.Features())
	v, _ := state.Select[int](second, "counter")
	assert.Equal(t, 4, v)

	second.Dispatch(Increment{By: 1})
	c, _ := state.Select[int](second, "counter")
	f2, _ := state.Select[int](second, "feature2")
	assert.Equal(t, 5, c)
	assert.Equal(t, 1, f2)
	assert.ElementsMatch(t, []string{"counter", "feature2"}, seen)
}

func TestDuplicateFeatureName(t *testing.T) {
	s := di.NewServiceCollection()
	state.AddStore(s)
	state.AddFeature(s, counter("counter"))
	di.Register[state.Feature](s, di.WithValue(counter("counter")), di.WithName("other"))

	store := di.MustResolve[state.Store](di.MustBuild(s))
	assert.ErrorIs(t, store.Initialize(context.Background()), state.ErrDuplicateFeature)
}

func TestUnsubscribe(t *testing.T) {
	s := di.NewServiceCollection()
	state.AddStore(s)
	state.AddFeature(s, counter("counter"))

	store := di.MustResolve[state.Store](di.MustBuild(s))
	require.NoError(t, store.Initialize(context.Background()))

	calls := 0
	unsubscribe := store.Subscribe(func(string, any) { calls++ })
	store.Dispatch(Increment{By: 1})
	unsubscribe()
	unsubscribe()
	store.Dispatch(Increment{By: 1})

	assert.Equal(t, 1, calls)
}
