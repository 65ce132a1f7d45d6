package feature2_test

import (
	"context"
	"sync"
	"testing"

	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
	"github.com/gocrud/lazyload/modules/feature2"
	"github.com/gocrud/lazyload/modules/host"
	"github.com/gocrud/lazyload/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	container *lazy.Container
	loader    *lazy.Loader
	fetches   int
	mu        sync.Mutex
}

func newFixture(t *testing.T, cfg config.Configuration) *fixture {
	t.Helper()

	base := di.NewServiceCollection()
	di.Register[logging.Logger](base, di.WithValue(logging.NewNopLogger()))
	host.AddServices(base)
	state.AddStore(base)

	container, err := lazy.NewContainer(base)
	require.NoError(t, err)

	f := &fixture{container: container}
	fetcher := lazy.FetcherFunc(func(ctx context.Context, id string) (*lazy.CodeUnit, error) {
		f.mu.Lock()
		f.fetches++
		f.mu.Unlock()
		return &lazy.CodeUnit{ModuleID: id, Entry: feature2.NewBootstrapper}, nil
	})
	table := lazy.NewModuleTable(map[string]string{feature2.Route: feature2.ModuleID})
	f.loader = lazy.NewLoader(container, table, fetcher, lazy.WithConfiguration(cfg))
	return f
}

func TestLoadRegistersScopedService(t *testing.T) {
	f := newFixture(t, config.NewConfiguration(nil))
	before := f.container.Registrations()

	page := &feature2.CounterPage{}
	require.ErrorIs(t, page.OnInitialized(f.container), lazy.ErrMissingDependency)

	res := f.loader.LoadModule(context.Background(), "feature2/sub/path")
	require.NoError(t, res.Err)
	assert.Equal(t, lazy.OutcomeLoaded, res.Outcome)
	assert.Equal(t, 2, res.Added)
	assert.Equal(t, before+2, f.container.Registrations())

	// 作用域服务不能直接从根 Provider 解析
	_, err := di.Resolve[feature2.ServiceFeature2](f.container.CurrentProvider())
	assert.Error(t, err)

	require.NoError(t, page.OnInitialized(f.container))
	defer page.Dispose()
	assert.Equal(t, "feature2+host", page.Increment())
	assert.Equal(t, 1, page.Counter())
}

func TestConcurrentLoadsFetchOnce(t *testing.T) {
	f := newFixture(t, config.NewConfiguration(nil))

	results := f.loader.LoadModules(context.Background(), "feature2", "Feature2", "/feature2?tab=1", "feature2#top")
	loaded := 0
	for _, r := range results {
		require.NoError(t, r.Err)
		if r.Outcome == lazy.OutcomeLoaded {
			loaded++
		}
	}
	assert.GreaterOrEqual(t, loaded, 1)
	assert.Equal(t, 1, f.fetches)
	assert.True(t, f.loader.Table().IsLoaded(feature2.ModuleID))
}

func TestStepFromConfiguration(t *testing.T) {
	f := newFixture(t, config.NewConfiguration(map[string]any{
		"feature2": map[string]any{"step": 5},
	}))

	res := f.loader.LoadModule(context.Background(), feature2.Route)
	require.NoError(t, res.Err)

	store, err := di.Resolve[state.Store](f.container.CurrentProvider())
	require.NoError(t, err)
	store.Dispatch(feature2.IncrementCounter{})
	store.Dispatch(feature2.IncrementCounter{By: 2})

	s, ok := state.Select[feature2.State](store, feature2.StateName)
	require.True(t, ok)
	assert.Equal(t, 7, s.Counter)
}
