package feature1_test

import (
	"context"
	"testing"

	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
	"github.com/gocrud/lazyload/modules/feature1"
	"github.com/gocrud/lazyload/modules/host"
	"github.com/gocrud/lazyload/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T, settings map[string]any) core.Application {
	t.Helper()
	app, err := core.NewApplicationBuilder().
		ConfigureLogging(func(b *logging.LoggingBuilder) { b.SetMinimumLevel(logging.LogLevelNone) }).
		ConfigureConfiguration(func(b *config.ConfigurationBuilder) { b.AddInMemory(settings) }).
		ConfigureServices(func(s *di.ServiceCollection) {
			host.AddServices(s)
			state.AddStore(s)
		}).
		AddModules(map[string]string{feature1.Route: feature1.ModuleID}).
		AddBundle(feature1.ModuleID, feature1.NewBootstrapper).
		MapPage(feature1.Route, feature1.NewCounterPage).
		Build()
	require.NoError(t, err)
	return app
}

func TestServiceMissingBeforeLoad(t *testing.T) {
	app := newApp(t, nil)

	page := feature1.NewCounterPage().(*feature1.CounterPage)
	err := page.OnInitialized(app.Container())
	assert.ErrorIs(t, err, lazy.ErrMissingDependency)
	assert.Nil(t, page.Feature1)
}

func TestNavigateLoadsModule(t *testing.T) {
	app := newApp(t, map[string]any{
		"feature1": map[string]any{"label": "custom"},
	})

	p, err := app.Router().Navigate(context.Background(), "/Lazy-Load")
	require.NoError(t, err)
	page := p.(*feature1.CounterPage)
	defer page.Dispose()

	assert.Equal(t, "custom+host", page.Increment())
	page.Increment()
	assert.Equal(t, 2, page.Counter())
	assert.True(t, app.Loader().Table().IsLoaded(feature1.ModuleID))

	// 宿主服务是单例，在模块之间共享
	h, err := core.GetService[host.ServiceFeature](app.Runtime())
	require.NoError(t, err)
	assert.Equal(t, int64(2), h.Calls())
}

func TestCounterSurvivesNextNavigation(t *testing.T) {
	app := newApp(t, nil)
	ctx := context.Background()

	p, err := app.Router().Navigate(ctx, feature1.Route)
	require.NoError(t, err)
	p.(*feature1.CounterPage).Increment()

	res := app.Loader().LoadModule(ctx, feature1.Route)
	assert.Equal(t, lazy.OutcomeAlreadyLoaded, res.Outcome)

	p, err = app.Router().Navigate(ctx, feature1.Route)
	require.NoError(t, err)
	page := p.(*feature1.CounterPage)
	assert.Equal(t, "feature1+host", page.Increment())
	assert.Equal(t, 2, page.Counter())
}
