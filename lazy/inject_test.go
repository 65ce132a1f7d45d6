package lazy_test

import (
	"context"
	"testing"

	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/lazy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterPage struct {
	lazy.Component
	Shell    *ServiceFeature
	Feature2 *ServiceFeature2
}

func (p *counterPage) OnInitialized(c *lazy.Container) error {
	return p.Init(c, lazy.Into(&p.Shell), lazy.Into(&p.Feature2))
}

func TestInjectLazyBeforeAndAfterLoad(t *testing.T) {
	f := newLoaderFixture(t)

	var shell *ServiceFeature
	var svc *ServiceFeature2
	err := f.container.InjectLazy(lazy.Into(&shell), lazy.Into(&svc))
	require.Error(t, err)
	assert.ErrorIs(t, err, lazy.ErrMissingDependency)
	assert.ErrorIs(t, err, di.ErrServiceNotFound)

	var missing *lazy.MissingDependencyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, di.TypeOf[*ServiceFeature2](), missing.Type)
	assert.Nil(t, shell, "no field is assigned when any point is missing")

	res := f.loader.LoadModule(context.Background(), "feature2")
	require.NoError(t, res.Err)

	require.NoError(t, f.container.InjectLazy(lazy.Into(&shell), lazy.Into(&svc)))
	assert.Equal(t, "shell", shell.Name)
	assert.Equal(t, "default", svc.Title)
}

func TestInjectIsOneShot(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)

	var shell *ServiceFeature
	require.NoError(t, c.InjectLazy(lazy.Into(&shell)))

	require.NoError(t, c.AddService(func(s *di.ServiceCollection) {
		di.AddSingleton[*ServiceFeature](s, &ServiceFeature{Name: "replaced"})
	}))
	assert.Equal(t, "shell", shell.Name)
}

func TestIntoNamed(t *testing.T) {
	s := newBase()
	di.Register[*ModuleService](s, di.WithValue(&ModuleService{Tag: "primary"}), di.WithName("primary"))
	c, err := lazy.NewContainer(s)
	require.NoError(t, err)

	var svc *ModuleService
	require.NoError(t, c.InjectLazy(lazy.IntoNamed(&svc, "primary")))
	assert.Equal(t, "primary", svc.Tag)

	err = c.InjectLazy(lazy.IntoNamed(&svc, "secondary"))
	var missing *lazy.MissingDependencyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "secondary", missing.Name)
}

func TestComponentResolvesScopedServices(t *testing.T) {
	s := newBase()
	di.AddScoped[*ModuleService](s, func() *ModuleService { return &ModuleService{Tag: "scoped"} })
	c, err := lazy.NewContainer(s)
	require.NoError(t, err)

	var direct *ModuleService
	assert.ErrorIs(t, c.InjectLazy(lazy.Into(&direct)), di.ErrScopedFromRoot)

	var comp lazy.Component
	var svc *ModuleService
	require.NoError(t, comp.Init(c, lazy.Into(&svc)))
	defer comp.Dispose()
	assert.Equal(t, "scoped", svc.Tag)

	again, err := lazy.GetService[*ModuleService](&comp)
	require.NoError(t, err)
	assert.Same(t, svc, again)
	assert.Same(t, c, comp.Container())
}

func TestComponentPageFlow(t *testing.T) {
	f := newLoaderFixture(t)

	page := &counterPage{}
	err := page.OnInitialized(f.container)
	assert.ErrorIs(t, err, lazy.ErrMissingDependency)
	assert.Nil(t, page.Scope())

	f.loader.LoadModule(context.Background(), "feature2")

	page = &counterPage{}
	require.NoError(t, page.OnInitialized(f.container))
	defer page.Dispose()
	assert.Equal(t, "default", page.Feature2.Title)
	assert.Equal(t, "shell", page.Shell.Name)
}

func TestGetServiceBeforeInit(t *testing.T) {
	var comp lazy.Component
	_, err := lazy.GetService[*ServiceFeature](&comp)
	assert.ErrorIs(t, err, lazy.ErrMissingDependency)
}

func TestGetCurrentServiceSeesLaterModules(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)

	var comp lazy.Component
	_, err = lazy.GetCurrentService[*ServiceFeature](&comp)
	assert.ErrorIs(t, err, lazy.ErrMissingDependency)

	require.NoError(t, comp.Init(c))
	defer comp.Dispose()

	require.NoError(t, c.AddService(func(s *di.ServiceCollection) {
		di.AddSingleton[*ModuleService](s, &ModuleService{Tag: "late"})
	}))

	_, err = lazy.GetService[*ModuleService](&comp)
	assert.ErrorIs(t, err, di.ErrServiceNotFound, "the component scope predates the registration")

	svc, err := lazy.GetCurrentService[*ModuleService](&comp)
	require.NoError(t, err)
	assert.Equal(t, "late", svc.Tag)
}
