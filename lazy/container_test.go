package lazy_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Greeter interface {
	Greet() string
}

type baseGreeter struct{}

func (baseGreeter) Greet() string { return "base" }

type moduleGreeter struct{}

func (moduleGreeter) Greet() string { return "module" }

type ServiceFeature struct{ Name string }

type ModuleService struct{ Tag string }

func newBase() *di.ServiceCollection {
	s := di.NewServiceCollection()
	di.AddSingleton[*ServiceFeature](s, &ServiceFeature{Name: "shell"})
	di.AddSingleton[Greeter](s, baseGreeter{})
	return s
}

func TestNewContainerPublishesBase(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)

	p := c.CurrentProvider()
	require.NotNil(t, p)
	assert.Equal(t, "shell", di.MustResolve[*ServiceFeature](p).Name)
	assert.Equal(t, uint64(0), c.Generation())
	assert.Equal(t, 2, c.Registrations())
}

func TestNewContainerRejectsInvalidBase(t *testing.T) {
	s := di.NewServiceCollection()
	di.Register[Greeter](s)

	_, err := lazy.NewContainer(s)
	assert.Error(t, err)
}

func TestAddServicePublishes(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)
	before := c.CurrentProvider()

	require.NoError(t, c.AddService(func(s *di.ServiceCollection) {
		di.AddSingleton[*ModuleService](s, &ModuleService{Tag: "added"})
	}))

	after := c.CurrentProvider()
	assert.NotSame(t, before, after)
	assert.True(t, after.Has(di.TypeOf[*ModuleService](), ""))
	assert.False(t, before.Has(di.TypeOf[*ModuleService](), ""))
	assert.Equal(t, uint64(1), c.Generation())

	// 失败的 AddService 不改变当前 Provider
	err = c.AddService(func(s *di.ServiceCollection) {
		di.Register[Greeter](s)
	})
	assert.Error(t, err)
	assert.Same(t, after, c.CurrentProvider())
	assert.Equal(t, 3, c.Registrations())
}

func TestMergeRegistrationSetsIsPure(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)
	current := c.CurrentProvider()

	extra := di.NewServiceCollection()
	di.AddSingleton[*ModuleService](extra, &ModuleService{Tag: "m"})
	di.AddSingleton[Greeter](extra, moduleGreeter{})

	merged, err := c.MergeRegistrationSets(extra)
	require.NoError(t, err)

	assert.Same(t, current, c.CurrentProvider(), "merge must not publish")
	assert.Equal(t, uint64(0), c.Generation())
	assert.Equal(t, 2, c.Registrations())

	// base ∪ extra 中的每个键都能解析，冲突时后注册的模块定义生效
	assert.Equal(t, "shell", di.MustResolve[*ServiceFeature](merged).Name)
	assert.Equal(t, "m", di.MustResolve[*ModuleService](merged).Tag)
	assert.Equal(t, "module", di.MustResolve[Greeter](merged).Greet())

	all, err := di.ResolveAll[Greeter](merged)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "base", all[0].Greet())
	assert.Equal(t, "module", all[1].Greet())
}

func TestUpdateProviderSwapsWithoutValidation(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)

	empty := di.MustBuild(di.NewServiceCollection())
	c.UpdateProvider(empty)

	assert.Same(t, empty, c.CurrentProvider())
	assert.Equal(t, uint64(1), c.Generation())

	c.UpdateProvider(nil)
	assert.Same(t, empty, c.CurrentProvider())
}

func TestExtendCommitsRegistrations(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)

	first := di.NewServiceCollection()
	di.AddSingleton[*ModuleService](first, &ModuleService{Tag: "first"})
	_, err = c.Extend(first)
	require.NoError(t, err)

	second := di.NewServiceCollection()
	di.AddSingleton[Greeter](second, moduleGreeter{})
	p, err := c.Extend(second)
	require.NoError(t, err)

	assert.Same(t, p, c.CurrentProvider())
	assert.Equal(t, "first", di.MustResolve[*ModuleService](p).Tag, "earlier module registrations must survive")
	assert.Equal(t, "module", di.MustResolve[Greeter](p).Greet())
	assert.Equal(t, 4, c.Registrations())
}

func TestReaderKeepsCapturedProvider(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)
	captured := c.CurrentProvider()

	extra := di.NewServiceCollection()
	di.AddSingleton[*ServiceFeature](extra, &ServiceFeature{Name: "replaced"})
	_, err = c.Extend(extra)
	require.NoError(t, err)

	assert.Equal(t, "shell", di.MustResolve[*ServiceFeature](captured).Name)
	assert.Equal(t, "replaced", di.MustResolve[*ServiceFeature](c.CurrentProvider()).Name)
}

func TestConcurrentExtendLosesNothing(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			extra := di.NewServiceCollection()
			di.Register[*ModuleService](extra,
				di.WithValue(&ModuleService{Tag: "m"}),
				di.WithName(string(rune('a'+i%26))+string(rune('0'+i/26))))
			_, err := c.Extend(extra)
			assert.NoError(t, err)
		}(i)
	}

	// 并发读取方始终拿到完整的 Provider
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			p := c.CurrentProvider()
			if _, err := di.Resolve[*ServiceFeature](p); err != nil {
				t.Errorf("reader observed an incomplete provider: %v", err)
				return
			}
		}
	}()

	wg.Wait()
	<-done

	all, err := di.ResolveAll[*ModuleService](c.CurrentProvider())
	require.NoError(t, err)
	assert.Len(t, all, n)
	assert.Equal(t, uint64(n), c.Generation())
}

func TestSubscribe(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)

	var published []*di.Provider
	c.Subscribe(func(p *di.Provider) { published = append(published, p) })

	require.NoError(t, c.AddService(func(s *di.ServiceCollection) {
		di.AddSingleton[*ModuleService](s, &ModuleService{})
	}))

	require.Len(t, published, 1)
	assert.Same(t, c.CurrentProvider(), published[0])
}

func TestSubscriberMayCallContainer(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)

	var seen []int
	c.Subscribe(func(*di.Provider) { seen = append(seen, c.Registrations()) })

	done := make(chan error, 1)
	go func() {
		done <- c.AddService(func(s *di.ServiceCollection) {
			di.AddSingleton[*ModuleService](s, &ModuleService{})
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("AddService blocked while a subscriber read the container")
	}
	assert.Equal(t, []int{3}, seen)
}

func TestUpdateProviderDoesNotCommit(t *testing.T) {
	c, err := lazy.NewContainer(newBase())
	require.NoError(t, err)

	extra := di.NewServiceCollection()
	di.Register[int](extra, di.WithValue(42))
	merged, err := c.MergeRegistrationSets(extra)
	require.NoError(t, err)

	c.UpdateProvider(merged)
	assert.Equal(t, 42, di.MustResolve[int](c.CurrentProvider()))
	assert.Equal(t, 2, c.Registrations())

	// 后续写入从 committed 重建，只发布过的注册不会保留
	require.NoError(t, c.AddService(func(s *di.ServiceCollection) {
		di.Register[string](s, di.WithValue("later"))
	}))
	_, err = di.Resolve[int](c.CurrentProvider())
	assert.ErrorIs(t, err, di.ErrServiceNotFound)

	// 通过 Extend 提交的注册会保留
	_, err = c.Extend(extra)
	require.NoError(t, err)
	require.NoError(t, c.AddService(func(s *di.ServiceCollection) {
		di.Register[bool](s, di.WithValue(true))
	}))
	assert.Equal(t, 42, di.MustResolve[int](c.CurrentProvider()))
	assert.Equal(t, "later", di.MustResolve[string](c.CurrentProvider()))
}

type hostIncrement struct{}

func TestBaseStoreInitializedWithoutModuleLoad(t *testing.T) {
	base := newBase()
	state.AddStore(base)
	state.AddFeature(base, state.NewFeature("host", 0,
		state.On(func(n int, _ hostIncrement) int { return n + 1 })))

	c, err := lazy.NewContainer(base)
	require.NoError(t, err)

	loader := lazy.NewLoader(c, lazy.NewModuleTable(nil), lazy.FetcherFunc(
		func(context.Context, string) (*lazy.CodeUnit, error) { return nil, errors.New("unused") }))
	res := loader.LoadModule(context.Background(), "home")
	assert.Equal(t, lazy.OutcomeNotApplicable, res.Outcome)

	store := di.MustResolve[state.Store](c.CurrentProvider())
	store.Dispatch(hostIncrement{})
	v, ok := state.Select[int](store, "host")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	// AddService 发布的新 Provider 同样已初始化，状态延续
	require.NoError(t, c.AddService(func(s *di.ServiceCollection) {
		di.AddSingleton[*ModuleService](s, &ModuleService{})
	}))
	store = di.MustResolve[state.Store](c.CurrentProvider())
	store.Dispatch(hostIncrement{})
	v, ok = state.Select[int](store, "host")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestDuplicateFeatureIsNotPublished(t *testing.T) {
	base := newBase()
	state.AddStore(base)
	state.AddFeature(base, state.NewFeature("host", 0))

	c, err := lazy.NewContainer(base)
	require.NoError(t, err)
	before := c.CurrentProvider()

	dup := di.NewServiceCollection()
	di.Register[state.Feature](dup, di.WithValue(state.NewFeature("host", 0)), di.WithName("host-copy"))
	_, err = c.Extend(dup)
	assert.ErrorIs(t, err, state.ErrDuplicateFeature)
	assert.Same(t, before, c.CurrentProvider())
	assert.Equal(t, 4, c.Registrations())
}
