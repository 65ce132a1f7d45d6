package lazy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/logging"
	"golang.org/x/sync/singleflight"
)

// LoaderOption 配置 Loader
type LoaderOption func(l *Loader)

// WithLogger 设置日志，默认丢弃
func WithLogger(logger logging.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger.WithCategory("LazyLoad")
		}
	}
}

// WithConfiguration 设置传给 ConfigureServices 的应用配置
func WithConfiguration(cfg config.Configuration) LoaderOption {
	return func(l *Loader) {
		if cfg != nil {
			l.configuration = cfg
		}
	}
}

// WithObserver 添加加载结果观察者
func WithObserver(observer Observer) LoaderOption {
	return func(l *Loader) {
		l.AddObserver(observer)
	}
}

// Loader 按路由加载模块。
//
// 同一个模块的并发加载共享一次获取；不同模块可以并发获取，但注册通过
// Container.Extend 串行提交。获取在脱离调用方取消的 context 上执行。
type Loader struct {
	container     *Container
	table         *ModuleTable
	fetcher       Fetcher
	configuration config.Configuration
	logger        logging.Logger

	group singleflight.Group

	obsMu     sync.RWMutex
	observers []Observer
}

// NewLoader 创建模块加载器
func NewLoader(container *Container, table *ModuleTable, fetcher Fetcher, opts ...LoaderOption) *Loader {
	l := &Loader{
		container:     container,
		table:         table,
		fetcher:       fetcher,
		configuration: config.NewConfiguration(nil),
		logger:        logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Container 返回加载器使用的动态容器
func (l *Loader) Container() *Container {
	return l.container
}

// Table 返回模块表
func (l *Loader) Table() *ModuleTable {
	return l.table
}

// AddObserver 添加观察者，每次 LoadModule 完成后通知
func (l *Loader) AddObserver(observer Observer) {
	if observer == nil {
		return
	}
	l.obsMu.Lock()
	defer l.obsMu.Unlock()
	l.observers = append(l.observers, observer)
}

// LoadModule 加载路由对应的模块。
//
// 路由没有映射或模块已加载时什么都不做。获取或注册失败会被记录并放在
// Result.Err 中返回，LoadModule 本身不会 panic。
func (l *Loader) LoadModule(ctx context.Context, route string) Result {
	key := NormalizeRoute(route)

	id, ok := l.table.Lookup(key)
	if !ok {
		res := Result{Route: key, Outcome: OutcomeNotApplicable}
		l.logger.Debug("No module mapped for route", logging.Field{Key: "route", Value: key})
		l.notify(res)
		return res
	}

	if l.table.IsLoaded(id) {
		res := Result{Route: key, ModuleID: id, Outcome: OutcomeAlreadyLoaded}
		l.logger.Debug("Module already loaded", logging.Field{Key: "module", Value: id})
		l.notify(res)
		return res
	}

	v, _, shared := l.group.Do(id, func() (any, error) {
		return l.load(context.WithoutCancel(ctx), key, id), nil
	})

	res := v.(Result)
	res.Route = key
	res.Shared = shared
	return res
}

// LoadModules 并发加载多个路由，结果与 routes 一一对应
func (l *Loader) LoadModules(ctx context.Context, routes ...string) []Result {
	results := make([]Result, len(routes))

	var wg sync.WaitGroup
	for i, route := range routes {
		wg.Add(1)
		go func(i int, route string) {
			defer wg.Done()
			results[i] = l.LoadModule(ctx, route)
		}(i, route)
	}
	wg.Wait()

	return results
}

func (l *Loader) load(ctx context.Context, route, id string) Result {
	start := time.Now()
	res := Result{Route: route, ModuleID: id}
	logger := l.logger.WithFields(logging.Field{Key: "module", Value: id})

	// 上一次加载可能刚好在 Lookup 之后完成
	if l.table.IsLoaded(id) {
		res.Outcome = OutcomeAlreadyLoaded
		l.notify(res)
		return res
	}

	l.table.setState(id, StateLoading)
	logger.Debug("Loading module", logging.Field{Key: "route", Value: route})

	added, err := l.fetchAndRegister(ctx, route, id)
	res.Duration = time.Since(start)

	if err != nil {
		l.table.setState(id, StateFailed)
		res.Outcome = OutcomeFailed
		res.Err = err
		logger.Error("Failed to load module",
			logging.Field{Key: "route", Value: route},
			logging.Field{Key: "error", Value: err})
		l.notify(res)
		return res
	}

	l.table.MarkLoaded(id)
	res.Outcome = OutcomeLoaded
	res.Added = added
	logger.Info("Module loaded",
		logging.Field{Key: "services", Value: added},
		logging.Field{Key: "duration", Value: res.Duration.String()})
	l.notify(res)
	return res
}

func (l *Loader) fetchAndRegister(ctx context.Context, route, id string) (int, error) {
	var unit *CodeUnit
	err := safely(func() error {
		var err error
		unit, err = l.fetcher.Fetch(ctx, id)
		if err == nil && unit == nil {
			err = errors.New("fetcher returned no code unit")
		}
		return err
	})
	if err != nil {
		return 0, &LoadError{Kind: ErrFetchFailure, Route: route, ModuleID: id, Err: err}
	}
	if unit.ModuleID == "" {
		unit.ModuleID = id
	}

	var added int
	err = safely(func() error {
		var err error
		added, err = l.configureModule(unit)
		return err
	})
	if err != nil {
		return 0, &LoadError{Kind: ErrBootstrapFailure, Route: route, ModuleID: id, Err: err}
	}
	return added, nil
}

// configureModule 调用模块的 Bootstrapper 并把注册提交到容器。
// 状态存储由容器在发布前初始化，初始化失败时注册不会被提交。
func (l *Loader) configureModule(unit *CodeUnit) (int, error) {
	if unit.Entry == nil {
		l.logger.Debug("Module has no bootstrapper", logging.Field{Key: "module", Value: unit.ModuleID})
		return 0, nil
	}

	bootstrapper := unit.Entry(l.container)
	if bootstrapper == nil {
		return 0, nil
	}

	cfg := l.configuration
	if len(unit.Configuration) > 0 {
		cfg = config.Overlay(cfg, unit.Configuration)
	}

	fresh := di.NewServiceCollection()
	if err := bootstrapper.ConfigureServices(fresh, cfg); err != nil {
		return 0, fmt.Errorf("configure services: %w", err)
	}

	if fresh.Len() == 0 {
		return 0, nil
	}

	if _, err := l.container.Extend(fresh); err != nil {
		return 0, err
	}
	return fresh.Len(), nil
}

func (l *Loader) notify(res Result) {
	l.obsMu.RLock()
	observers := l.observers
	l.obsMu.RUnlock()

	for _, o := range observers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					l.logger.Warn("Load observer panicked", logging.Field{Key: "panic", Value: fmt.Sprint(r)})
				}
			}()
			o.OnModuleLoad(res)
		}()
	}
}

// safely 把 fn 中的 panic 转换为错误
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
