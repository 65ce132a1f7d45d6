package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/gocrud/lazyload/bundle"
	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/hosting"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
	"github.com/gocrud/lazyload/router"
)

// ModulesSection 路由到模块 ID 的配置节
const ModulesSection = "lazyload:modules"

// ApplicationBuilder 应用程序构建器
type ApplicationBuilder struct {
	environment          string
	configBuilder        *config.ConfigurationBuilder
	loggingBuilder       *logging.LoggingBuilder
	serviceConfigurators []func(*di.ServiceCollection)
	configurators        []Configurator
	modules              map[string]string
	pages                map[string]router.PageFactory
	catalog              *bundle.Catalog
	fetcher              lazy.Fetcher
	shutdownTimeout      time.Duration
	mu                   sync.RWMutex
}

// NewApplicationBuilder 创建应用程序构建器
func NewApplicationBuilder() *ApplicationBuilder {
	return &ApplicationBuilder{
		environment:          "development",
		configBuilder:        config.NewConfigurationBuilder(),
		loggingBuilder:       logging.NewLoggingBuilder(),
		serviceConfigurators: make([]func(*di.ServiceCollection), 0),
		configurators:        make([]Configurator, 0),
		modules:              make(map[string]string),
		pages:                make(map[string]router.PageFactory),
		catalog:              bundle.NewCatalog(),
		shutdownTimeout:      30 * time.Second,
	}
}

// UseEnvironment 设置环境
func (b *ApplicationBuilder) UseEnvironment(env string) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.environment = env
	return b
}

// ConfigureConfiguration 配置配置系统
func (b *ApplicationBuilder) ConfigureConfiguration(configure func(*config.ConfigurationBuilder)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.configBuilder)
	}
	return b
}

// ConfigureLogging 配置日志系统
func (b *ApplicationBuilder) ConfigureLogging(configure func(*logging.LoggingBuilder)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		configure(b.loggingBuilder)
	}
	return b
}

// ConfigureServices 注册启动时就存在的基础服务
func (b *ApplicationBuilder) ConfigureServices(configure func(*di.ServiceCollection)) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if configure != nil {
		b.serviceConfigurators = append(b.serviceConfigurators, configure)
	}
	return b
}

// Configure 添加配置器（支持链式调用和可变参数）
func (b *ApplicationBuilder) Configure(configurators ...Configurator) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range configurators {
		if c != nil {
			b.configurators = append(b.configurators, c)
		}
	}
	return b
}

// AddExtension 添加应用程序扩展
func (b *ApplicationBuilder) AddExtension(ext Extension) *ApplicationBuilder {
	validateExtension(ext)

	b.mu.Lock()
	defer b.mu.Unlock()

	// 1. 注册服务配置器
	if sc, ok := ext.(ServiceConfigurator); ok {
		b.serviceConfigurators = append(b.serviceConfigurators, sc.ConfigureServices)
	}

	// 2. 注册应用构建配置器
	if ac, ok := ext.(AppConfigurator); ok {
		b.configurators = append(b.configurators, ac.ConfigureBuilder)
	}

	return b
}

// AddModules 登记路由到模块 ID 的映射，覆盖配置节 lazyload:modules 中的同名路由
func (b *ApplicationBuilder) AddModules(routes map[string]string) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	for route, id := range routes {
		b.modules[route] = id
	}
	return b
}

// AddBundle 登记模块入口，entry 为 nil 表示模块没有 Bootstrapper
func (b *ApplicationBuilder) AddBundle(moduleID string, entry lazy.BootstrapperFactory) *ApplicationBuilder {
	b.catalog.MustAdd(moduleID, entry)
	return b
}

// MapPage 登记路由对应的页面
func (b *ApplicationBuilder) MapPage(route string, factory router.PageFactory) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[route] = factory
	return b
}

// UseFetcher 设置代码单元的获取方式，默认直接从模块目录获取
func (b *ApplicationBuilder) UseFetcher(fetcher lazy.Fetcher) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetcher = fetcher
	return b
}

// UseShutdownTimeout 设置关闭超时
func (b *ApplicationBuilder) UseShutdownTimeout(timeout time.Duration) *ApplicationBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.shutdownTimeout = timeout
	return b
}

// Apply 应用多个 Option
func (b *ApplicationBuilder) Apply(opts ...Option) *ApplicationBuilder {
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build 构建应用程序
//
// 基础注册集合在这里定型并构建出动态容器的初始 Provider，
// 之后只有按需加载的模块可以扩展容器。
func (b *ApplicationBuilder) Build() (Application, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cfg, err := b.configBuilder.Build()
	if err != nil {
		return nil, fmt.Errorf("app: failed to build configuration: %w", err)
	}

	if !b.loggingBuilder.HasProviders() {
		b.loggingBuilder.AddConsole()
	}
	loggerFactory := b.loggingBuilder.Build()
	logger := loggerFactory.CreateLogger("Application")

	logger.Info("Building application",
		logging.Field{Key: "environment", Value: b.environment})

	env := NewEnvironment(b.environment)
	ctx := newBuildContext(cfg, logger, env, b.catalog)
	ctx.fetcher = b.fetcher

	// 核心服务
	services := ctx.services
	di.Register[config.Configuration](services, di.WithValue(cfg))
	di.Register[logging.LoggerFactory](services, di.WithValue(loggerFactory))
	di.Register[logging.Logger](services, di.WithValue(logger))
	di.Register[*bundle.Catalog](services, di.WithValue(b.catalog))

	// 执行所有配置器
	for _, configurator := range b.configurators {
		configurator(ctx)
	}

	// 配置用户服务
	for _, configure := range b.serviceConfigurators {
		configure(services)
	}

	container, err := lazy.NewContainer(services)
	if err != nil {
		return nil, fmt.Errorf("app: failed to build container: %w", err)
	}

	logger.Info("DI container built successfully",
		logging.Field{Key: "services", Value: container.Registrations()})
	container.Subscribe(func(*di.Provider) {
		logger.Debug("Service provider published",
			logging.Field{Key: "generation", Value: container.Generation()},
			logging.Field{Key: "services", Value: container.Registrations()})
	})

	routes := config.LoadOrDefault(cfg, ModulesSection, map[string]string{})
	for route, id := range ctx.modules {
		routes[route] = id
	}
	for route, id := range b.modules {
		routes[route] = id
	}

	fetcher := ctx.fetcher
	if fetcher == nil {
		fetcher = bundle.NewCatalogFetcher(b.catalog)
	}

	opts := []lazy.LoaderOption{
		lazy.WithLogger(loggerFactory.CreateLogger("LazyLoad")),
		lazy.WithConfiguration(cfg),
	}
	for _, observer := range ctx.observers {
		opts = append(opts, lazy.WithObserver(observer))
	}
	loader := lazy.NewLoader(container, lazy.NewModuleTable(routes), fetcher, opts...)

	nav := router.New(loader, loggerFactory.CreateLogger("Router"))
	for route, factory := range ctx.pages {
		nav.Map(route, factory)
	}
	for route, factory := range b.pages {
		nav.Map(route, factory)
	}

	rt := &Runtime{
		Container:     container,
		Loader:        loader,
		Router:        nav,
		Configuration: cfg,
		Logger:        logger,
	}
	if err := rt.register(); err != nil {
		return nil, fmt.Errorf("app: failed to register runtime: %w", err)
	}

	hostedServices := make([]hosting.HostedService, 0, len(ctx.hostedServices)+len(ctx.hostedFactories))
	hostedServices = append(hostedServices, ctx.hostedServices...)
	for _, factory := range ctx.hostedFactories {
		svc, err := factory(rt)
		if err != nil {
			return nil, fmt.Errorf("app: failed to create hosted service: %w", err)
		}
		if svc != nil {
			hostedServices = append(hostedServices, svc)
		}
	}

	logger.Info("Application built",
		logging.Field{Key: "modules", Value: len(routes)},
		logging.Field{Key: "hostedServices", Value: len(hostedServices)})

	return &application{
		runtime:         rt,
		environment:     env,
		hostedServices:  hostedServices,
		cleanups:        ctx.cleanups,
		shutdownTimeout: b.shutdownTimeout,
		stopCh:          make(chan struct{}),
	}, nil
}

// MustBuild 构建应用程序，失败时 panic
func (b *ApplicationBuilder) MustBuild() Application {
	app, err := b.Build()
	if err != nil {
		panic(err)
	}
	return app
}
