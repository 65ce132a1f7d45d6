package core

import (
	"sync"

	"github.com/gocrud/lazyload/bundle"
	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/hosting"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
	"github.com/gocrud/lazyload/router"
)

// Configurator 配置器函数类型
// 配置器用于扩展应用程序，可以注册基础服务、登记模块、添加托管服务等
type Configurator func(*BuildContext)

// HostedServiceFactory 在运行时创建完成后构造托管服务
// 需要 Loader、Router 或最终容器的托管服务通过它注册
type HostedServiceFactory func(rt *Runtime) (hosting.HostedService, error)

// BuildContext 构建上下文
// 提供给配置器的上下文环境，包含基础注册集合、配置、日志、模块目录等
type BuildContext struct {
	// services 基础注册集合，构建时交给动态容器
	services *di.ServiceCollection

	// configuration 配置对象
	configuration config.Configuration

	// logger 日志记录器
	logger logging.Logger

	// environment 环境信息
	environment Environment

	// catalog 模块入口目录
	catalog *bundle.Catalog

	// fetcher 代码单元获取方式，为空时使用 catalog
	fetcher lazy.Fetcher

	modules         map[string]string
	pages           map[string]router.PageFactory
	observers       []lazy.Observer
	hostedServices  []hosting.HostedService
	hostedFactories []HostedServiceFactory

	// cleanups 清理函数列表
	cleanups map[string]func()

	mu sync.RWMutex
}

func newBuildContext(cfg config.Configuration, logger logging.Logger, env Environment, catalog *bundle.Catalog) *BuildContext {
	return &BuildContext{
		services:      di.NewServiceCollection(),
		configuration: cfg,
		logger:        logger,
		environment:   env,
		catalog:       catalog,
		modules:       make(map[string]string),
		pages:         make(map[string]router.PageFactory),
		cleanups:      make(map[string]func()),
	}
}

// Services 返回基础注册集合
// 可以直接使用 di.Register[T](ctx.Services(), ...)
func (c *BuildContext) Services() *di.ServiceCollection {
	return c.services
}

// GetLogger 获取日志记录器
func (c *BuildContext) GetLogger() logging.Logger {
	return c.logger
}

// GetConfiguration 获取配置对象
func (c *BuildContext) GetConfiguration() config.Configuration {
	return c.configuration
}

// GetEnvironment 获取环境信息
func (c *BuildContext) GetEnvironment() Environment {
	return c.environment
}

// Catalog 返回模块入口目录
func (c *BuildContext) Catalog() *bundle.Catalog {
	return c.catalog
}

// UseFetcher 替换代码单元的获取方式
func (c *BuildContext) UseFetcher(fetcher lazy.Fetcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetcher = fetcher
}

// AddModule 登记路由到模块 ID 的映射
func (c *BuildContext) AddModule(route, moduleID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[route] = moduleID
}

// MapPage 登记路由对应的页面
func (c *BuildContext) MapPage(route string, factory router.PageFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[route] = factory
}

// AddObserver 添加模块加载观察者
func (c *BuildContext) AddObserver(observer lazy.Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, observer)
}

// AddHostedService 添加托管服务
func (c *BuildContext) AddHostedService(service hosting.HostedService) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostedServices = append(c.hostedServices, service)
}

// AddHostedServiceFunc 添加在运行时创建后才构造的托管服务
func (c *BuildContext) AddHostedServiceFunc(factory HostedServiceFactory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hostedFactories = append(c.hostedFactories, factory)
}

// SetCleanup 设置资源清理函数
func (c *BuildContext) SetCleanup(key string, cleanup func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanups[key] = cleanup
}
