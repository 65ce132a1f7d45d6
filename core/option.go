package core

import (
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/hosting"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/router"
)

// Option 定义了修改 ApplicationBuilder 的函数签名
type Option func(b *ApplicationBuilder)

// WithModules 登记路由到模块 ID 的映射
func WithModules(routes map[string]string) Option {
	return func(b *ApplicationBuilder) {
		b.AddModules(routes)
	}
}

// WithBundle 登记模块入口
func WithBundle(moduleID string, entry lazy.BootstrapperFactory) Option {
	return func(b *ApplicationBuilder) {
		b.AddBundle(moduleID, entry)
	}
}

// WithPage 登记路由对应的页面
func WithPage(route string, factory router.PageFactory) Option {
	return func(b *ApplicationBuilder) {
		b.MapPage(route, factory)
	}
}

// WithServices 注册基础服务
func WithServices(configure func(*di.ServiceCollection)) Option {
	return func(b *ApplicationBuilder) {
		b.ConfigureServices(configure)
	}
}

// WithHostedService 注册一个托管服务
// 框架会在启动时用独立的 goroutine 调用 Start，关闭时调用 Stop
func WithHostedService(service hosting.HostedService) Option {
	return func(b *ApplicationBuilder) {
		b.Configure(func(ctx *BuildContext) {
			ctx.AddHostedService(service)
		})
	}
}

// WithConfigurator 添加配置器
func WithConfigurator(configurators ...Configurator) Option {
	return func(b *ApplicationBuilder) {
		b.Configure(configurators...)
	}
}
