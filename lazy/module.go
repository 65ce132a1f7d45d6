package lazy

import (
	"context"

	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/di"
)

// Bootstrapper 由每个模块实现，向新的注册集合贡献自己的服务
type Bootstrapper interface {
	ConfigureServices(services *di.ServiceCollection, cfg config.Configuration) error
}

// BootstrapperFactory 模块的入口函数，按约定以 NewBootstrapper 导出
type BootstrapperFactory func(c *Container) Bootstrapper

// BootstrapperFunc 将普通函数适配为 Bootstrapper
type BootstrapperFunc func(services *di.ServiceCollection, cfg config.Configuration) error

func (f BootstrapperFunc) ConfigureServices(services *di.ServiceCollection, cfg config.Configuration) error {
	return f(services, cfg)
}

// CodeUnit 一次获取得到的模块代码单元
type CodeUnit struct {
	ModuleID string
	Version  string
	// Configuration 叠加在应用配置之上，只对该模块的 ConfigureServices 可见
	Configuration map[string]any
	// Entry 为空表示模块没有 Bootstrapper，加载后不贡献任何注册
	Entry BootstrapperFactory
}

// Fetcher 根据模块 ID 获取代码单元
type Fetcher interface {
	Fetch(ctx context.Context, moduleID string) (*CodeUnit, error)
}

// FetcherFunc 将普通函数适配为 Fetcher
type FetcherFunc func(ctx context.Context, moduleID string) (*CodeUnit, error)

func (f FetcherFunc) Fetch(ctx context.Context, moduleID string) (*CodeUnit, error) {
	return f(ctx, moduleID)
}

// Observer 接收每次加载的结果
type Observer interface {
	OnModuleLoad(result Result)
}

// ObserverFunc 将普通函数适配为 Observer
type ObserverFunc func(result Result)

func (f ObserverFunc) OnModuleLoad(result Result) {
	f(result)
}
