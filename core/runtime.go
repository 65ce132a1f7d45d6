package core

import (
	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
	"github.com/gocrud/lazyload/router"
)

// Runtime 构建完成后的运行时组件
type Runtime struct {
	// Container 动态容器
	Container *lazy.Container

	// Loader 模块加载器，已加载模块集合由它持有，进程内不会重置
	Loader *lazy.Loader

	// Router 导航入口
	Router *router.Router

	Configuration config.Configuration
	Logger        logging.Logger
}

// GetService 从当前 Provider 解析 T
func GetService[T any](rt *Runtime) (T, error) {
	return di.Resolve[T](rt.Container.CurrentProvider())
}

// register 把运行时组件注册到容器，模块的工厂可以直接依赖它们
func (rt *Runtime) register() error {
	return rt.Container.AddService(func(services *di.ServiceCollection) {
		di.Register[*lazy.Container](services, di.WithValue(rt.Container))
		di.Register[*lazy.Loader](services, di.WithValue(rt.Loader))
		di.Register[*router.Router](services, di.WithValue(rt.Router))
	})
}
