// Package feature2 路由 feature2 对应的模块
package feature2

import (
	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/modules/host"
	"github.com/gocrud/lazyload/state"
)

const (
	ModuleID  = "Feature2.wasm"
	Route     = "feature2"
	StateName = "feature2"
)

// State 计数器状态
type State struct {
	Counter int
}

// IncrementCounter 计数器增加 By，By 为 0 时加一
type IncrementCounter struct {
	By int
}

// NewFeature 计数器状态切片
func NewFeature(step int) state.Feature {
	return state.NewFeature(StateName, State{},
		state.On(func(s State, a IncrementCounter) State {
			by := a.By
			if by == 0 {
				by = step
			}
			return State{Counter: s.Counter + by}
		}),
	)
}

// ServiceFeature2 模块服务
type ServiceFeature2 interface {
	Test() string
}

type serviceFeature2 struct {
	host host.ServiceFeature
}

func (s *serviceFeature2) Test() string {
	return "feature2+" + s.host.Test()
}

type bootstrapper struct{}

// NewBootstrapper 模块入口
func NewBootstrapper(*lazy.Container) lazy.Bootstrapper {
	return bootstrapper{}
}

// ConfigureServices 把服务注册到加载器提供的新集合
// 步长来自配置 feature2:step，默认 1
func (bootstrapper) ConfigureServices(services *di.ServiceCollection, cfg config.Configuration) error {
	step, err := cfg.GetInt("feature2:step")
	if err != nil {
		step = 1
	}

	state.AddFeature(services, NewFeature(step))
	di.Register[ServiceFeature2](services, di.WithFactory(func(h host.ServiceFeature) ServiceFeature2 {
		return &serviceFeature2{host: h}
	}), di.WithScoped())
	return nil
}
