// Package feature1 路由 lazy-load 对应的模块
package feature1

import (
	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
	"github.com/gocrud/lazyload/modules/host"
	"github.com/gocrud/lazyload/state"
)

const (
	ModuleID  = "Feature1.wasm"
	Route     = "lazy-load"
	StateName = "feature1"
)

// State 计数器状态
type State struct {
	Counter int
}

// IncrementCounter 计数器加一
type IncrementCounter struct{}

// NewFeature 计数器状态切片
func NewFeature() state.Feature {
	return state.NewFeature(StateName, State{},
		state.On(func(s State, _ IncrementCounter) State {
			return State{Counter: s.Counter + 1}
		}),
	)
}

// ServiceFeature1 模块服务
type ServiceFeature1 interface {
	Test() string
}

type serviceFeature1 struct {
	host   host.ServiceFeature
	logger logging.Logger
	label  string
}

func newServiceFeature1(h host.ServiceFeature, logger logging.Logger, label string) ServiceFeature1 {
	return &serviceFeature1{
		host:   h,
		logger: logger.WithCategory("Feature1"),
		label:  label,
	}
}

func (s *serviceFeature1) Test() string {
	s.logger.Debug("Testing feature1")
	return s.label + "+" + s.host.Test()
}

type bootstrapper struct {
	container *lazy.Container
}

// NewBootstrapper 模块入口
func NewBootstrapper(c *lazy.Container) lazy.Bootstrapper {
	return &bootstrapper{container: c}
}

// ConfigureServices 直接扩展容器，不使用传入的注册集合
func (b *bootstrapper) ConfigureServices(_ *di.ServiceCollection, cfg config.Configuration) error {
	label := cfg.GetWithDefault("feature1:label", "feature1")
	return b.container.AddService(func(s *di.ServiceCollection) {
		state.AddFeature(s, NewFeature())
		di.Register[ServiceFeature1](s, di.WithFactory(func(h host.ServiceFeature, logger logging.Logger) ServiceFeature1 {
			return newServiceFeature1(h, logger, label)
		}), di.WithScoped())
	})
}
