package feature1

import (
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/router"
	"github.com/gocrud/lazyload/state"
)

// CounterPage 计数器页面，依赖模块注册的服务和状态存储
type CounterPage struct {
	lazy.Component

	Store    state.Store
	Feature1 ServiceFeature1
}

// NewCounterPage 页面工厂
func NewCounterPage() router.Page {
	return &CounterPage{}
}

func (p *CounterPage) OnInitialized(c *lazy.Container) error {
	return p.Init(c, lazy.Into(&p.Store), lazy.Into(&p.Feature1))
}

// Increment 分发计数动作并调用模块服务
func (p *CounterPage) Increment() string {
	p.Store.Dispatch(IncrementCounter{})
	return p.Feature1.Test()
}

// Counter 当前计数
func (p *CounterPage) Counter() int {
	s, _ := state.Select[State](p.Store, StateName)
	return s.Counter
}
