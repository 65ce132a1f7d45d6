package feature2

import (
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/router"
	"github.com/gocrud/lazyload/state"
)

// CounterPage 计数器页面
type CounterPage struct {
	lazy.Component

	Store    state.Store
	Feature2 ServiceFeature2
}

// NewCounterPage 页面工厂
func NewCounterPage() router.Page {
	return &CounterPage{}
}

func (p *CounterPage) OnInitialized(c *lazy.Container) error {
	return p.Init(c, lazy.Into(&p.Store), lazy.Into(&p.Feature2))
}

// Increment 分发计数动作并调用模块服务
func (p *CounterPage) Increment() string {
	p.Store.Dispatch(IncrementCounter{})
	return p.Feature2.Test()
}

// Counter 当前计数
func (p *CounterPage) Counter() int {
	s, _ := state.Select[State](p.Store, StateName)
	return s.Counter
}
