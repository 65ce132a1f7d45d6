// Package host 提供启动时就注册的宿主服务，按需加载的模块可以依赖它们
package host

import (
	"sync/atomic"

	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/logging"
)

// ServiceFeature 宿主服务
type ServiceFeature interface {
	Test() string
	Calls() int64
}

type serviceFeature struct {
	logger logging.Logger
	calls  atomic.Int64
}

// NewServiceFeature 创建宿主服务
func NewServiceFeature(logger logging.Logger) ServiceFeature {
	return &serviceFeature{logger: logger.WithCategory("ServiceFeature")}
}

func (s *serviceFeature) Test() string {
	s.calls.Add(1)
	s.logger.Debug("Testing...")
	return "host"
}

func (s *serviceFeature) Calls() int64 {
	return s.calls.Load()
}

// AddServices 注册宿主服务
func AddServices(services *di.ServiceCollection) {
	di.Register[ServiceFeature](services, di.WithFactory(NewServiceFeature))
}
