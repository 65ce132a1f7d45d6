package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
)

// ErrPageNotFound 路由没有映射页面
var ErrPageNotFound = errors.New("router: page not found")

// Page 导航目标。OnInitialized 在模块加载完成后调用，通常在这里做延迟注入。
type Page interface {
	OnInitialized(c *lazy.Container) error
}

// PageFactory 每次导航创建一个新页面
type PageFactory func() Page

// Router 先加载路由对应的模块，再构造页面
type Router struct {
	loader *lazy.Loader
	logger logging.Logger

	mu    sync.RWMutex
	pages map[string]PageFactory
}

// New 创建路由器，logger 可以为 nil
func New(loader *lazy.Loader, logger logging.Logger) *Router {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Router{
		loader: loader,
		logger: logger.WithCategory("Router"),
		pages:  make(map[string]PageFactory),
	}
}

// Map 为路由登记页面，路由按模块表的规则规范化
func (r *Router) Map(route string, factory PageFactory) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[lazy.NormalizeRoute(route)] = factory
	return r
}

// Routes 已登记页面的路由
func (r *Router) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	routes := make([]string, 0, len(r.pages))
	for route := range r.pages {
		routes = append(routes, route)
	}
	sort.Strings(routes)
	return routes
}

// Navigate 导航到 path。
//
// 模块加载完成（包括注册）之后才构造页面。模块加载失败不会阻塞导航，
// 但页面依赖的服务缺失时 OnInitialized 的错误会返回给调用方。
func (r *Router) Navigate(ctx context.Context, path string) (Page, error) {
	route := lazy.NormalizeRoute(path)

	res := r.loader.LoadModule(ctx, path)
	if !res.OK() {
		r.logger.Warn("Navigating after failed module load",
			logging.Field{Key: "route", Value: route},
			logging.Field{Key: "error", Value: res.Err})
	}

	r.mu.RLock()
	factory, ok := r.pages[route]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPageNotFound, route)
	}

	page := factory()
	if err := page.OnInitialized(r.loader.Container()); err != nil {
		return nil, fmt.Errorf("router: initialize page %s: %w", route, err)
	}

	r.logger.Debug("Navigated", logging.Field{Key: "route", Value: route})
	return page, nil
}
