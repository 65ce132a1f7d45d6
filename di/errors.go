package di

import "errors"

var (
	// ErrServiceNotFound 请求的服务没有注册
	ErrServiceNotFound = errors.New("di: service not found")

	// ErrCircularDependency 依赖图中存在环
	ErrCircularDependency = errors.New("di: circular dependency")

	// ErrScopedFromRoot 从根 Provider 解析作用域服务
	ErrScopedFromRoot = errors.New("di: scoped service resolved from root provider")

	// ErrScopeDisposed 作用域已释放
	ErrScopeDisposed = errors.New("di: scope disposed")
)
