package lazy

import (
	"reflect"

	"github.com/gocrud/lazyload/di"
)

// Injection 一个延迟注入点：目标字段的地址、声明类型和可选的服务名
type Injection struct {
	typ    reflect.Type
	name   string
	assign func(v any)
}

// Into 声明把类型 T 的服务注入到 dst
func Into[T any](dst *T) Injection {
	return IntoNamed(dst, "")
}

// IntoNamed 声明把名称为 name 的 T 服务注入到 dst
func IntoNamed[T any](dst *T, name string) Injection {
	return Injection{
		typ:  di.TypeOf[T](),
		name: name,
		assign: func(v any) {
			if v == nil {
				var zero T
				*dst = zero
				return
			}
			*dst = v.(T)
		},
	}
}

// Type 注入点的声明类型
func (i Injection) Type() reflect.Type {
	return i.typ
}

// InjectLazy 用当前 Provider 解析全部注入点。
//
// 只执行一次，之后容器再更新也不会重新注入。任意一个注入点缺失时返回
// *MissingDependencyError，且不会给任何字段赋值。
// 作用域服务需要通过 Component 或 InjectFrom 从作用域解析。
func (c *Container) InjectLazy(points ...Injection) error {
	return InjectFrom(c.CurrentProvider(), points...)
}

// InjectFrom 从指定的 Resolver 解析全部注入点，语义同 InjectLazy
func InjectFrom(r di.Resolver, points ...Injection) error {
	values := make([]any, len(points))
	for i, p := range points {
		v, err := r.GetNamed(p.typ, p.name)
		if err != nil {
			return &MissingDependencyError{Type: p.typ, Name: p.name, Err: err}
		}
		if v != nil && !reflect.TypeOf(v).AssignableTo(p.typ) {
			return &MissingDependencyError{Type: p.typ, Name: p.name, Err: errTypeMismatch(v, p.typ)}
		}
		values[i] = v
	}

	for i, p := range points {
		p.assign(values[i])
	}
	return nil
}

// Component 可嵌入到消费方的基类。
// Init 在当前 Provider 上创建一个作用域，注入点从该作用域解析。
//
//	type CounterPage struct {
//		lazy.Component
//		Feature1 feature1.ServiceFeature1
//	}
//
//	func (p *CounterPage) OnInitialized(c *lazy.Container) error {
//		return p.Init(c, lazy.Into(&p.Feature1))
//	}
type Component struct {
	container *Container
	scope     *di.Scope
}

// Init 创建作用域并执行延迟注入，失败时作用域被释放
func (c *Component) Init(container *Container, points ...Injection) error {
	scope := container.CurrentProvider().CreateScope()
	if err := InjectFrom(scope, points...); err != nil {
		scope.Dispose()
		return err
	}
	c.container = container
	c.scope = scope
	return nil
}

// Container 返回 Init 时的容器，未初始化时为 nil
func (c *Component) Container() *Container {
	return c.container
}

// Scope 返回组件的作用域，未初始化时为 nil
func (c *Component) Scope() *di.Scope {
	return c.scope
}

// Dispose 释放组件的作用域
func (c *Component) Dispose() {
	if c.scope != nil {
		c.scope.Dispose()
	}
}

// GetService 从组件的作用域解析 T。
// 作用域在 Init 时创建，之后加载的模块对它不可见；需要看到最新注册时用 GetCurrentService。
func GetService[T any](comp *Component) (T, error) {
	var zero T
	if comp.scope == nil {
		return zero, &MissingDependencyError{Type: di.TypeOf[T](), Err: errNotInitialized}
	}
	v, err := di.Resolve[T](comp.scope)
	if err != nil {
		return zero, &MissingDependencyError{Type: di.TypeOf[T](), Err: err}
	}
	return v, nil
}

// GetCurrentService 每次都从容器当前的 Provider 解析 T，可以看到 Init 之后加载的模块。
// 当前 Provider 是根 Provider，作用域服务不能通过它解析。
func GetCurrentService[T any](comp *Component) (T, error) {
	var zero T
	if comp.container == nil {
		return zero, &MissingDependencyError{Type: di.TypeOf[T](), Err: errNotInitialized}
	}
	v, err := di.Resolve[T](comp.container.CurrentProvider())
	if err != nil {
		return zero, &MissingDependencyError{Type: di.TypeOf[T](), Err: err}
	}
	return v, nil
}
