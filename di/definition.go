package di

import (
	"fmt"
	"reflect"
)

// ScopeType 定义了服务的生命周期。
type ScopeType int

const (
	// ScopeSingleton 每个 Provider 创建一个实例。
	ScopeSingleton ScopeType = iota
	// ScopeTransient 每次请求创建一个新实例。
	ScopeTransient
	// ScopeScoped 每个作用域创建一个实例。
	ScopeScoped
)

// String 返回生命周期名称
func (s ScopeType) String() string {
	switch s {
	case ScopeSingleton:
		return "singleton"
	case ScopeTransient:
		return "transient"
	case ScopeScoped:
		return "scoped"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ServiceKey 是服务映射的唯一键。
type ServiceKey struct {
	Type reflect.Type
	Name string
}

// String 返回键的可读形式
func (k ServiceKey) String() string {
	if k.Name == "" {
		return fmt.Sprintf("%v", k.Type)
	}
	return fmt.Sprintf("%v(name=%s)", k.Type, k.Name)
}

// FieldInjection 包含需要注入的结构体字段的元数据。
type FieldInjection struct {
	Index       int
	Name        string // 字段名
	Type        reflect.Type
	Optional    bool
	ServiceName string // 注入的服务名称
}

// InjectionSchema 包含预计算的注入元数据。
type InjectionSchema struct {
	Fields []FieldInjection // 用于结构体注入
	Args   []reflect.Type   // 用于函数/工厂注入
}

// ServiceDefinition 描述一条服务注册：键、创建方式与生命周期。
//
// 定义本身是只读的描述信息，可以被多个 ServiceCollection 和 Provider 共享；
// 单例缓存与注入 schema 由每个 Provider 单独持有。
type ServiceDefinition struct {
	Type         reflect.Type
	Name         string // 服务名称
	Scope        ScopeType
	ImplType     reflect.Type // 用于结构体反射
	Impl         any          // 工厂函数或结构体指针
	IsFactory    bool
	IsValue      bool
	InjectFields bool // 是否对 IsValue 的实例执行字段注入
}

// Key 返回定义的服务键
func (d *ServiceDefinition) Key() ServiceKey {
	return ServiceKey{Type: d.Type, Name: d.Name}
}

// validate 检查定义是否可以被构建
func (d *ServiceDefinition) validate() error {
	if d.Type == nil {
		return fmt.Errorf("di: 服务定义缺少类型")
	}

	switch {
	case d.IsValue:
		if d.Impl == nil {
			return fmt.Errorf("di: 服务 %v 的值为 nil", d.Key())
		}
	case d.IsFactory:
		fnType := reflect.TypeOf(d.Impl)
		if fnType == nil || fnType.Kind() != reflect.Func {
			return fmt.Errorf("di: 服务 %v 的工厂不是函数: %T", d.Key(), d.Impl)
		}
		if fnType.NumOut() == 0 {
			return fmt.Errorf("di: 服务 %v 的工厂没有返回值", d.Key())
		}
	default:
		if d.ImplType == nil || d.ImplType.Kind() == reflect.Interface {
			return fmt.Errorf("di: 服务 %v 缺少实现类型，请使用 di.Use、di.WithFactory 或 di.WithValue", d.Key())
		}
		if d.Type.Kind() == reflect.Interface && !implements(d.ImplType, d.Type) {
			return fmt.Errorf("di: %v 未实现接口 %v", d.ImplType, d.Type)
		}
	}
	return nil
}

// implements 判断实现类型（或其指针）是否满足接口
func implements(impl, iface reflect.Type) bool {
	if impl.Implements(iface) {
		return true
	}
	return impl.Kind() != reflect.Ptr && reflect.PointerTo(impl).Implements(iface)
}
