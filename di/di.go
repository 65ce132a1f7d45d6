package di

import (
	"fmt"
	"reflect"
)

// TypeOf 获取类型 T 的 reflect.Type（T 可以是接口）
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register registers a service of type T in the collection.
// If T is an interface, use di.Use[Impl](), di.WithFactory or di.WithValue
// to specify the implementation.
func Register[T any](s *ServiceCollection, opts ...Option) {
	typ := TypeOf[T]()

	def := &ServiceDefinition{
		Type:     typ,
		Scope:    ScopeSingleton, // Default scope
		ImplType: typ,            // Default implementation is the type itself
	}

	for _, opt := range opts {
		opt(def)
	}

	s.Add(def)
}

// AddSingleton 将 T 绑定到 impl（实例或构造函数）并注册为单例
func AddSingleton[T any](s *ServiceCollection, impl any) {
	Register[T](s, implOption(impl), WithSingleton())
}

// AddScoped 将 T 绑定到 impl（实例或构造函数）并注册为作用域服务
func AddScoped[T any](s *ServiceCollection, impl any) {
	Register[T](s, implOption(impl), WithScoped())
}

// AddTransient 将 T 绑定到 impl（实例或构造函数）并注册为瞬态服务
func AddTransient[T any](s *ServiceCollection, impl any) {
	Register[T](s, implOption(impl), WithTransient())
}

func implOption(impl any) Option {
	if impl != nil && reflect.TypeOf(impl).Kind() == reflect.Func {
		return WithFactory(impl)
	}
	return WithValue(impl)
}

// Provide 智能注册服务。
// 它可以接受构造函数、结构体指针或类型，并自动推断服务类型和注册方式。
//
// 支持的输入 target 类型:
// 1. func(...) (Service, error?) -> 注册为 Factory，ServiceType 为第一个返回值。
// 2. *Struct                      -> 注册为 Value (Singleton)，ServiceType 为 *Struct。
//   - 如果结构体包含带有 `di` 标签的字段，会自动启用字段注入。
//
// 3. reflect.Type                 -> 注册为 Implementation (Struct注入)，ServiceType 为该 Type。
func Provide(s *ServiceCollection, target any, opts ...Option) (reflect.Type, error) {
	var def *ServiceDefinition

	if typeVal, ok := target.(reflect.Type); ok {
		def = &ServiceDefinition{
			Type:     typeVal,
			Scope:    ScopeSingleton,
			ImplType: typeVal,
		}
	} else {
		targetVal := reflect.ValueOf(target)
		switch targetVal.Kind() {
		case reflect.Func:
			fnType := targetVal.Type()
			if fnType.NumOut() == 0 {
				return nil, fmt.Errorf("di: constructor function must return at least one value")
			}
			def = &ServiceDefinition{
				Type:      fnType.Out(0),
				Scope:     ScopeSingleton,
				Impl:      target,
				IsFactory: true,
			}

		case reflect.Ptr:
			def = &ServiceDefinition{
				Type:    targetVal.Type(),
				Scope:   ScopeSingleton,
				Impl:    target,
				IsValue: true,
			}
			if elem := targetVal.Elem(); elem.Kind() == reflect.Struct {
				elemType := elem.Type()
				for i := 0; i < elemType.NumField(); i++ {
					if _, hasTag := elemType.Field(i).Tag.Lookup("di"); hasTag {
						def.InjectFields = true
						break
					}
				}
			}

		default:
			return nil, fmt.Errorf("di: unsupported auto-registration target type: %T", target)
		}
	}

	for _, opt := range opts {
		opt(def)
	}

	s.Add(def)
	return def.Type, nil
}

// Resolve resolves an instance of type T from a provider or scope.
func Resolve[T any](r Resolver) (T, error) {
	return ResolveNamed[T](r, "")
}

// ResolveNamed resolves an instance of type T with a specific name.
func ResolveNamed[T any](r Resolver, name string) (T, error) {
	var zero T
	typ := TypeOf[T]()

	val, err := r.GetNamed(typ, name)
	if err != nil {
		return zero, err
	}
	if val == nil {
		return zero, nil
	}

	if v, ok := val.(T); ok {
		return v, nil
	}
	return zero, fmt.Errorf("di: resolved value is %T, expected %v", val, typ)
}

// ResolveAll resolves every registration of T in registration order.
func ResolveAll[T any](r Resolver) ([]T, error) {
	typ := TypeOf[T]()

	vals, err := r.GetAll(typ)
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(vals))
	for _, val := range vals {
		v, ok := val.(T)
		if !ok {
			return nil, fmt.Errorf("di: resolved value is %T, expected %v", val, typ)
		}
		out = append(out, v)
	}
	return out, nil
}

// MustResolve 解析 T，失败时 panic
func MustResolve[T any](r Resolver) T {
	v, err := Resolve[T](r)
	if err != nil {
		panic(fmt.Sprintf("di: failed to resolve %v: %v", TypeOf[T](), err))
	}
	return v
}
