package di

import (
	"fmt"
	"reflect"
)

// Resolver 是已构建的、可查询的服务解析器（类似于 .NET Core IServiceProvider）
// Provider 与 Scope 都实现了该接口。
type Resolver interface {
	// Get 检索请求类型的实例（使用默认名称）。
	Get(typ reflect.Type) (any, error)

	// GetNamed 检索请求类型和名称的实例。
	GetNamed(typ reflect.Type, name string) (any, error)

	// GetAll 按注册顺序返回某类型的全部实例。
	GetAll(typ reflect.Type) ([]any, error)

	// Has 判断是否注册了指定类型和名称的服务。
	Has(typ reflect.Type, name string) bool
}

type instanceFactory struct{}

// createInstance 创建 def 描述的服务实例，依赖通过 r 递归解析。
func (f instanceFactory) createInstance(r Resolver, def *ServiceDefinition, schema *InjectionSchema) (any, error) {
	if def.IsValue {
		if def.InjectFields {
			if err := f.injectValueFields(r, def.Impl, schema); err != nil {
				return nil, err
			}
		}
		return def.Impl, nil
	}

	if def.IsFactory {
		return f.invokeFunction(r, def.Impl, schema)
	}

	// 如果 Impl 显式提供为函数（构造函数），则使用它
	if def.Impl != nil && reflect.TypeOf(def.Impl).Kind() == reflect.Func {
		return f.invokeFunction(r, def.Impl, schema)
	}

	// 否则，视为结构体注入
	return f.createStruct(r, def, schema)
}

// invokeFunction 调用工厂或构造函数，参数按 schema 注入。
func (f instanceFactory) invokeFunction(r Resolver, fn any, schema *InjectionSchema) (any, error) {
	fnVal := reflect.ValueOf(fn)

	args := make([]reflect.Value, len(schema.Args))
	for i, argType := range schema.Args {
		argVal, err := r.Get(argType)
		if err != nil {
			return nil, fmt.Errorf("参数 %d (%v): %w", i, argType, err)
		}
		args[i] = valueFor(argType, argVal)
	}

	results := fnVal.Call(args)
	if len(results) == 0 {
		return nil, fmt.Errorf("工厂/构造函数没有返回值")
	}

	// 检查最后一个返回值是否为错误
	if len(results) > 1 {
		last := results[len(results)-1]
		if last.Type().Implements(errorType) && !last.IsNil() {
			return nil, last.Interface().(error)
		}
	}

	first := results[0]
	if (first.Kind() == reflect.Ptr || first.Kind() == reflect.Interface) && first.IsNil() {
		return nil, fmt.Errorf("工厂/构造函数返回了 nil 实例")
	}

	return first.Interface(), nil
}

// createStruct 实例化结构体并注入标记为 `di` 的字段。
func (f instanceFactory) createStruct(r Resolver, def *ServiceDefinition, schema *InjectionSchema) (any, error) {
	implType := def.ImplType

	var val reflect.Value
	if implType.Kind() == reflect.Ptr {
		val = reflect.New(implType.Elem())
	} else {
		val = reflect.New(implType)
	}

	if err := f.injectFields(r, val.Elem(), schema); err != nil {
		return nil, err
	}

	// 接口绑定到值类型时，只有指针实现了接口，返回指针
	if implType.Kind() == reflect.Ptr || (def.Type.Kind() == reflect.Interface && !implType.Implements(def.Type)) {
		return val.Interface(), nil
	}
	return val.Elem().Interface(), nil
}

func (f instanceFactory) injectValueFields(r Resolver, value any, schema *InjectionSchema) error {
	v := reflect.ValueOf(value)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("字段注入需要结构体指针，得到 %T", value)
	}
	return f.injectFields(r, v.Elem(), schema)
}

func (f instanceFactory) injectFields(r Resolver, structVal reflect.Value, schema *InjectionSchema) error {
	for _, field := range schema.Fields {
		depVal, err := r.GetNamed(field.Type, field.ServiceName)
		if err != nil {
			if field.Optional {
				continue
			}
			return fmt.Errorf("字段 %s: %w", field.Name, err)
		}

		structVal.Field(field.Index).Set(valueFor(field.Type, depVal))
	}
	return nil
}

var (
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	resolverType = reflect.TypeOf((*Resolver)(nil)).Elem()
)

// valueFor 把解析出的实例转换为目标类型的 reflect.Value，nil 转为零值
func valueFor(typ reflect.Type, v any) reflect.Value {
	if v == nil {
		return reflect.Zero(typ)
	}
	rv := reflect.ValueOf(v)
	if rv.Type() != typ && rv.Type().ConvertibleTo(typ) && !rv.Type().AssignableTo(typ) {
		return rv.Convert(typ)
	}
	return rv
}
