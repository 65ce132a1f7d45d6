package di

import (
	"fmt"
	"reflect"
	"strings"
)

// graphBuilder 处理依赖图的构建和验证。
type graphBuilder struct {
	// active 每个键当前生效的定义（后注册者优先）
	active map[ServiceKey]*ServiceDefinition
	// all 全部定义，按注册顺序
	all []*ServiceDefinition
}

func newGraphBuilder(active map[ServiceKey]*ServiceDefinition, all []*ServiceDefinition) *graphBuilder {
	return &graphBuilder{
		active: active,
		all:    all,
	}
}

// analyze 为每个定义计算注入 schema，并检测循环依赖。
func (g *graphBuilder) analyze() (map[*ServiceDefinition]*InjectionSchema, error) {
	schemas := make(map[*ServiceDefinition]*InjectionSchema, len(g.all))
	dependencies := make(map[*ServiceDefinition][]ServiceKey, len(g.all))

	// 1. 提取所有定义的依赖关系
	for _, def := range g.all {
		schema, deps, err := g.inspectDependencies(def)
		if err != nil {
			return nil, fmt.Errorf("检查 %v 的依赖失败: %w", def.Key(), err)
		}
		schemas[def] = schema
		dependencies[def] = deps
	}

	// 2. 基于 DFS 的环检测
	visited := make(map[*ServiceDefinition]bool)
	onStack := make(map[*ServiceDefinition]bool)

	var visit func(*ServiceDefinition) error
	visit = func(u *ServiceDefinition) error {
		visited[u] = true
		onStack[u] = true

		for _, key := range dependencies[u] {
			// 未注册的依赖在解析时报错，这里不做检查
			v, exists := g.active[key]
			if !exists {
				continue
			}

			if !visited[v] {
				if err := visit(v); err != nil {
					return err
				}
			} else if onStack[v] {
				return fmt.Errorf("%w: %v -> %v", ErrCircularDependency, u.Key(), key)
			}
		}

		onStack[u] = false
		return nil
	}

	for _, def := range g.all {
		if !visited[def] {
			if err := visit(def); err != nil {
				return nil, err
			}
		}
	}

	return schemas, nil
}

// inspectDependencies 返回定义的注入 schema 与其依赖的服务键。
func (g *graphBuilder) inspectDependencies(def *ServiceDefinition) (*InjectionSchema, []ServiceKey, error) {
	schema := &InjectionSchema{}

	// 情况 1: 值
	if def.IsValue {
		if !def.InjectFields {
			return schema, nil, nil
		}
		deps, err := g.analyzeStruct(reflect.TypeOf(def.Impl), schema)
		return schema, deps, err
	}

	// 情况 2: 工厂函数，或以构造函数作为实现
	if def.IsFactory || (def.Impl != nil && reflect.TypeOf(def.Impl).Kind() == reflect.Func) {
		deps, err := g.analyzeFunction(def.Impl, schema)
		return schema, deps, err
	}

	// 情况 3: 结构体注入 (ImplType)
	deps, err := g.analyzeStruct(def.ImplType, schema)
	return schema, deps, err
}

func (g *graphBuilder) analyzeFunction(fn any, schema *InjectionSchema) ([]ServiceKey, error) {
	fnType := reflect.TypeOf(fn)
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("期望函数，得到 %v", fnType)
	}

	var deps []ServiceKey
	for i := 0; i < fnType.NumIn(); i++ {
		argType := fnType.In(i)
		// 工厂函数参数不支持命名注入
		deps = append(deps, ServiceKey{Type: argType})
		schema.Args = append(schema.Args, argType)
	}
	return deps, nil
}

func (g *graphBuilder) analyzeStruct(typ reflect.Type, schema *InjectionSchema) ([]ServiceKey, error) {
	if typ == nil {
		return nil, nil
	}
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, nil
	}

	var deps []ServiceKey
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tagValue, hasTag := field.Tag.Lookup("di")
		if !hasTag {
			continue
		}
		if !field.IsExported() {
			return nil, fmt.Errorf("字段 %s 未导出，无法注入", field.Name)
		}

		name, optional := parseTag(tagValue)

		schema.Fields = append(schema.Fields, FieldInjection{
			Index:       i,
			Name:        field.Name,
			Type:        field.Type,
			Optional:    optional,
			ServiceName: name,
		})

		if optional {
			continue // 可选依赖不进入依赖图
		}
		deps = append(deps, ServiceKey{Type: field.Type, Name: name})
	}
	return deps, nil
}

// parseTag 解析 `di:"name,optional"`，"?" 与 "optional" 等价
func parseTag(tag string) (name string, optional bool) {
	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])

	if name == "?" || name == "optional" {
		return "", true
	}

	for _, part := range parts[1:] {
		part = strings.TrimSpace(part)
		if part == "optional" || part == "?" {
			optional = true
		}
	}
	return name, optional
}
