package di

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

type singletonSlot struct {
	once sync.Once
	inst any
	err  error
}

// Provider 由 ServiceCollection 构建而成，构建后不可变。
//
// 每个 Provider 持有自己的单例缓存：同一个集合构建两次会得到两套单例，
// 只有 WithValue 注册的实例在 Provider 之间共享。
// Provider 可以被并发使用。
type Provider struct {
	active     map[ServiceKey]*ServiceDefinition
	byType     map[reflect.Type][]*ServiceDefinition
	keys       []ServiceKey
	schemas    map[*ServiceDefinition]*InjectionSchema
	singletons map[*ServiceDefinition]*singletonSlot
	ids        map[*ServiceDefinition]int
	count      int
	factory    instanceFactory
}

// Build 从服务集合构建 Provider。
// 它验证每条定义、预计算注入 schema 并检测循环依赖；实例在首次解析时才创建。
// 键冲突时后注册的定义生效。
func Build(services *ServiceCollection) (*Provider, error) {
	defs := services.Definitions()

	p := &Provider{
		active:     make(map[ServiceKey]*ServiceDefinition, len(defs)),
		byType:     make(map[reflect.Type][]*ServiceDefinition),
		schemas:    make(map[*ServiceDefinition]*InjectionSchema, len(defs)),
		singletons: make(map[*ServiceDefinition]*singletonSlot),
		ids:        make(map[*ServiceDefinition]int, len(defs)),
	}

	for _, def := range defs {
		if err := def.validate(); err != nil {
			return nil, err
		}

		key := def.Key()
		if _, seen := p.active[key]; !seen {
			p.keys = append(p.keys, key)
		}
		p.active[key] = def
		p.byType[def.Type] = append(p.byType[def.Type], def)

		// 同一个定义在集合中出现多次时共享一个 ID
		if _, ok := p.ids[def]; !ok {
			p.ids[def] = p.count
			p.count++
		}
		if def.Scope == ScopeSingleton {
			p.singletons[def] = &singletonSlot{}
		}
	}

	schemas, err := newGraphBuilder(p.active, defs).analyze()
	if err != nil {
		return nil, err
	}
	p.schemas = schemas

	return p, nil
}

// MustBuild 构建 Provider，失败时 panic
func MustBuild(services *ServiceCollection) *Provider {
	p, err := Build(services)
	if err != nil {
		panic(err)
	}
	return p
}

// Get 检索请求类型的实例。
func (p *Provider) Get(typ reflect.Type) (any, error) {
	return p.GetNamed(typ, "")
}

// GetNamed 检索请求类型和名称的实例。
// 请求 Resolver 类型本身（无名称）时返回 Provider 自己。
func (p *Provider) GetNamed(typ reflect.Type, name string) (any, error) {
	if typ == resolverType && name == "" {
		return p, nil
	}
	def, err := p.lookup(typ, name)
	if err != nil {
		return nil, err
	}
	return p.resolve(def)
}

// GetAll 按注册顺序返回某类型（含命名注册）的全部实例。
func (p *Provider) GetAll(typ reflect.Type) ([]any, error) {
	defs := p.byType[typ]
	out := make([]any, 0, len(defs))
	for _, def := range defs {
		inst, err := p.resolve(def)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// Has 判断是否注册了指定服务。
func (p *Provider) Has(typ reflect.Type, name string) bool {
	_, ok := p.active[ServiceKey{Type: typ, Name: name}]
	return ok
}

// Keys 按首次注册顺序返回全部服务键。
func (p *Provider) Keys() []ServiceKey {
	out := make([]ServiceKey, len(p.keys))
	copy(out, p.keys)
	return out
}

// Definition 返回键当前生效的定义
func (p *Provider) Definition(key ServiceKey) (*ServiceDefinition, bool) {
	def, ok := p.active[key]
	return def, ok
}

// Len 返回不同服务键的数量
func (p *Provider) Len() int {
	return len(p.keys)
}

// CreateScope 为作用域实例创建一个新作用域。
func (p *Provider) CreateScope() *Scope {
	return newScope(p)
}

// Describe 返回排序后的服务描述，用于诊断输出
func (p *Provider) Describe() []string {
	out := make([]string, 0, len(p.keys))
	for _, key := range p.keys {
		out = append(out, fmt.Sprintf("%v [%v]", key, p.active[key].Scope))
	}
	sort.Strings(out)
	return out
}

func (p *Provider) lookup(typ reflect.Type, name string) (*ServiceDefinition, error) {
	key := ServiceKey{Type: typ, Name: name}
	def, ok := p.active[key]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrServiceNotFound, key)
	}
	return def, nil
}

func (p *Provider) resolve(def *ServiceDefinition) (any, error) {
	switch def.Scope {
	case ScopeSingleton:
		return p.singleton(def)
	case ScopeTransient:
		return p.factory.createInstance(p, def, p.schemas[def])
	case ScopeScoped:
		return nil, fmt.Errorf("%w: %v，请使用 CreateScope()", ErrScopedFromRoot, def.Key())
	}
	return nil, fmt.Errorf("di: 未知作用域 %v", def.Scope)
}

// singleton 单例的依赖始终从根 Provider 解析
func (p *Provider) singleton(def *ServiceDefinition) (any, error) {
	slot := p.singletons[def]
	slot.once.Do(func() {
		slot.inst, slot.err = p.factory.createInstance(p, def, p.schemas[def])
	})
	return slot.inst, slot.err
}
