package di

import (
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"
)

type scopeEntry struct {
	val atomic.Value // 存储实例（如果尚未创建则为 nil）
	mu  sync.Mutex   // 用于创建此特定实例的锁
}

// Scope 表示作用域生命周期上下文。
// 作用域服务在同一个 Scope 内只创建一次；单例委托给父 Provider。
type Scope struct {
	parent   *Provider
	entries  []scopeEntry // 按定义 ID 索引
	disposed atomic.Bool
}

func newScope(parent *Provider) *Scope {
	return &Scope{
		parent:  parent,
		entries: make([]scopeEntry, parent.count),
	}
}

// Provider 返回作用域所属的 Provider
func (s *Scope) Provider() *Provider {
	return s.parent
}

// Get 检索请求类型的实例。
func (s *Scope) Get(typ reflect.Type) (any, error) {
	return s.GetNamed(typ, "")
}

// GetNamed 检索请求类型和名称的实例。
func (s *Scope) GetNamed(typ reflect.Type, name string) (any, error) {
	if typ == resolverType && name == "" {
		return s, nil
	}
	def, err := s.parent.lookup(typ, name)
	if err != nil {
		return nil, err
	}
	return s.resolve(def)
}

// GetAll 按注册顺序返回某类型的全部实例。
func (s *Scope) GetAll(typ reflect.Type) ([]any, error) {
	defs := s.parent.byType[typ]
	out := make([]any, 0, len(defs))
	for _, def := range defs {
		inst, err := s.resolve(def)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// Has 判断是否注册了指定服务。
func (s *Scope) Has(typ reflect.Type, name string) bool {
	return s.parent.Has(typ, name)
}

func (s *Scope) resolve(def *ServiceDefinition) (any, error) {
	if s.disposed.Load() {
		return nil, ErrScopeDisposed
	}

	switch def.Scope {
	case ScopeSingleton:
		return s.parent.singleton(def)

	case ScopeTransient:
		// 瞬态服务的依赖从当前作用域解析
		return s.parent.factory.createInstance(s, def, s.parent.schemas[def])

	case ScopeScoped:
		id := s.parent.ids[def]
		entry := &s.entries[id]

		// 快速路径：检查是否已创建
		if val := entry.val.Load(); val != nil {
			return val, nil
		}

		entry.mu.Lock()
		defer entry.mu.Unlock()

		if val := entry.val.Load(); val != nil {
			return val, nil
		}

		instance, err := s.parent.factory.createInstance(s, def, s.parent.schemas[def])
		if err != nil {
			return nil, err
		}

		entry.val.Store(instance)
		return instance, nil
	}

	return nil, fmt.Errorf("di: 未知作用域 %v", def.Scope)
}

// Dispose 标记作用域已释放，之后的解析返回 ErrScopeDisposed。
// 实现了 io.Closer 的作用域实例会被关闭。
func (s *Scope) Dispose() {
	if s.disposed.Swap(true) {
		return
	}
	for i := range s.entries {
		e := &s.entries[i]
		e.mu.Lock()
		if c, ok := e.val.Load().(io.Closer); ok {
			_ = c.Close()
		}
		e.mu.Unlock()
	}
}
