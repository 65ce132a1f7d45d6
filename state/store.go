package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/lazyload/di"
)

// ErrDuplicateFeature 两个切片使用了相同的名称
var ErrDuplicateFeature = errors.New("state: duplicate feature name")

// Store 状态存储
type Store interface {
	// Initialize 为尚未初始化的切片写入初始状态并回放排队的动作，可以重复调用
	Initialize(ctx context.Context) error
	// Dispatch 分发动作；Initialize 之前的动作会排队
	Dispatch(action any)
	// State 返回切片当前状态
	State(name string) (any, bool)
	// Features 返回已知切片名称，按字典序
	Features() []string
	// Subscribe 订阅状态变化，返回取消订阅的函数
	Subscribe(fn func(name string, state any)) func()
}

// AddStore 注册状态存储。
//
// 每个 Provider 会得到自己的 Store，它包含该 Provider 中注册的全部 Feature；
// 状态本身和订阅者在同一个集合构建出的所有 Provider 之间共享，
// 所以容器发布新 Provider 后已有的状态不会丢失。
func AddStore(s *di.ServiceCollection) {
	shared := newHub()
	di.Register[Store](s, di.WithFactory(func(r di.Resolver) (Store, error) {
		features, err := di.ResolveAll[Feature](r)
		if err != nil {
			return nil, fmt.Errorf("state: resolve features: %w", err)
		}
		return newStore(shared, features), nil
	}))
}

// AddFeature 注册一个状态切片
func AddFeature(s *di.ServiceCollection, f Feature) {
	di.Register[Feature](s, di.WithValue(f), di.WithName(f.Name()))
}

// Select 读取切片的类型化状态
func Select[S any](store Store, name string) (S, bool) {
	var zero S
	v, ok := store.State(name)
	if !ok {
		return zero, false
	}
	s, ok := v.(S)
	return s, ok
}

// hub 在 Provider 之间共享的状态与订阅者
type hub struct {
	mu          sync.RWMutex
	states      map[string]any
	subscribers map[int]func(name string, state any)
	nextID      int
}

func newHub() *hub {
	return &hub{
		states:      make(map[string]any),
		subscribers: make(map[int]func(name string, state any)),
	}
}

type store struct {
	hub      *hub
	features []Feature

	mu          sync.Mutex
	initialized bool
	pending     []any
}

func newStore(h *hub, features []Feature) *store {
	return &store{hub: h, features: features}
}

func (s *store) Initialize(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(s.features))
	for _, f := range s.features {
		if _, dup := seen[f.Name()]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateFeature, f.Name())
		}
		seen[f.Name()] = struct{}{}
	}

	s.hub.mu.Lock()
	for _, f := range s.features {
		if _, ok := s.hub.states[f.Name()]; !ok {
			s.hub.states[f.Name()] = f.InitialState()
		}
	}
	s.hub.mu.Unlock()

	s.mu.Lock()
	s.initialized = true
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, action := range pending {
		s.apply(action)
	}
	return nil
}

func (s *store) Dispatch(action any) {
	s.mu.Lock()
	if !s.initialized {
		s.pending = append(s.pending, action)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.apply(action)
}

func (s *store) apply(action any) {
	type change struct {
		name  string
		state any
	}
	var changes []change

	s.hub.mu.Lock()
	for _, f := range s.features {
		next, handled := f.Reduce(s.hub.states[f.Name()], action)
		if handled {
			s.hub.states[f.Name()] = next
			changes = append(changes, change{f.Name(), next})
		}
	}
	subscribers := make([]func(string, any), 0, len(s.hub.subscribers))
	for _, fn := range s.hub.subscribers {
		subscribers = append(subscribers, fn)
	}
	s.hub.mu.Unlock()

	for _, c := range changes {
		for _, fn := range subscribers {
			fn(c.name, c.state)
		}
	}
}

func (s *store) State(name string) (any, bool) {
	s.hub.mu.RLock()
	defer s.hub.mu.RUnlock()
	v, ok := s.hub.states[name]
	return v, ok
}

func (s *store) Features() []string {
	names := make([]string, 0, len(s.features))
	for _, f := range s.features {
		names = append(names, f.Name())
	}
	sort.Strings(names)
	return names
}

func (s *store) Subscribe(fn func(name string, state any)) func() {
	s.hub.mu.Lock()
	id := s.hub.nextID
	s.hub.nextID++
	s.hub.subscribers[id] = fn
	s.hub.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.hub.mu.Lock()
			delete(s.hub.subscribers, id)
			s.hub.mu.Unlock()
		})
	}
}
