package lazy

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/state"
)

// Container 是可以在运行时扩展的 DI 容器。
//
// 当前 Provider 通过原子指针发布：读取方每次拿到的都是一个完整构建好的 Provider，
// 已经拿到旧 Provider 的调用方继续使用旧实例，不会被强制失效。
//
// committed 保存启动时的注册以及每个已加载模块提交的注册，
// 当前 Provider 总是可以由 committed 构建出来。所有写操作由 mu 串行化。
// 注册了 state.Store 时，每个 Provider 的 Store 都在发布之前完成初始化。
type Container struct {
	mu          sync.Mutex
	committed   *di.ServiceCollection
	current     atomic.Pointer[di.Provider]
	generation  atomic.Uint64
	subscribers []func(*di.Provider)
	subMu       sync.RWMutex
}

// NewContainer 用基础注册集合构建并发布初始 Provider，base 由容器接管
func NewContainer(base *di.ServiceCollection) (*Container, error) {
	if base == nil {
		base = di.NewServiceCollection()
	}

	provider, err := di.Build(base)
	if err != nil {
		return nil, fmt.Errorf("lazy: failed to build base provider: %w", err)
	}
	if err := initializeStore(provider); err != nil {
		return nil, err
	}

	c := &Container{committed: base.Clone()}
	c.current.Store(provider)
	return c, nil
}

// CurrentProvider 返回当前发布的 Provider
func (c *Container) CurrentProvider() *di.Provider {
	return c.current.Load()
}

// AddService 在已提交的注册集合上应用 configure，重新构建并发布。
// 构建失败时不修改任何状态。
func (c *Container) AddService(configure func(services *di.ServiceCollection)) error {
	c.mu.Lock()

	next := c.committed.Clone()
	configure(next)

	provider, err := di.Build(next)
	if err == nil {
		err = initializeStore(provider)
	}
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("lazy: failed to rebuild provider: %w", err)
	}

	c.committed = next
	c.publish(provider)
	c.mu.Unlock()

	c.notify(provider)
	return nil
}

// UpdateProvider 直接替换当前 Provider，不校验它是否包含之前的注册。
//
// 它只发布，不提交：provider 中不属于 committed 的注册不会被记住，
// 之后的 AddService 或 Extend 从 committed 重建，这些注册随之消失。
// 需要长期保留的注册应该通过 Extend 提交。
// provider 的 Store 初始化失败时（例如切片重名）同样会发布，排队的动作保持排队。
func (c *Container) UpdateProvider(provider *di.Provider) {
	if provider == nil {
		return
	}
	_ = initializeStore(provider)

	c.mu.Lock()
	c.publish(provider)
	c.mu.Unlock()

	c.notify(provider)
}

// MergeRegistrationSets 构建 committed ∪ extra 的新 Provider（committed 在前），不发布
func (c *Container) MergeRegistrationSets(extra *di.ServiceCollection) (*di.Provider, error) {
	c.mu.Lock()
	committed := c.committed
	c.mu.Unlock()

	return buildMerged(committed, extra)
}

// Extend 合并 extra 并发布，然后把 extra 提交到 committed。
// 整个过程持有写锁，两个并发的 Extend 不会丢失对方的注册。
func (c *Container) Extend(extra *di.ServiceCollection) (*di.Provider, error) {
	c.mu.Lock()

	provider, err := buildMerged(c.committed, extra)
	if err == nil {
		err = initializeStore(provider)
	}
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.publish(provider)
	c.committed = c.committed.Concat(extra)
	c.mu.Unlock()

	c.notify(provider)
	return provider, nil
}

// Registrations 返回已提交的注册数量
func (c *Container) Registrations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed.Len()
}

// Generation 返回发布次数，初始 Provider 为 0
func (c *Container) Generation() uint64 {
	return c.generation.Load()
}

// Subscribe 注册一个回调，每次发布新 Provider 后调用。
// 回调在释放写锁之后同步执行，可以调用容器的任何操作；
// 并发写入时回调的顺序不保证与发布顺序一致，需要最新值时读 CurrentProvider。
func (c *Container) Subscribe(fn func(*di.Provider)) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// publish 调用方必须持有 mu
func (c *Container) publish(provider *di.Provider) {
	c.current.Store(provider)
	c.generation.Add(1)
}

// notify 调用方不能持有 mu
func (c *Container) notify(provider *di.Provider) {
	c.subMu.RLock()
	subscribers := append(([]func(*di.Provider))(nil), c.subscribers...)
	c.subMu.RUnlock()

	for _, fn := range subscribers {
		fn(provider)
	}
}

// initializeStore 初始化 provider 中注册的状态存储，没有注册时什么都不做
func initializeStore(provider *di.Provider) error {
	if !provider.Has(di.TypeOf[state.Store](), "") {
		return nil
	}

	store, err := di.Resolve[state.Store](provider)
	if err != nil {
		return fmt.Errorf("resolve state store: %w", err)
	}
	if err := store.Initialize(context.Background()); err != nil {
		return fmt.Errorf("initialize state store: %w", err)
	}
	return nil
}

func buildMerged(committed, extra *di.ServiceCollection) (*di.Provider, error) {
	merged := committed.Concat(extra)
	provider, err := di.Build(merged)
	if err != nil {
		return nil, fmt.Errorf("lazy: failed to build merged provider: %w", err)
	}
	return provider, nil
}
