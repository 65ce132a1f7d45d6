package bundle

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/lazyload/lazy"
)

// Catalog 模块 ID 到入口函数的显式注册表
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]lazy.BootstrapperFactory
}

// NewCatalog 创建空的 Catalog
func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]lazy.BootstrapperFactory)}
}

// Add 登记模块入口，重复登记返回错误
func (c *Catalog) Add(id string, entry lazy.BootstrapperFactory) error {
	if id == "" {
		return fmt.Errorf("bundle: module id is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[id]; exists {
		return fmt.Errorf("bundle: module '%s' already registered", id)
	}
	c.entries[id] = entry
	return nil
}

// MustAdd 同 Add，失败时 panic
func (c *Catalog) MustAdd(id string, entry lazy.BootstrapperFactory) *Catalog {
	if err := c.Add(id, entry); err != nil {
		panic(err)
	}
	return c
}

// Lookup 查找模块入口。登记时 entry 可以为 nil，表示模块没有 Bootstrapper。
func (c *Catalog) Lookup(id string) (lazy.BootstrapperFactory, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	return entry, ok
}

// IDs 已登记的模块 ID，按字典序
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.entries))
	for id := range c.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
