package lazy

import (
	"sort"
	"strings"
	"sync"
)

// ModuleState 模块的加载状态
type ModuleState int

const (
	StateNotApplicable ModuleState = iota
	StateUnloaded
	StateLoading
	StateLoaded
	StateFailed
)

func (s ModuleState) String() string {
	switch s {
	case StateNotApplicable:
		return "NotApplicable"
	case StateUnloaded:
		return "Unloaded"
	case StateLoading:
		return "Loading"
	case StateLoaded:
		return "Loaded"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ModuleTable 路由到模块 ID 的静态映射，加上已加载模块的集合。
// 已加载集合只增不减。
type ModuleTable struct {
	routes map[string]string
	known  map[string]struct{}

	mu     sync.RWMutex
	loaded map[string]struct{}
	states map[string]ModuleState
}

// NewModuleTable 创建模块表，路由键会被规范化
func NewModuleTable(routes map[string]string) *ModuleTable {
	t := &ModuleTable{
		routes: make(map[string]string, len(routes)),
		known:  make(map[string]struct{}, len(routes)),
		loaded: make(map[string]struct{}),
		states: make(map[string]ModuleState),
	}
	for route, id := range routes {
		key := NormalizeRoute(route)
		if key == "" || id == "" {
			continue
		}
		t.routes[key] = id
		t.known[id] = struct{}{}
	}
	return t
}

// NormalizeRoute 去掉首尾空白和开头的 /，只保留第一段路径并转成小写。
// "Feature2/sub/path?x=1" 规范化为 "feature2"。
func NormalizeRoute(route string) string {
	route = strings.TrimSpace(route)
	route = strings.TrimLeft(route, "/")
	if i := strings.IndexAny(route, "/?#"); i >= 0 {
		route = route[:i]
	}
	return strings.ToLower(strings.TrimSpace(route))
}

// Lookup 查找路由对应的模块 ID
func (t *ModuleTable) Lookup(route string) (string, bool) {
	id, ok := t.routes[NormalizeRoute(route)]
	return id, ok
}

// IsLoaded 模块是否已加载
func (t *ModuleTable) IsLoaded(id string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.loaded[id]
	return ok
}

// MarkLoaded 记录模块已加载，返回 false 表示之前已经记录过
func (t *ModuleTable) MarkLoaded(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.loaded[id]; ok {
		return false
	}
	t.loaded[id] = struct{}{}
	t.states[id] = StateLoaded
	return true
}

// Loaded 已加载模块 ID，按字典序
func (t *ModuleTable) Loaded() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.loaded))
	for id := range t.loaded {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Routes 返回路由表副本
func (t *ModuleTable) Routes() map[string]string {
	out := make(map[string]string, len(t.routes))
	for k, v := range t.routes {
		out[k] = v
	}
	return out
}

// State 返回模块的加载状态，表中没有的模块为 StateNotApplicable
func (t *ModuleTable) State(id string) ModuleState {
	if _, ok := t.known[id]; !ok {
		return StateNotApplicable
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if s, ok := t.states[id]; ok {
		return s
	}
	return StateUnloaded
}

// States 返回表中每个模块的状态
func (t *ModuleTable) States() map[string]ModuleState {
	out := make(map[string]ModuleState, len(t.known))
	for id := range t.known {
		out[id] = t.State(id)
	}
	return out
}

// setState 记录 Loading / Failed，已加载的模块不会回退
func (t *ModuleTable) setState(id string, state ModuleState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.loaded[id]; ok {
		return
	}
	t.states[id] = state
}
