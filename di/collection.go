package di

// ServiceCollection 是有序的服务注册集合（类似于 .NET Core IServiceCollection）
//
// 集合只记录定义，不做去重：同一个键可以被注册多次，
// 由 Build 出来的 Provider 按 "后注册者优先" 解析单个实例，
// 按注册顺序解析 GetAll。
//
// ServiceCollection 不是并发安全的，应由组装它的一方独占使用。
type ServiceCollection struct {
	definitions []*ServiceDefinition
}

// NewServiceCollection 创建空的服务集合
func NewServiceCollection() *ServiceCollection {
	return &ServiceCollection{
		definitions: make([]*ServiceDefinition, 0),
	}
}

// Add 追加一条服务定义
func (s *ServiceCollection) Add(def *ServiceDefinition) {
	s.definitions = append(s.definitions, def)
}

// Len 返回定义数量
func (s *ServiceCollection) Len() int {
	return len(s.definitions)
}

// Definitions 返回定义列表的副本
func (s *ServiceCollection) Definitions() []*ServiceDefinition {
	out := make([]*ServiceDefinition, len(s.definitions))
	copy(out, s.definitions)
	return out
}

// Contains 判断集合中是否存在指定键的定义
func (s *ServiceCollection) Contains(key ServiceKey) bool {
	for _, def := range s.definitions {
		if def.Key() == key {
			return true
		}
	}
	return false
}

// Clone 返回集合的浅拷贝，定义本身共享
func (s *ServiceCollection) Clone() *ServiceCollection {
	return &ServiceCollection{definitions: s.Definitions()}
}

// Concat 返回一个新集合：先是 s 的定义，再依次是 others 的定义。
// s 和 others 都不会被修改。
func (s *ServiceCollection) Concat(others ...*ServiceCollection) *ServiceCollection {
	total := len(s.definitions)
	for _, o := range others {
		if o != nil {
			total += len(o.definitions)
		}
	}

	merged := make([]*ServiceDefinition, 0, total)
	merged = append(merged, s.definitions...)
	for _, o := range others {
		if o != nil {
			merged = append(merged, o.definitions...)
		}
	}
	return &ServiceCollection{definitions: merged}
}
