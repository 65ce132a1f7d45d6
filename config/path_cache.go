package config

import (
	"strings"
	"sync"
)

// PathCache 缓存配置路径的拆分结果
type PathCache struct {
	cache sync.Map
}

// GetPathSegments 拆分路径，支持 : 和 . 作为分隔符，空段会被忽略
func (c *PathCache) GetPathSegments(path string) []string {
	if v, ok := c.cache.Load(path); ok {
		return v.([]string)
	}

	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == ':' || r == '.'
	})
	c.cache.Store(path, parts)
	return parts
}

var globalPathCache = &PathCache{}
