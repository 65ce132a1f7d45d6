package configure

import (
	"github.com/gocrud/lazyload/configure/etcd"
	"github.com/gocrud/lazyload/configure/mongodb"
	cfgjournal "github.com/gocrud/lazyload/configure/journal"
	cfgpreload "github.com/gocrud/lazyload/configure/preload"
	"github.com/gocrud/lazyload/configure/redis"
	"github.com/gocrud/lazyload/configure/web"
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/journal"
	"github.com/gocrud/lazyload/preload"
)

// Etcd 便捷导出 etcd 清单存储配置器
// 使用示例: builder.Configure(configure.Etcd(func(b *etcd.Builder) { ... }))
func Etcd(options func(*etcd.Builder)) core.Configurator {
	return etcd.Configure(options)
}

// Redis 便捷导出 redis 清单存储配置器
// 使用示例: builder.Configure(configure.Redis(func(b *redis.Builder) { ... }))
func Redis(options func(*redis.Builder)) core.Configurator {
	return redis.Configure(options)
}

// Mongo 便捷导出 MongoDB 清单存储配置器
// 使用示例: builder.Configure(configure.Mongo(func(b *mongodb.Builder) { ... }))
func Mongo(options func(*mongodb.Builder)) core.Configurator {
	return mongodb.Configure(options)
}

// Web 便捷导出管理接口配置器
// 使用示例: builder.Configure(configure.Web(func(b *web.Builder) { ... }))
func Web(options func(*web.Builder)) core.Configurator {
	return web.Configure(options)
}

// Preload 便捷导出预加载配置器
func Preload(options func(*preload.Options)) core.Configurator {
	return cfgpreload.Configure(options)
}

// Journal 便捷导出加载日志配置器
func Journal(options func(*journal.Options)) core.Configurator {
	return cfgjournal.Configure(options)
}
