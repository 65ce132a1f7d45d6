package redis

import (
	"github.com/gocrud/lazyload/bundle"
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/logging"
)

// Configure 返回 Redis 清单存储配置器
// 模块清单从 Redis 读取，入口函数仍来自模块目录
// 使用示例: builder.Configure(redis.Configure(func(b *redis.Builder) { ... }))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}

		store, err := builder.Build(ctx.GetLogger())
		if err != nil {
			ctx.GetLogger().Fatal("Failed to build redis bundle store",
				logging.Field{Key: "error", Value: err.Error()})
			return
		}

		di.Register[*bundle.RedisStore](ctx.Services(), di.WithValue(store))
		ctx.UseFetcher(bundle.NewManifestFetcher(store, ctx.Catalog()))

		// 注册清理函数
		ctx.SetCleanup("redis", func() {
			ctx.GetLogger().Info("Closing redis bundle store")
			if err := store.Close(); err != nil {
				ctx.GetLogger().Error("Failed to close redis bundle store",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}
