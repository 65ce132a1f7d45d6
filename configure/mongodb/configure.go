package mongodb

import (
	"github.com/gocrud/lazyload/bundle"
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/logging"
)

// Configure 返回 MongoDB 清单存储配置器
// 使用示例: builder.Configure(mongodb.Configure(func(b *mongodb.Builder) { ... }))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}

		store, err := builder.Build(ctx.GetLogger())
		if err != nil {
			ctx.GetLogger().Fatal("Failed to build mongo bundle store",
				logging.Field{Key: "error", Value: err.Error()})
			return
		}

		di.Register[*bundle.MongoStore](ctx.Services(), di.WithValue(store))
		ctx.UseFetcher(bundle.NewManifestFetcher(store, ctx.Catalog()))

		ctx.SetCleanup("mongodb", func() {
			ctx.GetLogger().Info("Closing mongo bundle store")
			if err := store.Close(); err != nil {
				ctx.GetLogger().Error("Failed to close mongo bundle store",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}
