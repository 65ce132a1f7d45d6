package etcd

import (
	"github.com/gocrud/lazyload/bundle"
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/logging"
)

// Configure 返回 etcd 清单存储配置器
// 使用示例: builder.Configure(etcd.Configure(func(b *etcd.Builder) { ... }))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		builder := NewBuilder()
		if options != nil {
			options(builder)
		}

		store, err := builder.Build(ctx.GetLogger())
		if err != nil {
			ctx.GetLogger().Fatal("Failed to build etcd bundle store",
				logging.Field{Key: "error", Value: err.Error()})
			return
		}

		di.Register[*bundle.EtcdStore](ctx.Services(), di.WithValue(store))
		ctx.UseFetcher(bundle.NewManifestFetcher(store, ctx.Catalog()))

		// 注册清理函数
		ctx.SetCleanup("etcd", func() {
			ctx.GetLogger().Info("Closing etcd bundle store")
			if err := store.Close(); err != nil {
				ctx.GetLogger().Error("Failed to close etcd bundle store",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})
	}
}
