package journal

import (
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/journal"
	"github.com/gocrud/lazyload/logging"
)

// Configure 返回加载日志配置器
// 默认使用进程内的内存 SQLite，进程退出后不保留
// 使用示例: builder.Configure(journal.Configure(func(o *journal.Options) { ... }))
func Configure(options func(*journal.Options)) core.Configurator {
	return func(ctx *core.BuildContext) {
		opts := journal.NewDefaultOptions()
		opts.Logger = ctx.GetLogger()
		if options != nil {
			options(opts)
		}

		j, err := journal.Open(opts)
		if err != nil {
			ctx.GetLogger().Fatal("Failed to open load journal",
				logging.Field{Key: "error", Value: err.Error()})
			return
		}

		di.Register[*journal.Journal](ctx.Services(), di.WithValue(j))
		ctx.AddObserver(j)

		// 注册清理
		ctx.SetCleanup("journal", func() {
			if err := j.Close(); err != nil {
				ctx.GetLogger().Error("Failed to close load journal",
					logging.Field{Key: "error", Value: err.Error()})
			}
		})

		ctx.GetLogger().Info("Load journal registered to DI")
	}
}
