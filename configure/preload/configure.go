package preload

import (
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/hosting"
	"github.com/gocrud/lazyload/logging"
	"github.com/gocrud/lazyload/preload"
)

// Configure 返回预加载配置器
// 配置节 lazyload:preload 先于 options 生效，没有需要预加载的路由时不添加服务
// 使用示例: builder.Configure(preload.Configure(func(o *preload.Options) { ... }))
func Configure(options func(*preload.Options)) core.Configurator {
	return func(ctx *core.BuildContext) {
		opts := preload.LoadOptions(ctx.GetConfiguration())
		if options != nil {
			options(&opts)
		}

		if !opts.Enabled() {
			ctx.GetLogger().Debug("Preload disabled")
			return
		}

		ctx.AddHostedServiceFunc(func(rt *core.Runtime) (hosting.HostedService, error) {
			svc, err := preload.NewService(rt.Loader, opts, rt.Logger)
			if err != nil {
				return nil, err
			}
			rt.Logger.Info("Preload service configured",
				logging.Field{Key: "routes", Value: opts.Routes},
				logging.Field{Key: "schedule", Value: opts.Schedule})
			return svc, nil
		})
	}
}
