package web

import (
	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/hosting"
	"github.com/gocrud/lazyload/journal"
	"github.com/gocrud/lazyload/logging"
	admin "github.com/gocrud/lazyload/web"
)

// Configure 返回管理接口配置器
// 配置节 lazyload:admin 先于 options 生效
// 使用示例: builder.Configure(web.Configure(func(b *web.Builder) { ... }))
func Configure(options func(*Builder)) core.Configurator {
	return func(ctx *core.BuildContext) {
		opts := config.LoadOrDefault(ctx.GetConfiguration(), admin.ConfigSection, *admin.NewDefaultOptions())
		builder := NewBuilder(&opts)
		if options != nil {
			options(builder)
		}

		// 管理接口依赖 Loader，运行时创建后再构建
		ctx.AddHostedServiceFunc(func(rt *core.Runtime) (hosting.HostedService, error) {
			provider := rt.Container.CurrentProvider()

			var j *journal.Journal
			if provider.Has(di.TypeOf[*journal.Journal](), "") {
				resolved, err := di.Resolve[*journal.Journal](provider)
				if err != nil {
					return nil, err
				}
				j = resolved
			}
			builder.AddControllers(admin.NewHandler(rt.Loader, j, rt.Logger))

			// 基础服务中注册的控制器
			controllers, err := di.ResolveAll[Controller](provider)
			if err != nil {
				return nil, err
			}
			for _, c := range controllers {
				builder.AddControllers(c)
			}

			host, err := builder.Build(rt.Logger)
			if err != nil {
				return nil, err
			}

			rt.Logger.Info("Admin host configured",
				logging.Field{Key: "port", Value: host.port},
				logging.Field{Key: "basePath", Value: builder.options.BasePath})
			return host, nil
		})
	}
}
