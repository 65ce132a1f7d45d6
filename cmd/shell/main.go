// shell 演示宿主：启动时只注册宿主服务，导航到 lazy-load 或 feature2 时才加载对应模块
package main

import (
	"context"
	"flag"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/lazyload"
	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/configure"
	cfgweb "github.com/gocrud/lazyload/configure/web"
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/hosting"
	"github.com/gocrud/lazyload/logging"
	"github.com/gocrud/lazyload/modules/feature1"
	"github.com/gocrud/lazyload/modules/feature2"
	"github.com/gocrud/lazyload/modules/host"
	"github.com/gocrud/lazyload/state"
)

func main() {
	configPath := flag.String("config", "appsettings.yaml", "YAML 配置文件，不存在时忽略")
	navigate := flag.String("navigate", "", "启动后导航到的路径")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	builder := lazyload.NewApplicationBuilder()

	builder.ConfigureConfiguration(func(b *config.ConfigurationBuilder) {
		b.AddYamlFile(*configPath, true).
			AddEnvironmentVariables("LAZYLOAD_")
	})

	builder.ConfigureLogging(func(b *logging.LoggingBuilder) {
		b.AddConsole()
		if *verbose {
			b.SetMinimumLevel(logging.LogLevelDebug)
		}
	})

	builder.ConfigureServices(func(s *di.ServiceCollection) {
		host.AddServices(s)
		state.AddStore(s)
	})

	builder.Apply(
		core.WithModules(map[string]string{
			feature1.Route: feature1.ModuleID,
			feature2.Route: feature2.ModuleID,
		}),
		core.WithBundle(feature1.ModuleID, feature1.NewBootstrapper),
		core.WithBundle(feature2.ModuleID, feature2.NewBootstrapper),
		core.WithPage(feature1.Route, feature1.NewCounterPage),
		core.WithPage(feature2.Route, feature2.NewCounterPage),
	)

	builder.Configure(
		configure.Journal(nil),
		configure.Web(func(b *cfgweb.Builder) {
			b.Use(gin.Logger())
		}),
		configure.Preload(nil),
	)

	if *navigate != "" {
		builder.Configure(func(ctx *core.BuildContext) {
			ctx.AddHostedServiceFunc(func(rt *core.Runtime) (hosting.HostedService, error) {
				return &hosting.FuncService{
					ServiceName: "navigator",
					OnStart: func(c context.Context) error {
						if _, err := rt.Router.Navigate(c, *navigate); err != nil {
							rt.Logger.Warn("Navigation failed",
								logging.Field{Key: "path", Value: *navigate},
								logging.Field{Key: "error", Value: err.Error()})
						}
						<-c.Done()
						return nil
					},
				}, nil
			})
		})
	}

	app, err := builder.Build()
	if err != nil {
		logging.NewLogger().Error("Failed to build application", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}

	if err := app.Run(); err != nil {
		app.Logger().Error("Application stopped with error", logging.Field{Key: "error", Value: err.Error()})
		os.Exit(1)
	}
}
