package core

import (
	"fmt"

	"github.com/gocrud/lazyload/di"
)

// Extension 定义应用程序扩展的基础接口
// 扩展模块应该实现 ServiceConfigurator 或 AppConfigurator 接口（或两者都实现）
type Extension interface {
	// Name 返回扩展的名称，用于日志记录和调试
	Name() string
}

// ServiceConfigurator 负责注册启动时就存在的基础服务
// 按需加载的模块通过 lazy.Bootstrapper 注册，不走这里
type ServiceConfigurator interface {
	// ConfigureServices 在此方法中注册服务到基础注册集合
	ConfigureServices(services *di.ServiceCollection)
}

// AppConfigurator 负责配置应用程序构建上下文
// 用于登记模块、页面、托管服务等
type AppConfigurator interface {
	// ConfigureBuilder 在此方法中配置构建上下文
	ConfigureBuilder(ctx *BuildContext)
}

// validateExtension 验证扩展是否实现了支持的接口
// 如果未实现任何支持的接口，将 panic
func validateExtension(ext Extension) {
	_, isServiceConfigurator := ext.(ServiceConfigurator)
	_, isAppConfigurator := ext.(AppConfigurator)

	if !isServiceConfigurator && !isAppConfigurator {
		panic(fmt.Sprintf("app: Extension '%s' does not implement any supported interfaces (ServiceConfigurator, AppConfigurator). \n"+
			"Check if your method signatures exactly match the interface definitions.", ext.Name()))
	}
}
