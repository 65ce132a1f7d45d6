package lazyload

import (
	"github.com/gocrud/lazyload/core"
)

// Run 用 opts 构建应用程序并阻塞运行
// 直到收到退出信号或托管服务失败
func Run(opts ...core.Option) error {
	app, err := core.NewApplicationBuilder().Apply(opts...).Build()
	if err != nil {
		return err
	}
	return app.Run()
}
