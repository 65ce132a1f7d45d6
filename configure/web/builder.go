package web

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/lazyload/logging"
	admin "github.com/gocrud/lazyload/web"
)

// Controller 可以向管理主机注册路由的组件
type Controller interface {
	RegisterRoutes(router gin.IRouter)
}

// Builder 管理主机构建器（基于 Gin）
type Builder struct {
	options     *admin.Options
	middlewares []gin.HandlerFunc
	controllers []Controller
}

// NewBuilder 创建构建器，opts 为 nil 时使用默认配置
func NewBuilder(opts *admin.Options) *Builder {
	if opts == nil {
		opts = admin.NewDefaultOptions()
	}
	return &Builder{options: opts}
}

// Options 返回可修改的配置
func (b *Builder) Options() *admin.Options {
	return b.options
}

// UsePort 设置端口
func (b *Builder) UsePort(port int) *Builder {
	b.options.Port = port
	return b
}

// UseBasePath 设置路由前缀
func (b *Builder) UseBasePath(path string) *Builder {
	b.options.BasePath = path
	return b
}

// Use 使用全局中间件
func (b *Builder) Use(middleware ...gin.HandlerFunc) *Builder {
	b.middlewares = append(b.middlewares, middleware...)
	return b
}

// AddControllers 添加控制器，路由挂在 BasePath 下
func (b *Builder) AddControllers(controllers ...Controller) *Builder {
	for _, c := range controllers {
		if c != nil {
			b.controllers = append(b.controllers, c)
		}
	}
	return b
}

// Build 构建管理主机
func (b *Builder) Build(logger logging.Logger) (*Host, error) {
	if err := b.options.Validate(); err != nil {
		return nil, fmt.Errorf("invalid admin configuration: %w", err)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if b.options.Mode != "" {
		gin.SetMode(b.options.Mode)
	}

	engine := gin.New()
	// 默认中间件：恢复 panic
	engine.Use(gin.Recovery())
	engine.Use(b.middlewares...)

	group := engine.Group(b.options.BasePath)
	for _, c := range b.controllers {
		c.RegisterRoutes(group)
	}

	return &Host{
		port:   b.options.Port,
		engine: engine,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%d", b.options.Port),
			Handler: engine, // Gin Engine 实现了 http.Handler
		},
		logger: logger.WithCategory("AdminHost"),
	}, nil
}

// Host 管理主机，实现 HostedService
type Host struct {
	port   int
	engine *gin.Engine
	server *http.Server
	logger logging.Logger
}

// Name 服务名称
func (h *Host) Name() string { return "admin" }

// Handler 返回 HTTP 处理器，便于测试
func (h *Host) Handler() http.Handler {
	return h.engine
}

// Start 启动管理主机，阻塞直到 ctx 取消或监听失败
func (h *Host) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.server.Addr)
	if err != nil {
		h.logger.Error("Admin host listen failed",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	h.logger.Info("Admin host started",
		logging.Field{Key: "address", Value: ln.Addr().String()})

	// 等待错误或上下文取消
	select {
	case err := <-errCh:
		if err != nil {
			h.logger.Error("Admin host error",
				logging.Field{Key: "error", Value: err.Error()})
			return err
		}
		return nil
	case <-ctx.Done():
		return nil // Stop 会负责关闭
	}
}

// Stop 停止管理主机
func (h *Host) Stop(ctx context.Context) error {
	h.logger.Info("Stopping admin host")

	if err := h.server.Shutdown(ctx); err != nil {
		h.logger.Error("Failed to shutdown admin host gracefully",
			logging.Field{Key: "error", Value: err.Error()})
		return err
	}

	h.logger.Info("Admin host stopped")
	return nil
}
