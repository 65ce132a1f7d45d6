package core

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/hosting"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
	"github.com/gocrud/lazyload/router"
)

// Application 应用程序接口
type Application interface {
	Run() error
	RunAsync(ctx context.Context) error
	Stop(ctx context.Context) error
	Container() *lazy.Container
	Loader() *lazy.Loader
	Router() *router.Router
	Runtime() *Runtime
	Configuration() config.Configuration
	Logger() logging.Logger
	Environment() Environment
}

// application 应用程序实现
type application struct {
	runtime         *Runtime
	environment     Environment
	hostedServices  []hosting.HostedService
	serviceManager  *hosting.HostedServiceManager
	cleanups        map[string]func()
	shutdownTimeout time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
	running         bool
	mu              sync.Mutex
}

// Run 运行应用程序（阻塞）
func (a *application) Run() error {
	return a.RunAsync(context.Background())
}

// RunAsync 运行应用程序，直到收到信号、调用 Stop、ctx 取消或托管服务失败
func (a *application) RunAsync(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return errors.New("application is already running")
	}
	a.running = true
	a.mu.Unlock()

	logger := a.runtime.Logger
	logger.Info("Starting application",
		logging.Field{Key: "environment", Value: a.environment.Name()})

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	// 创建托管服务管理器
	a.serviceManager = hosting.NewHostedServiceManager(logger)
	for _, service := range a.hostedServices {
		a.serviceManager.Add(service)
	}
	errCh := a.serviceManager.StartAll(runCtx)

	logger.Info("Application started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error

	select {
	case sig := <-sigCh:
		logger.Info("Received shutdown signal",
			logging.Field{Key: "signal", Value: sig.String()})
	case <-a.stopCh:
		logger.Info("Application stop requested")
	case <-ctx.Done():
		logger.Info("Context cancelled")
	case err := <-errCh:
		logger.Error("Hosted service failed, stopping application",
			logging.Field{Key: "error", Value: err.Error()})
		runErr = err
	}

	// 优雅关闭
	logger.Info("Shutting down application",
		logging.Field{Key: "timeout", Value: a.shutdownTimeout.String()})

	runCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	if err := a.serviceManager.StopAll(shutdownCtx); err != nil {
		logger.Error("Failed to stop hosted services",
			logging.Field{Key: "error", Value: err.Error()})
	}
	a.serviceManager.Wait()

	if len(a.cleanups) > 0 {
		logger.Info("Running cleanup functions",
			logging.Field{Key: "count", Value: len(a.cleanups)})
		for key, cleanup := range a.cleanups {
			logger.Debug("Running cleanup", logging.Field{Key: "key", Value: key})
			cleanup()
		}
	}

	logger.Info("Application stopped",
		logging.Field{Key: "loadedModules", Value: a.runtime.Loader.Table().Loaded()})

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()

	return runErr
}

// Stop 请求停止应用程序，可以重复调用
func (a *application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() { close(a.stopCh) })
	return nil
}

// Container 获取动态容器
func (a *application) Container() *lazy.Container {
	return a.runtime.Container
}

// Loader 获取模块加载器
func (a *application) Loader() *lazy.Loader {
	return a.runtime.Loader
}

// Router 获取路由器
func (a *application) Router() *router.Router {
	return a.runtime.Router
}

// Runtime 获取运行时组件
func (a *application) Runtime() *Runtime {
	return a.runtime
}

// Configuration 获取配置
func (a *application) Configuration() config.Configuration {
	return a.runtime.Configuration
}

// Logger 获取日志记录器
func (a *application) Logger() logging.Logger {
	return a.runtime.Logger
}

// Environment 获取环境
func (a *application) Environment() Environment {
	return a.environment
}

// Environment 环境接口
type Environment interface {
	Name() string
	IsDevelopment() bool
	IsProduction() bool
	IsStaging() bool
}

// environment 环境实现
type environment struct {
	name string
}

// NewEnvironment 创建环境
func NewEnvironment(name string) Environment {
	return &environment{name: name}
}

func (e *environment) Name() string {
	return e.name
}

func (e *environment) IsDevelopment() bool {
	return e.name == "development"
}

func (e *environment) IsProduction() bool {
	return e.name == "production"
}

func (e *environment) IsStaging() bool {
	return e.name == "staging"
}
