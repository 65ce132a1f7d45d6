package preload

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
	"github.com/robfig/cron/v3"
)

// ConfigSection 配置节
const ConfigSection = "lazyload:preload"

// Options 预加载配置
//
//	lazyload:
//	  preload:
//	    onStart: true
//	    schedule: "@every 5m"
//	    routes: [lazy-load, feature2]
type Options struct {
	// Schedule cron 表达式，为空时不做定时预加载
	Schedule string `json:"schedule"`
	// Routes 需要预加载的路由
	Routes []string `json:"routes"`
	// OnStart 启动时立即预加载一次
	OnStart bool `json:"onStart"`
	// Seconds 表达式是否包含秒字段
	Seconds bool `json:"seconds"`
}

// LoadOptions 从配置读取，节不存在时返回零值
func LoadOptions(cfg config.Configuration) Options {
	return config.LoadOrDefault(cfg, ConfigSection, Options{})
}

// Enabled 是否有需要执行的预加载
func (o Options) Enabled() bool {
	return len(o.Routes) > 0 && (o.OnStart || strings.TrimSpace(o.Schedule) != "")
}

// Service 按计划预加载模块的托管服务。
// 已加载的模块是 no-op，所以重复触发是幂等的。
type Service struct {
	loader *lazy.Loader
	opts   Options
	logger logging.Logger

	cron    *cron.Cron
	entryID cron.EntryID

	mu   sync.Mutex
	runs int
}

// NewService 创建预加载服务，Schedule 无效时返回错误
func NewService(loader *lazy.Loader, opts Options, logger logging.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithCategory("Preload")

	cronOpts := []cron.Option{cron.WithChain(cron.Recover(newCronLogger(logger)))}
	if opts.Seconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	s := &Service{
		loader: loader,
		opts:   opts,
		logger: logger,
		cron:   cron.New(cronOpts...),
	}

	if schedule := strings.TrimSpace(opts.Schedule); schedule != "" {
		id, err := s.cron.AddFunc(schedule, func() { s.Run(context.Background()) })
		if err != nil {
			return nil, fmt.Errorf("preload: invalid schedule '%s': %w", schedule, err)
		}
		s.entryID = id
	}

	return s, nil
}

func (s *Service) Name() string { return "preload" }

// Run 预加载一次配置的全部路由
func (s *Service) Run(ctx context.Context) []lazy.Result {
	results := s.loader.LoadModules(ctx, s.opts.Routes...)

	loaded, failed := 0, 0
	for _, r := range results {
		switch r.Outcome {
		case lazy.OutcomeLoaded:
			loaded++
		case lazy.OutcomeFailed:
			failed++
		}
	}

	s.mu.Lock()
	s.runs++
	s.mu.Unlock()

	s.logger.Debug("Preload run finished",
		logging.Field{Key: "routes", Value: len(results)},
		logging.Field{Key: "loaded", Value: loaded},
		logging.Field{Key: "failed", Value: failed})
	return results
}

// Runs 已执行次数
func (s *Service) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// Start 实现 HostedService.Start
func (s *Service) Start(ctx context.Context) error {
	if s.opts.OnStart {
		s.Run(ctx)
	}

	if s.entryID != 0 {
		s.logger.Info(fmt.Sprintf("Preload scheduled as '%s'", s.opts.Schedule))
		s.cron.Start()
	}

	<-ctx.Done()
	return nil
}

// Stop 实现 HostedService.Stop，等待正在执行的预加载结束
func (s *Service) Stop(ctx context.Context) error {
	stopCtx := s.cron.Stop()

	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		s.logger.Warn("Preload stop timeout")
		return ctx.Err()
	}
}

// cronLogger 将日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{Key: fmt.Sprintf("%v", keysAndValues[i]), Value: keysAndValues[i+1]})
	}
	return fields
}
