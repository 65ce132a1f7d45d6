package journal

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Entry 一次模块加载的记录
type Entry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Route      string    `gorm:"index" json:"route"`
	ModuleID   string    `gorm:"index" json:"moduleId"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	Added      int       `json:"added"`
	DurationMs int64     `json:"durationMs"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName 表名
func (Entry) TableName() string {
	return "module_loads"
}

// Options 日志库配置
type Options struct {
	Dialector  gorm.Dialector
	GormConfig *gorm.Config
	// MaxOpenConns 内存 SQLite 只能使用一个连接
	MaxOpenConns int
	Logger       logging.Logger
}

var instances atomic.Int64

// NewDefaultOptions 每次调用都返回一个独立的内存数据库
func NewDefaultOptions() *Options {
	dsn := fmt.Sprintf("file:lazyload-journal-%d?mode=memory&cache=shared", instances.Add(1))
	return &Options{
		Dialector:    sqlite.Open(dsn),
		GormConfig:   &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)},
		MaxOpenConns: 1,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Dialector == nil {
		return fmt.Errorf("journal dialector is required")
	}
	if o.MaxOpenConns < 0 {
		return fmt.Errorf("journal max open conns must be non-negative")
	}
	return nil
}

// Journal 记录模块加载结果，实现 lazy.Observer
type Journal struct {
	db     *gorm.DB
	logger logging.Logger
}

// Open 打开日志库并迁移表结构，opts 为 nil 时使用内存数据库
func Open(opts *Options) (*Journal, error) {
	if opts == nil {
		opts = NewDefaultOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("journal: invalid configuration: %w", err)
	}
	gormConfig := opts.GormConfig
	if gormConfig == nil {
		gormConfig = &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
	}

	db, err := gorm.Open(opts.Dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("journal: failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("journal: failed to get sql.DB: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if err := db.AutoMigrate(&Entry{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("journal: auto migrate failed: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Journal{db: db, logger: logger.WithCategory("Journal")}, nil
}

// OnModuleLoad 记录结果，写入失败只记日志
func (j *Journal) OnModuleLoad(res lazy.Result) {
	if err := j.Record(context.Background(), res); err != nil {
		j.logger.Warn("Failed to record module load",
			logging.Field{Key: "route", Value: res.Route},
			logging.Field{Key: "error", Value: err})
	}
}

// Record 写入一条记录
func (j *Journal) Record(ctx context.Context, res lazy.Result) error {
	entry := Entry{
		Route:      res.Route,
		ModuleID:   res.ModuleID,
		Outcome:    res.Outcome.String(),
		Added:      res.Added,
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}
	return j.db.WithContext(ctx).Create(&entry).Error
}

// Recent 最近的 limit 条记录，新的在前；limit <= 0 时返回全部
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	var entries []Entry
	q := j.db.WithContext(ctx).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("journal: query failed: %w", err)
	}
	return entries, nil
}

// ForModule 某个模块的全部记录，按时间先后
func (j *Journal) ForModule(ctx context.Context, moduleID string) ([]Entry, error) {
	var entries []Entry
	if err := j.db.WithContext(ctx).Where("module_id = ?", moduleID).Order("id asc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("journal: query failed: %w", err)
	}
	return entries, nil
}

// Close 关闭数据库连接
func (j *Journal) Close() error {
	sqlDB, err := j.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
