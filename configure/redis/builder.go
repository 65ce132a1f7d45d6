package redis

import (
	"fmt"

	"github.com/gocrud/lazyload/bundle"
	"github.com/gocrud/lazyload/logging"
	"github.com/redis/go-redis/v9"
)

// Builder Redis 清单存储构建器
type Builder struct {
	options *bundle.RedisOptions
	client  *redis.Client
}

// NewBuilder 创建 Redis 构建器
func NewBuilder() *Builder {
	return &Builder{options: bundle.NewDefaultRedisOptions()}
}

// Options 修改连接配置
func (b *Builder) Options(configure func(*bundle.RedisOptions)) *Builder {
	if configure != nil {
		configure(b.options)
	}
	return b
}

// UseClient 使用已有客户端，连接配置中只有 KeyPrefix 生效
func (b *Builder) UseClient(client *redis.Client) *Builder {
	b.client = client
	return b
}

// Build 构建清单存储
func (b *Builder) Build(logger logging.Logger) (*bundle.RedisStore, error) {
	if b.client != nil {
		return bundle.NewRedisStoreFromClient(b.client, b.options.KeyPrefix), nil
	}

	store, err := bundle.NewRedisStore(b.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis bundle store: %w", err)
	}

	logger.Info("Redis bundle store created",
		logging.Field{Key: "addr", Value: b.options.Addr},
		logging.Field{Key: "db", Value: b.options.DB},
		logging.Field{Key: "prefix", Value: b.options.KeyPrefix})
	return store, nil
}
