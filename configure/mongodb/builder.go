package mongodb

import (
	"fmt"

	"github.com/gocrud/lazyload/bundle"
	"github.com/gocrud/lazyload/logging"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Builder MongoDB 清单存储构建器
type Builder struct {
	options *bundle.MongoOptions
	client  *mongo.Client
}

// NewBuilder 创建构建器
func NewBuilder() *Builder {
	return &Builder{options: bundle.NewDefaultMongoOptions()}
}

// Options 修改连接配置
func (b *Builder) Options(configure func(*bundle.MongoOptions)) *Builder {
	if configure != nil {
		configure(b.options)
	}
	return b
}

// UseClient 使用已有客户端，连接配置中只有 Database 和 Collection 生效
func (b *Builder) UseClient(client *mongo.Client) *Builder {
	b.client = client
	return b
}

// Build 构建清单存储
func (b *Builder) Build(logger logging.Logger) (*bundle.MongoStore, error) {
	if b.client != nil {
		return bundle.NewMongoStoreFromClient(b.client, b.options.Database, b.options.Collection), nil
	}

	store, err := bundle.NewMongoStore(b.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo bundle store: %w", err)
	}

	logger.Info("Mongo bundle store created",
		logging.Field{Key: "uri", Value: b.options.Uri},
		logging.Field{Key: "database", Value: b.options.Database},
		logging.Field{Key: "collection", Value: b.options.Collection})
	return store, nil
}
