package etcd

import (
	"fmt"

	"github.com/gocrud/lazyload/bundle"
	"github.com/gocrud/lazyload/logging"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Builder etcd 清单存储构建器
type Builder struct {
	options *bundle.EtcdOptions
	client  *clientv3.Client
}

// NewBuilder 创建 etcd 构建器
func NewBuilder() *Builder {
	return &Builder{options: bundle.NewDefaultEtcdOptions()}
}

// Options 修改连接配置
func (b *Builder) Options(configure func(*bundle.EtcdOptions)) *Builder {
	if configure != nil {
		configure(b.options)
	}
	return b
}

// UseClient 使用已有客户端，连接配置中只有 KeyPrefix 生效
func (b *Builder) UseClient(client *clientv3.Client) *Builder {
	b.client = client
	return b
}

// Build 构建清单存储
func (b *Builder) Build(logger logging.Logger) (*bundle.EtcdStore, error) {
	if b.client != nil {
		return bundle.NewEtcdStoreFromClient(b.client, b.options.KeyPrefix), nil
	}

	store, err := bundle.NewEtcdStore(b.options)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd bundle store: %w", err)
	}

	logger.Info("Etcd bundle store created",
		logging.Field{Key: "endpoints", Value: b.options.Endpoints},
		logging.Field{Key: "prefix", Value: b.options.KeyPrefix})
	return store, nil
}
