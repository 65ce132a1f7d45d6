package bundle

import (
	"context"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdOptions etcd 清单存储配置
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	DialTimeout time.Duration // 连接超时时间
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	KeyPrefix   string        // 键前缀，清单键为 KeyPrefix + id
}

// NewDefaultEtcdOptions 创建默认配置
func NewDefaultEtcdOptions() *EtcdOptions {
	return &EtcdOptions{
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
		KeyPrefix:   "/lazyload/bundles/",
	}
}

// Validate 验证配置
func (o *EtcdOptions) Validate() error {
	if len(o.Endpoints) == 0 {
		return fmt.Errorf("etcd endpoints are required")
	}
	for _, ep := range o.Endpoints {
		if strings.TrimSpace(ep) == "" {
			return fmt.Errorf("etcd endpoint must not be empty")
		}
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("etcd dial timeout must be positive")
	}
	return nil
}

// EtcdStore 从 etcd 读取清单
type EtcdStore struct {
	client    *clientv3.Client
	keyPrefix string
	owned     bool
}

// NewEtcdStore 按配置创建客户端
func NewEtcdStore(opts *EtcdOptions) (*EtcdStore, error) {
	if opts == nil {
		opts = NewDefaultEtcdOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("bundle: invalid etcd configuration: %w", err)
	}

	cfg := clientv3.Config{
		Endpoints:   opts.Endpoints,
		DialTimeout: opts.DialTimeout,
	}
	if opts.Username != "" {
		cfg.Username = opts.Username
		cfg.Password = opts.Password
	}

	client, err := clientv3.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("bundle: failed to create etcd client: %w", err)
	}
	return &EtcdStore{client: client, keyPrefix: opts.KeyPrefix, owned: true}, nil
}

// NewEtcdStoreFromClient 使用已有客户端，Close 不会关闭它
func NewEtcdStoreFromClient(client *clientv3.Client, keyPrefix string) *EtcdStore {
	return &EtcdStore{client: client, keyPrefix: keyPrefix}
}

func (s *EtcdStore) Get(ctx context.Context, id string) ([]byte, error) {
	resp, err := s.client.Get(ctx, s.keyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("bundle: etcd get %s: %w", id, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return resp.Kvs[0].Value, nil
}

// Put 写入清单
func (s *EtcdStore) Put(ctx context.Context, id string, data []byte) error {
	if _, err := s.client.Put(ctx, s.keyPrefix+id, string(data)); err != nil {
		return fmt.Errorf("bundle: etcd put %s: %w", id, err)
	}
	return nil
}

// Close 关闭由 NewEtcdStore 创建的客户端
func (s *EtcdStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
