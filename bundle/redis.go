package bundle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions Redis 清单存储配置
type RedisOptions struct {
	Addr         string        // Redis 服务器地址 (host:port)
	Password     string        // 密码（可选）
	DB           int           // 数据库编号
	KeyPrefix    string        // 键前缀，清单键为 KeyPrefix + id
	DialTimeout  time.Duration // 连接超时时间
	ReadTimeout  time.Duration // 读取超时时间
	WriteTimeout time.Duration // 写入超时时间
	PoolSize     int           // 连接池大小
	MaxRetries   int           // 最大重试次数
	SkipPing     bool          // 创建时不检查连接
}

// NewDefaultRedisOptions 创建默认配置
func NewDefaultRedisOptions() *RedisOptions {
	return &RedisOptions{
		Addr:         "localhost:6379",
		KeyPrefix:    "lazyload:bundle:",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MaxRetries:   3,
	}
}

// Validate 验证配置
func (o *RedisOptions) Validate() error {
	if o.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if o.DB < 0 {
		return fmt.Errorf("redis database number must be non-negative")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("redis dial timeout must be positive")
	}
	return nil
}

// RedisStore 从 Redis 字符串键读取清单
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	owned     bool
}

// NewRedisStore 按配置创建客户端，默认会 Ping 一次确认连接
func NewRedisStore(opts *RedisOptions) (*RedisStore, error) {
	if opts == nil {
		opts = NewDefaultRedisOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("bundle: invalid redis configuration: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
		MaxRetries:   opts.MaxRetries,
	})

	if !opts.SkipPing {
		ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("bundle: failed to connect to redis: %w", err)
		}
	}

	return &RedisStore{client: client, keyPrefix: opts.KeyPrefix, owned: true}, nil
}

// NewRedisStoreFromClient 使用已有客户端，Close 不会关闭它
func NewRedisStoreFromClient(client *redis.Client, keyPrefix string) *RedisStore {
	return &RedisStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisStore) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("bundle: redis get %s: %w", id, err)
	}
	return data, nil
}

// Put 写入清单
func (s *RedisStore) Put(ctx context.Context, id string, data []byte) error {
	if err := s.client.Set(ctx, s.keyPrefix+id, data, 0).Err(); err != nil {
		return fmt.Errorf("bundle: redis set %s: %w", id, err)
	}
	return nil
}

// Close 关闭由 NewRedisStore 创建的客户端
func (s *RedisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
