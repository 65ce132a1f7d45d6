package bundle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoOptions MongoDB 清单存储配置
type MongoOptions struct {
	Uri         string        // 连接字符串
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Database    string        // 数据库名
	Collection  string        // 集合名，每个模块一个文档，_id 为模块 ID
	MaxPoolSize uint64        // 连接池上限
	MinPoolSize uint64        // 连接池下限
	Timeout     time.Duration // 连接与选择服务器的超时时间
	SkipPing    bool          // 创建时不检查连接
}

// NewDefaultMongoOptions 创建默认配置
func NewDefaultMongoOptions() *MongoOptions {
	return &MongoOptions{
		Uri:         "mongodb://localhost:27017",
		Database:    "lazyload",
		Collection:  "bundles",
		MaxPoolSize: 100,
		MinPoolSize: 5,
		Timeout:     10 * time.Second,
	}
}

// Validate 验证配置
func (o *MongoOptions) Validate() error {
	if o.Uri == "" {
		return fmt.Errorf("mongo uri is required")
	}
	if o.Database == "" {
		return fmt.Errorf("mongo database is required")
	}
	if o.Collection == "" {
		return fmt.Errorf("mongo collection is required")
	}
	if o.Timeout <= 0 {
		return fmt.Errorf("mongo timeout must be positive")
	}
	return nil
}

// mongoManifest 集合中的文档
type mongoManifest struct {
	ID       string `bson:"_id"`
	Manifest string `bson:"manifest"`
}

// MongoStore 从 MongoDB 集合读取清单
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	owned      bool
}

// NewMongoStore 按配置创建客户端，默认会 Ping 一次确认连接
func NewMongoStore(opts *MongoOptions) (*MongoStore, error) {
	if opts == nil {
		opts = NewDefaultMongoOptions()
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("bundle: invalid mongo configuration: %w", err)
	}

	clientOpts := options.Client().ApplyURI(opts.Uri)
	if opts.Username != "" || opts.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: opts.Username,
			Password: opts.Password,
		})
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(opts.MinPoolSize)
	}
	clientOpts.SetConnectTimeout(opts.Timeout)
	clientOpts.SetServerSelectionTimeout(opts.Timeout)

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("bundle: failed to create mongo client: %w", err)
	}

	if !opts.SkipPing {
		ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
		defer cancel()
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("bundle: failed to connect to mongo: %w", err)
		}
	}

	store := NewMongoStoreFromClient(client, opts.Database, opts.Collection)
	store.owned = true
	return store, nil
}

// NewMongoStoreFromClient 使用已有客户端，Close 不会断开它
func NewMongoStoreFromClient(client *mongo.Client, database, collection string) *MongoStore {
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

func (s *MongoStore) Get(ctx context.Context, id string) ([]byte, error) {
	var doc mongoManifest
	err := s.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("bundle: mongo find %s: %w", id, err)
	}
	return []byte(doc.Manifest), nil
}

// Put 写入或替换清单
func (s *MongoStore) Put(ctx context.Context, id string, data []byte) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		mongoManifest{ID: id, Manifest: string(data)},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("bundle: mongo replace %s: %w", id, err)
	}
	return nil
}

// Close 断开由 NewMongoStore 创建的客户端
func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
