package mongodb_test

import (
	"context"
	"testing"
	"time"

	"github.com/gocrud/lazyload/bundle"
	"github.com/gocrud/lazyload/configure/mongodb"
	"github.com/gocrud/lazyload/core"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func TestMongoConfiguration(t *testing.T) {
	builder := core.NewApplicationBuilder().
		ConfigureLogging(func(b *logging.LoggingBuilder) { b.SetMinimumLevel(logging.LogLevelNone) })

	// 不连接服务器，只验证注册
	builder.Configure(mongodb.Configure(func(b *mongodb.Builder) {
		b.Options(func(o *bundle.MongoOptions) {
			o.Uri = "mongodb://127.0.0.1:1"
			o.Collection = "manifests"
			o.Timeout = 100 * time.Millisecond
			o.SkipPing = true
		})
	}))

	app, err := builder.Build()
	require.NoError(t, err)

	store, err := di.Resolve[*bundle.MongoStore](app.Container().CurrentProvider())
	require.NoError(t, err)
	assert.NotNil(t, store)
	assert.NoError(t, store.Close())
}

func TestMongoBuilder_UseClient(t *testing.T) {
	client, err := mongo.Connect(options.Client().ApplyURI("mongodb://127.0.0.1:1"))
	require.NoError(t, err)

	store, err := mongodb.NewBuilder().UseClient(client).Build(logging.NewNopLogger())
	require.NoError(t, err)
	// 外部客户端不由存储断开
	assert.NoError(t, store.Close())
	assert.NoError(t, client.Disconnect(context.Background()))
}

func TestMongoBuilder_Errors(t *testing.T) {
	builder := mongodb.NewBuilder().Options(func(o *bundle.MongoOptions) {
		o.Database = "" // 必填项缺失
	})

	_, err := builder.Build(logging.NewNopLogger())
	assert.Error(t, err)
}
