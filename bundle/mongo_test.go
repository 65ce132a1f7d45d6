package bundle_test

import (
	"context"
	"testing"
	"time"

	"github.com/gocrud/lazyload/bundle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func TestMongoOptionsValidate(t *testing.T) {
	opts := bundle.NewDefaultMongoOptions()
	assert.NoError(t, opts.Validate())

	opts.Uri = ""
	assert.Error(t, opts.Validate())

	opts = bundle.NewDefaultMongoOptions()
	opts.Collection = ""
	assert.Error(t, opts.Validate())

	opts = bundle.NewDefaultMongoOptions()
	opts.Timeout = 0
	assert.Error(t, opts.Validate())

	_, err := bundle.NewMongoStore(&bundle.MongoOptions{})
	assert.Error(t, err)
}

func TestMongoStoreUnreachable(t *testing.T) {
	// 客户端延迟连接，Connect 本身不访问服务器
	client, err := mongo.Connect(options.Client().
		ApplyURI("mongodb://127.0.0.1:1/?directConnection=true").
		SetServerSelectionTimeout(100 * time.Millisecond))
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	s := bundle.NewMongoStoreFromClient(client, "lazyload", "bundles")
	_, err = s.Get(context.Background(), "Feature2.wasm")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, bundle.ErrNotFound)
	assert.NoError(t, s.Close(), "borrowed clients are not disconnected by the store")
}

func TestNewMongoStorePingFails(t *testing.T) {
	opts := bundle.NewDefaultMongoOptions()
	opts.Uri = "mongodb://127.0.0.1:1/?directConnection=true"
	opts.Timeout = 100 * time.Millisecond

	_, err := bundle.NewMongoStore(opts)
	assert.Error(t, err)

	opts.SkipPing = true
	store, err := bundle.NewMongoStore(opts)
	require.NoError(t, err)
	assert.NoError(t, store.Close())
}
