package bundle_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gocrud/lazyload/bundle"
	"github.com/gocrud/lazyload/config"
	"github.com/gocrud/lazyload/di"
	"github.com/gocrud/lazyload/lazy"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopEntry(*lazy.Container) lazy.Bootstrapper {
	return lazy.BootstrapperFunc(func(*di.ServiceCollection, config.Configuration) error { return nil })
}

func TestCatalog(t *testing.T) {
	c := bundle.NewCatalog()
	require.NoError(t, c.Add("Feature2.wasm", noopEntry))
	require.NoError(t, c.Add("Plain.wasm", nil))

	assert.Error(t, c.Add("Feature2.wasm", noopEntry))
	assert.Error(t, c.Add("", noopEntry))

	entry, ok := c.Lookup("Feature2.wasm")
	assert.True(t, ok)
	assert.NotNil(t, entry)

	entry, ok = c.Lookup("Plain.wasm")
	assert.True(t, ok)
	assert.Nil(t, entry)

	_, ok = c.Lookup("Missing.wasm")
	assert.False(t, ok)

	assert.Equal(t, []string{"Feature2.wasm", "Plain.wasm"}, c.IDs())
}

func TestParseManifest(t *testing.T) {
	data := []byte(`
id: Feature2.wasm
version: 1.2.0
configuration:
  feature2:
    title: Counter
`)
	m, err := bundle.ParseManifest(data, "Feature2.wasm")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", m.Version)
	assert.True(t, m.HasBootstrapper())

	cfg := config.NewConfiguration(m.Configuration)
	assert.Equal(t, "Counter", cfg.Get("feature2:title"))

	m, err = bundle.ParseManifest([]byte("bootstrapper: false\n"), "Plain.wasm")
	require.NoError(t, err)
	assert.Equal(t, "Plain.wasm", m.ID)
	assert.False(t, m.HasBootstrapper())

	_, err = bundle.ParseManifest([]byte("id: Other.wasm\n"), "Feature2.wasm")
	assert.Error(t, err)

	_, err = bundle.ParseManifest([]byte("id: [unterminated"), "Feature2.wasm")
	assert.Error(t, err)
}

func TestManifestRoundTrip(t *testing.T) {
	off := false
	m := &bundle.Manifest{ID: "Plain.wasm", Version: "0.1.0", Bootstrapper: &off}
	data, err := m.Marshal()
	require.NoError(t, err)

	parsed, err := bundle.ParseManifest(data, "Plain.wasm")
	require.NoError(t, err)
	assert.False(t, parsed.HasBootstrapper())
	assert.Equal(t, "0.1.0", parsed.Version)
}

func TestMemoryStore(t *testing.T) {
	s := bundle.NewMemoryStore()
	s.Put("Feature2.wasm", []byte("id: Feature2.wasm\n"))

	data, err := s.Get(context.Background(), "Feature2.wasm")
	require.NoError(t, err)
	assert.Equal(t, "id: Feature2.wasm\n", string(data))

	_, err = s.Get(context.Background(), "Missing.wasm")
	assert.ErrorIs(t, err, bundle.ErrNotFound)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Feature2.wasm.yaml"), []byte("version: 2.0.0\n"), 0o644))

	s := bundle.NewFileStore(dir)
	data, err := s.Get(context.Background(), "Feature2.wasm")
	require.NoError(t, err)
	assert.Contains(t, string(data), "2.0.0")

	_, err = s.Get(context.Background(), "Missing.wasm")
	assert.ErrorIs(t, err, bundle.ErrNotFound)

	_, err = s.Get(context.Background(), "../escape")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, bundle.ErrNotFound)
}

func TestCatalogFetcher(t *testing.T) {
	c := bundle.NewCatalog().MustAdd("Feature2.wasm", noopEntry)
	f := bundle.NewCatalogFetcher(c)

	unit, err := f.Fetch(context.Background(), "Feature2.wasm")
	require.NoError(t, err)
	assert.Equal(t, "Feature2.wasm", unit.ModuleID)
	assert.NotNil(t, unit.Entry)

	_, err = f.Fetch(context.Background(), "Missing.wasm")
	assert.ErrorIs(t, err, bundle.ErrNotFound)
}

func TestManifestFetcher(t *testing.T) {
	c := bundle.NewCatalog().
		MustAdd("Feature2.wasm", noopEntry).
		MustAdd("Disabled.wasm", noopEntry)

	s := bundle.NewMemoryStore()
	s.Put("Feature2.wasm", []byte("version: 1.0.0\nconfiguration:\n  feature2:\n    title: Manifest\n"))
	s.Put("Disabled.wasm", []byte("bootstrapper: false\n"))
	s.Put("Unlisted.wasm", []byte("version: 0.0.1\n"))

	f := bundle.NewManifestFetcher(s, c)
	ctx := context.Background()

	unit, err := f.Fetch(ctx, "Feature2.wasm")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", unit.Version)
	assert.NotNil(t, unit.Entry)
	assert.Equal(t, "Manifest", config.NewConfiguration(unit.Configuration).Get("feature2:title"))

	unit, err = f.Fetch(ctx, "Disabled.wasm")
	require.NoError(t, err)
	assert.Nil(t, unit.Entry)

	unit, err = f.Fetch(ctx, "Unlisted.wasm")
	require.NoError(t, err)
	assert.Nil(t, unit.Entry)

	_, err = f.Fetch(ctx, "Missing.wasm")
	assert.ErrorIs(t, err, bundle.ErrNotFound)
}

func TestManifestFetcherWithLoader(t *testing.T) {
	c := bundle.NewCatalog().MustAdd("Feature2.wasm", func(*lazy.Container) lazy.Bootstrapper {
		return lazy.BootstrapperFunc(func(s *di.ServiceCollection, cfg config.Configuration) error {
			di.AddSingleton[string](s, cfg.Get("feature2:title"))
			return nil
		})
	})
	s := bundle.NewMemoryStore()
	s.Put("Feature2.wasm", []byte("configuration:\n  feature2:\n    title: FromManifest\n"))

	container, err := lazy.NewContainer(nil)
	require.NoError(t, err)
	loader := lazy.NewLoader(container,
		lazy.NewModuleTable(map[string]string{"feature2": "Feature2.wasm", "missing": "Missing.wasm"}),
		bundle.NewManifestFetcher(s, c))

	res := loader.LoadModule(context.Background(), "feature2")
	require.NoError(t, res.Err)
	assert.Equal(t, "FromManifest", di.MustResolve[string](container.CurrentProvider()))

	res = loader.LoadModule(context.Background(), "missing")
	assert.ErrorIs(t, res.Err, lazy.ErrFetchFailure)
	assert.ErrorIs(t, res.Err, bundle.ErrNotFound)
}

func TestRedisOptionsValidate(t *testing.T) {
	opts := bundle.NewDefaultRedisOptions()
	assert.NoError(t, opts.Validate())

	opts.Addr = ""
	assert.Error(t, opts.Validate())

	opts = bundle.NewDefaultRedisOptions()
	opts.DB = -1
	assert.Error(t, opts.Validate())

	_, err := bundle.NewRedisStore(&bundle.RedisOptions{})
	assert.Error(t, err)
}

func TestRedisStoreUnreachable(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := bundle.NewRedisStoreFromClient(client, "lazyload:bundle:")
	defer client.Close()

	_, err := s.Get(context.Background(), "Feature2.wasm")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, bundle.ErrNotFound)
	assert.NoError(t, s.Close(), "borrowed clients are not closed by the store")
}

func TestEtcdOptionsValidate(t *testing.T) {
	opts := bundle.NewDefaultEtcdOptions()
	assert.NoError(t, opts.Validate())

	opts.Endpoints = nil
	assert.Error(t, opts.Validate())

	opts = bundle.NewDefaultEtcdOptions()
	opts.DialTimeout = 0
	assert.Error(t, opts.Validate())

	opts = bundle.NewDefaultEtcdOptions()
	opts.Endpoints = []string{" "}
	assert.Error(t, opts.Validate())
}
