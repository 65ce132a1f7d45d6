package bundle

import (
	"context"
	"fmt"

	"github.com/gocrud/lazyload/lazy"
)

// CatalogFetcher 只依赖 Catalog：已登记的模块都可以获取
type CatalogFetcher struct {
	Catalog *Catalog
}

// NewCatalogFetcher 创建 CatalogFetcher
func NewCatalogFetcher(catalog *Catalog) *CatalogFetcher {
	return &CatalogFetcher{Catalog: catalog}
}

func (f *CatalogFetcher) Fetch(ctx context.Context, id string) (*lazy.CodeUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entry, ok := f.Catalog.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &lazy.CodeUnit{ModuleID: id, Entry: entry}, nil
}

// ManifestFetcher 从 Store 读取清单，入口函数来自 Catalog。
// 清单声明没有 Bootstrapper 或 Catalog 中没有入口时，模块不贡献注册。
type ManifestFetcher struct {
	Store   Store
	Catalog *Catalog
}

// NewManifestFetcher 创建 ManifestFetcher
func NewManifestFetcher(store Store, catalog *Catalog) *ManifestFetcher {
	return &ManifestFetcher{Store: store, Catalog: catalog}
}

func (f *ManifestFetcher) Fetch(ctx context.Context, id string) (*lazy.CodeUnit, error) {
	data, err := f.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	m, err := ParseManifest(data, id)
	if err != nil {
		return nil, err
	}

	unit := &lazy.CodeUnit{
		ModuleID:      id,
		Version:       m.Version,
		Configuration: m.Configuration,
	}
	if m.HasBootstrapper() && f.Catalog != nil {
		if entry, ok := f.Catalog.Lookup(id); ok {
			unit.Entry = entry
		}
	}
	return unit, nil
}
