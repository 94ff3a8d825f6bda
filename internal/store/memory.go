package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robert-malhotra/go-stac-api/pkg/pagination"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

const memoryDriver = "memory"

// Memory is a Store kept in process memory. Every write holds the lock for
// its whole duration, so writes and their recomputation are atomic.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]*stac.Collection
	items       map[string]*stac.Item
	assets      map[string]*stac.Asset
	now         func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]*stac.Collection),
		items:       make(map[string]*stac.Item),
		assets:      make(map[string]*stac.Asset),
		now:         time.Now,
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) GetCollection(_ context.Context, name string) (c *stac.Collection, err error) {
	defer observe(memoryDriver, "get_collection", time.Now(), &err)
	m.mu.RLock()
	defer m.mu.RUnlock()
	cur, ok := m.collections[name]
	if !ok {
		return nil, notFound("collection", name)
	}
	return cur.Clone(), nil
}

func (m *Memory) ListCollections(_ context.Context, w pagination.Window) (out []*stac.Collection, err error) {
	defer observe(memoryDriver, "list_collections", time.Now(), &err)
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*stac.Collection, 0, len(m.collections))
	for _, c := range m.collections {
		all = append(all, c)
	}
	slices.SortFunc(all, func(a, b *stac.Collection) int { return strings.Compare(a.Name, b.Name) })
	for _, c := range pagination.ApplyWindow(all, collectionKey, w) {
		out = append(out, c.Clone())
	}
	return out, nil
}

func (m *Memory) CreateCollection(_ context.Context, c *stac.Collection) (out *stac.Collection, err error) {
	defer observe(memoryDriver, "create_collection", time.Now(), &err)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[c.Name]; ok {
		return nil, alreadyExists("collection", c.Name)
	}
	cur := c.Clone()
	stampCollection(cur, m.now())
	m.collections[cur.Name] = cur
	return cur.Clone(), nil
}

func (m *Memory) UpdateCollection(_ context.Context, name string, fn CollectionFunc) (out *stac.Collection, err error) {
	defer observe(memoryDriver, "update_collection", time.Now(), &err)
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.collections[name]
	if !ok {
		return nil, notFound("collection", name)
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	keepCollectionFields(next, cur)
	next.Touch(m.now())
	m.collections[name] = next
	return next.Clone(), nil
}

func (m *Memory) DeleteCollection(_ context.Context, name string, check CollectionFunc) (err error) {
	defer observe(memoryDriver, "delete_collection", time.Now(), &err)
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.collections[name]
	if !ok {
		return notFound("collection", name)
	}
	if check != nil {
		if err := check(cur.Clone()); err != nil {
			return err
		}
	}
	for k, it := range m.items {
		if it.Collection == name {
			delete(m.items, k)
		}
	}
	for k, a := range m.assets {
		if a.Collection == name {
			delete(m.assets, k)
		}
	}
	delete(m.collections, name)
	return nil
}

func (m *Memory) GetItem(_ context.Context, collection, name string) (it *stac.Item, err error) {
	defer observe(memoryDriver, "get_item", time.Now(), &err)
	m.mu.RLock()
	defer m.mu.RUnlock()
	cur, ok := m.items[stac.ItemKey(collection, name)]
	if !ok {
		return nil, notFound("item", stac.ItemKey(collection, name))
	}
	return cur.Clone(), nil
}

func (m *Memory) ListItems(_ context.Context, f ItemFilter, w pagination.Window) (out []*stac.Item, err error) {
	defer observe(memoryDriver, "list_items", time.Now(), &err)
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []*stac.Item
	for _, it := range m.items {
		if f.Match(it) {
			matched = append(matched, it)
		}
	}
	slices.SortFunc(matched, func(a, b *stac.Item) int { return strings.Compare(a.Key(), b.Key()) })
	for _, it := range pagination.ApplyWindow(matched, (*stac.Item).Key, w) {
		out = append(out, it.Clone())
	}
	return out, nil
}

func (m *Memory) CreateItem(_ context.Context, it *stac.Item) (out *stac.Item, err error) {
	defer observe(memoryDriver, "create_item", time.Now(), &err)
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[it.Collection]
	if !ok {
		return nil, notFound("collection", it.Collection)
	}
	if _, ok := m.items[it.Key()]; ok {
		return nil, alreadyExists("item", it.Key())
	}
	now := m.now()
	cur := it.Clone()
	stampItem(cur, now)
	m.items[cur.Key()] = cur
	m.refreshExtent(c, now)
	return cur.Clone(), nil
}

func (m *Memory) UpdateItem(_ context.Context, collection, name string, fn ItemFunc) (out *stac.Item, err error) {
	defer observe(memoryDriver, "update_item", time.Now(), &err)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := stac.ItemKey(collection, name)
	cur, ok := m.items[key]
	if !ok {
		return nil, notFound("item", key)
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	keepItemFields(next, cur)
	now := m.now()
	next.Touch(now)
	m.items[key] = next
	m.refreshExtent(m.collections[collection], now)
	return next.Clone(), nil
}

func (m *Memory) DeleteItem(_ context.Context, collection, name string, check ItemFunc) (err error) {
	defer observe(memoryDriver, "delete_item", time.Now(), &err)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := stac.ItemKey(collection, name)
	cur, ok := m.items[key]
	if !ok {
		return notFound("item", key)
	}
	if check != nil {
		if err := check(cur.Clone()); err != nil {
			return err
		}
	}
	for k, a := range m.assets {
		if a.Collection == collection && a.Item == name {
			delete(m.assets, k)
		}
	}
	delete(m.items, key)
	now := m.now()
	c := m.collections[collection]
	m.refreshExtent(c, now)
	refreshSummaries(c, m.collectionAssets(collection), nil, nil, now)
	return nil
}

func (m *Memory) GetAsset(_ context.Context, collection, item, name string) (a *stac.Asset, err error) {
	defer observe(memoryDriver, "get_asset", time.Now(), &err)
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := assetKey(collection, item, name)
	cur, ok := m.assets[key]
	if !ok {
		return nil, notFound("asset", key)
	}
	return cur.Clone(), nil
}

func (m *Memory) ListAssets(_ context.Context, collection, item string) (out []*stac.Asset, err error) {
	defer observe(memoryDriver, "list_assets", time.Now(), &err)
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.items[stac.ItemKey(collection, item)]; !ok {
		return nil, notFound("item", stac.ItemKey(collection, item))
	}
	for _, a := range m.itemAssets(collection, item) {
		out = append(out, a.Clone())
	}
	return out, nil
}

func (m *Memory) CreateAsset(_ context.Context, a *stac.Asset) (out *stac.Asset, err error) {
	defer observe(memoryDriver, "create_asset", time.Now(), &err)
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[stac.ItemKey(a.Collection, a.Item)]
	if !ok {
		return nil, notFound("item", stac.ItemKey(a.Collection, a.Item))
	}
	key := assetKey(a.Collection, a.Item, a.Name)
	if _, ok := m.assets[key]; ok {
		return nil, alreadyExists("asset", key)
	}
	now := m.now()
	cur := a.Clone()
	stampAsset(cur, now)
	m.assets[key] = cur
	m.refreshSummaries(it, now)
	return cur.Clone(), nil
}

func (m *Memory) UpdateAsset(_ context.Context, collection, item, name string, fn AssetFunc) (out *stac.Asset, err error) {
	defer observe(memoryDriver, "update_asset", time.Now(), &err)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := assetKey(collection, item, name)
	cur, ok := m.assets[key]
	if !ok {
		return nil, notFound("asset", key)
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	keepAssetFields(next, cur)
	now := m.now()
	next.Touch(now)
	m.assets[key] = next
	m.refreshSummaries(m.items[stac.ItemKey(collection, item)], now)
	return next.Clone(), nil
}

func (m *Memory) DeleteAsset(_ context.Context, collection, item, name string, check AssetFunc) (err error) {
	defer observe(memoryDriver, "delete_asset", time.Now(), &err)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := assetKey(collection, item, name)
	cur, ok := m.assets[key]
	if !ok {
		return notFound("asset", key)
	}
	if check != nil {
		if err := check(cur.Clone()); err != nil {
			return err
		}
	}
	delete(m.assets, key)
	m.refreshSummaries(m.items[stac.ItemKey(collection, item)], m.now())
	return nil
}

func (m *Memory) refreshExtent(c *stac.Collection, now time.Time) {
	var items []*stac.Item
	for _, it := range m.items {
		if it.Collection == c.Name {
			items = append(items, it)
		}
	}
	refreshExtent(c, items, now)
}

func (m *Memory) refreshSummaries(it *stac.Item, now time.Time) {
	c := m.collections[it.Collection]
	refreshSummaries(c, m.collectionAssets(it.Collection), it, m.itemAssets(it.Collection, it.Name), now)
}

func (m *Memory) collectionAssets(collection string) []*stac.Asset {
	var out []*stac.Asset
	for _, a := range m.assets {
		if a.Collection == collection {
			out = append(out, a)
		}
	}
	return out
}

func (m *Memory) itemAssets(collection, item string) []*stac.Asset {
	var out []*stac.Asset
	for _, a := range m.assets {
		if a.Collection == collection && a.Item == item {
			out = append(out, a)
		}
	}
	slices.SortFunc(out, func(a, b *stac.Asset) int { return strings.Compare(a.Name, b.Name) })
	return out
}

func collectionKey(c *stac.Collection) string { return c.Name }
