package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/robert-malhotra/go-stac-api/internal/logging"
	"github.com/robert-malhotra/go-stac-api/internal/metrics"
	"github.com/robert-malhotra/go-stac-api/pkg/pagination"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

const (
	badgerDriver = "badger"

	collectionPrefix = "c/"
	itemPrefix       = "i/"
	assetPrefix      = "a/"

	maxTxnRetries = 5
)

// Badger is a Store persisted in a badger database.
//
// Keys:
//
//	c/{collection}
//	i/{collection}/{item}
//	a/{collection}/{item}/{asset}
//
// Values are JSON documents of the stac types.
type Badger struct {
	db  *badger.DB
	now func() time.Time
}

var _ Store = (*Badger)(nil)

// OpenBadger opens or creates the database in dir. An empty dir opens an
// in-memory database.
func OpenBadger(dir string) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return NewBadger(db), nil
}

// NewBadger wraps an open database.
func NewBadger(db *badger.DB) *Badger {
	return &Badger{db: db, now: time.Now}
}

func (b *Badger) Ping(context.Context) error {
	if b.db.IsClosed() {
		return errors.New("badger: database is closed")
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func (b *Badger) GetCollection(_ context.Context, name string) (c *stac.Collection, err error) {
	defer observe(badgerDriver, "get_collection", time.Now(), &err)
	err = b.db.View(func(txn *badger.Txn) error {
		c, err = getJSON[stac.Collection](txn, collectionPrefix+name)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("collection", name)
	}
	return c, err
}

func (b *Badger) ListCollections(_ context.Context, w pagination.Window) (out []*stac.Collection, err error) {
	defer observe(badgerDriver, "list_collections", time.Now(), &err)
	err = b.db.View(func(txn *badger.Txn) error {
		return scanWindow(txn, collectionPrefix, w, func(c *stac.Collection) bool {
			out = append(out, c)
			return true
		})
	})
	return out, err
}

func (b *Badger) CreateCollection(_ context.Context, c *stac.Collection) (out *stac.Collection, err error) {
	defer observe(badgerDriver, "create_collection", time.Now(), &err)
	err = b.update(func(txn *badger.Txn) error {
		key := collectionPrefix + c.Name
		if ok, err := exists(txn, key); err != nil || ok {
			if ok {
				return alreadyExists("collection", c.Name)
			}
			return err
		}
		out = c.Clone()
		stampCollection(out, b.now())
		return setJSON(txn, key, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) UpdateCollection(_ context.Context, name string, fn CollectionFunc) (out *stac.Collection, err error) {
	defer observe(badgerDriver, "update_collection", time.Now(), &err)
	err = b.update(func(txn *badger.Txn) error {
		key := collectionPrefix + name
		cur, err := getJSON[stac.Collection](txn, key)
		if errors.Is(err, ErrNotFound) {
			return notFound("collection", name)
		}
		if err != nil {
			return err
		}
		out = cur.Clone()
		if err := fn(out); err != nil {
			return err
		}
		keepCollectionFields(out, cur)
		out.Touch(b.now())
		return setJSON(txn, key, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) DeleteCollection(_ context.Context, name string, check CollectionFunc) (err error) {
	defer observe(badgerDriver, "delete_collection", time.Now(), &err)
	return b.update(func(txn *badger.Txn) error {
		key := collectionPrefix + name
		cur, err := getJSON[stac.Collection](txn, key)
		if errors.Is(err, ErrNotFound) {
			return notFound("collection", name)
		}
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(cur); err != nil {
				return err
			}
		}
		if err := deletePrefix(txn, assetPrefix+name+"/"); err != nil {
			return err
		}
		if err := deletePrefix(txn, itemPrefix+name+"/"); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
}

func (b *Badger) GetItem(_ context.Context, collection, name string) (it *stac.Item, err error) {
	defer observe(badgerDriver, "get_item", time.Now(), &err)
	key := stac.ItemKey(collection, name)
	err = b.db.View(func(txn *badger.Txn) error {
		it, err = getJSON[stac.Item](txn, itemPrefix+key)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("item", key)
	}
	return it, err
}

// ListItems scans a single collection when f names exactly one, otherwise
// every item.
func (b *Badger) ListItems(_ context.Context, f ItemFilter, w pagination.Window) (out []*stac.Item, err error) {
	defer observe(badgerDriver, "list_items", time.Now(), &err)
	prefix := itemPrefix
	if c, ok := f.SingleCollection(); ok {
		prefix = itemPrefix + c + "/"
	}
	err = b.db.View(func(txn *badger.Txn) error {
		return scanWindow(txn, prefix, w, func(it *stac.Item) bool {
			if !f.Match(it) {
				return false
			}
			out = append(out, it)
			return true
		})
	})
	return out, err
}

func (b *Badger) CreateItem(_ context.Context, it *stac.Item) (out *stac.Item, err error) {
	defer observe(badgerDriver, "create_item", time.Now(), &err)
	err = b.update(func(txn *badger.Txn) error {
		c, err := getJSON[stac.Collection](txn, collectionPrefix+it.Collection)
		if errors.Is(err, ErrNotFound) {
			return notFound("collection", it.Collection)
		}
		if err != nil {
			return err
		}
		key := itemPrefix + it.Key()
		if ok, err := exists(txn, key); err != nil || ok {
			if ok {
				return alreadyExists("item", it.Key())
			}
			return err
		}
		now := b.now()
		out = it.Clone()
		stampItem(out, now)
		if err := setJSON(txn, key, out); err != nil {
			return err
		}
		return b.refreshExtent(txn, c, now)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) UpdateItem(_ context.Context, collection, name string, fn ItemFunc) (out *stac.Item, err error) {
	defer observe(badgerDriver, "update_item", time.Now(), &err)
	err = b.update(func(txn *badger.Txn) error {
		key := itemPrefix + stac.ItemKey(collection, name)
		cur, err := getJSON[stac.Item](txn, key)
		if errors.Is(err, ErrNotFound) {
			return notFound("item", stac.ItemKey(collection, name))
		}
		if err != nil {
			return err
		}
		out = cur.Clone()
		if err := fn(out); err != nil {
			return err
		}
		keepItemFields(out, cur)
		now := b.now()
		out.Touch(now)
		if err := setJSON(txn, key, out); err != nil {
			return err
		}
		c, err := getJSON[stac.Collection](txn, collectionPrefix+collection)
		if err != nil {
			return err
		}
		return b.refreshExtent(txn, c, now)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) DeleteItem(_ context.Context, collection, name string, check ItemFunc) (err error) {
	defer observe(badgerDriver, "delete_item", time.Now(), &err)
	return b.update(func(txn *badger.Txn) error {
		key := itemPrefix + stac.ItemKey(collection, name)
		cur, err := getJSON[stac.Item](txn, key)
		if errors.Is(err, ErrNotFound) {
			return notFound("item", stac.ItemKey(collection, name))
		}
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(cur); err != nil {
				return err
			}
		}
		if err := deletePrefix(txn, assetPrefix+collection+"/"+name+"/"); err != nil {
			return err
		}
		if err := txn.Delete([]byte(key)); err != nil {
			return err
		}
		c, err := getJSON[stac.Collection](txn, collectionPrefix+collection)
		if err != nil {
			return err
		}
		now := b.now()
		assets, err := scanAll[stac.Asset](txn, assetPrefix+collection+"/")
		if err != nil {
			return err
		}
		refreshSummaries(c, assets, nil, nil, now)
		return b.refreshExtent(txn, c, now)
	})
}

func (b *Badger) GetAsset(_ context.Context, collection, item, name string) (a *stac.Asset, err error) {
	defer observe(badgerDriver, "get_asset", time.Now(), &err)
	key := assetKey(collection, item, name)
	err = b.db.View(func(txn *badger.Txn) error {
		a, err = getJSON[stac.Asset](txn, assetPrefix+key)
		return err
	})
	if errors.Is(err, ErrNotFound) {
		return nil, notFound("asset", key)
	}
	return a, err
}

func (b *Badger) ListAssets(_ context.Context, collection, item string) (out []*stac.Asset, err error) {
	defer observe(badgerDriver, "list_assets", time.Now(), &err)
	err = b.db.View(func(txn *badger.Txn) error {
		ok, err := exists(txn, itemPrefix+stac.ItemKey(collection, item))
		if err != nil {
			return err
		}
		if !ok {
			return notFound("item", stac.ItemKey(collection, item))
		}
		out, err = scanAll[stac.Asset](txn, assetPrefix+collection+"/"+item+"/")
		return err
	})
	return out, err
}

func (b *Badger) CreateAsset(_ context.Context, a *stac.Asset) (out *stac.Asset, err error) {
	defer observe(badgerDriver, "create_asset", time.Now(), &err)
	err = b.update(func(txn *badger.Txn) error {
		it, err := getJSON[stac.Item](txn, itemPrefix+stac.ItemKey(a.Collection, a.Item))
		if errors.Is(err, ErrNotFound) {
			return notFound("item", stac.ItemKey(a.Collection, a.Item))
		}
		if err != nil {
			return err
		}
		key := assetKey(a.Collection, a.Item, a.Name)
		if ok, err := exists(txn, assetPrefix+key); err != nil || ok {
			if ok {
				return alreadyExists("asset", key)
			}
			return err
		}
		now := b.now()
		out = a.Clone()
		stampAsset(out, now)
		if err := setJSON(txn, assetPrefix+key, out); err != nil {
			return err
		}
		return b.refreshSummaries(txn, it, now)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) UpdateAsset(_ context.Context, collection, item, name string, fn AssetFunc) (out *stac.Asset, err error) {
	defer observe(badgerDriver, "update_asset", time.Now(), &err)
	err = b.update(func(txn *badger.Txn) error {
		key := assetKey(collection, item, name)
		cur, err := getJSON[stac.Asset](txn, assetPrefix+key)
		if errors.Is(err, ErrNotFound) {
			return notFound("asset", key)
		}
		if err != nil {
			return err
		}
		out = cur.Clone()
		if err := fn(out); err != nil {
			return err
		}
		keepAssetFields(out, cur)
		now := b.now()
		out.Touch(now)
		if err := setJSON(txn, assetPrefix+key, out); err != nil {
			return err
		}
		it, err := getJSON[stac.Item](txn, itemPrefix+stac.ItemKey(collection, item))
		if err != nil {
			return err
		}
		return b.refreshSummaries(txn, it, now)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Badger) DeleteAsset(_ context.Context, collection, item, name string, check AssetFunc) (err error) {
	defer observe(badgerDriver, "delete_asset", time.Now(), &err)
	return b.update(func(txn *badger.Txn) error {
		key := assetKey(collection, item, name)
		cur, err := getJSON[stac.Asset](txn, assetPrefix+key)
		if errors.Is(err, ErrNotFound) {
			return notFound("asset", key)
		}
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(cur); err != nil {
				return err
			}
		}
		if err := txn.Delete([]byte(assetPrefix + key)); err != nil {
			return err
		}
		it, err := getJSON[stac.Item](txn, itemPrefix+stac.ItemKey(collection, item))
		if err != nil {
			return err
		}
		return b.refreshSummaries(txn, it, b.now())
	})
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (b *Badger) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 1; attempt <= maxTxnRetries; attempt++ {
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		metrics.TxnRetries.WithLabelValues(badgerDriver).Inc()
		logging.Debug().Int("attempt", attempt).Msg("badger transaction conflict, retrying")
	}
	return fmt.Errorf("%w: %v", ErrConflict, err)
}

func (b *Badger) refreshExtent(txn *badger.Txn, c *stac.Collection, now time.Time) error {
	items, err := scanAll[stac.Item](txn, itemPrefix+c.Name+"/")
	if err != nil {
		return err
	}
	refreshExtent(c, items, now)
	return setJSON(txn, collectionPrefix+c.Name, c)
}

func (b *Badger) refreshSummaries(txn *badger.Txn, it *stac.Item, now time.Time) error {
	c, err := getJSON[stac.Collection](txn, collectionPrefix+it.Collection)
	if err != nil {
		return err
	}
	collectionAssets, err := scanAll[stac.Asset](txn, assetPrefix+it.Collection+"/")
	if err != nil {
		return err
	}
	itemAssets, err := scanAll[stac.Asset](txn, assetPrefix+it.Collection+"/"+it.Name+"/")
	if err != nil {
		return err
	}
	refreshSummaries(c, collectionAssets, it, itemAssets, now)
	if err := setJSON(txn, collectionPrefix+c.Name, c); err != nil {
		return err
	}
	return setJSON(txn, itemPrefix+it.Key(), it)
}

func getJSON[T any](txn *badger.Txn, key string) (*T, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	v := new(T)
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, nil
}

func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := txn.Set([]byte(key), data); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func exists(txn *badger.Txn, key string) (bool, error) {
	_, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// scanAll decodes every value under prefix in key order.
func scanAll[T any](txn *badger.Txn, prefix string) ([]*T, error) {
	var out []*T
	err := scanWindow(txn, prefix, pagination.Window{}, func(v *T) bool {
		out = append(out, v)
		return true
	})
	return out, err
}

// scanWindow iterates the values under prefix that fall in w. The window
// position is relative to the key space that follows the type prefix, so a
// position "c/i" under "i/" addresses the key "i/c/i". keep reports whether
// a value counts against the window limit.
func scanWindow[T any](txn *badger.Txn, prefix string, w pagination.Window, keep func(*T) bool) error {
	typePrefix := prefix[:2]
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	opts.Reverse = w.Reverse
	iter := txn.NewIterator(opts)
	defer iter.Close()

	var seek []byte
	switch {
	case w.Position != "":
		seek = []byte(typePrefix + w.Position)
	case w.Reverse:
		seek = []byte(prefix + "\xff")
	default:
		seek = []byte(prefix)
	}

	n := 0
	for iter.Seek(seek); iter.ValidForPrefix(opts.Prefix); iter.Next() {
		item := iter.Item()
		if w.Position != "" && string(item.Key()) == typePrefix+w.Position {
			continue
		}
		v := new(T)
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, v) }); err != nil {
			return fmt.Errorf("decode %s: %w", item.Key(), err)
		}
		if keep(v) {
			n++
			if w.Limit > 0 && n >= w.Limit {
				return nil
			}
		}
	}
	return nil
}

func deletePrefix(txn *badger.Txn, prefix string) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = []byte(prefix)
	iter := txn.NewIterator(opts)
	var keys [][]byte
	for iter.Seek(opts.Prefix); iter.ValidForPrefix(opts.Prefix); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()
	for _, k := range keys {
		if err := txn.Delete(k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}
