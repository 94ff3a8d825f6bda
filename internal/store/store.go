// Package store persists collections, items and assets.
//
// Two drivers implement Store: an in-memory map store and a badger key-value
// store. Both run every write and the recomputation it triggers in a single
// transaction: item writes refresh the owning collection extent, asset
// writes refresh the collection summaries and the item ground sample
// distance, and deletes cascade to owned resources.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robert-malhotra/go-stac-api/internal/metrics"
	"github.com/robert-malhotra/go-stac-api/pkg/pagination"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

var (
	// ErrNotFound reports a missing resource or parent.
	ErrNotFound = errors.New("store: not found")
	// ErrAlreadyExists reports a create of an existing id.
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrConflict reports a transaction that kept conflicting with
	// concurrent writers.
	ErrConflict = errors.New("store: conflict")
)

// CollectionFunc mutates or inspects a collection inside a transaction.
// Returning an error aborts the transaction.
type CollectionFunc func(*stac.Collection) error

// ItemFunc mutates or inspects an item inside a transaction.
type ItemFunc func(*stac.Item) error

// AssetFunc mutates or inspects an asset inside a transaction.
type AssetFunc func(*stac.Asset) error

// Store is the persistence collaborator of the API.
//
// List methods return entries for a pagination.Window: ascending by key
// after the window position, or descending before it when reversed.
// Collections are keyed by name, items by stac.ItemKey.
//
// Update methods load the current resource, pass a copy to fn and store the
// result. Ids, creation times and derived fields cannot be changed by fn.
// Delete methods call check with the current resource before deleting it.
type Store interface {
	Ping(ctx context.Context) error
	Close() error

	GetCollection(ctx context.Context, name string) (*stac.Collection, error)
	ListCollections(ctx context.Context, w pagination.Window) ([]*stac.Collection, error)
	CreateCollection(ctx context.Context, c *stac.Collection) (*stac.Collection, error)
	UpdateCollection(ctx context.Context, name string, fn CollectionFunc) (*stac.Collection, error)
	DeleteCollection(ctx context.Context, name string, check CollectionFunc) error

	GetItem(ctx context.Context, collection, name string) (*stac.Item, error)
	ListItems(ctx context.Context, f ItemFilter, w pagination.Window) ([]*stac.Item, error)
	CreateItem(ctx context.Context, it *stac.Item) (*stac.Item, error)
	UpdateItem(ctx context.Context, collection, name string, fn ItemFunc) (*stac.Item, error)
	DeleteItem(ctx context.Context, collection, name string, check ItemFunc) error

	GetAsset(ctx context.Context, collection, item, name string) (*stac.Asset, error)
	ListAssets(ctx context.Context, collection, item string) ([]*stac.Asset, error)
	CreateAsset(ctx context.Context, a *stac.Asset) (*stac.Asset, error)
	UpdateAsset(ctx context.Context, collection, item, name string, fn AssetFunc) (*stac.Asset, error)
	DeleteAsset(ctx context.Context, collection, item, name string, check AssetFunc) error
}

// Config selects and configures a driver.
type Config struct {
	Driver string
	Path   string
}

// Open returns the Store selected by cfg.Driver.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "badger":
		return OpenBadger(cfg.Path)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

func observe(driver, operation string, start time.Time, err *error) {
	var e error
	if err != nil {
		e = *err
	}
	if errors.Is(e, ErrNotFound) || errors.Is(e, ErrAlreadyExists) {
		e = nil
	}
	metrics.ObserveStore(driver, operation, start, e)
}

func notFound(kind, key string) error {
	return fmt.Errorf("%s %q: %w", kind, key, ErrNotFound)
}

func alreadyExists(kind, key string) error {
	return fmt.Errorf("%s %q: %w", kind, key, ErrAlreadyExists)
}

// keepCollectionFields restores what fn may not change.
func keepCollectionFields(dst, src *stac.Collection) {
	dst.Name = src.Name
	dst.Created = src.Created
	dst.Summaries = src.Summaries
	dst.Extent = src.Extent
}

func keepItemFields(dst, src *stac.Item) {
	dst.Collection = src.Collection
	dst.Name = src.Name
	dst.Created = src.Created
	dst.Properties.EOGSD = src.Properties.EOGSD
}

func keepAssetFields(dst, src *stac.Asset) {
	dst.Collection = src.Collection
	dst.Item = src.Item
	dst.Name = src.Name
	dst.Created = src.Created
}

// stampCollection sets the creation time and a fresh ETag and resets the
// derived fields.
func stampCollection(c *stac.Collection, now time.Time) {
	c.Created = now.UTC()
	c.Touch(now)
	c.Summaries = stac.ComputeSummaries(nil)
	c.Extent = stac.Extent{}
}

func stampItem(it *stac.Item, now time.Time) {
	it.Created = now.UTC()
	it.Properties.EOGSD = nil
	it.Touch(now)
}

func stampAsset(a *stac.Asset, now time.Time) {
	a.Created = now.UTC()
	a.Touch(now)
}

// refreshExtent recomputes the collection extent from all of its items.
func refreshExtent(c *stac.Collection, items []*stac.Item, now time.Time) {
	c.Extent = stac.ComputeExtent(items)
	c.Touch(now)
}

// refreshSummaries recomputes the collection summaries from all assets of
// the collection and, when it is not nil, the ground sample distance of the
// item owning the changed asset.
func refreshSummaries(c *stac.Collection, collectionAssets []*stac.Asset, it *stac.Item, itemAssets []*stac.Asset, now time.Time) {
	c.Summaries = stac.ComputeSummaries(collectionAssets)
	c.Touch(now)
	if it != nil {
		it.Properties.EOGSD = stac.MinGSD(itemAssets)
		it.Touch(now)
	}
}

func assetKey(collection, item, name string) string {
	return collection + "/" + item + "/" + name
}
