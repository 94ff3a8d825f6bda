package client

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"

	"github.com/goccy/go-json"
	stac "github.com/planetlabs/go-stac"
)

// GetItem fetches an individual item from a collection together with its
// ETag.
func (c *Client) GetItem(ctx context.Context, collectionID, itemID string, opts ...RequestOption) (*stac.Item, string, error) {
	if err := requireIDs(collectionID, itemID); err != nil {
		return nil, "", err
	}
	var raw json.RawMessage
	etag, err := c.doJSON(ctx, http.MethodGet, c.resolve("collections", collectionID, "items", itemID), nil, &raw, opts)
	if err != nil {
		return nil, "", err
	}
	item, err := unmarshalItem(raw)
	if err != nil {
		return nil, "", err
	}
	return item, etag, nil
}

// GetItems iterates over the items of a collection.
func (c *Client) GetItems(ctx context.Context, collectionID string) iter.Seq2[*stac.Item, error] {
	return c.GetItemsWithQuery(ctx, collectionID, nil)
}

// GetItemsWithQuery iterates over the items of a collection matching the
// bbox, datetime and limit parameters of query.
func (c *Client) GetItemsWithQuery(ctx context.Context, collectionID string, query url.Values) iter.Seq2[*stac.Item, error] {
	if collectionID == "" {
		return func(y func(*stac.Item, error) bool) {
			y(nil, fmt.Errorf("collection ID cannot be empty"))
		}
	}
	start := fmt.Sprintf("collections/%s/items", url.PathEscape(collectionID))
	if len(query) > 0 {
		start += "?" + query.Encode()
	}
	return iteratePages(ctx, c, http.MethodGet, start, nil, decodeFeatures)
}

func decodeFeatures(r io.Reader) ([]*stac.Item, []*stac.Link, error) {
	var page struct {
		Features []json.RawMessage `json:"features"`
		Links    []*stac.Link      `json:"links"`
	}
	if err := json.NewDecoder(r).Decode(&page); err != nil {
		return nil, nil, err
	}
	items := make([]*stac.Item, 0, len(page.Features))
	for _, raw := range page.Features {
		item, err := unmarshalItem(raw)
		if err != nil {
			return nil, nil, err
		}
		items = append(items, item)
	}
	return items, page.Links, nil
}

// unmarshalItem decodes an item document. The API renders the bbox of an
// item without geometry as [[]], which has no flat bbox form and is dropped.
func unmarshalItem(data []byte) (*stac.Item, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if bbox, ok := doc["bbox"].([]any); ok && len(bbox) > 0 {
		if _, nested := bbox[0].([]any); nested {
			delete(doc, "bbox")
			stripped, err := json.Marshal(doc)
			if err != nil {
				return nil, err
			}
			data = stripped
		}
	}
	var item stac.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem posts a new item into a collection.
func (c *Client) CreateItem(ctx context.Context, collectionID string, body any, opts ...RequestOption) (*stac.Item, error) {
	if collectionID == "" {
		return nil, fmt.Errorf("collection ID cannot be empty")
	}
	var raw json.RawMessage
	if _, err := c.doJSON(ctx, http.MethodPost, c.resolve("collections", collectionID, "items"), body, &raw, opts); err != nil {
		return nil, err
	}
	return unmarshalItem(raw)
}

// UpdateItem replaces the writable fields of an item (PUT).
func (c *Client) UpdateItem(ctx context.Context, collectionID, itemID string, body any, opts ...RequestOption) (*stac.Item, error) {
	return c.writeItem(ctx, http.MethodPut, collectionID, itemID, body, opts)
}

// PatchItem merges the given fields into an item (PATCH).
func (c *Client) PatchItem(ctx context.Context, collectionID, itemID string, body any, opts ...RequestOption) (*stac.Item, error) {
	return c.writeItem(ctx, http.MethodPatch, collectionID, itemID, body, opts)
}

func (c *Client) writeItem(ctx context.Context, method, collectionID, itemID string, body any, opts []RequestOption) (*stac.Item, error) {
	if err := requireIDs(collectionID, itemID); err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if _, err := c.doJSON(ctx, method, c.resolve("collections", collectionID, "items", itemID), body, &raw, opts); err != nil {
		return nil, err
	}
	return unmarshalItem(raw)
}

// DeleteItem deletes an item with its assets.
func (c *Client) DeleteItem(ctx context.Context, collectionID, itemID string, opts ...RequestOption) error {
	if err := requireIDs(collectionID, itemID); err != nil {
		return err
	}
	_, err := c.doJSON(ctx, http.MethodDelete, c.resolve("collections", collectionID, "items", itemID), nil, nil, opts)
	return err
}

func requireIDs(collectionID, itemID string) error {
	if collectionID == "" {
		return fmt.Errorf("collection ID cannot be empty")
	}
	if itemID == "" {
		return fmt.Errorf("item ID cannot be empty")
	}
	return nil
}
