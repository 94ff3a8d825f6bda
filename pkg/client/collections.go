package client

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/goccy/go-json"
	stac "github.com/planetlabs/go-stac"
)

// GetCollection fetches a single collection document by ID together with
// its ETag.
func (c *Client) GetCollection(ctx context.Context, collectionID string, opts ...RequestOption) (*stac.Collection, string, error) {
	if collectionID == "" {
		return nil, "", fmt.Errorf("collection ID cannot be empty")
	}
	var col stac.Collection
	etag, err := c.doJSON(ctx, http.MethodGet, c.resolve("collections", collectionID), nil, &col, opts)
	if err != nil {
		return nil, "", err
	}
	return &col, etag, nil
}

// GetCollections iterates over every collection, following rel="next" links
// until the last page or until the consumer stops.
func (c *Client) GetCollections(ctx context.Context) iter.Seq2[*stac.Collection, error] {
	return iteratePages(ctx, c, http.MethodGet, "collections", nil,
		func(r io.Reader) ([]*stac.Collection, []*stac.Link, error) {
			var page struct {
				Collections []*stac.Collection `json:"collections"`
				Links       []*stac.Link       `json:"links"`
			}
			err := json.NewDecoder(r).Decode(&page)
			return page.Collections, page.Links, err
		})
}

// CreateCollection posts a new collection. body is any value encoding to
// the collection JSON document, raw bytes included.
func (c *Client) CreateCollection(ctx context.Context, body any, opts ...RequestOption) (*stac.Collection, error) {
	var col stac.Collection
	if _, err := c.doJSON(ctx, http.MethodPost, c.resolve("collections"), body, &col, opts); err != nil {
		return nil, err
	}
	return &col, nil
}

// UpdateCollection replaces the writable fields of a collection (PUT).
func (c *Client) UpdateCollection(ctx context.Context, collectionID string, body any, opts ...RequestOption) (*stac.Collection, error) {
	return c.writeCollection(ctx, http.MethodPut, collectionID, body, opts)
}

// PatchCollection merges the given fields into a collection (PATCH).
func (c *Client) PatchCollection(ctx context.Context, collectionID string, body any, opts ...RequestOption) (*stac.Collection, error) {
	return c.writeCollection(ctx, http.MethodPatch, collectionID, body, opts)
}

func (c *Client) writeCollection(ctx context.Context, method, collectionID string, body any, opts []RequestOption) (*stac.Collection, error) {
	if collectionID == "" {
		return nil, fmt.Errorf("collection ID cannot be empty")
	}
	var col stac.Collection
	if _, err := c.doJSON(ctx, method, c.resolve("collections", collectionID), body, &col, opts); err != nil {
		return nil, err
	}
	return &col, nil
}

// DeleteCollection deletes a collection with its items and assets.
func (c *Client) DeleteCollection(ctx context.Context, collectionID string, opts ...RequestOption) error {
	if collectionID == "" {
		return fmt.Errorf("collection ID cannot be empty")
	}
	_, err := c.doJSON(ctx, http.MethodDelete, c.resolve("collections", collectionID), nil, nil, opts)
	return err
}
