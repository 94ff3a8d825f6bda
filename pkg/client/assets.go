package client

import (
	"context"
	"fmt"
	"net/http"

	stac "github.com/planetlabs/go-stac"
)

// GetAssets returns the assets of an item keyed by asset id.
func (c *Client) GetAssets(ctx context.Context, collectionID, itemID string) (map[string]*stac.Asset, error) {
	if err := requireIDs(collectionID, itemID); err != nil {
		return nil, err
	}
	var body struct {
		Assets map[string]*stac.Asset `json:"assets"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, c.resolve("collections", collectionID, "items", itemID, "assets"), nil, &body, nil); err != nil {
		return nil, err
	}
	return body.Assets, nil
}

// GetAsset fetches a single asset together with its ETag.
func (c *Client) GetAsset(ctx context.Context, collectionID, itemID, assetID string, opts ...RequestOption) (*stac.Asset, string, error) {
	if err := requireAssetIDs(collectionID, itemID, assetID); err != nil {
		return nil, "", err
	}
	var asset stac.Asset
	etag, err := c.doJSON(ctx, http.MethodGet, c.resolve("collections", collectionID, "items", itemID, "assets", assetID), nil, &asset, opts)
	if err != nil {
		return nil, "", err
	}
	return &asset, etag, nil
}

// CreateAsset posts a new asset into an item.
func (c *Client) CreateAsset(ctx context.Context, collectionID, itemID string, body any, opts ...RequestOption) (*stac.Asset, error) {
	if err := requireIDs(collectionID, itemID); err != nil {
		return nil, err
	}
	var asset stac.Asset
	if _, err := c.doJSON(ctx, http.MethodPost, c.resolve("collections", collectionID, "items", itemID, "assets"), body, &asset, opts); err != nil {
		return nil, err
	}
	return &asset, nil
}

// UpdateAsset replaces the writable fields of an asset (PUT).
func (c *Client) UpdateAsset(ctx context.Context, collectionID, itemID, assetID string, body any, opts ...RequestOption) (*stac.Asset, error) {
	return c.writeAsset(ctx, http.MethodPut, collectionID, itemID, assetID, body, opts)
}

// PatchAsset merges the given fields into an asset (PATCH).
func (c *Client) PatchAsset(ctx context.Context, collectionID, itemID, assetID string, body any, opts ...RequestOption) (*stac.Asset, error) {
	return c.writeAsset(ctx, http.MethodPatch, collectionID, itemID, assetID, body, opts)
}

func (c *Client) writeAsset(ctx context.Context, method, collectionID, itemID, assetID string, body any, opts []RequestOption) (*stac.Asset, error) {
	if err := requireAssetIDs(collectionID, itemID, assetID); err != nil {
		return nil, err
	}
	var asset stac.Asset
	if _, err := c.doJSON(ctx, method, c.resolve("collections", collectionID, "items", itemID, "assets", assetID), body, &asset, opts); err != nil {
		return nil, err
	}
	return &asset, nil
}

// DeleteAsset deletes an asset.
func (c *Client) DeleteAsset(ctx context.Context, collectionID, itemID, assetID string, opts ...RequestOption) error {
	if err := requireAssetIDs(collectionID, itemID, assetID); err != nil {
		return err
	}
	_, err := c.doJSON(ctx, http.MethodDelete, c.resolve("collections", collectionID, "items", itemID, "assets", assetID), nil, nil, opts)
	return err
}

func requireAssetIDs(collectionID, itemID, assetID string) error {
	if err := requireIDs(collectionID, itemID); err != nil {
		return err
	}
	if assetID == "" {
		return fmt.Errorf("asset ID cannot be empty")
	}
	return nil
}
