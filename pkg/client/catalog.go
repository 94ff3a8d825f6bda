package client

import (
	"context"
	"net/http"
	"slices"

	stac "github.com/planetlabs/go-stac"
)

// GetCatalog fetches the landing page of the API.
func (c *Client) GetCatalog(ctx context.Context) (*stac.Catalog, error) {
	var cat stac.Catalog
	if _, err := c.doJSON(ctx, http.MethodGet, c.baseURL, nil, &cat, nil); err != nil {
		return nil, err
	}
	return &cat, nil
}

// GetConformance fetches the conformance classes supported by the API.
func (c *Client) GetConformance(ctx context.Context) ([]string, error) {
	var body struct {
		ConformsTo []string `json:"conformsTo"`
	}
	if _, err := c.doJSON(ctx, http.MethodGet, c.resolve("conformance"), nil, &body, nil); err != nil {
		return nil, err
	}
	return body.ConformsTo, nil
}

// SupportsConformance checks if the API supports a specific conformance class.
func (c *Client) SupportsConformance(ctx context.Context, conformanceClass string) (bool, error) {
	classes, err := c.GetConformance(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(classes, conformanceClass), nil
}
