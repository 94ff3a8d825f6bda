package client

import (
	"context"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	stac "github.com/planetlabs/go-stac"
)

// SearchParams represents the parameters of an item search.
type SearchParams struct {
	Limit       *int                      `json:"limit,omitempty"`
	IDs         []string                  `json:"ids,omitempty"`
	Collections []string                  `json:"collections,omitempty"`
	BBox        []float64                 `json:"bbox,omitempty"`
	Datetime    string                    `json:"datetime,omitempty"`
	Intersects  *geojson.Geometry         `json:"intersects,omitempty"`
	Query       map[string]map[string]any `json:"query,omitempty"`
}

// DatetimeInterval formats a datetime parameter. A zero bound is open.
func DatetimeInterval(start, end time.Time) string {
	bound := func(t time.Time) string {
		if t.IsZero() {
			return ".."
		}
		return t.UTC().Format(time.RFC3339)
	}
	if !start.IsZero() && start.Equal(end) {
		return bound(start)
	}
	return bound(start) + "/" + bound(end)
}

// Intersecting returns the GeoJSON geometry of g for SearchParams.Intersects.
func Intersecting(g orb.Geometry) *geojson.Geometry {
	return geojson.NewGeometry(g)
}

// values converts p into GET query parameters. Intersects has no query
// form and is only sent by SearchPost.
func (p SearchParams) values() (url.Values, error) {
	values := url.Values{}
	if p.Limit != nil {
		values.Set("limit", strconv.Itoa(*p.Limit))
	}
	if len(p.IDs) > 0 {
		values.Set("ids", strings.Join(p.IDs, ","))
	}
	if len(p.Collections) > 0 {
		values.Set("collections", strings.Join(p.Collections, ","))
	}
	if len(p.BBox) > 0 {
		values.Set("bbox", joinFloat64(p.BBox))
	}
	if p.Datetime != "" {
		values.Set("datetime", p.Datetime)
	}
	if len(p.Query) > 0 {
		q, err := json.Marshal(p.Query)
		if err != nil {
			return nil, err
		}
		values.Set("query", string(q))
	}
	return values, nil
}

func joinFloat64(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}

// Search iterates over the items matching params with GET /search.
func (c *Client) Search(ctx context.Context, params SearchParams) iter.Seq2[*stac.Item, error] {
	values, err := params.values()
	if err != nil {
		return func(yield func(*stac.Item, error) bool) { yield(nil, err) }
	}
	start := "search"
	if len(values) > 0 {
		start += "?" + values.Encode()
	}
	return iteratePages(ctx, c, http.MethodGet, start, nil, decodeFeatures)
}

// SearchPost iterates over the items matching params with POST /search.
func (c *Client) SearchPost(ctx context.Context, params SearchParams) iter.Seq2[*stac.Item, error] {
	return iteratePages(ctx, c, http.MethodPost, "search", params, decodeFeatures)
}
