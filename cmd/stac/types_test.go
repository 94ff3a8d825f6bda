package main

import (
	"testing"

	"github.com/goccy/go-json"
	stac "github.com/planetlabs/go-stac"
	"github.com/stretchr/testify/require"
)

func TestNewItemSummary(t *testing.T) {
	item := &stac.Item{
		Id:         "item-123",
		Collection: "ch.swisstopo.test",
		Geometry: map[string]any{
			"type":        "Point",
			"coordinates": []float64{7.44, 46.95},
		},
		Properties: map[string]any{
			"datetime": "2020-01-01T00:00:00Z",
			"eo:gsd":   0.5,
		},
		Assets: map[string]*stac.Asset{
			"b.tif": {Href: "https://example.com/b.tif"},
			"a.tif": {Href: "https://example.com/a.tif"},
		},
		Links: []*stac.Link{{Rel: "self", Href: "http://example.com/items/item-123"}},
	}

	summary, err := newItemSummary(item)
	require.NoError(t, err)
	require.Equal(t, "item-123", summary.ID)
	require.Equal(t, "ch.swisstopo.test", summary.Collection)
	require.Equal(t, []string{"a.tif", "b.tif"}, summary.Assets)

	var geometry map[string]any
	require.NoError(t, json.Unmarshal(summary.Geometry, &geometry))
	require.Equal(t, "Point", geometry["type"])

	summary.Properties["datetime"] = "changed"
	require.Equal(t, "2020-01-01T00:00:00Z", item.Properties["datetime"])
}

func TestNewCollectionSummary(t *testing.T) {
	c := &stac.Collection{
		Id:          "c",
		Title:       "C",
		Description: "A collection",
		License:     "proprietary",
		Summaries:   map[string]any{"eo:gsd": []any{0.5}},
	}
	s := newCollectionSummary(c)
	require.Equal(t, "c", s.Id)
	require.Equal(t, "proprietary", s.License)
	require.Equal(t, c.Summaries, s.Summaries)
}

func TestParseBbox(t *testing.T) {
	got, err := parseBbox("5.96, 45.82,10.49,47.81")
	require.NoError(t, err)
	require.Equal(t, []float64{5.96, 45.82, 10.49, 47.81}, got)

	_, err = parseBbox("1,2,3")
	require.Error(t, err)
	_, err = parseBbox("1,2,3,x")
	require.Error(t, err)
}
