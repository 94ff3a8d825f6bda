package main

import (
	"sort"

	"github.com/goccy/go-json"
	stac "github.com/planetlabs/go-stac"
)

type itemSummary struct {
	ID         string          `json:"id"`
	Collection string          `json:"collection,omitempty"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
	Assets     []string        `json:"assets,omitempty"`
	Links      []*stac.Link    `json:"links"`
}

func newItemSummary(item *stac.Item) (*itemSummary, error) {
	geometry, err := json.Marshal(item.Geometry)
	if err != nil {
		return nil, err
	}
	props := make(map[string]any, len(item.Properties))
	for k, v := range item.Properties {
		props[k] = v
	}
	assets := make([]string, 0, len(item.Assets))
	for id := range item.Assets {
		assets = append(assets, id)
	}
	sort.Strings(assets)
	return &itemSummary{
		ID:         item.Id,
		Collection: item.Collection,
		Geometry:   geometry,
		Properties: props,
		Assets:     assets,
		Links:      item.Links,
	}, nil
}

type collectionSummary struct {
	Id          string         `json:"id"`
	Title       string         `json:"title,omitempty"`
	Description string         `json:"description"`
	License     string         `json:"license"`
	Extent      *stac.Extent   `json:"extent,omitempty"`
	Summaries   map[string]any `json:"summaries,omitempty"`
	Links       []*stac.Link   `json:"links"`
}

func newCollectionSummary(collection *stac.Collection) *collectionSummary {
	return &collectionSummary{
		Id:          collection.Id,
		Title:       collection.Title,
		Description: collection.Description,
		License:     collection.License,
		Extent:      collection.Extent,
		Summaries:   collection.Summaries,
		Links:       collection.Links,
	}
}
