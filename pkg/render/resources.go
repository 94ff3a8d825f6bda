package render

import (
	"time"

	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

// Collection renders c with its navigational links.
func Collection(c *stac.Collection, l Linker) *Object {
	providers := make([]*Object, 0, len(c.Providers))
	for _, p := range c.Providers {
		providers = append(providers, Provider(p))
	}
	obj := ObjectOf(
		"stac_version", stac.Version,
		"stac_extensions", extensions(),
		"name", c.Name,
		"title", optString(c.Title),
		"description", c.Description,
		"summaries", Summaries(c.Summaries),
		"extent", Extent(c.Extent),
		"providers", providers,
		"license", c.License,
		"created", FormatTime(c.Created),
		"updated", FormatTime(c.Updated),
		"links", userLinks(c.Links),
		"crs", []string{stac.CRS84},
		"item_type", "Feature",
	)
	out := FilterNull(CollectionFields.Externalize(obj), "links")
	Inject(out, l.CollectionLinks(c.Name))
	return out
}

// Provider renders a collection provider.
func Provider(p stac.Provider) *Object {
	return FilterNull(ProviderFields.Externalize(ObjectOf(
		"name", p.Name,
		"roles", p.Roles,
		"url", optString(p.Url),
		"description", optString(p.Description),
	)))
}

// Item renders it with its assets keyed by id and its navigational links.
func Item(it *stac.Item, assets []*stac.Asset, l Linker) *Object {
	entries := make([]*Object, 0, len(assets))
	for _, a := range assets {
		entries = append(entries, assetFields(a, false))
	}
	var geometry any
	if it.Geometry != nil {
		geometry = it.Geometry
	}
	obj := ObjectOf(
		"name", it.Name,
		"collection", it.Collection,
		"feature_type", "Feature",
		"stac_version", stac.Version,
		"geometry", geometry,
		"bbox", Bbox(it.Geometry),
		"properties", itemProperties(it),
		"stac_extensions", extensions(),
		"links", userLinks(it.Links),
		"assets", DictKeyed(entries, "id"),
	)
	out := FilterNull(ItemFields.Externalize(obj), "links")
	Inject(out, l.ItemLinks(it.Collection, it.Name))
	return out
}

func itemProperties(it *stac.Item) *Object {
	p := it.Properties
	var gsd any
	if p.EOGSD != nil {
		gsd = *p.EOGSD
	}
	return ItemPropertiesFields.Externalize(ObjectOf(
		"datetime", formatTimePtr(p.Datetime),
		"start_datetime", formatTimePtr(p.StartDatetime),
		"end_datetime", formatTimePtr(p.EndDatetime),
		"eo_gsd", gsd,
		"title", optString(p.Title),
		"created", FormatTime(it.Created),
		"updated", FormatTime(it.Updated),
	))
}

// Asset renders a standalone asset with its navigational links.
func Asset(a *stac.Asset, l Linker) *Object {
	out := assetFields(a, true)
	out.Set("links", []*Object{})
	Inject(out, l.AssetLinks(a.Collection, a.Item, a.Name))
	return out
}

// AssetEntry renders an asset as listed in an assets dictionary, still
// carrying its "id" so it can be keyed with DictKeyed.
func AssetEntry(a *stac.Asset) *Object {
	return assetFields(a, true)
}

func assetFields(a *stac.Asset, timestamps bool) *Object {
	var gsd, epsg any
	if a.EOGSD != nil {
		gsd = *a.EOGSD
	}
	if a.ProjEPSG != nil {
		epsg = *a.ProjEPSG
	}
	obj := ObjectOf(
		"name", a.Name,
		"title", optString(a.Title),
		"media_type", a.MediaType,
		"href", a.Href,
		"description", optString(a.Description),
		"eo_gsd", gsd,
		"geoadmin_lang", optString(a.GeoadminLang),
		"geoadmin_variant", optString(a.GeoadminVariant),
		"proj_epsg", epsg,
		"checksum_multihash", optString(a.ChecksumMultihash),
	)
	if timestamps {
		obj.Set("created", FormatTime(a.Created))
		obj.Set("updated", FormatTime(a.Updated))
	}
	return FilterNull(AssetFields.Externalize(obj))
}

// CollectionList wraps rendered collections in the collections envelope.
func CollectionList(collections []*Object, links []*Object) *Object {
	if collections == nil {
		collections = []*Object{}
	}
	return ObjectOf("collections", collections, "links", nonNilLinks(links))
}

// FeatureCollection wraps rendered items in a GeoJSON FeatureCollection.
func FeatureCollection(features []*Object, links []*Object, now time.Time) *Object {
	if features == nil {
		features = []*Object{}
	}
	return ObjectOf(
		"type", "FeatureCollection",
		"timeStamp", FormatTime(now),
		"features", features,
		"links", nonNilLinks(links),
	)
}

// AssetList wraps the assets of one item, keyed by asset id.
func AssetList(assets []*stac.Asset, links []*Object) *Object {
	entries := make([]*Object, 0, len(assets))
	for _, a := range assets {
		entries = append(entries, AssetEntry(a))
	}
	return ObjectOf("assets", DictKeyed(entries, "id"), "links", nonNilLinks(links))
}

// Landing renders the landing page document.
func Landing(cat *stac.Catalog, l Linker) *Object {
	links := []*Object{
		LinkObject("self", l.Root()),
		LinkObject("root", l.Root()),
		LinkObject("conformance", l.URL("conformance")),
		LinkObject("data", l.URL("collections")),
		LinkObject("search", l.URL("search")),
	}
	return FilterNull(ObjectOf(
		"id", cat.ID,
		"title", optString(cat.Title),
		"description", cat.Description,
		"stac_version", stac.Version,
		"links", links,
	), "links")
}

// Conformance renders the conformance page.
func Conformance(conformsTo []string) *Object {
	if conformsTo == nil {
		conformsTo = []string{}
	}
	return ObjectOf("conformsTo", conformsTo)
}

// Deleted renders the body of a successful delete.
func Deleted(id string, parent string) *Object {
	return ObjectOf(
		"code", 200,
		"description", id+" successfully deleted",
		"links", []*Object{LinkObject("parent", parent)},
	)
}

func nonNilLinks(links []*Object) []*Object {
	if links == nil {
		return []*Object{}
	}
	return links
}
