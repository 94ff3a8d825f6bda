package stac

import (
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Item is a GeoJSON Feature belonging to exactly one Collection.
type Item struct {
	Collection string            `json:"collection"`
	Name       string            `json:"name"`
	Geometry   *geojson.Geometry `json:"geometry,omitempty"`
	Properties ItemProperties    `json:"properties"`
	Links      []Link            `json:"links,omitempty"`
	Created    time.Time         `json:"created"`
	Updated    time.Time         `json:"updated"`
	ETag       string            `json:"etag"`
}

// ItemProperties holds the properties member of an Item. Either Datetime or
// both StartDatetime and EndDatetime are set. EOGSD is derived from the
// Item's assets.
type ItemProperties struct {
	Datetime      *time.Time `json:"datetime,omitempty"`
	StartDatetime *time.Time `json:"start_datetime,omitempty"`
	EndDatetime   *time.Time `json:"end_datetime,omitempty"`
	Title         string     `json:"title,omitempty"`
	EOGSD         *float64   `json:"eo_gsd,omitempty"`
}

// Key is the total-order key of the item across collections.
func (it *Item) Key() string {
	return ItemKey(it.Collection, it.Name)
}

// ItemKey builds the key used to order items.
func ItemKey(collection, name string) string {
	return collection + "/" + name
}

// Range returns the time span covered by the item: its start and end
// datetimes when both are set, otherwise its datetime for both bounds.
func (it *Item) Range() (start, end *time.Time) {
	p := it.Properties
	if p.StartDatetime != nil && p.EndDatetime != nil {
		return p.StartDatetime, p.EndDatetime
	}
	return p.Datetime, p.Datetime
}

// Bound returns the bounding box of the item geometry; ok is false when the
// item has no geometry.
func (it *Item) Bound() (b orb.Bound, ok bool) {
	if it.Geometry == nil {
		return orb.Bound{}, false
	}
	g := it.Geometry.Geometry()
	if g == nil {
		return orb.Bound{}, false
	}
	return g.Bound(), true
}

// Touch marks the item as changed at now.
func (it *Item) Touch(now time.Time) {
	it.Updated = now.UTC()
	it.ETag = NewETag()
}

// Clone returns a deep copy of it.
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	out := *it
	if it.Geometry != nil {
		if g := it.Geometry.Geometry(); g != nil {
			out.Geometry = geojson.NewGeometry(orb.Clone(g))
		}
	}
	out.Properties = it.Properties.clone()
	out.Links = cloneLinks(it.Links)
	return &out
}

func (p ItemProperties) clone() ItemProperties {
	p.Datetime = cloneTime(p.Datetime)
	p.StartDatetime = cloneTime(p.StartDatetime)
	p.EndDatetime = cloneTime(p.EndDatetime)
	if p.EOGSD != nil {
		v := *p.EOGSD
		p.EOGSD = &v
	}
	return p
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
