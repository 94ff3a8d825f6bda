package stac

import "time"

// Version is the STAC version advertised by every rendered resource.
const Version = "0.9.0"

// CRS84 is the only coordinate reference system the API serves.
const CRS84 = "http://www.opengis.net/def/crs/OGC/1.3/CRS84"

// DefaultExtensions is the stac_extensions list emitted on Collections and
// Items. Extensions are not negotiated per resource.
var DefaultExtensions = []string{
	"eo",
	"proj",
	"https://data.geo.admin.ch/stac/geoadmin-extension/1.0/schema.json",
}

// Collection groups Items and carries the aggregated metadata derived from
// them. Summaries and Extent are owned by the store and recomputed whenever
// a child Item or Asset changes.
type Collection struct {
	Name        string     `json:"name"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description"`
	License     string     `json:"license"`
	Created     time.Time  `json:"created"`
	Updated     time.Time  `json:"updated"`
	Providers   []Provider `json:"providers,omitempty"`
	Links       []Link     `json:"links,omitempty"`
	Summaries   Summaries  `json:"summaries"`
	Extent      Extent     `json:"extent"`
	ETag        string     `json:"etag"`
}

// Touch marks the collection as changed at now.
func (c *Collection) Touch(now time.Time) {
	c.Updated = now.UTC()
	c.ETag = NewETag()
}

// Clone returns a deep copy of c.
func (c *Collection) Clone() *Collection {
	if c == nil {
		return nil
	}
	out := *c
	if c.Providers != nil {
		out.Providers = make([]Provider, len(c.Providers))
		for i, p := range c.Providers {
			out.Providers[i] = p.clone()
		}
	}
	out.Links = cloneLinks(c.Links)
	out.Summaries = c.Summaries.clone()
	out.Extent = c.Extent.clone()
	return &out
}
