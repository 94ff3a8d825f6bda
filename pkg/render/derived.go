package render

import (
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

// TimeLayout is the ISO-8601 UTC layout of every emitted timestamp.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

// FormatTime formats t in UTC with microsecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// formatTimePtr is FormatTime returning nil for a nil time.
func formatTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatTime(*t)
}

// Bbox returns [minx, miny, maxx, maxy] of geom, or [[]] when geom is nil.
func Bbox(geom *geojson.Geometry) any {
	if geom == nil || geom.Geometry() == nil {
		return [][]float64{{}}
	}
	b := geom.Geometry().Bound()
	return []float64{b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y()}
}

// Extent renders a collection extent:
//
//	{"spatial": {"bbox": [[minx, miny, maxx, maxy]]},
//	 "temporal": {"interval": [[start, end]]}}
//
// The spatial bbox is [[]] when no item has a geometry. Start and end are
// null independently.
func Extent(e stac.Extent) *Object {
	var bbox any = [][]float64{{}}
	if e.Bbox != nil {
		bbox = [][]float64{{e.Bbox.Min.X(), e.Bbox.Min.Y(), e.Bbox.Max.X(), e.Bbox.Max.Y()}}
	}
	return ObjectOf(
		"spatial", ObjectOf("bbox", bbox),
		"temporal", ObjectOf("interval", [][]any{{formatTimePtr(e.Start), formatTimePtr(e.End)}}),
	)
}

// Summaries renders collection summaries with their external keys.
func Summaries(s stac.Summaries) *Object {
	return SummariesFields.Externalize(ObjectOf(
		"eo_gsd", s.EOGSD,
		"geoadmin_variant", s.GeoadminVariant,
		"proj_epsg", s.ProjEPSG,
	))
}

// extensions returns a fresh copy of the static stac_extensions list.
func extensions() []string {
	out := make([]string, len(stac.DefaultExtensions))
	copy(out, stac.DefaultExtensions)
	return out
}
