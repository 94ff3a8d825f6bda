package stac

import (
	"math"
	"slices"
	"time"

	"github.com/paulmach/orb"
)

// Extent caches the spatial and temporal coverage of a Collection's items.
// A nil Bbox means the collection has no item with a geometry.
type Extent struct {
	Bbox  *orb.Bound `json:"bbox,omitempty"`
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Summaries aggregates the distinct asset values of a Collection.
type Summaries struct {
	EOGSD           []float64 `json:"eo_gsd"`
	GeoadminVariant []string  `json:"geoadmin_variant"`
	ProjEPSG        []int     `json:"proj_epsg"`
}

// ComputeExtent derives a collection extent from all of its items.
func ComputeExtent(items []*Item) Extent {
	var ext Extent
	for _, it := range items {
		start, end := it.Range()
		if start != nil && (ext.Start == nil || start.Before(*ext.Start)) {
			ext.Start = cloneTime(start)
		}
		if end != nil && (ext.End == nil || end.After(*ext.End)) {
			ext.End = cloneTime(end)
		}
		if b, ok := it.Bound(); ok {
			if ext.Bbox == nil {
				ext.Bbox = &b
			} else {
				u := ext.Bbox.Union(b)
				ext.Bbox = &u
			}
		}
	}
	return ext
}

// ComputeSummaries derives collection summaries from all assets of all of
// its items. Values are distinct and sorted ascending.
func ComputeSummaries(assets []*Asset) Summaries {
	s := Summaries{
		EOGSD:           []float64{},
		GeoadminVariant: []string{},
		ProjEPSG:        []int{},
	}
	for _, a := range assets {
		if a.EOGSD != nil && !floatIn(*a.EOGSD, s.EOGSD) {
			s.EOGSD = append(s.EOGSD, *a.EOGSD)
		}
		if a.GeoadminVariant != "" && !slices.Contains(s.GeoadminVariant, a.GeoadminVariant) {
			s.GeoadminVariant = append(s.GeoadminVariant, a.GeoadminVariant)
		}
		if a.ProjEPSG != nil && !slices.Contains(s.ProjEPSG, *a.ProjEPSG) {
			s.ProjEPSG = append(s.ProjEPSG, *a.ProjEPSG)
		}
	}
	slices.Sort(s.EOGSD)
	slices.Sort(s.GeoadminVariant)
	slices.Sort(s.ProjEPSG)
	return s
}

// MinGSD returns the smallest ground sample distance among assets, or nil.
func MinGSD(assets []*Asset) *float64 {
	var best *float64
	for _, a := range assets {
		if a.EOGSD == nil {
			continue
		}
		if best == nil || *a.EOGSD < *best {
			v := *a.EOGSD
			best = &v
		}
	}
	return best
}

// floatIn reports whether f is close to one of values within a relative
// tolerance of 1e-5 and an absolute tolerance of 1e-8.
func floatIn(f float64, values []float64) bool {
	const rtol, atol = 1e-05, 1e-08
	for _, v := range values {
		if math.Abs(f-v) <= atol+rtol*math.Abs(v) {
			return true
		}
	}
	return false
}

func (e Extent) clone() Extent {
	if e.Bbox != nil {
		b := *e.Bbox
		e.Bbox = &b
	}
	e.Start = cloneTime(e.Start)
	e.End = cloneTime(e.End)
	return e
}

func (s Summaries) clone() Summaries {
	return Summaries{
		EOGSD:           slices.Clone(s.EOGSD),
		GeoadminVariant: slices.Clone(s.GeoadminVariant),
		ProjEPSG:        slices.Clone(s.ProjEPSG),
	}
}
