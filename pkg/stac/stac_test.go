package stac

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrTime(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func ptrFloat(f float64) *float64 { return &f }

func ptrInt(i int) *int { return &i }

func TestUpsertProviders(t *testing.T) {
	t.Run("replaces the full set", func(t *testing.T) {
		current := []Provider{
			{Name: "A", Roles: []string{"licensor"}},
			{Name: "B", Description: "old"},
		}
		incoming := []Provider{
			{Name: "B", Description: "new", Roles: []string{"host"}},
			{Name: "C", Url: "https://example.com"},
		}

		got, deleted := UpsertProviders(current, incoming)

		require.Len(t, got, 2)
		assert.Equal(t, "B", got[0].Name)
		assert.Equal(t, "new", got[0].Description)
		assert.Equal(t, []string{"host"}, got[0].Roles)
		assert.Equal(t, "C", got[1].Name)
		assert.Equal(t, []string{"A"}, deleted)
	})

	t.Run("keeps existing order for matches", func(t *testing.T) {
		current := []Provider{{Name: "A"}, {Name: "B"}}
		incoming := []Provider{{Name: "C"}, {Name: "B"}, {Name: "A"}}

		got, deleted := UpsertProviders(current, incoming)

		names := make([]string, len(got))
		for i, p := range got {
			names[i] = p.Name
		}
		assert.Equal(t, []string{"A", "B", "C"}, names)
		assert.Empty(t, deleted)
	})

	t.Run("empty payload deletes everything", func(t *testing.T) {
		got, deleted := UpsertProviders([]Provider{{Name: "A"}}, nil)
		assert.Empty(t, got)
		assert.Equal(t, []string{"A"}, deleted)
	})

	t.Run("result does not alias input roles", func(t *testing.T) {
		incoming := []Provider{{Name: "A", Roles: []string{"host"}}}
		got, _ := UpsertProviders(nil, incoming)
		got[0].Roles[0] = "licensor"
		assert.Equal(t, "host", incoming[0].Roles[0])
	})
}

func TestItemRange(t *testing.T) {
	tests := []struct {
		name      string
		props     ItemProperties
		wantStart *time.Time
		wantEnd   *time.Time
	}{
		{
			name:      "single datetime",
			props:     ItemProperties{Datetime: ptrTime("2020-01-01T00:00:00Z")},
			wantStart: ptrTime("2020-01-01T00:00:00Z"),
			wantEnd:   ptrTime("2020-01-01T00:00:00Z"),
		},
		{
			name: "datetime range",
			props: ItemProperties{
				StartDatetime: ptrTime("2020-01-01T00:00:00Z"),
				EndDatetime:   ptrTime("2020-02-01T00:00:00Z"),
			},
			wantStart: ptrTime("2020-01-01T00:00:00Z"),
			wantEnd:   ptrTime("2020-02-01T00:00:00Z"),
		},
		{
			name: "nothing set",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := &Item{Properties: tt.props}
			start, end := it.Range()
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
		})
	}
}

func TestComputeExtent(t *testing.T) {
	t.Run("no items", func(t *testing.T) {
		ext := ComputeExtent(nil)
		assert.Nil(t, ext.Bbox)
		assert.Nil(t, ext.Start)
		assert.Nil(t, ext.End)
	})

	t.Run("union of items", func(t *testing.T) {
		items := []*Item{
			{
				Geometry:   geojson.NewGeometry(orb.Point{1, 2}),
				Properties: ItemProperties{Datetime: ptrTime("2020-03-01T00:00:00Z")},
			},
			{
				Geometry: geojson.NewGeometry(orb.Polygon{{{5, 5}, {7, 5}, {7, 8}, {5, 8}, {5, 5}}}),
				Properties: ItemProperties{
					StartDatetime: ptrTime("2019-12-01T00:00:00Z"),
					EndDatetime:   ptrTime("2020-01-01T00:00:00Z"),
				},
			},
			{
				Properties: ItemProperties{Datetime: ptrTime("2021-01-01T00:00:00Z")},
			},
		}

		ext := ComputeExtent(items)

		require.NotNil(t, ext.Bbox)
		assert.Equal(t, orb.Point{1, 2}, ext.Bbox.Min)
		assert.Equal(t, orb.Point{7, 8}, ext.Bbox.Max)
		assert.Equal(t, ptrTime("2019-12-01T00:00:00Z"), ext.Start)
		assert.Equal(t, ptrTime("2021-01-01T00:00:00Z"), ext.End)
	})
}

func TestComputeSummaries(t *testing.T) {
	assets := []*Asset{
		{EOGSD: ptrFloat(3.4), GeoadminVariant: "kgrs", ProjEPSG: ptrInt(2056)},
		{EOGSD: ptrFloat(0.5), GeoadminVariant: "komb", ProjEPSG: ptrInt(2056)},
		{EOGSD: ptrFloat(3.4000000001)},
		{},
	}

	s := ComputeSummaries(assets)

	assert.Equal(t, []float64{0.5, 3.4}, s.EOGSD)
	assert.Equal(t, []string{"kgrs", "komb"}, s.GeoadminVariant)
	assert.Equal(t, []int{2056}, s.ProjEPSG)

	empty := ComputeSummaries(nil)
	assert.NotNil(t, empty.EOGSD)
	assert.Empty(t, empty.EOGSD)
}

func TestMinGSD(t *testing.T) {
	assert.Nil(t, MinGSD(nil))
	assert.Nil(t, MinGSD([]*Asset{{}}))

	got := MinGSD([]*Asset{{EOGSD: ptrFloat(2)}, {EOGSD: ptrFloat(0.25)}, {}})
	require.NotNil(t, got)
	assert.Equal(t, 0.25, *got)
}

func TestClone(t *testing.T) {
	t.Run("collection", func(t *testing.T) {
		c := &Collection{
			Name:      "c",
			Providers: []Provider{{Name: "p", Roles: []string{"host"}}},
			Links:     []Link{{Href: "https://example.com", Rel: "license"}},
			Summaries: Summaries{ProjEPSG: []int{2056}},
		}
		cp := c.Clone()
		cp.Providers[0].Roles[0] = "licensor"
		cp.Links[0].Rel = "describedby"
		cp.Summaries.ProjEPSG[0] = 4326

		assert.Equal(t, "host", c.Providers[0].Roles[0])
		assert.Equal(t, "license", c.Links[0].Rel)
		assert.Equal(t, 2056, c.Summaries.ProjEPSG[0])
	})

	t.Run("item", func(t *testing.T) {
		it := &Item{
			Name:       "i",
			Geometry:   geojson.NewGeometry(orb.Point{1, 2}),
			Properties: ItemProperties{Datetime: ptrTime("2020-01-01T00:00:00Z")},
		}
		cp := it.Clone()
		*cp.Properties.Datetime = time.Time{}
		assert.Equal(t, ptrTime("2020-01-01T00:00:00Z"), it.Properties.Datetime)
		assert.Equal(t, orb.Point{1, 2}, cp.Geometry.Geometry())
	})

	t.Run("nil", func(t *testing.T) {
		var c *Collection
		assert.Nil(t, c.Clone())
	})
}

func TestReservedRels(t *testing.T) {
	assert.True(t, IsReservedRel("self"))
	assert.True(t, IsReservedRel("conformance"))
	assert.False(t, IsReservedRel("license"))
}

func TestIsMediaType(t *testing.T) {
	assert.True(t, IsMediaType("image/tiff; application=geotiff; profile=cloud-optimized"))
	assert.False(t, IsMediaType("image/png"))
}
