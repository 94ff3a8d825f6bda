package render

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-json"
	"github.com/paulmach/orb/geojson"

	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

// Mode selects how a decoded payload is applied to a stored resource.
type Mode int

const (
	// Create builds a new resource; every required field must be given.
	Create Mode = iota
	// Replace overwrites every writable field; absent optional fields are cleared.
	Replace
	// Merge only changes the fields present in the payload.
	Merge
)

func (m Mode) String() string {
	switch m {
	case Create:
		return "create"
	case Replace:
		return "replace"
	case Merge:
		return "merge"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Presence records which internal keys a payload carried. The value is
// false when the key was given as null. Nested keys are joined with ".".
type Presence map[string]bool

// Has reports whether key was given, null or not.
func (p Presence) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// IsNull reports whether key was given as null.
func (p Presence) IsNull(key string) bool {
	v, ok := p[key]
	return ok && !v
}

func (p Presence) record(prefix string, in map[string]any) {
	for k, v := range in {
		p[prefix+k] = v != nil
	}
}

// LinkInput is a user link in a write payload.
type LinkInput struct {
	Href     string `mapstructure:"href" json:"href" validate:"required,url"`
	Rel      string `mapstructure:"rel" json:"rel" validate:"required,max=30,linkrel"`
	LinkType string `mapstructure:"link_type" json:"type" validate:"max=255"`
	Title    string `mapstructure:"title" json:"title" validate:"max=255"`
}

// ProviderInput is a provider in a collection write payload.
type ProviderInput struct {
	Name        string   `mapstructure:"name" json:"name" validate:"required,max=200"`
	Description string   `mapstructure:"description" json:"description"`
	Roles       []string `mapstructure:"roles" json:"roles" validate:"dive,oneof=licensor producer processor host"`
	Url         string   `mapstructure:"url" json:"url" validate:"omitempty,url,max=2048"`
}

// CollectionInput is a decoded collection write payload.
type CollectionInput struct {
	Name        string          `mapstructure:"name" json:"id" validate:"omitempty,stacname,max=255"`
	Title       string          `mapstructure:"title" json:"title" validate:"max=255"`
	Description string          `mapstructure:"description" json:"description"`
	License     string          `mapstructure:"license" json:"license" validate:"max=30"`
	Providers   []ProviderInput `mapstructure:"providers" json:"providers" validate:"dive"`
	Links       []LinkInput     `mapstructure:"links" json:"links" validate:"dive"`

	Present Presence `mapstructure:"-" json:"-" validate:"-"`
}

// ItemPropertiesInput is the properties member of an item write payload.
type ItemPropertiesInput struct {
	Datetime      string `mapstructure:"datetime" json:"datetime" validate:"omitempty,rfc3339"`
	StartDatetime string `mapstructure:"start_datetime" json:"start_datetime" validate:"omitempty,rfc3339"`
	EndDatetime   string `mapstructure:"end_datetime" json:"end_datetime" validate:"omitempty,rfc3339"`
	Title         string `mapstructure:"title" json:"title" validate:"max=255"`
}

// ItemInput is a decoded item write payload.
type ItemInput struct {
	Name       string              `mapstructure:"name" json:"id" validate:"omitempty,stacname,max=255"`
	Properties ItemPropertiesInput `mapstructure:"properties" json:"properties"`
	Links      []LinkInput         `mapstructure:"links" json:"links" validate:"dive"`

	Geometry *geojson.Geometry `mapstructure:"-" json:"-" validate:"-"`
	Present  Presence          `mapstructure:"-" json:"-" validate:"-"`
}

// AssetInput is a decoded asset write payload.
type AssetInput struct {
	Name              string   `mapstructure:"name" json:"id" validate:"omitempty,stacname,max=255"`
	Title             string   `mapstructure:"title" json:"title" validate:"max=255"`
	Description       string   `mapstructure:"description" json:"description"`
	MediaType         string   `mapstructure:"media_type" json:"type" validate:"omitempty,mediatype"`
	Href              string   `mapstructure:"href" json:"href" validate:"omitempty,url,max=255"`
	EOGSD             *float64 `mapstructure:"eo_gsd" json:"eo:gsd"`
	GeoadminLang      string   `mapstructure:"geoadmin_lang" json:"geoadmin:lang" validate:"omitempty,oneof=de it fr rm en"`
	GeoadminVariant   string   `mapstructure:"geoadmin_variant" json:"geoadmin:variant" validate:"omitempty,geoadminvariant"`
	ProjEPSG          *int     `mapstructure:"proj_epsg" json:"proj:epsg"`
	ChecksumMultihash string   `mapstructure:"checksum_multihash" json:"checksum:multihash" validate:"omitempty,multihash"`

	Present Presence `mapstructure:"-" json:"-" validate:"-"`
}

// DecodeCollection parses a collection write payload.
func DecodeCollection(body []byte) (*CollectionInput, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	in := &CollectionInput{Present: Presence{}}
	data := CollectionFields.Internalize(raw)
	in.Present.record("", data)
	if err := internalizeList(data, "links", LinkFields); err != nil {
		return nil, err
	}
	if err := internalizeList(data, "providers", ProviderFields); err != nil {
		return nil, err
	}
	if err := decodeInto(data, in); err != nil {
		return nil, err
	}
	return in, nil
}

// DecodeItem parses an item write payload.
func DecodeItem(body []byte) (*ItemInput, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	in := &ItemInput{Present: Presence{}}
	data := ItemFields.Internalize(raw)
	in.Present.record("", data)
	if props, ok := data["properties"].(map[string]any); ok {
		props = ItemPropertiesFields.Internalize(props)
		in.Present.record("properties.", props)
		data["properties"] = props
	} else if data["properties"] != nil {
		return nil, apierr.Validation("properties: Expected a dictionary of items.")
	}
	if err := internalizeList(data, "links", LinkFields); err != nil {
		return nil, err
	}
	if g := data["geometry"]; g != nil {
		in.Geometry, err = parseGeometry(g)
		if err != nil {
			return nil, err
		}
	}
	delete(data, "geometry")
	if err := decodeInto(data, in); err != nil {
		return nil, err
	}
	return in, nil
}

// DecodeAsset parses an asset write payload.
func DecodeAsset(body []byte) (*AssetInput, error) {
	raw, err := decodeObject(body)
	if err != nil {
		return nil, err
	}
	in := &AssetInput{Present: Presence{}}
	data := AssetFields.Internalize(raw)
	in.Present.record("", data)
	if v, ok := data["proj_epsg"].(float64); ok && v != math.Trunc(v) {
		return nil, apierr.Validation("proj:epsg: A valid integer is required.")
	}
	if err := decodeInto(data, in); err != nil {
		return nil, err
	}
	return in, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, apierr.Validation("JSON parse error - " + err.Error())
	}
	if raw == nil {
		return nil, apierr.Validation("Invalid data. Expected a dictionary, but got null.")
	}
	return raw, nil
}

func internalizeList(data map[string]any, key string, table *FieldTable) error {
	v, ok := data[key]
	if !ok || v == nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return apierr.Validation(fmt.Sprintf("%s: Expected a list of items.", key))
	}
	out := make([]any, len(list))
	for i, e := range list {
		m, ok := e.(map[string]any)
		if !ok {
			return apierr.Validation(fmt.Sprintf("%s: Expected a dictionary of items.", key))
		}
		out[i] = table.Internalize(m)
	}
	data[key] = out
	return nil
}

func parseGeometry(v any) (*geojson.Geometry, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, apierr.Validation("geometry: Invalid geometry.")
	}
	g, err := geojson.UnmarshalGeometry(b)
	if err != nil || g.Geometry() == nil {
		return nil, apierr.Validation("geometry: Invalid geometry.")
	}
	if g.Geometry().Bound().IsEmpty() {
		return nil, apierr.Validation("geometry: Invalid geometry.")
	}
	return g, nil
}

func decodeInto(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  out,
		TagName: "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(data); err != nil {
		return apierr.Validation(err.Error())
	}
	return nil
}

// Apply writes the payload to c according to mode and returns the names of
// providers the payload removed.
func (in *CollectionInput) Apply(c *stac.Collection, mode Mode) []string {
	set := func(key string) bool { return mode != Merge || in.Present.Has(key) }
	if mode == Create {
		c.Name = in.Name
	}
	if set("title") {
		c.Title = in.Title
	}
	if set("description") {
		c.Description = in.Description
	}
	if set("license") {
		c.License = in.License
	}
	if set("links") {
		c.Links = toLinks(in.Links)
	}
	var deleted []string
	if set("providers") {
		incoming := make([]stac.Provider, len(in.Providers))
		for i, p := range in.Providers {
			incoming[i] = stac.Provider{Name: p.Name, Description: p.Description, Roles: p.Roles, Url: p.Url}
		}
		c.Providers, deleted = stac.UpsertProviders(c.Providers, incoming)
	}
	return deleted
}

// Apply writes the payload to it according to mode.
func (in *ItemInput) Apply(it *stac.Item, mode Mode) error {
	set := func(key string) bool { return mode != Merge || in.Present.Has(key) }
	if mode == Create {
		it.Name = in.Name
	}
	if set("geometry") {
		it.Geometry = in.Geometry
	}
	if set("links") {
		it.Links = toLinks(in.Links)
	}
	if mode == Merge && !in.Present.Has("properties") {
		return nil
	}
	p := &it.Properties
	var err error
	if set("properties.datetime") {
		if p.Datetime, err = parseTime(in.Properties.Datetime); err != nil {
			return apierr.Validation("properties.datetime: " + err.Error())
		}
	}
	if set("properties.start_datetime") {
		if p.StartDatetime, err = parseTime(in.Properties.StartDatetime); err != nil {
			return apierr.Validation("properties.start_datetime: " + err.Error())
		}
	}
	if set("properties.end_datetime") {
		if p.EndDatetime, err = parseTime(in.Properties.EndDatetime); err != nil {
			return apierr.Validation("properties.end_datetime: " + err.Error())
		}
	}
	if set("properties.title") {
		p.Title = in.Properties.Title
	}
	return nil
}

// Apply writes the payload to a according to mode.
func (in *AssetInput) Apply(a *stac.Asset, mode Mode) {
	set := func(key string) bool { return mode != Merge || in.Present.Has(key) }
	if mode == Create {
		a.Name = in.Name
	}
	if set("title") {
		a.Title = in.Title
	}
	if set("description") {
		a.Description = in.Description
	}
	if set("media_type") {
		a.MediaType = in.MediaType
	}
	if set("href") {
		a.Href = in.Href
	}
	if set("eo_gsd") {
		a.EOGSD = in.EOGSD
	}
	if set("geoadmin_lang") {
		a.GeoadminLang = in.GeoadminLang
	}
	if set("geoadmin_variant") {
		a.GeoadminVariant = in.GeoadminVariant
	}
	if set("proj_epsg") {
		a.ProjEPSG = in.ProjEPSG
	}
	if set("checksum_multihash") {
		a.ChecksumMultihash = in.ChecksumMultihash
	}
}

func toLinks(in []LinkInput) []stac.Link {
	if len(in) == 0 {
		return nil
	}
	out := make([]stac.Link, len(in))
	for i, l := range in {
		out[i] = stac.Link{Href: l.Href, Rel: l.Rel, Type: l.LinkType, Title: l.Title}
	}
	return out
}

var errInvalidTime = errors.New("Datetime has wrong format. Use one of these formats instead: YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z].")

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, errInvalidTime
	}
	t = t.UTC()
	return &t, nil
}
