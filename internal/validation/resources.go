package validation

import (
	"github.com/robert-malhotra/go-stac-api/pkg/apierr"
	"github.com/robert-malhotra/go-stac-api/pkg/render"
	"github.com/robert-malhotra/go-stac-api/pkg/stac"
)

// Required fields per resource and mode, as internal keys.
var (
	collectionRequired = map[render.Mode][]string{
		render.Create:  {"name", "description", "license"},
		render.Replace: {"description", "license"},
	}
	itemRequired = map[render.Mode][]string{
		render.Create:  {"name"},
		render.Replace: {},
	}
	assetRequired = map[render.Mode][]string{
		render.Create:  {"name", "media_type", "href"},
		render.Replace: {"media_type", "href"},
	}
	// never null or blank when given
	collectionNotNull = []string{"name", "description", "license"}
	assetNotNull      = []string{"name", "media_type", "href"}
)

// Collection validates a collection payload for mode.
func Collection(in *render.CollectionInput, mode render.Mode) error {
	msgs := presenceMessages(render.CollectionFields, in.Present, mode, collectionRequired[mode], collectionNotNull,
		map[string]string{"name": in.Name, "description": in.Description, "license": in.License})
	return merge(msgs, Struct(in))
}

// Item validates an item payload for mode. The datetime rules depend on the
// stored properties and are checked with ItemProperties after the payload
// is applied.
func Item(in *render.ItemInput, mode render.Mode) error {
	msgs := presenceMessages(render.ItemFields, in.Present, mode, itemRequired[mode], []string{"name"},
		map[string]string{"name": in.Name})
	if mode != render.Merge && !in.Present.Has("properties") {
		msgs = append(msgs, "properties: This field is required.")
	}
	return merge(msgs, Struct(in))
}

// Asset validates an asset payload for mode.
func Asset(in *render.AssetInput, mode render.Mode) error {
	msgs := presenceMessages(render.AssetFields, in.Present, mode, assetRequired[mode], assetNotNull,
		map[string]string{"name": in.Name, "media_type": in.MediaType, "href": in.Href})
	return merge(msgs, Struct(in))
}

// ItemProperties checks that an item has either a datetime or a complete
// start/end range, never both, and that the range is ordered.
func ItemProperties(p stac.ItemProperties) error {
	if p.Datetime != nil {
		if p.StartDatetime != nil || p.EndDatetime != nil {
			return apierr.Validation("properties: Cannot provide together property datetime with datetime range (start_datetime, end_datetime)")
		}
		return nil
	}
	if p.EndDatetime == nil {
		return apierr.Validation("properties: Property end_datetime can't be null when no property datetime is given")
	}
	if p.StartDatetime == nil {
		return apierr.Validation("properties: Property start_datetime can't be null when no property datetime is given")
	}
	if p.EndDatetime.Before(*p.StartDatetime) {
		return apierr.Validation("properties: Property end_datetime can't refer to a date earlier than property start_datetime")
	}
	return nil
}

func presenceMessages(table *render.FieldTable, present render.Presence, mode render.Mode,
	required, notNull []string, values map[string]string) []string {
	var msgs []string
	for _, key := range required {
		if !present.Has(key) {
			msgs = append(msgs, table.ExternalName(key)+": This field is required.")
		}
	}
	for _, key := range notNull {
		switch {
		case present.IsNull(key):
			msgs = append(msgs, table.ExternalName(key)+": This field may not be null.")
		case present.Has(key) && values[key] == "":
			msgs = append(msgs, table.ExternalName(key)+": This field may not be blank.")
		}
	}
	return msgs
}

func merge(msgs []string, err error) error {
	if err != nil {
		if verr, ok := err.(*apierr.ValidationError); ok {
			msgs = append(msgs, verr.Messages...)
		} else {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return apierr.Validation(msgs...)
}
