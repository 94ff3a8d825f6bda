package render

import "fmt"

// Field pairs an internal field identifier with its external STAC key.
type Field struct {
	Internal string
	External string
}

// FieldTable is the static bidirectional key mapping of one resource type.
type FieldTable struct {
	name       string
	fields     []Field
	toExternal map[string]string
	toInternal map[string]string
}

// NewFieldTable builds a table from fields. Duplicate internal or external
// keys panic.
func NewFieldTable(name string, fields ...Field) *FieldTable {
	t := &FieldTable{
		name:       name,
		fields:     fields,
		toExternal: make(map[string]string, len(fields)),
		toInternal: make(map[string]string, len(fields)),
	}
	for _, f := range fields {
		if _, dup := t.toExternal[f.Internal]; dup {
			panic(fmt.Sprintf("render: %s table: duplicate internal key %q", name, f.Internal))
		}
		if _, dup := t.toInternal[f.External]; dup {
			panic(fmt.Sprintf("render: %s table: duplicate external key %q", name, f.External))
		}
		t.toExternal[f.Internal] = f.External
		t.toInternal[f.External] = f.Internal
	}
	return t
}

// same lists fields whose internal and external keys are identical.
func same(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Field{Internal: n, External: n}
	}
	return out
}

func fields(groups ...[]Field) []Field {
	var out []Field
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// Name returns the resource type the table belongs to.
func (t *FieldTable) Name() string { return t.name }

// Fields returns the table entries in declaration order.
func (t *FieldTable) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// External returns the external key of an internal field.
func (t *FieldTable) External(internal string) (string, bool) {
	ext, ok := t.toExternal[internal]
	return ext, ok
}

// Internal returns the internal field of an external key.
func (t *FieldTable) Internal(external string) (string, bool) {
	in, ok := t.toInternal[external]
	return in, ok
}

// ExternalName is External falling back to the internal name itself.
func (t *FieldTable) ExternalName(internal string) string {
	if ext, ok := t.toExternal[internal]; ok {
		return ext
	}
	return internal
}

// Externalize returns a copy of obj with its keys renamed to external keys.
// Keys outside the table are kept as they are.
func (t *FieldTable) Externalize(obj *Object) *Object {
	out := NewObject()
	for p := obj.Oldest(); p != nil; p = p.Next() {
		out.Set(t.ExternalName(p.Key), p.Value)
	}
	return out
}

// Internalize renames the keys of an input payload to internal fields.
// Unknown keys are dropped.
func (t *FieldTable) Internalize(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if internal, ok := t.toInternal[k]; ok {
			out[internal] = v
		}
	}
	return out
}

var (
	CollectionFields = NewFieldTable("collection", fields(
		same("stac_version", "stac_extensions"),
		[]Field{{"name", "id"}},
		same("title", "description", "summaries", "extent", "providers", "license",
			"created", "updated", "links", "crs"),
		[]Field{{"item_type", "itemType"}},
	)...)

	ItemFields = NewFieldTable("item", fields(
		[]Field{{"name", "id"}},
		same("collection"),
		[]Field{{"feature_type", "type"}},
		same("stac_version", "geometry", "bbox", "properties", "stac_extensions", "links", "assets"),
	)...)

	ItemPropertiesFields = NewFieldTable("item properties", fields(
		same("datetime", "start_datetime", "end_datetime"),
		[]Field{{"eo_gsd", "eo:gsd"}},
		same("title", "created", "updated"),
	)...)

	AssetFields = NewFieldTable("asset", fields(
		[]Field{{"name", "id"}},
		same("title"),
		[]Field{{"media_type", "type"}},
		same("href", "description"),
		[]Field{
			{"eo_gsd", "eo:gsd"},
			{"geoadmin_lang", "geoadmin:lang"},
			{"geoadmin_variant", "geoadmin:variant"},
			{"proj_epsg", "proj:epsg"},
			{"checksum_multihash", "checksum:multihash"},
		},
		same("created", "updated"),
	)...)

	LinkFields = NewFieldTable("link", fields(
		same("href", "rel"),
		[]Field{{"link_type", "type"}},
		same("title"),
	)...)

	ProviderFields = NewFieldTable("provider", same("name", "roles", "url", "description")...)

	SummariesFields = NewFieldTable("summaries", []Field{
		{"eo_gsd", "eo:gsd"},
		{"geoadmin_variant", "geoadmin:variant"},
		{"proj_epsg", "proj:epsg"},
	}...)
)

// Tables lists every resource field table.
var Tables = []*FieldTable{
	CollectionFields,
	ItemFields,
	ItemPropertiesFields,
	AssetFields,
	LinkFields,
	ProviderFields,
	SummariesFields,
}
