// Package render turns domain resources into their STAC JSON representation
// and decodes write payloads back into internal field names.
//
// Every resource body is built as an ordered Object keyed by internal field
// names, renamed through the resource's static FieldTable, stripped of null
// and empty values by FilterNull, and finally completed with navigational
// links by a Linker:
//
//	obj := render.Collection(c, linker)
//	body, _ := json.Marshal(obj)
package render
