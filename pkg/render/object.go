package render

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is a JSON object that keeps the insertion order of its keys.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty Object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// ObjectOf builds an Object from alternating key/value arguments. It panics
// on an odd number of arguments or a non-string key.
func ObjectOf(kv ...any) *Object {
	if len(kv)%2 != 0 {
		panic("render: ObjectOf needs key/value pairs")
	}
	obj := NewObject()
	for i := 0; i < len(kv); i += 2 {
		obj.Set(kv[i].(string), kv[i+1])
	}
	return obj
}

// Keys returns the keys of obj in order.
func Keys(obj *Object) []string {
	keys := make([]string, 0, obj.Len())
	for p := obj.Oldest(); p != nil; p = p.Next() {
		keys = append(keys, p.Key)
	}
	return keys
}

// optString maps the empty string to nil so FilterNull drops it.
func optString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
