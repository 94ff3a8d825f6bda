package render

import "fmt"

// DictKeyed turns a list of entries into an Object keyed by each entry's
// key field. The key field is removed from the values and the entries keep
// their order. A missing key field is a programming error and panics.
func DictKeyed(entries []*Object, key string) *Object {
	out := NewObject()
	for i, e := range entries {
		id, ok := e.Get(key)
		if !ok {
			panic(fmt.Sprintf("render: entry %d has no %q field", i, key))
		}
		value := NewObject()
		for p := e.Oldest(); p != nil; p = p.Next() {
			if p.Key != key {
				value.Set(p.Key, p.Value)
			}
		}
		out.Set(fmt.Sprint(id), value)
	}
	return out
}
