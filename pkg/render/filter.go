package render

import "reflect"

// FilterNull returns a copy of obj without null values and empty sequences.
// Nested Objects are always kept and filtered recursively. Non-empty
// sequences are kept unchanged. Top level keys listed in keep survive even
// when their sequence is empty.
func FilterNull(obj *Object, keep ...string) *Object {
	out := NewObject()
	if obj == nil {
		return out
	}
	for p := obj.Oldest(); p != nil; p = p.Next() {
		if nested, ok := p.Value.(*Object); ok {
			if nested != nil {
				out.Set(p.Key, FilterNull(nested))
			}
			continue
		}
		if isNull(p.Value) {
			continue
		}
		if isEmptySequence(p.Value) {
			if contains(keep, p.Key) {
				out.Set(p.Key, []any{})
			}
			continue
		}
		out.Set(p.Key, p.Value)
	}
	return out
}

func isNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func isEmptySequence(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return rv.Len() == 0
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
