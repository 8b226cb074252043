package stream

import (
	"reflect"
)

// identityKey identifies an object by its address rather than its value.
// Slices additionally carry their length, two slices sharing a backing array
// but with different lengths are different objects.
type identityKey struct {
	typ  reflect.Type
	addr uintptr
	len  int
}

// identityOf returns the identity key of instance. The boolean is false for
// values without identity (structs, strings, numbers, ...). Such values still
// occupy a seen-object slot but can never be backreferenced.
//
// Distinct pointers to zero-size values (e.g. &struct{}{}) may share an
// address. They are treated as values, every occurrence is written in full.
func identityOf(instance any) (identityKey, bool) {
	v := reflect.ValueOf(instance)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		if v.IsNil() {
			return identityKey{}, false
		}
		if v.Kind() == reflect.Pointer && v.Type().Elem().Size() == 0 {
			return identityKey{}, false
		}
		return identityKey{typ: v.Type(), addr: v.Pointer()}, true
	case reflect.Slice:
		if v.IsNil() {
			return identityKey{}, false
		}
		return identityKey{typ: v.Type(), addr: v.Pointer(), len: v.Len()}, true
	default:
		return identityKey{}, false
	}
}

// isNil reports whether instance is nil or a typed nil reference
func isNil(instance any) bool {
	if instance == nil {
		return true
	}
	v := reflect.ValueOf(instance)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Interface, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
