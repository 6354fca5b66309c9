package cacheaside

import (
	"reflect"
	"time"
)

const (
	DefaultName        = "default"
	DefaultNotFoundTTL = 10 * time.Second
	DefaultPlaceholder = "*"
	DefaultCleanBatch  = 100
	DefaultCleanMatch  = "*"
)

// coalesce returns def when v is the zero value of T - otherwise v.
func coalesce[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// IsNil is the default not-found predicate: nil itself, or a nil pointer,
// map, slice, interface, func or chan. Empty but non-nil collections and
// zero scalars are real values.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
