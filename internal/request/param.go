package request

import (
	"fmt"
	"reflect"
)

// Kind says where a parameter goes in the outbound request.
type Kind int

const (
	QueryParam Kind = iota
	RouteParam
)

func (k Kind) String() string {
	if k == RouteParam {
		return "route"
	}
	return "query"
}

// Param is one named request value. Value may be nil, a string, a bool, any
// integer or float kind, []string, []any, or []Filter (only under the name
// "filters").
type Param struct {
	Kind  Kind
	Name  string
	Value any
}

// Filter is one key=value pair of the "filters" parameter.
type Filter struct {
	Key   string
	Value string
}

// Truthy mirrors the console's notion of a present value: nil, "", false,
// numeric zero and empty slices are absent.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case []string:
		return len(x) > 0
	case []any:
		return len(x) > 0
	case []Filter:
		return len(x) > 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// elements returns the items of a slice value, or nil for non-slices.
func elements(v any) ([]any, bool) {
	switch x := v.(type) {
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, true
	case []any:
		return x, true
	case []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
