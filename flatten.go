package simpledb

import (
	"database/sql/driver"
	"reflect"
)

// FlattenParams expands slices and arrays among values into their elements,
// one level deep, keeping encounter order. nil, []byte and driver.Valuer
// values are kept as single parameters.
func FlattenParams(values ...any) []any {
	flat := make([]any, 0, len(values))
	for _, v := range values {
		switch v.(type) {
		case nil, string, []byte, driver.Valuer:
			flat = append(flat, v)
			continue
		}

		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			if rv.Type().Elem().Kind() == reflect.Uint8 {
				flat = append(flat, v)
				continue
			}
			for i := 0; i < rv.Len(); i++ {
				flat = append(flat, rv.Index(i).Interface())
			}
		default:
			flat = append(flat, v)
		}
	}
	return flat
}
