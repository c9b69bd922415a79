package app

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// sanitizeForJSON returns data with every NaN or infinite float replaced by
// zero. Structs become maps keyed by their json names. Byte slices, times and
// Stringers pass through untouched.
func sanitizeForJSON(data any) any {
	switch v := data.(type) {
	case nil:
		return nil
	case time.Time, fmt.Stringer, []byte:
		return v
	case []float64:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = finite(f)
		}
		return out
	}
	return sanitizeValue(reflect.ValueOf(data))
}

func sanitizeValue(val reflect.Value) any {
	switch val.Kind() {
	case reflect.Pointer, reflect.Interface:
		if val.IsNil() {
			return nil
		}
		return sanitizeForJSON(val.Elem().Interface())

	case reflect.Float32, reflect.Float64:
		return finite(val.Float())

	case reflect.Struct:
		out := make(map[string]any, val.NumField())
		typ := val.Type()
		for i := range typ.NumField() {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
			switch name {
			case "-":
				continue
			case "":
				name = field.Name
			}
			out[name] = sanitizeForJSON(val.Field(i).Interface())
		}
		return out

	case reflect.Map:
		out := make(map[string]any, val.Len())
		iter := val.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = sanitizeForJSON(iter.Value().Interface())
		}
		return out

	case reflect.Slice, reflect.Array:
		out := make([]any, val.Len())
		for i := range out {
			out[i] = sanitizeForJSON(val.Index(i).Interface())
		}
		return out

	default:
		return val.Interface()
	}
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
