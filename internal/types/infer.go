package types

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Infer picks a type from the runtime shape of v. It is the fallback when
// no declared type is known.
func Infer(v any) Type {
	switch t := v.(type) {
	case nil:
		return Named{Name: "NULL"}
	case bool:
		return Boolean{}
	case int, int8, int16, int32, uint8, uint16, uint32:
		return Integer{}
	case int64, uint, uint64:
		return Integer{Big: true}
	case float32, float64:
		return Float{Double: true}
	case json.Number:
		if strings.ContainsAny(string(t), ".eE") {
			return Decimal{}
		}
		return Integer{Big: true}
	case string:
		return Text{}
	case time.Time, *time.Time:
		return Date{}
	case []byte:
		return Blob{}
	case uuid.UUID:
		return UUID{}
	case RangeValue:
		return Range{Elem: inferBound(t)}
	case map[string]any:
		return JSON{}
	}

	if items, ok := elements(v); ok {
		for _, item := range items {
			if item != nil {
				return Array{Elem: Infer(item)}
			}
		}
		return Array{Elem: Text{}}
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Struct, reflect.Pointer:
		return JSON{}
	}
	return Text{}
}

func inferBound(r RangeValue) Type {
	if r.Lower.Value != nil {
		return Infer(r.Lower.Value)
	}
	if r.Upper.Value != nil {
		return Infer(r.Upper.Value)
	}
	return Integer{}
}
