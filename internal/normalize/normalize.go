// Package normalize turns values decoded from contract calls into shapes that
// survive text and JSON serialization unchanged.
package normalize

import (
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is a named-field aggregate that keeps field order.
type Record = orderedmap.OrderedMap[string, any]

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return orderedmap.New[string, any]()
}

var bigIntType = reflect.TypeOf(big.Int{})

// Format normalizes v recursively. Big integers become decimal strings,
// byte strings become 0x-hex, sequences become []any, structs become Records
// and every other scalar is returned as is. Format(Format(v)) == Format(v).
func Format(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *big.Int:
		if val == nil {
			return nil
		}
		return val.String()
	case big.Int:
		return val.String()
	case common.Address:
		return val.Hex()
	case common.Hash:
		return val.Hex()
	case []byte:
		return hexutil.Encode(val)
	case *Record:
		if val == nil {
			return nil
		}
		out := NewRecord()
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			out.Set(pair.Key, Format(pair.Value))
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Format(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Format(item)
		}
		return out
	case string, bool, float32, float64,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return val
	}
	return formatReflect(reflect.ValueOf(v))
}

func formatReflect(rv reflect.Value) any {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Format(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			buf := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(buf), rv)
			return hexutil.Encode(buf)
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Format(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return rv.Interface()
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Format(iter.Value().Interface())
		}
		return out
	case reflect.Struct:
		if rv.Type() == bigIntType {
			v := rv.Interface().(big.Int)
			return v.String()
		}
		return formatStruct(rv)
	}
	// Named scalar types (e.g. uint8 enums) are converted to their base kind.
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return rv.Interface()
}

func formatStruct(rv reflect.Value) *Record {
	out := NewRecord()
	typ := rv.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		out.Set(fieldName(field), Format(rv.Field(i).Interface()))
	}
	return out
}

// fieldName prefers the json tag, which go-ethereum sets to the raw ABI
// component name on generated tuple structs.
func fieldName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}
