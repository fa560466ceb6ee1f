package contractabi

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindBytes
	KindList
	KindRecord
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Value is a call argument as received from a client, before it is checked
// against the declared parameter type.
type Value struct {
	Kind ValueKind
	// Text holds the string, or the literal of a number.
	Text   string
	Bool   bool
	Bytes  []byte
	List   []Value
	Fields map[string]Value
	// Keys is the order of Fields, sorted when the source had no order.
	Keys []string
}

// String builds a string Value.
func String(s string) Value { return Value{Kind: KindString, Text: s} }

// Number builds a number Value from its decimal literal.
func Number(literal string) Value { return Value{Kind: KindNumber, Text: literal} }

// Bool builds a bool Value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Bytes builds a bytes Value.
func Bytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// List builds a list Value.
func List(items ...Value) Value { return Value{Kind: KindList, List: items} }

// ValuesFrom converts a loosely typed argument list.
func ValuesFrom(args []any) ([]Value, error) {
	out := make([]Value, len(args))
	for i, arg := range args {
		v, err := ValueOf(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// ValueOf converts a single decoded JSON value (or an equivalent Go value).
func ValueOf(arg any) (Value, error) {
	switch v := arg.(type) {
	case nil:
		return Value{Kind: KindNull}, nil
	case Value:
		return v, nil
	case string:
		return String(v), nil
	case bool:
		return Bool(v), nil
	case json.Number:
		return Number(v.String()), nil
	case float64:
		return numberFromFloat(v)
	case float32:
		return numberFromFloat(float64(v))
	case int:
		return Number(strconv.FormatInt(int64(v), 10)), nil
	case int64:
		return Number(strconv.FormatInt(v, 10)), nil
	case uint64:
		return Number(strconv.FormatUint(v, 10)), nil
	case *big.Int:
		if v == nil {
			return Value{Kind: KindNull}, nil
		}
		return Number(v.String()), nil
	case []byte:
		return Bytes(v), nil
	case []any:
		items, err := ValuesFrom(v)
		if err != nil {
			return Value{}, err
		}
		return List(items...), nil
	case map[string]any:
		return recordFrom(v)
	}

	rv := reflect.ValueOf(arg)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		return Number(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Number(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Slice, reflect.Array:
		items := make([]Value, rv.Len())
		for i := range items {
			item, err := ValueOf(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			items[i] = item
		}
		return List(items...), nil
	}
	return Value{}, fmt.Errorf("unsupported argument type %T", arg)
}

func numberFromFloat(f float64) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}, fmt.Errorf("number %v is not finite", f)
	}
	if f != math.Trunc(f) {
		return Value{}, fmt.Errorf("number %v is not an integer", f)
	}
	// Floats above 2^53 have already lost precision in the client; pass
	// large integers as strings instead.
	if math.Abs(f) > 1<<53 {
		return Value{}, fmt.Errorf("number %v exceeds the safe integer range, pass it as a string", f)
	}
	return Number(strconv.FormatFloat(f, 'f', 0, 64)), nil
}

func recordFrom(m map[string]any) (Value, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make(map[string]Value, len(m))
	for _, k := range keys {
		v, err := ValueOf(m[k])
		if err != nil {
			return Value{}, fmt.Errorf("field %q: %w", k, err)
		}
		fields[k] = v
	}
	return Value{Kind: KindRecord, Fields: fields, Keys: keys}, nil
}
