package contractabi

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var bigIntPtrType = reflect.TypeOf((*big.Int)(nil))

// CoerceArgs converts values into the Go types go-ethereum packs for the
// given arguments.
func CoerceArgs(params abi.Arguments, values []Value) ([]any, error) {
	if len(params) != len(values) {
		return nil, fmt.Errorf("expected %d, got %d", len(params), len(values))
	}
	out := make([]any, len(values))
	for i, param := range params {
		v, err := Coerce(param.Type, values[i])
		if err != nil {
			name := param.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i)
			}
			return nil, fmt.Errorf("argument %s (%s): %w", name, param.Type.String(), err)
		}
		out[i] = v
	}
	return out, nil
}

// Coerce converts v into the Go representation of typ.
func Coerce(typ abi.Type, v Value) (any, error) {
	rv, err := coerce(typ, v)
	if err != nil {
		return nil, err
	}
	return rv.Interface(), nil
}

func coerce(typ abi.Type, v Value) (reflect.Value, error) {
	switch typ.T {
	case abi.IntTy, abi.UintTy:
		return coerceInteger(typ, v)
	case abi.BoolTy:
		switch v.Kind {
		case KindBool:
			return reflect.ValueOf(v.Bool), nil
		case KindString:
			b, err := strconv.ParseBool(strings.TrimSpace(v.Text))
			if err != nil {
				return reflect.Value{}, fmt.Errorf("cannot use %q as bool", v.Text)
			}
			return reflect.ValueOf(b), nil
		}
	case abi.StringTy:
		if v.Kind == KindString {
			return reflect.ValueOf(v.Text), nil
		}
	case abi.AddressTy:
		switch v.Kind {
		case KindString:
			if !common.IsHexAddress(strings.TrimSpace(v.Text)) {
				return reflect.Value{}, fmt.Errorf("invalid address %q", v.Text)
			}
			return reflect.ValueOf(common.HexToAddress(strings.TrimSpace(v.Text))), nil
		case KindBytes:
			if len(v.Bytes) != common.AddressLength {
				return reflect.Value{}, fmt.Errorf("address must be %d bytes, got %d", common.AddressLength, len(v.Bytes))
			}
			return reflect.ValueOf(common.BytesToAddress(v.Bytes)), nil
		}
	case abi.BytesTy:
		b, err := toBytes(v)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil
	case abi.FixedBytesTy, abi.FunctionTy:
		b, err := toBytes(v)
		if err != nil {
			return reflect.Value{}, err
		}
		size := typ.GetType().Len()
		if len(b) != size {
			return reflect.Value{}, fmt.Errorf("expected %d bytes, got %d", size, len(b))
		}
		out := reflect.New(typ.GetType()).Elem()
		reflect.Copy(out, reflect.ValueOf(b))
		return out, nil
	case abi.SliceTy:
		if v.Kind != KindList {
			break
		}
		out := reflect.MakeSlice(typ.GetType(), len(v.List), len(v.List))
		if err := fillSequence(out, *typ.Elem, v.List); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	case abi.ArrayTy:
		if v.Kind != KindList {
			break
		}
		if len(v.List) != typ.Size {
			return reflect.Value{}, fmt.Errorf("expected %d elements, got %d", typ.Size, len(v.List))
		}
		out := reflect.New(typ.GetType()).Elem()
		if err := fillSequence(out, *typ.Elem, v.List); err != nil {
			return reflect.Value{}, err
		}
		return out, nil
	case abi.TupleTy:
		return coerceTuple(typ, v)
	default:
		return reflect.Value{}, fmt.Errorf("unsupported parameter type %s", typ.String())
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s value as %s", v.Kind, typ.String())
}

func coerceInteger(typ abi.Type, v Value) (reflect.Value, error) {
	n, err := toBigInt(v)
	if err != nil {
		return reflect.Value{}, err
	}
	if typ.T == abi.UintTy {
		if n.Sign() < 0 {
			return reflect.Value{}, fmt.Errorf("%s cannot be negative", typ.String())
		}
		if n.BitLen() > typ.Size {
			return reflect.Value{}, fmt.Errorf("%s overflows %s", shorten(v.Text), typ.String())
		}
	} else {
		limit := new(big.Int).Lsh(big.NewInt(1), uint(typ.Size-1))
		minimum := new(big.Int).Neg(limit)
		if n.Cmp(minimum) < 0 || n.Cmp(limit) >= 0 {
			return reflect.Value{}, fmt.Errorf("%s overflows %s", shorten(v.Text), typ.String())
		}
	}

	goType := typ.GetType()
	if goType == bigIntPtrType {
		return reflect.ValueOf(n), nil
	}
	out := reflect.New(goType).Elem()
	if typ.T == abi.UintTy {
		out.SetUint(n.Uint64())
	} else {
		out.SetInt(n.Int64())
	}
	return out, nil
}

func coerceTuple(typ abi.Type, v Value) (reflect.Value, error) {
	out := reflect.New(typ.TupleType).Elem()
	switch v.Kind {
	case KindList:
		if len(v.List) != len(typ.TupleElems) {
			return reflect.Value{}, fmt.Errorf("expected %d tuple components, got %d", len(typ.TupleElems), len(v.List))
		}
		for i, elem := range typ.TupleElems {
			field, err := coerce(*elem, v.List[i])
			if err != nil {
				return reflect.Value{}, fmt.Errorf("component %d: %w", i, err)
			}
			out.Field(i).Set(field)
		}
		return out, nil
	case KindRecord:
		for i, elem := range typ.TupleElems {
			name := typ.TupleRawNames[i]
			item, ok := v.Fields[name]
			if !ok {
				return reflect.Value{}, fmt.Errorf("missing tuple component %q", name)
			}
			field, err := coerce(*elem, item)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("component %q: %w", name, err)
			}
			out.Field(i).Set(field)
		}
		return out, nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s value as %s", v.Kind, typ.String())
}

func fillSequence(out reflect.Value, elem abi.Type, items []Value) error {
	for i, item := range items {
		rv, err := coerce(elem, item)
		if err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
		out.Index(i).Set(rv)
	}
	return nil
}

const (
	// maxIntegerBits is the widest ABI integer.
	maxIntegerBits    = 256
	maxLiteralInError = 32
)

func toBigInt(v Value) (*big.Int, error) {
	if v.Kind != KindNumber && v.Kind != KindString {
		return nil, fmt.Errorf("cannot use %s value as integer", v.Kind)
	}
	text := strings.TrimSpace(v.Text)
	if text == "" {
		return nil, fmt.Errorf("empty integer")
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		n, ok := new(big.Int).SetString(text[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex integer %q", v.Text)
		}
		return n, nil
	}
	if n, ok := new(big.Int).SetString(text, 10); ok {
		return n, nil
	}
	// Exponent notation such as 1e18 is accepted when it denotes an integer.
	f, _, err := big.ParseFloat(text, 10, 256, big.ToNearestEven)
	if err != nil || !f.IsInt() {
		return nil, fmt.Errorf("invalid integer %q", v.Text)
	}
	if f.MantExp(nil) > maxIntegerBits {
		return nil, fmt.Errorf("%s overflows %d bits", shorten(v.Text), maxIntegerBits)
	}
	n, _ := f.Int(nil)
	return n, nil
}

// shorten keeps error messages bounded for oversized literals.
func shorten(literal string) string {
	literal = strings.TrimSpace(literal)
	if len(literal) <= maxLiteralInError {
		return literal
	}
	return literal[:maxLiteralInError] + "..."
}

func toBytes(v Value) ([]byte, error) {
	switch v.Kind {
	case KindBytes:
		return v.Bytes, nil
	case KindString:
		b, err := hexutil.Decode(strings.TrimSpace(v.Text))
		if err != nil {
			return nil, fmt.Errorf("invalid hex bytes %q: %w", v.Text, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("cannot use %s value as bytes", v.Kind)
}
