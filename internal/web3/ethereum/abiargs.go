package ethereum

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"

	xerrors "Web3-MCP/internal/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// CoerceArgs converts JSON decoded values into the Go values abi.Pack
// expects for method's inputs. Every mismatch is an INVALID_ARGUMENT error.
func CoerceArgs(method abi.Method, args []any) ([]any, error) {
	if len(args) != len(method.Inputs) {
		return nil, xerrors.Newf(xerrors.CodeInvalidArgument,
			"Function '%s' expects %d arguments, got %d", method.RawName, len(method.Inputs), len(args))
	}
	out := make([]any, len(args))
	for i, input := range method.Inputs {
		v, err := coerceValue(input.Type, args[i])
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err,
				fmt.Sprintf("argument %d (%s %s) of '%s'", i, input.Type.String(), input.Name, method.RawName))
		}
		out[i] = v.Interface()
	}
	return out, nil
}

// ParseAddress accepts 20-byte hex addresses. Mixed-case input must carry a
// valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, bool) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, false
	}
	addr := common.HexToAddress(s)
	body := s
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") {
		body = body[2:]
	}
	if body != strings.ToLower(body) && body != strings.ToUpper(body) && addr.Hex()[2:] != body {
		return common.Address{}, false
	}
	return addr, true
}

func coerceValue(t abi.Type, v any) (reflect.Value, error) {
	switch t.T {
	case abi.AddressTy:
		s, _ := v.(string)
		addr, ok := ParseAddress(s)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected checksummed hex address, got %v", v)
		}
		return reflect.ValueOf(addr), nil

	case abi.BoolTy:
		switch x := v.(type) {
		case bool:
			return reflect.ValueOf(x), nil
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("expected bool, got %q", x)
			}
			return reflect.ValueOf(b), nil
		}
		return reflect.Value{}, fmt.Errorf("expected bool, got %T", v)

	case abi.StringTy:
		s, ok := v.(string)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected string, got %T", v)
		}
		return reflect.ValueOf(s), nil

	case abi.IntTy, abi.UintTy:
		n, err := toBigInt(v)
		if err != nil {
			return reflect.Value{}, err
		}
		if err := checkRange(t, n); err != nil {
			return reflect.Value{}, err
		}
		goType := t.GetType()
		if goType == bigIntType {
			return reflect.ValueOf(n), nil
		}
		if t.T == abi.UintTy {
			return reflect.ValueOf(n.Uint64()).Convert(goType), nil
		}
		return reflect.ValueOf(n.Int64()).Convert(goType), nil

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
		goType := t.GetType()
		if len(b) != goType.Len() {
			return reflect.Value{}, fmt.Errorf("expected exactly %d bytes, got %d", goType.Len(), len(b))
		}
		arr := reflect.New(goType).Elem()
		reflect.Copy(arr, reflect.ValueOf(b))
		return arr, nil

	case abi.SliceTy:
		items, ok := v.([]any)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected list, got %T", v)
		}
		slice := reflect.MakeSlice(t.GetType(), len(items), len(items))
		for i, item := range items {
			ev, err := coerceValue(*t.Elem, item)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			slice.Index(i).Set(ev)
		}
		return slice, nil

	case abi.ArrayTy:
		items, ok := v.([]any)
		if !ok {
			return reflect.Value{}, fmt.Errorf("expected list, got %T", v)
		}
		if len(items) != t.Size {
			return reflect.Value{}, fmt.Errorf("expected %d elements, got %d", t.Size, len(items))
		}
		arr := reflect.New(t.GetType()).Elem()
		for i, item := range items {
			ev, err := coerceValue(*t.Elem, item)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			arr.Index(i).Set(ev)
		}
		return arr, nil

	case abi.TupleTy:
		return coerceTuple(t, v)
	}
	return reflect.Value{}, fmt.Errorf("unsupported abi type %s", t.String())
}

// coerceTuple accepts either a positional list or an object keyed by
// component name.
func coerceTuple(t abi.Type, v any) (reflect.Value, error) {
	st := reflect.New(t.GetType()).Elem()
	switch x := v.(type) {
	case []any:
		if len(x) != len(t.TupleElems) {
			return reflect.Value{}, fmt.Errorf("expected %d tuple components, got %d", len(t.TupleElems), len(x))
		}
		for i, elem := range t.TupleElems {
			ev, err := coerceValue(*elem, x[i])
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%s: %w", t.TupleRawNames[i], err)
			}
			st.Field(i).Set(ev)
		}
	case map[string]any:
		for i, elem := range t.TupleElems {
			name := t.TupleRawNames[i]
			raw, ok := x[name]
			if !ok {
				return reflect.Value{}, fmt.Errorf("missing tuple component %q", name)
			}
			ev, err := coerceValue(*elem, raw)
			if err != nil {
				return reflect.Value{}, fmt.Errorf("%s: %w", name, err)
			}
			st.Field(i).Set(ev)
		}
	default:
		return reflect.Value{}, fmt.Errorf("expected list or object for tuple, got %T", v)
	}
	return st, nil
}

func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("expected integer, got nil")
		}
		return new(big.Int).Set(x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, fmt.Errorf("expected integer, got %v", x)
		}
		n, _ := big.NewFloat(x).Int(nil)
		return n, nil
	case json.Number:
		return parseBigInt(x.String())
	case string:
		return parseBigInt(x)
	}
	return nil, fmt.Errorf("expected integer, got %T", v)
}

func parseBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	neg := strings.HasPrefix(s, "-")
	digits := strings.TrimPrefix(s, "-")
	base := 10
	if strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X") {
		base = 16
		digits = digits[2:]
	}
	n, ok := new(big.Int).SetString(digits, base)
	if !ok || digits == "" {
		return nil, fmt.Errorf("expected integer, got %q", s)
	}
	if neg {
		n.Neg(n)
	}
	return n, nil
}

func checkRange(t abi.Type, n *big.Int) error {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return fmt.Errorf("%s out of range for %s", n, t.String())
		}
		return nil
	}
	mag := new(big.Int).Set(n)
	if n.Sign() < 0 {
		mag.Neg(mag).Sub(mag, big.NewInt(1))
	}
	if mag.BitLen() > t.Size-1 {
		return fmt.Errorf("%s out of range for %s", n, t.String())
	}
	return nil
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		s := strings.TrimPrefix(strings.TrimPrefix(x, "0x"), "0X")
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("expected hex bytes, got %q", x)
		}
		return b, nil
	}
	return nil, fmt.Errorf("expected hex string, got %T", v)
}
