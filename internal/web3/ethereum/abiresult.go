package ethereum

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strings"

	xerrors "Web3-MCP/internal/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// EncodeResult renders unpacked call outputs as JSON text. A single output
// is rendered bare; several become an array.
func EncodeResult(values []any) (string, error) {
	var payload any
	if len(values) == 1 {
		payload = normalize(reflect.ValueOf(values[0]))
	} else {
		items := make([]any, len(values))
		for i, v := range values {
			items[i] = normalize(reflect.ValueOf(v))
		}
		payload = items
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", xerrors.Wrap(xerrors.CodeUnknown, err, "序列化调用结果失败")
	}
	return string(raw), nil
}

func normalize(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch x := v.Interface().(type) {
	case *big.Int:
		if x == nil {
			return nil
		}
		return x.String()
	case common.Address:
		return x.Hex()
	case common.Hash:
		return x.Hex()
	case []byte:
		return hexutil.Encode(x)
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return normalize(v.Elem())
	case reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			for i := range b {
				b[i] = byte(v.Index(i).Uint())
			}
			return hexutil.Encode(b)
		}
		return normalizeList(v)
	case reflect.Slice:
		return normalizeList(v)
	case reflect.Struct:
		obj := make(map[string]any, v.NumField())
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			obj[fieldName(field)] = normalize(v.Field(i))
		}
		return obj
	}
	return v.Interface()
}

func normalizeList(v reflect.Value) []any {
	items := make([]any, v.Len())
	for i := range items {
		items[i] = normalize(v.Index(i))
	}
	return items
}

func fieldName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		if name, _, _ := strings.Cut(tag, ","); name != "" && name != "-" {
			return name
		}
	}
	return field.Name
}
