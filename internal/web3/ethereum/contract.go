package ethereum

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	xerrors "Web3-MCP/internal/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Contract binds a parsed ABI to a deployed address.
type Contract struct {
	Address common.Address
	ABI     abi.ABI
}

// NewContract creates a contract descriptor.
func NewContract(address common.Address, parsed abi.ABI) *Contract {
	return &Contract{Address: address, ABI: parsed}
}

// Pack encodes a call to method. Encoding failures are argument errors.
func (c *Contract) Pack(method string, args ...any) ([]byte, error) {
	data, err := c.ABI.Pack(method, args...)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "编码合约调用 "+method+" 失败")
	}
	return data, nil
}

// Unpack decodes the return data of method.
func (c *Contract) Unpack(method string, data []byte) ([]any, error) {
	m, ok := c.ABI.Methods[method]
	if !ok {
		return nil, xerrors.Newf(xerrors.CodeNotFound, "合约 ABI 中不存在方法 %s", method)
	}
	if len(data) == 0 && len(m.Outputs) > 0 {
		return nil, xerrors.Newf(xerrors.CodeRPCFailure, "调用 %s 返回空结果，地址 %s 可能不是合约", method, c.Address.Hex())
	}
	values, err := c.ABI.Unpack(method, data)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeRPCFailure, err, "解码合约返回值 "+method+" 失败")
	}
	return values, nil
}

// ParseABI parses a JSON ABI document supplied by a caller.
func ParseABI(text string) (abi.ABI, error) {
	if !json.Valid([]byte(text)) {
		return abi.ABI{}, xerrors.New(xerrors.CodeInvalidArgument, "Invalid ABI JSON format")
	}
	parsed, err := abi.JSON(strings.NewReader(text))
	if err != nil {
		return abi.ABI{}, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "Invalid ABI JSON format")
	}
	return parsed, nil
}

// MustParseABI parses a compile-time ABI constant and panics on failure.
func MustParseABI(text string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(text))
	if err != nil {
		panic(fmt.Sprintf("ethereum: invalid built-in ABI: %v", err))
	}
	return parsed
}

// ResolveMethod finds the function named name that accepts argc arguments.
// Overloads share a raw name and are told apart by arity.
func ResolveMethod(parsed abi.ABI, name string, argc int) (abi.Method, error) {
	var candidates []abi.Method
	for _, m := range parsed.Methods {
		if m.RawName == name {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return abi.Method{}, xerrors.Newf(xerrors.CodeNotFound, "Function '%s' not found in contract ABI", name)
	}

	var matched []abi.Method
	for _, m := range candidates {
		if len(m.Inputs) == argc {
			matched = append(matched, m)
		}
	}
	switch len(matched) {
	case 1:
		return matched[0], nil
	case 0:
		return abi.Method{}, xerrors.Newf(xerrors.CodeInvalidArgument,
			"Function '%s' does not accept %d arguments (available: %s)", name, argc, signatures(candidates))
	default:
		return abi.Method{}, xerrors.Newf(xerrors.CodeInvalidArgument,
			"Function '%s' is ambiguous for %d arguments (candidates: %s)", name, argc, signatures(matched))
	}
}

func signatures(methods []abi.Method) string {
	sigs := make([]string, 0, len(methods))
	for _, m := range methods {
		sigs = append(sigs, m.Sig)
	}
	sort.Strings(sigs)
	return strings.Join(sigs, ", ")
}

