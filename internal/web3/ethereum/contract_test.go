package ethereum

import (
	"fmt"
	"math/big"
	"testing"

	xerrors "Web3-MCP/internal/errors"

	"github.com/ethereum/go-ethereum/common"
)

const overloadedABI = `[
  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"memo","type":"bytes"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"route","stateMutability":"view","inputs":[
    {"name":"params","type":"tuple","components":[
      {"name":"tokenIn","type":"address"},
      {"name":"fee","type":"uint24"},
      {"name":"path","type":"uint8[]"},
      {"name":"tag","type":"bytes4"}
    ]},
    {"name":"delta","type":"int16"}
  ],"outputs":[
    {"name":"amount","type":"uint256"},
    {"name":"pair","type":"tuple","components":[{"name":"token","type":"address"},{"name":"ok","type":"bool"}]}
  ]}
]`

func TestParseABIRejectsMalformedJSON(t *testing.T) {
	_, err := ParseABI(`[{"type":"function"`)
	if !xerrors.HasCode(err, xerrors.CodeInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if _, err := ParseABI(overloadedABI); err != nil {
		t.Fatalf("parse abi: %v", err)
	}
}

func TestResolveMethodByArity(t *testing.T) {
	parsed, _ := ParseABI(overloadedABI)

	m, err := ResolveMethod(parsed, "transfer", 3)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if m.Sig != "transfer(address,uint256,bytes)" {
		t.Fatalf("unexpected method %s", m.Sig)
	}

	if _, err := ResolveMethod(parsed, "transfer", 1); !xerrors.HasCode(err, xerrors.CodeInvalidArgument) {
		t.Fatalf("expected arity error, got %v", err)
	}
	if _, err := ResolveMethod(parsed, "mint", 0); !xerrors.HasCode(err, xerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCoerceArgsTupleFromObjectAndPack(t *testing.T) {
	parsed, _ := ParseABI(overloadedABI)
	m, err := ResolveMethod(parsed, "route", 2)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	args, err := CoerceArgs(m, []any{
		map[string]any{
			"tokenIn": "0x00000000000000000000000000000000000000aa",
			"fee":     float64(3000),
			"path":    []any{float64(1), "2"},
			"tag":     "0xdeadbeef",
		},
		"-12",
	})
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	if _, err := parsed.Pack(m.Name, args...); err != nil {
		t.Fatalf("pack coerced args: %v", err)
	}

	positional, err := CoerceArgs(m, []any{
		[]any{"0x00000000000000000000000000000000000000aa", "0xbb8", []any{}, "0x00000000"},
		float64(5),
	})
	if err != nil {
		t.Fatalf("coerce positional: %v", err)
	}
	if _, err := parsed.Pack(m.Name, positional...); err != nil {
		t.Fatalf("pack positional: %v", err)
	}
}

func TestCoerceArgsReportsMismatch(t *testing.T) {
	parsed, _ := ParseABI(overloadedABI)
	transfer, _ := ResolveMethod(parsed, "transfer", 2)

	cases := map[string][]any{
		"count":       {"0x00000000000000000000000000000000000000aa"},
		"address":     {"0xnothex", float64(1)},
		"negative":    {"0x00000000000000000000000000000000000000aa", float64(-1)},
		"fraction":    {"0x00000000000000000000000000000000000000aa", 1.5},
		"wrong kind":  {"0x00000000000000000000000000000000000000aa", true},
		"bad integer": {"0x00000000000000000000000000000000000000aa", "12abc"},
	}
	for name, args := range cases {
		if _, err := CoerceArgs(transfer, args); !xerrors.HasCode(err, xerrors.CodeInvalidArgument) {
			t.Fatalf("%s: expected invalid argument, got %v", name, err)
		}
	}

	route, _ := ResolveMethod(parsed, "route", 2)
	_, err := CoerceArgs(route, []any{
		map[string]any{"tokenIn": "0x00000000000000000000000000000000000000aa", "fee": float64(1 << 24), "path": []any{}, "tag": "0x00000000"},
		float64(0),
	})
	if !xerrors.HasCode(err, xerrors.CodeInvalidArgument) {
		t.Fatalf("expected uint24 overflow to be rejected, got %v", err)
	}
	_, err = CoerceArgs(route, []any{
		map[string]any{"tokenIn": "0x00000000000000000000000000000000000000aa", "fee": float64(1), "path": []any{}, "tag": "0x00000000"},
		float64(40000),
	})
	if !xerrors.HasCode(err, xerrors.CodeInvalidArgument) {
		t.Fatalf("expected int16 overflow to be rejected, got %v", err)
	}
}

func TestCoerceArgsFixedBytesRequireExactWidth(t *testing.T) {
	parsed, _ := ParseABI(overloadedABI)
	route, _ := ResolveMethod(parsed, "route", 2)

	for _, tag := range []string{"0x01", "0x", "0xdeadbeef00"} {
		_, err := CoerceArgs(route, []any{
			map[string]any{"tokenIn": "0x00000000000000000000000000000000000000aa", "fee": float64(1), "path": []any{}, "tag": tag},
			float64(0),
		})
		if !xerrors.HasCode(err, xerrors.CodeInvalidArgument) {
			t.Fatalf("tag %s: expected invalid argument, got %v", tag, err)
		}
	}
}

func TestCoerceArgsAddressChecksum(t *testing.T) {
	parsed, _ := ParseABI(overloadedABI)
	transfer, _ := ResolveMethod(parsed, "transfer", 2)

	valid := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed",
		"0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED",
	}
	for _, addr := range valid {
		if _, err := CoerceArgs(transfer, []any{addr, float64(1)}); err != nil {
			t.Fatalf("%s: unexpected error %v", addr, err)
		}
	}
	_, err := CoerceArgs(transfer, []any{"0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed", float64(1)})
	if !xerrors.HasCode(err, xerrors.CodeInvalidArgument) {
		t.Fatalf("expected bad checksum to be rejected, got %v", err)
	}
	if _, ok := ParseAddress("0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed"); ok {
		t.Fatal("ParseAddress accepted a bad checksum")
	}
}

func TestEncodeResult(t *testing.T) {
	single, err := EncodeResult([]any{big.NewInt(7)})
	if err != nil {
		t.Fatalf("encode single: %v", err)
	}
	if single != `"7"` {
		t.Fatalf("unexpected single result %s", single)
	}

	pair := struct {
		Token common.Address `json:"token"`
		Ok    bool           `json:"ok"`
	}{Token: common.HexToAddress("0x00000000000000000000000000000000000000aa"), Ok: true}
	many, err := EncodeResult([]any{new(big.Int).Lsh(big.NewInt(1), 100), pair, [4]byte{0xde, 0xad, 0xbe, 0xef}, uint8(18)})
	if err != nil {
		t.Fatalf("encode many: %v", err)
	}
	want := fmt.Sprintf(`["1267650600228229401496703205376",{"ok":true,"token":%q},"0xdeadbeef",18]`, pair.Token.Hex())
	if many != want {
		t.Fatalf("unexpected result\n got %s\nwant %s", many, want)
	}
}
