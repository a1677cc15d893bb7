package web3

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// EtherDecimals is the fixed scale between wei and ether.
const EtherDecimals = 18

const (
	// maxIntegerDigits is the digit count of 2^256-1.
	maxIntegerDigits = 78
	// maxFractionDigits bounds the scale: token decimals never exceed 255.
	maxFractionDigits = 255
)

// ParseAmount converts a JSON-decoded amount (number or numeric string) into
// an exact decimal. Floats go through their shortest decimal representation
// so 0.1 stays 0.1 instead of its binary approximation. Amounts whose integer
// part cannot fit in uint256, or with more than 255 fractional digits, are
// rejected before any scaling happens.
func ParseAmount(v any) (decimal.Decimal, error) {
	d, err := parseAmount(v)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsZero() {
		return decimal.Zero, nil
	}
	exp := int64(d.Exponent())
	if exp+int64(d.NumDigits()) > maxIntegerDigits {
		return decimal.Zero, fmt.Errorf("amount %s is too large", abbreviate(v))
	}
	if exp < -maxFractionDigits {
		return decimal.Zero, fmt.Errorf("amount %s has too many fractional digits", abbreviate(v))
	}
	return d, nil
}

func abbreviate(v any) string {
	s := fmt.Sprint(v)
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}

func parseAmount(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, fmt.Errorf("amount is not a finite number")
		}
		return decimal.NewFromString(strconv.FormatFloat(x, 'f', -1, 64))
	case float32:
		return parseAmount(float64(x))
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case interface{ String() string }:
		return decimal.NewFromString(strings.TrimSpace(x.String()))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, fmt.Errorf("amount is empty")
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, fmt.Errorf("amount %q is not a decimal number", x)
		}
		return d, nil
	case nil:
		return decimal.Zero, fmt.Errorf("amount is required")
	default:
		return decimal.Zero, fmt.Errorf("amount has unsupported type %T", v)
	}
}

// ToBaseUnits scales a display amount to integer base units, dropping any
// remainder smaller than one base unit.
func ToBaseUnits(amount decimal.Decimal, decimals uint8) *big.Int {
	return amount.Shift(int32(decimals)).Truncate(0).BigInt()
}

// FromBaseUnits scales integer base units to an exact display amount.
func FromBaseUnits(raw *big.Int, decimals uint8) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -int32(decimals))
}

// FormatUnits renders base units as a plain decimal string such as "1.5".
func FormatUnits(raw *big.Int, decimals uint8) string {
	return FromBaseUnits(raw, decimals).String()
}

// ToWei converts an ether amount to wei.
func ToWei(amount decimal.Decimal) *big.Int {
	return ToBaseUnits(amount, EtherDecimals)
}

// FormatEther renders a wei amount in ether.
func FormatEther(wei *big.Int) string {
	return FormatUnits(wei, EtherDecimals)
}
