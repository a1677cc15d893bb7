package tools

import (
	xerrors "Web3-MCP/internal/errors"
	"Web3-MCP/internal/web3"
	"Web3-MCP/internal/web3/ethereum"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// parseAddress applies the same EIP-55 rule as contract call arguments.
func parseAddress(s string) (common.Address, bool) {
	return ethereum.ParseAddress(s)
}

// parsePositiveAmount converts a display amount and requires it to be > 0.
func parsePositiveAmount(v any) (decimal.Decimal, error) {
	amount, err := web3.ParseAmount(v)
	if err != nil {
		return decimal.Zero, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "Invalid amount")
	}
	if !amount.IsPositive() {
		return decimal.Zero, reject(xerrors.CodeInvalidArgument, "Amount must be greater than 0")
	}
	return amount, nil
}
