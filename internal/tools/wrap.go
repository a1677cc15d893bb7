package tools

import (
	"context"

	xerrors "Web3-MCP/internal/errors"
	"Web3-MCP/internal/web3"
	"Web3-MCP/internal/web3/ethereum"
)

// WrapETH 把原生币存入包装合约，并等待交易确认。
func (k *Toolkit) WrapETH(ctx context.Context, amountETH any) Result {
	return k.run(ctx, ToolWrapETH, func(ctx context.Context) (outcome, error) {
		amount, err := parsePositiveAmount(amountETH)
		if err != nil {
			return outcome{}, err
		}
		value := web3.ToWei(amount)
		if value.Sign() == 0 {
			return outcome{}, reject(xerrors.CodeInvalidArgument, "Amount must be greater than 0")
		}

		s, err := k.session(ctx)
		if err != nil {
			return outcome{}, err
		}
		balance, err := s.Balance(ctx, s.Address())
		if err != nil {
			return outcome{}, err
		}
		if balance.Cmp(value) < 0 {
			return outcome{}, reject(xerrors.CodeInsufficientFunds, "Insufficient balance. Available: %s ETH", web3.FormatEther(balance))
		}

		weth := ethereum.NewContract(k.network.WrappedNative, wethABI)
		data, err := weth.Pack("deposit")
		if err != nil {
			return outcome{}, err
		}
		nonce, err := s.NextNonce(ctx)
		if err != nil {
			return outcome{}, err
		}
		hash, err := k.transact(ctx, s, ToolWrapETH, ethereum.TxRequest{
			To:    weth.Address,
			Value: value,
			Data:  data,
			Nonce: nonce,
		}, true)
		if err != nil {
			return outcome{txHash: hashOrEmpty(hash)}, err
		}
		return outcome{text: "ETH wrapping successful. Hash: " + hash.Hex(), txHash: hash.Hex()}, nil
	})
}
