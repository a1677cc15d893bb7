package tools

import (
	"context"

	xerrors "Web3-MCP/internal/errors"
	"Web3-MCP/internal/web3"
	"Web3-MCP/internal/web3/ethereum"
)

// SendETH 向指定地址转账原生币，提交后立即返回交易哈希，不等待确认。
func (k *Toolkit) SendETH(ctx context.Context, to string, amountETH any) Result {
	return k.run(ctx, ToolSendETH, func(ctx context.Context) (outcome, error) {
		recipient, ok := parseAddress(to)
		if !ok {
			return outcome{}, reject(xerrors.CodeInvalidArgument, "Invalid recipient address: %s", to)
		}
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
		nonce, err := s.NextNonce(ctx)
		if err != nil {
			return outcome{}, err
		}

		hash, err := k.transact(ctx, s, ToolSendETH, ethereum.TxRequest{
			To:       recipient,
			Value:    value,
			Nonce:    nonce,
			GasLimit: ethereum.TransferGas,
		}, false)
		if err != nil {
			return outcome{}, err
		}
		return outcome{text: "Transaction sent successfully. Hash: " + hash.Hex(), txHash: hash.Hex()}, nil
	})
}
