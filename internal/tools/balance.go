package tools

import (
	"context"
	"fmt"
	"math/big"

	xerrors "Web3-MCP/internal/errors"
	"Web3-MCP/internal/web3"
	"Web3-MCP/internal/web3/ethereum"
)

// WalletBalance 查询任意地址的原生币余额。
func (k *Toolkit) WalletBalance(ctx context.Context, address string) Result {
	return k.run(ctx, ToolWalletBalance, func(ctx context.Context) (outcome, error) {
		account, ok := parseAddress(address)
		if !ok {
			return outcome{}, reject(xerrors.CodeInvalidArgument, "Invalid address format: %s", address)
		}
		s, err := k.session(ctx)
		if err != nil {
			return outcome{}, err
		}
		wei, err := s.Balance(ctx, account)
		if err != nil {
			return outcome{}, err
		}
		return outcome{text: fmt.Sprintf("The balance of address %s is %s ETH.", address, web3.FormatEther(wei))}, nil
	})
}

// ERC20Balance 查询钱包持有的 ERC-20 代币余额。decimals 与原始余额分别读取后组合。
func (k *Toolkit) ERC20Balance(ctx context.Context, token, wallet string) Result {
	return k.run(ctx, ToolERC20Balance, func(ctx context.Context) (outcome, error) {
		tokenAddr, ok := parseAddress(token)
		if !ok {
			return outcome{}, reject(xerrors.CodeInvalidArgument, "Invalid address format")
		}
		walletAddr, ok := parseAddress(wallet)
		if !ok {
			return outcome{}, reject(xerrors.CodeInvalidArgument, "Invalid address format")
		}
		s, err := k.session(ctx)
		if err != nil {
			return outcome{}, err
		}
		erc20 := ethereum.NewContract(tokenAddr, erc20ABI)
		raw, err := callBigInt(ctx, s, erc20, "balanceOf", walletAddr)
		if err != nil {
			return outcome{}, err
		}
		decimals, err := callDecimals(ctx, s, erc20)
		if err != nil {
			return outcome{}, err
		}
		return outcome{text: web3.FormatUnits(raw, decimals)}, nil
	})
}

func callBigInt(ctx context.Context, s *ethereum.Session, c *ethereum.Contract, method string, args ...any) (*big.Int, error) {
	out, err := s.Call(ctx, c, method, args...)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, xerrors.Newf(xerrors.CodeRPCFailure, "%s 未返回结果", method)
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, xerrors.Newf(xerrors.CodeRPCFailure, "%s 返回类型异常: %T", method, out[0])
	}
	return v, nil
}

func callDecimals(ctx context.Context, s *ethereum.Session, c *ethereum.Contract) (uint8, error) {
	out, err := s.Call(ctx, c, "decimals")
	if err != nil {
		return 0, err
	}
	if len(out) == 0 {
		return 0, xerrors.New(xerrors.CodeRPCFailure, "decimals 未返回结果")
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, xerrors.Newf(xerrors.CodeRPCFailure, "decimals 返回类型异常: %T", out[0])
	}
	return d, nil
}
