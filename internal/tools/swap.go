package tools

import (
	"context"
	"math/big"

	xerrors "Web3-MCP/internal/errors"
	"Web3-MCP/internal/web3"
	"Web3-MCP/internal/web3/ethereum"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultFeeTier is the pool fee used when the caller does not choose one.
const DefaultFeeTier = 3000

var maxFeeTier = big.NewInt(1<<24 - 1)

// SwapRequest 描述一次单池精确输入兑换。
type SwapRequest struct {
	TokenIn  string
	TokenOut string
	AmountIn any
	// Fee 为 nil 时使用 DefaultFeeTier。
	Fee any
}

// exactInputSingleParams mirrors the router's ExactInputSingleParams tuple.
type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// SwapTokens 先授权路由合约，再执行兑换。两笔交易使用连续的 nonce，
// 且授权确认之前不会提交兑换交易。
//
// amountOutMinimum 固定为 0，不做滑点保护。
func (k *Toolkit) SwapTokens(ctx context.Context, req SwapRequest) Result {
	return k.run(ctx, ToolSwapTokens, func(ctx context.Context) (outcome, error) {
		amount, err := parsePositiveAmount(req.AmountIn)
		if err != nil {
			return outcome{}, err
		}
		tokenIn, ok := parseAddress(req.TokenIn)
		if !ok {
			return outcome{}, reject(xerrors.CodeInvalidArgument, "Invalid token address format")
		}
		tokenOut, ok := parseAddress(req.TokenOut)
		if !ok {
			return outcome{}, reject(xerrors.CodeInvalidArgument, "Invalid token address format")
		}
		fee, err := parseFee(req.Fee)
		if err != nil {
			return outcome{}, err
		}

		s, err := k.session(ctx)
		if err != nil {
			return outcome{}, err
		}
		erc20 := ethereum.NewContract(tokenIn, erc20ABI)
		decimals, err := callDecimals(ctx, s, erc20)
		if err != nil {
			return outcome{}, err
		}
		amountIn := web3.ToBaseUnits(amount, decimals)
		if amountIn.Sign() == 0 {
			return outcome{}, reject(xerrors.CodeInvalidArgument, "Amount is smaller than one base unit of the token")
		}
		balance, err := callBigInt(ctx, s, erc20, "balanceOf", s.Address())
		if err != nil {
			return outcome{}, err
		}
		if balance.Cmp(amountIn) < 0 {
			return outcome{}, reject(xerrors.CodeInsufficientFunds, "Insufficient token balance. Available: %s", web3.FormatUnits(balance, decimals))
		}

		router := ethereum.NewContract(k.network.SwapRouter, swapRouterABI)
		approveData, err := erc20.Pack("approve", router.Address, amountIn)
		if err != nil {
			return outcome{}, err
		}
		swapData, err := router.Pack("exactInputSingle", exactInputSingleParams{
			TokenIn:           tokenIn,
			TokenOut:          tokenOut,
			Fee:               fee,
			Recipient:         s.Address(),
			AmountIn:          amountIn,
			AmountOutMinimum:  new(big.Int),
			SqrtPriceLimitX96: new(big.Int),
		})
		if err != nil {
			return outcome{}, err
		}

		nonce, err := s.NextNonce(ctx)
		if err != nil {
			return outcome{}, err
		}
		approveHash, err := k.transact(ctx, s, ToolSwapTokens, ethereum.TxRequest{
			To:    erc20.Address,
			Data:  approveData,
			Nonce: nonce,
		}, true)
		if err != nil {
			return outcome{txHash: hashOrEmpty(approveHash)}, err
		}
		k.log.Info("swap approval confirmed", "tx_hash", approveHash.Hex())

		swapHash, err := k.transact(ctx, s, ToolSwapTokens, ethereum.TxRequest{
			To:    router.Address,
			Data:  swapData,
			Nonce: nonce + 1,
		}, true)
		if err != nil {
			return outcome{txHash: hashOrEmpty(swapHash)}, err
		}
		return outcome{text: "Swap successful. Hash: " + swapHash.Hex(), txHash: swapHash.Hex()}, nil
	})
}

func parseFee(v any) (*big.Int, error) {
	if v == nil {
		return big.NewInt(DefaultFeeTier), nil
	}
	amount, err := web3.ParseAmount(v)
	if err != nil || !amount.IsInteger() {
		return nil, reject(xerrors.CodeInvalidArgument, "Invalid fee tier: %v", v)
	}
	fee := amount.BigInt()
	if fee.Sign() < 0 || fee.Cmp(maxFeeTier) > 0 {
		return nil, reject(xerrors.CodeInvalidArgument, "Invalid fee tier: %v", v)
	}
	return fee, nil
}
