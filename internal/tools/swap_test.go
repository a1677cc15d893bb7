package tools

import (
	"context"
	"math/big"
	"testing"

	xerrors "Web3-MCP/internal/errors"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenOut = common.HexToAddress("0x00000000000000000000000000000000000000a9")

func TestSwapApprovesThenSwapsWithConsecutiveNonces(t *testing.T) {
	h := newHarness(t)
	h.addToken(testToken, 6, h.agent, big.NewInt(10_000_000))

	res := h.toolkit.SwapTokens(context.Background(), SwapRequest{
		TokenIn:  testToken.Hex(),
		TokenOut: tokenOut.Hex(),
		AmountIn: 2.5,
	})
	require.True(t, res.OK(), res.Text)

	sent := h.chain.Sent()
	require.Len(t, sent, 2)
	approve, swap := sent[0], sent[1]
	assert.Equal(t, approve.Nonce()+1, swap.Nonce())
	assert.Equal(t, uint64(7), approve.Nonce())
	assert.Equal(t, h.agent, senderOf(t, approve))
	assert.Equal(t, h.agent, senderOf(t, swap))

	// The swap is only submitted after the approval receipt was observed.
	assert.Equal(t, []string{"send:7", "confirmed:7", "send:8", "confirmed:8"}, h.chain.Timeline())

	assert.Equal(t, testToken, *approve.To())
	name, args := decodeCall(t, erc20ABI, approve.Data())
	assert.Equal(t, "approve", name)
	assert.Equal(t, testNetwork.SwapRouter, args[0])
	assert.Equal(t, big.NewInt(2_500_000), args[1])

	assert.Equal(t, testNetwork.SwapRouter, *swap.To())
	name, args = decodeCall(t, swapRouterABI, swap.Data())
	assert.Equal(t, "exactInputSingle", name)
	params := *abi.ConvertType(args[0], new(exactInputSingleParams)).(*exactInputSingleParams)
	assert.Equal(t, testToken, params.TokenIn)
	assert.Equal(t, tokenOut, params.TokenOut)
	assert.Equal(t, int64(DefaultFeeTier), params.Fee.Int64())
	assert.Equal(t, h.agent, params.Recipient)
	assert.Equal(t, int64(2_500_000), params.AmountIn.Int64())
	assert.Zero(t, params.AmountOutMinimum.Sign())
	assert.Zero(t, params.SqrtPriceLimitX96.Sign())

	assert.Equal(t, "Swap successful. Hash: "+swap.Hash().Hex(), res.Text)
}

func TestSwapStopsWhenApprovalReverts(t *testing.T) {
	h := newHarness(t)
	h.addToken(testToken, 18, h.agent, ether(5))
	h.chain.receiptFor = func(tx *coretypes.Transaction) receiptMode {
		if tx.Nonce() == 7 {
			return minedReverted
		}
		return minedSuccess
	}

	res := h.toolkit.SwapTokens(context.Background(), SwapRequest{TokenIn: testToken.Hex(), TokenOut: tokenOut.Hex(), AmountIn: "1"})
	assert.Equal(t, StatusExecutionFailed, res.Status)
	assert.Len(t, h.chain.Sent(), 1, "swap must not be submitted after a failed approval")
}

func TestSwapRevertedSwapIsExecutionFailure(t *testing.T) {
	h := newHarness(t)
	h.addToken(testToken, 18, h.agent, ether(5))
	h.chain.receiptFor = func(tx *coretypes.Transaction) receiptMode {
		if tx.Nonce() == 8 {
			return minedReverted
		}
		return minedSuccess
	}

	res := h.toolkit.SwapTokens(context.Background(), SwapRequest{TokenIn: testToken.Hex(), TokenOut: tokenOut.Hex(), AmountIn: "1"})
	assert.Equal(t, StatusExecutionFailed, res.Status)
	assert.Equal(t, xerrors.CodeExecutionFailed, res.Code)
	sent := h.chain.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, sent[1].Hash().Hex(), res.TxHash)
}

func TestSwapApprovalTimeoutIsStatusUnknown(t *testing.T) {
	h := newHarness(t)
	h.addToken(testToken, 18, h.agent, ether(5))
	h.chain.receiptFor = func(*coretypes.Transaction) receiptMode { return neverMined }

	res := h.toolkit.SwapTokens(context.Background(), SwapRequest{TokenIn: testToken.Hex(), TokenOut: tokenOut.Hex(), AmountIn: "1"})
	assert.Equal(t, StatusUnknown, res.Status)
	assert.Len(t, h.chain.Sent(), 1)
}

func TestSwapInsufficientTokenBalance(t *testing.T) {
	h := newHarness(t)
	h.addToken(testToken, 6, h.agent, big.NewInt(1_500_000))

	res := h.toolkit.SwapTokens(context.Background(), SwapRequest{TokenIn: testToken.Hex(), TokenOut: tokenOut.Hex(), AmountIn: 2})
	assert.Equal(t, StatusRejected, res.Status)
	assert.Equal(t, "Error: Insufficient token balance. Available: 1.5", res.Text)
	assert.Empty(t, h.chain.Sent())
}

func TestSwapFeeTier(t *testing.T) {
	h := newHarness(t)
	h.addToken(testToken, 6, h.agent, big.NewInt(10_000_000))

	res := h.toolkit.SwapTokens(context.Background(), SwapRequest{TokenIn: testToken.Hex(), TokenOut: tokenOut.Hex(), AmountIn: 1, Fee: float64(500)})
	require.True(t, res.OK(), res.Text)
	_, args := decodeCall(t, swapRouterABI, h.chain.Sent()[1].Data())
	params := abi.ConvertType(args[0], new(exactInputSingleParams)).(*exactInputSingleParams)
	assert.Equal(t, int64(500), params.Fee.Int64())

	for _, fee := range []any{float64(1 << 24), -1.0, 30.5, "abc"} {
		res := h.toolkit.SwapTokens(context.Background(), SwapRequest{TokenIn: testToken.Hex(), TokenOut: tokenOut.Hex(), AmountIn: 1, Fee: fee})
		assert.Equal(t, StatusRejected, res.Status, "%v", fee)
		assert.Equal(t, xerrors.CodeInvalidArgument, res.Code, "%v", fee)
	}
}
