package ethereum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	xerrors "Web3-MCP/internal/errors"

	gethcore "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	coretypes "github.com/ethereum/go-ethereum/core/types"
)

// TransferGas is the fixed gas limit of a plain value transfer.
const TransferGas uint64 = 21000

// Session bundles a live backend with the agent identity.
type Session struct {
	backend      Backend
	chainID      *big.Int
	identity     *Identity
	pollInterval time.Duration
	log          *slog.Logger
}

// ChainID returns the chain id observed during initialization.
func (s *Session) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// Address returns the agent address.
func (s *Session) Address() common.Address {
	return s.identity.Address()
}

// Balance returns the latest native balance of account in wei.
func (s *Session) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	balance, err := s.backend.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeRPCFailure, err, "查询余额失败")
	}
	return balance, nil
}

// NextNonce returns the pending nonce of the agent address.
func (s *Session) NextNonce(ctx context.Context) (uint64, error) {
	nonce, err := s.backend.PendingNonceAt(ctx, s.Address())
	if err != nil {
		return 0, xerrors.Wrap(xerrors.CodeRPCFailure, err, "查询 nonce 失败")
	}
	return nonce, nil
}

// GasPrice returns the node's suggested legacy gas price.
func (s *Session) GasPrice(ctx context.Context) (*big.Int, error) {
	price, err := s.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeRPCFailure, err, "查询 gas 价格失败")
	}
	return price, nil
}

// Call performs a read-only eth_call of method on contract and returns the
// decoded outputs. The agent address is used as the call's sender.
func (s *Session) Call(ctx context.Context, contract *Contract, method string, args ...any) ([]any, error) {
	data, err := contract.Pack(method, args...)
	if err != nil {
		return nil, err
	}
	to := contract.Address
	raw, err := s.backend.CallContract(ctx, gethcore.CallMsg{From: s.Address(), To: &to, Data: data}, nil)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeRPCFailure, err, "调用合约 "+method+" 失败")
	}
	return contract.Unpack(method, raw)
}

// TxRequest describes a legacy transaction to be built by the session.
type TxRequest struct {
	To    common.Address
	Value *big.Int
	Data  []byte
	Nonce uint64
	// GasLimit of zero means estimate.
	GasLimit uint64
	// GasPrice of nil means ask the node.
	GasPrice *big.Int
}

// BuildTx fills in gas parameters and returns an unsigned transaction.
func (s *Session) BuildTx(ctx context.Context, req TxRequest) (*coretypes.Transaction, error) {
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}
	gasPrice := req.GasPrice
	if gasPrice == nil {
		price, err := s.backend.SuggestGasPrice(ctx)
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeSubmissionFailed, err, "查询 gas 价格失败")
		}
		gasPrice = price
	}
	gasLimit := req.GasLimit
	if gasLimit == 0 {
		to := req.To
		estimate, err := s.backend.EstimateGas(ctx, gethcore.CallMsg{
			From:     s.Address(),
			To:       &to,
			GasPrice: gasPrice,
			Value:    value,
			Data:     req.Data,
		})
		if err != nil {
			return nil, xerrors.Wrap(xerrors.CodeSubmissionFailed, err, "估算 gas 失败")
		}
		gasLimit = estimate
	}
	return coretypes.NewTx(&coretypes.LegacyTx{
		Nonce:    req.Nonce,
		To:       &req.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     req.Data,
	}), nil
}

// Sign signs tx with the agent identity for the session's chain.
func (s *Session) Sign(tx *coretypes.Transaction) (*coretypes.Transaction, error) {
	signed, err := s.identity.sign(tx, s.chainID)
	if err != nil {
		// 签名失败说明密钥或链 ID 有误，重试无济于事。
		return nil, xerrors.Wrap(xerrors.CodeSubmissionFailed, err, "签名交易失败",
			xerrors.WithRetryable(false), xerrors.WithSeverity(xerrors.SeverityCritical))
	}
	return signed, nil
}

// Submit broadcasts a signed transaction and returns its hash.
func (s *Session) Submit(ctx context.Context, tx *coretypes.Transaction) (common.Hash, error) {
	if err := s.backend.SendTransaction(ctx, tx); err != nil {
		return common.Hash{}, xerrors.Wrap(xerrors.CodeSubmissionFailed, err, "广播交易失败")
	}
	s.log.Debug("transaction submitted",
		slog.String("tx_hash", tx.Hash().Hex()),
		slog.Uint64("nonce", tx.Nonce()),
	)
	return tx.Hash(), nil
}

// WaitForReceipt polls for the receipt of hash until it is mined or timeout
// elapses. A timeout leaves the transaction status unknown.
func (s *Session) WaitForReceipt(ctx context.Context, hash common.Hash, timeout time.Duration) (*coretypes.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	txHash := xerrors.WithMetadata("tx_hash", hash.Hex())
	for {
		receipt, err := s.backend.TransactionReceipt(waitCtx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == coretypes.ReceiptStatusFailed {
				return receipt, xerrors.New(xerrors.CodeExecutionFailed, "交易执行失败", txHash)
			}
			return receipt, nil
		case err != nil && !errors.Is(err, gethcore.NotFound) && waitCtx.Err() == nil:
			// 交易已广播，结果未知，不能当作可重试的读错误。
			return nil, xerrors.Wrap(xerrors.CodeRPCFailure, err, "查询交易回执失败", txHash, xerrors.WithRetryable(false))
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, xerrors.Wrap(xerrors.CodeConfirmationTimeout, ctx.Err(), "等待交易确认被取消", txHash)
			}
			return nil, xerrors.New(xerrors.CodeConfirmationTimeout, fmt.Sprintf("交易 %s 在 %s 内未确认", hash.Hex(), timeout), txHash)
		case <-ticker.C:
		}
	}
}
