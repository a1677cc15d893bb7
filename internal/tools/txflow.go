package tools

import (
	"context"
	"log/slog"
	"math/big"

	xerrors "Web3-MCP/internal/errors"
	"Web3-MCP/internal/events"
	"Web3-MCP/internal/observability/metrics"
	"Web3-MCP/internal/web3/ethereum"
	"Web3-MCP/pkg/logger"

	"github.com/ethereum/go-ethereum/common"
)

// transact 驱动一笔交易走完 Built → Signed → Submitted，wait 为真时继续等待确认。
// 每个阶段都会发布事件；发布失败只记录日志。
func (k *Toolkit) transact(ctx context.Context, s *ethereum.Session, tool string, req ethereum.TxRequest, wait bool) (common.Hash, error) {
	tx, err := s.BuildTx(ctx, req)
	if err != nil {
		k.emit(ctx, tool, events.StageFailed, req.Nonce, nil, common.Hash{}, err)
		return common.Hash{}, err
	}
	k.emit(ctx, tool, events.StageBuilt, tx.Nonce(), tx.GasPrice(), common.Hash{}, nil)

	signed, err := s.Sign(tx)
	if err != nil {
		k.emit(ctx, tool, events.StageFailed, tx.Nonce(), tx.GasPrice(), common.Hash{}, err)
		return common.Hash{}, err
	}
	k.emit(ctx, tool, events.StageSigned, signed.Nonce(), signed.GasPrice(), signed.Hash(), nil)

	hash, err := s.Submit(ctx, signed)
	if err != nil {
		k.emit(ctx, tool, events.StageFailed, signed.Nonce(), signed.GasPrice(), signed.Hash(), err)
		return common.Hash{}, err
	}
	k.emit(ctx, tool, events.StageSubmitted, signed.Nonce(), signed.GasPrice(), hash, nil)
	logger.Audit().Info("transaction submitted",
		slog.String("tool", tool),
		slog.String("network", k.network.Name),
		slog.String("from", s.Address().Hex()),
		slog.String("to", req.To.Hex()),
		slog.String("value_wei", signed.Value().String()),
		slog.Uint64("nonce", signed.Nonce()),
		slog.String("tx_hash", hash.Hex()),
	)

	if !wait {
		return hash, nil
	}

	_, err = s.WaitForReceipt(ctx, hash, k.confirmTimeout)
	stage := events.StageConfirmed
	switch {
	case err == nil:
	case xerrors.HasCode(err, xerrors.CodeExecutionFailed):
		stage = events.StageReverted
	case xerrors.HasCode(err, xerrors.CodeConfirmationTimeout):
		stage = events.StageTimedOut
	default:
		stage = events.StageFailed
	}
	k.emit(ctx, tool, stage, signed.Nonce(), signed.GasPrice(), hash, err)
	return hash, err
}

func (k *Toolkit) emit(ctx context.Context, tool string, stage events.Stage, nonce uint64, gasPrice *big.Int, hash common.Hash, cause error) {
	metrics.ObserveTransaction(tool, string(stage))

	ev := events.NewEvent(tool, stage, k.now())
	ev.Network = k.network.Name
	ev.Nonce = nonce
	if gasPrice != nil {
		ev.GasPrice = gasPrice.String()
	}
	if hash != (common.Hash{}) {
		ev.TxHash = hash.Hex()
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	if err := k.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		k.log.Warn("publish transaction event failed",
			slog.String("tool", tool),
			slog.String("stage", string(stage)),
			slog.Any("error", err),
		)
	}
}

func hashOrEmpty(h common.Hash) string {
	if h == (common.Hash{}) {
		return ""
	}
	return h.Hex()
}
