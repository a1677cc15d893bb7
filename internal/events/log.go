package events

import (
	"context"
	"log/slog"

	"Web3-MCP/pkg/logger"
)

// LogPublisher 将事件写入审计日志。
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher 创建日志发布器，未指定 logger 时使用审计 logger。
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	if log == nil {
		log = logger.Audit()
	}
	return &LogPublisher{log: log}
}

// Publish 记录一条事件日志。
func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	attrs := []slog.Attr{
		slog.String("event_id", event.ID),
		slog.String("tool", event.Tool),
		slog.String("stage", string(event.Stage)),
		slog.String("network", event.Network),
		slog.Uint64("nonce", event.Nonce),
	}
	if event.TxHash != "" {
		attrs = append(attrs, slog.String("tx_hash", event.TxHash))
	}
	if event.GasPrice != "" {
		attrs = append(attrs, slog.String("gas_price", event.GasPrice))
	}
	level := slog.LevelInfo
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
		level = slog.LevelWarn
	}
	p.log.LogAttrs(ctx, level, "transaction event", attrs...)
	return nil
}

// Close 无需释放资源。
func (p *LogPublisher) Close() error { return nil }
