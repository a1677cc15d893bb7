package events

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Web3-MCP/internal/config"

	"github.com/google/uuid"
)

// Stage 表示交易在状态机中的阶段。
type Stage string

const (
	StageBuilt     Stage = "built"
	StageSigned    Stage = "signed"
	StageSubmitted Stage = "submitted"
	StageConfirmed Stage = "confirmed"
	StageReverted  Stage = "reverted"
	StageTimedOut  Stage = "timed_out"
	StageFailed    Stage = "failed"
)

// Event 描述一笔交易的一次状态变化。
type Event struct {
	ID         string    `json:"id"`
	Tool       string    `json:"tool"`
	Stage      Stage     `json:"stage"`
	TxHash     string    `json:"tx_hash,omitempty"`
	Nonce      uint64    `json:"nonce"`
	GasPrice   string    `json:"gas_price,omitempty"`
	Network    string    `json:"network"`
	Error      string    `json:"error,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent 创建带有唯一 ID 的事件。
func NewEvent(tool string, stage Stage, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Tool:       tool,
		Stage:      stage,
		OccurredAt: at.UTC(),
	}
}

// Publisher 负责把事件投递到下游。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// New 根据配置创建发布器。
func New(cfg config.EventsConfig, log *slog.Logger) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "log":
		return NewLogPublisher(log), nil
	case "memory":
		return NewMemoryPublisher(cfg.MemoryCapacity), nil
	case "redis":
		return NewRedisPublisher(RedisConfig{
			Address:  cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
	case "rabbitmq":
		return NewRabbitMQPublisher(RabbitMQConfig{
			URL:     cfg.RabbitMQURL,
			Queue:   cfg.RabbitMQQueue,
			Durable: true,
		})
	default:
		return nil, fmt.Errorf("未知的事件驱动: %s", cfg.Driver)
	}
}
