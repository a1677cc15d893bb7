package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"Web3-MCP/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublisherBoundedAndDrain(t *testing.T) {
	p := NewMemoryPublisher(2)
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, p.Publish(ctx, NewEvent("wrap_eth", StageSigned, now)))
	require.NoError(t, p.Publish(ctx, NewEvent("wrap_eth", StageSubmitted, now)))
	assert.Error(t, p.Publish(ctx, NewEvent("wrap_eth", StageConfirmed, now)), "full buffer must not block")

	got := p.Drain()
	require.Len(t, got, 2)
	assert.Equal(t, StageSigned, got[0].Stage)
	assert.Equal(t, StageSubmitted, got[1].Stage)
	assert.NotEqual(t, got[0].ID, got[1].ID)

	require.NoError(t, p.Close())
	assert.Error(t, p.Publish(ctx, NewEvent("wrap_eth", StageSigned, now)))
}

func TestLogPublisherWritesStructuredRecord(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	ev := NewEvent("swap_tokens_for_tokens", StageReverted, time.Now())
	ev.TxHash = "0xabc"
	ev.Nonce = 8
	ev.Network = "sepolia"
	ev.Error = "execution reverted"
	require.NoError(t, p.Publish(context.Background(), ev))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "0xabc", record["tx_hash"])
	assert.Equal(t, "reverted", record["stage"])
	assert.EqualValues(t, 8, record["nonce"])
}

func TestNewSelectsDriver(t *testing.T) {
	p, err := New(config.EventsConfig{Driver: "memory", MemoryCapacity: 4}, nil)
	require.NoError(t, err)
	assert.IsType(t, &MemoryPublisher{}, p)

	p, err = New(config.EventsConfig{}, slog.Default())
	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, p)

	_, err = New(config.EventsConfig{Driver: "kafka"}, nil)
	assert.Error(t, err)

	_, err = New(config.EventsConfig{Driver: "redis"}, nil)
	assert.ErrorContains(t, err, "Redis address")

	_, err = New(config.EventsConfig{Driver: "rabbitmq"}, nil)
	assert.ErrorContains(t, err, "RabbitMQ URL")
}
