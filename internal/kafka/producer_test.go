package kafka

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConsoleProducer_LogsEvent(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := NewConsoleProducer(zap.New(core))

	err := p.SendMessage(context.Background(), "marketplace-events", []byte("user:1"), []byte(`{"event":"order_created"}`))
	require.NoError(t, err)

	entries := logs.FilterMessage("event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "marketplace-events", fields["topic"])
	assert.Equal(t, "user:1", fields["key"])
	assert.NoError(t, p.Close())
}

func TestConsoleProducer_CancelledContext(t *testing.T) {
	p := NewConsoleProducer(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.SendMessage(ctx, "t", nil, nil), context.Canceled)
}

func TestNewKafkaProducer_RequiresBrokers(t *testing.T) {
	_, err := NewKafkaProducer(nil, zap.NewNop())
	assert.Error(t, err)

	p, err := NewKafkaProducer([]string{"localhost:9092"}, zap.NewNop())
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}
