package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	ekafka "ekanban/internal/adapters/out/kafka"
	"ekanban/internal/core/domain/model/kernel"
	"ekanban/internal/core/domain/model/order"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := ekafka.NewPublisher(w)
	id := kernel.NewUUID()
	at := time.Date(2025, 5, 12, 14, 0, 0, 0, time.FixedZone("ART", -3*60*60))

	err := p.Publish(t.Context(), order.ChangedEvent{
		OrderID:    id,
		CardID:     "MAT-001",
		Location:   "Bobinado 1",
		Status:     order.InTransit,
		OccurredAt: at,
	})
	require.NoError(t, err)

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, id.String(), string(msg.Key))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, map[string]any{
		"orderId":    id.String(),
		"cardId":     "MAT-001",
		"location":   "Bobinado 1",
		"status":     "IN_TRANSIT",
		"occurredAt": "2025-05-12T17:00:00Z",
	}, body)
}

func TestPublisher_PublishError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := ekafka.NewPublisher(w)

	err := p.Publish(t.Context(), order.ChangedEvent{OrderID: kernel.NewUUID(), Status: order.Pending})

	require.ErrorIs(t, err, w.err)
}

func TestPublisher_Close(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, ekafka.NewPublisher(w).Close())
	assert.True(t, w.closed)
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ekafka.ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ekafka.ParseBrokers(""))
}

func TestNewWriter(t *testing.T) {
	w := ekafka.NewWriter("a:9092,b:9092", "ekanban.order-changed")
	defer w.Close()

	assert.Equal(t, "ekanban.order-changed", w.Topic)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.Less(t, w.BatchTimeout, time.Second)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
