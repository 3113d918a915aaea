package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func sampleEvent() OrderCompletedEvent {
	return OrderCompletedEvent{
		OrderID:  "order-123",
		ChargeID: "ch_1ABC",
		Items: []OrderItem{
			{ProductID: "1", ProductName: "Album A", Quantity: 2, UnitPrice: 500},
		},
		TotalAmount: 1000,
		Currency:    "usd",
		CompletedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestPublishOrderCompleted(t *testing.T) {
	writer := &fakeWriter{}
	p := &Publisher{writer: writer}

	err := p.PublishOrderCompleted(context.Background(), sampleEvent())

	require.NoError(t, err)
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, []byte("order-123"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("order.completed"), msg.Headers[0].Value)

	var decoded OrderCompletedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, sampleEvent(), decoded)
}

func TestPublishOrderCompleted_WriterError(t *testing.T) {
	writer := &fakeWriter{err: errors.New("broker unreachable")}
	p := &Publisher{writer: writer}

	err := p.PublishOrderCompleted(context.Background(), sampleEvent())

	assert.Error(t, err)
}

func TestPublisher_NilIsNoop(t *testing.T) {
	var p *Publisher

	assert.NoError(t, p.PublishOrderCompleted(context.Background(), sampleEvent()))
	assert.NoError(t, p.Close())
}

func TestNewPublisher_NoBrokers(t *testing.T) {
	assert.Nil(t, NewPublisher())
}

func TestPublisher_Close(t *testing.T) {
	writer := &fakeWriter{}
	p := &Publisher{writer: writer}

	require.NoError(t, p.Close())
	assert.True(t, writer.closed)
}
