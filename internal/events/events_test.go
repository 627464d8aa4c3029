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

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &KafkaPublisher{w: w, timeout: time.Second}

	env, err := NewEnvelope(OrderCreated, "order-1", OrderCreatedPayload{OrderID: "order-1", TotalAmount: 42})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), env))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "order-1", string(msg.Key))
	assert.Equal(t, OrderCreated, string(msg.Headers[0].Value))

	var decoded Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, env.EventID, decoded.EventID)

	var payload OrderCreatedPayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &payload))
	assert.Equal(t, 42.0, payload.TotalAmount)
}

func TestKafkaPublisher_WrapsError(t *testing.T) {
	boom := errors.New("broker down")
	p := &KafkaPublisher{w: &recordingWriter{err: boom}, timeout: time.Second}

	env, err := NewEnvelope(OrderStatusChanged, "order-1", OrderStatusChangedPayload{})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Publish(context.Background(), env), boom)
}

func TestNewEnvelope(t *testing.T) {
	a, err := NewEnvelope(OrderCreated, "o", struct{}{})
	require.NoError(t, err)
	b, err := NewEnvelope(OrderCreated, "o", struct{}{})
	require.NoError(t, err)

	assert.NotEqual(t, a.EventID, b.EventID)
	assert.Equal(t, 1, a.EventVersion)
	assert.Equal(t, producerName, a.Producer)
}
