package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	block  bool
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestProducer(w *fakeWriter) *Producer {
	return &Producer{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// --- Event ---

func TestNewEvent(t *testing.T) {
	type placed struct {
		OrderID string `json:"order_id"`
	}

	event, err := NewEvent("order.placed", "o-1", "order", "storefront", placed{OrderID: "o-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, 1, event.Version)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, 2*time.Second)

	var got placed
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, "o-1", got.OrderID)
}

func TestNewEvent_UnmarshalablePayload(t *testing.T) {
	_, err := NewEvent("x", "a", "t", "s", make(chan int))
	assert.Error(t, err)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "storefront.order.placed", Topic("order", "placed"))
	assert.Equal(t, "storefront.review.created", Topic("review", "created"))
}

// --- Producer ---

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newTestProducer(w)

	event, err := NewEvent("order.paid", "o-9", "order", "storefront", map[string]string{"order_id": "o-9"})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), Topic("order", "paid"), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "storefront.order.paid", msg.Topic)
	assert.Equal(t, "o-9", string(msg.Key))
	assert.Equal(t, "order.paid", header(msg, "event_type"))
	assert.Equal(t, "corr-1", header(msg, "correlation_id"))

	decoded, err := UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
}

func TestProducer_PublishError(t *testing.T) {
	p := newTestProducer(&fakeWriter{err: errors.New("leader not available")})

	event, err := NewEvent("order.paid", "o-9", "order", "storefront", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), Topic("order", "paid"), event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestProducer_PublishTimesOut(t *testing.T) {
	p := newTestProducer(&fakeWriter{block: true})
	p.publishTimeout = 20 * time.Millisecond

	event, err := NewEvent("order.placed", "o-1", "order", "storefront", nil)
	require.NoError(t, err)

	start := time.Now()
	err = p.Publish(context.Background(), Topic("order", "placed"), event)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewProducer_BoundsRetries(t *testing.T) {
	cfg := DefaultProducerConfig([]string{"localhost:19092"})
	p := NewProducer(cfg, slog.Default())
	defer p.Close()

	w, ok := p.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 3, w.MaxAttempts)
	assert.Equal(t, 2*time.Second, p.publishTimeout)
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newTestProducer(w).Close())
	assert.True(t, w.closed)
}

func TestNewProducer_DoesNotConnect(t *testing.T) {
	p := NewProducer(DefaultProducerConfig([]string{"localhost:19092"}), slog.Default())
	require.NotNil(t, p)
	assert.NoError(t, p.Close())
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}
