package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

type mockWriter struct {
	m        sync.Mutex
	messages []kafkaGo.Message
	err      error
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafkaGo.Message) error {
	w.m.Lock()
	defer w.m.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *mockWriter) Close() error { return nil }

func sampleOrder() (domain.Order, []domain.OrderItem) {
	order := domain.Order{
		ID:            "order-1",
		OrderNumber:   "ORD2503070042",
		ShopID:        "shop-1",
		LocationID:    "L1",
		CustomerName:  "Ravi",
		CustomerPhone: "9876543210",
		TotalAmount:   decimal.NewFromInt(160),
		ItemCount:     2,
		PaymentMethod: domain.PaymentCashOnDelivery,
		CreatedAt:     time.Date(2025, 3, 7, 10, 0, 0, 0, time.UTC),
	}
	items := []domain.OrderItem{
		{OrderID: "order-1", ProductID: "p1", Variant: "1kg", Quantity: 1, Price: decimal.NewFromInt(100), Subtotal: decimal.NewFromInt(100)},
		{OrderID: "order-1", ProductID: "g2", Variant: domain.DefaultVariant, Quantity: 2, Price: decimal.NewFromInt(30), Subtotal: decimal.NewFromInt(60)},
	}
	return order, items
}

func TestKafka_PublishOrderPlaced(t *testing.T) {
	w := &mockWriter{}
	p := &Kafka{writer: w, log: logger.Nop()}
	order, items := sampleOrder()

	require.NoError(t, p.PublishOrderPlaced(context.Background(), order, items))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "order-1", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, EventOrderPlaced, string(msg.Headers[0].Value))

	var ev OrderPlacedEvent
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, "ORD2503070042", ev.OrderNumber)
	assert.True(t, decimal.NewFromInt(160).Equal(ev.TotalAmount))
	require.Len(t, ev.Items, 2)
	assert.Equal(t, "g2", ev.Items[1].ProductID)
	assert.Equal(t, domain.DefaultVariant, ev.Items[1].Variant)
}

func TestKafka_WriteError(t *testing.T) {
	w := &mockWriter{err: errors.New("broker down")}
	p := &Kafka{writer: w, log: logger.Nop()}
	order, items := sampleOrder()

	err := p.PublishOrderPlaced(context.Background(), order, items)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "order-1")
}

func TestNop(t *testing.T) {
	order, items := sampleOrder()
	assert.NoError(t, Nop{}.PublishOrderPlaced(context.Background(), order, items))
}

func TestKafka_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode")
	}
	ctx := context.Background()

	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate kafka container: %v", err)
		}
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)

	p := NewKafka("orders-placed-test", logger.Nop(), brokers...)
	defer p.Close()

	order, items := sampleOrder()
	// the first write may race topic auto-creation
	require.Eventually(t, func() bool {
		return p.PublishOrderPlaced(ctx, order, items) == nil
	}, 30*time.Second, time.Second)

	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers:  brokers,
		Topic:    "orders-placed-test",
		GroupID:  "storefront-test",
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer reader.Close()

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err)
	assert.Equal(t, "order-1", string(msg.Key))
}
