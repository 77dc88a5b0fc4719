// Package publisher announces placed orders to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const EventOrderPlaced = "order.placed"

type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, order domain.Order, items []domain.OrderItem) error
}

type OrderPlacedEvent struct {
	OrderID       string               `json:"order_id"`
	OrderNumber   string               `json:"order_number"`
	ShopID        string               `json:"shop_id"`
	LocationID    string               `json:"location_id"`
	CustomerName  string               `json:"customer_name"`
	CustomerPhone string               `json:"customer_phone"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	ItemCount     int                  `json:"item_count"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	Items         []EventItem          `json:"items"`
	PlacedAt      time.Time            `json:"placed_at"`
}

type EventItem struct {
	ProductID string          `json:"product_id"`
	Variant   string          `json:"variant"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func NewOrderPlacedEvent(order domain.Order, items []domain.OrderItem) OrderPlacedEvent {
	ev := OrderPlacedEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		ShopID:        order.ShopID,
		LocationID:    order.LocationID,
		CustomerName:  order.CustomerName,
		CustomerPhone: order.CustomerPhone,
		TotalAmount:   order.TotalAmount,
		ItemCount:     order.ItemCount,
		PaymentMethod: order.PaymentMethod,
		Items:         make([]EventItem, len(items)),
		PlacedAt:      order.CreatedAt,
	}
	for i, it := range items {
		ev.Items[i] = EventItem{
			ProductID: it.ProductID,
			Variant:   it.Variant,
			Quantity:  it.Quantity,
			Price:     it.Price,
			Subtotal:  it.Subtotal,
		}
	}
	return ev
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Kafka struct {
	writer messageWriter
	log    *slog.Logger
}

func NewKafka(topic string, log *slog.Logger, brokers ...string) *Kafka {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
		RequiredAcks:           kafka.RequireOne,
	}
	return &Kafka{writer: w, log: log.With(slog.String("component", "publisher"))}
}

func (k *Kafka) PublishOrderPlaced(ctx context.Context, order domain.Order, items []domain.OrderItem) error {
	msg, err := buildMessage(order, items)
	if err != nil {
		return err
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish order %s: %w", order.ID, err)
	}

	k.log.InfoContext(ctx, "order event published",
		slog.String("order_id", order.ID),
		slog.String("order_number", order.OrderNumber))
	return nil
}

func (k *Kafka) Close() error {
	return k.writer.Close()
}

func buildMessage(order domain.Order, items []domain.OrderItem) (kafka.Message, error) {
	payload, err := json.Marshal(NewOrderPlacedEvent(order, items))
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal order event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(order.ID), // order id keeps one order's events on one partition
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventOrderPlaced)},
		},
	}, nil
}

// Nop discards events. Used when no brokers are configured.
type Nop struct{}

func (Nop) PublishOrderPlaced(context.Context, domain.Order, []domain.OrderItem) error {
	return nil
}
