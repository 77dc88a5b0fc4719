package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentMethod string

const PaymentCashOnDelivery PaymentMethod = "cod"

const orderNumberPrefix = "ORD"

// OrderSequenceRange bounds the random part of an order number.
const OrderSequenceRange = 10000

type CustomerInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type Order struct {
	ID              string
	OrderNumber     string
	ShopID          string
	ShopName        string
	ShopPhone       string
	ShopAddress     string
	CustomerName    string
	CustomerPhone   string
	CustomerAddress string
	LocationID      string
	TotalAmount     decimal.Decimal
	ItemCount       int
	Status          OrderStatus
	PaymentMethod   PaymentMethod
	CreatedAt       time.Time
}

type OrderItem struct {
	ID           string
	OrderID      string
	ProductID    string
	ProductName  string
	Variant      string
	PriceGroupID string
	Quantity     int
	Price        decimal.Decimal
	Unit         string
	Subtotal     decimal.Decimal
}

// NewOrderNumber formats ORD + yymmdd + the sequence zero-padded to four digits.
func NewOrderNumber(at time.Time, seq int) string {
	return fmt.Sprintf("%s%02d%02d%02d%04d",
		orderNumberPrefix, at.Year()%100, int(at.Month()), at.Day(), seq%OrderSequenceRange)
}

// OrderItemFromCart snapshots a cart line. The product id is the selected
// variant's product, falling back to the group id.
func OrderItemFromCart(orderID string, line CartItem) OrderItem {
	productID := line.ID
	variant := DefaultVariant
	if line.SelectedVariant != nil {
		productID = line.SelectedVariant.ProductID
		variant = line.SelectedVariant.Variant
	}

	return OrderItem{
		OrderID:      orderID,
		ProductID:    productID,
		ProductName:  line.Name,
		Variant:      variant,
		PriceGroupID: line.PriceGroupID,
		Quantity:     line.Quantity,
		Price:        line.Price,
		Unit:         line.Unit,
		Subtotal:     line.Subtotal(),
	}
}
