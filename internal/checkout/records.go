package checkout

import (
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// The document store carries plain numbers; decimals are converted here.

type orderRecord struct {
	ID              string               `bson:"_id"`
	OrderNumber     string               `bson:"orderNumber"`
	ShopID          string               `bson:"shopId"`
	ShopName        string               `bson:"shopName"`
	ShopPhone       string               `bson:"shopPhone"`
	ShopAddress     string               `bson:"shopAddress"`
	CustomerName    string               `bson:"customerName"`
	CustomerPhone   string               `bson:"customerPhone"`
	CustomerAddress string               `bson:"customerAddress"`
	LocationID      string               `bson:"locationId"`
	TotalAmount     float64              `bson:"totalAmount"`
	ItemCount       int                  `bson:"itemCount"`
	Status          domain.OrderStatus   `bson:"status"`
	PaymentMethod   domain.PaymentMethod `bson:"paymentMethod"`
	CreatedAt       time.Time            `bson:"createdAt"`
}

type orderItemRecord struct {
	ID           string  `bson:"_id"`
	OrderID      string  `bson:"orderId"`
	ProductID    string  `bson:"productId"`
	ProductName  string  `bson:"productName"`
	Variant      string  `bson:"variant"`
	PriceGroupID string  `bson:"priceGroupId,omitempty"`
	Quantity     int     `bson:"quantity"`
	Price        float64 `bson:"price"`
	Unit         string  `bson:"unit"`
	Subtotal     float64 `bson:"subtotal"`
}

func newOrderRecord(o domain.Order) orderRecord {
	return orderRecord{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		ShopID:          o.ShopID,
		ShopName:        o.ShopName,
		ShopPhone:       o.ShopPhone,
		ShopAddress:     o.ShopAddress,
		CustomerName:    o.CustomerName,
		CustomerPhone:   o.CustomerPhone,
		CustomerAddress: o.CustomerAddress,
		LocationID:      o.LocationID,
		TotalAmount:     o.TotalAmount.InexactFloat64(),
		ItemCount:       o.ItemCount,
		Status:          o.Status,
		PaymentMethod:   o.PaymentMethod,
		CreatedAt:       o.CreatedAt,
	}
}

func newOrderItemRecord(it domain.OrderItem) orderItemRecord {
	return orderItemRecord{
		ID:           it.ID,
		OrderID:      it.OrderID,
		ProductID:    it.ProductID,
		ProductName:  it.ProductName,
		Variant:      it.Variant,
		PriceGroupID: it.PriceGroupID,
		Quantity:     it.Quantity,
		Price:        it.Price.InexactFloat64(),
		Unit:         it.Unit,
		Subtotal:     it.Subtotal.InexactFloat64(),
	}
}
