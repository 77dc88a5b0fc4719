// Package checkout turns the session cart into a cash-on-delivery order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/fjod/go_cart/storefront/internal/docstore"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/fjod/go_cart/storefront/internal/validation"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSessionIncomplete = errors.New("select a location and log in before placing an order")
	ErrEmptyCart         = errors.New("your cart is empty")
	ErrCartNotCleared    = errors.New("order placed but the cart could not be cleared")
)

// maxItemWriters bounds concurrent order item writes.
const maxItemWriters = 4

// PartialOrderError reports an order whose header was written but whose items
// were not all stored. Nothing is rolled back.
type PartialOrderError struct {
	OrderID     string
	OrderNumber string
	Err         error
}

func (e *PartialOrderError) Error() string {
	return fmt.Sprintf("order %s (%s) stored without all of its items: %v", e.OrderNumber, e.OrderID, e.Err)
}

func (e *PartialOrderError) Unwrap() error {
	return e.Err
}

type Placement struct {
	OrderID     string
	OrderNumber string
}

type Session interface {
	Location() (domain.Location, bool)
	Shop() (domain.Shop, bool)
	Cart() domain.Cart
	ClearCart(ctx context.Context) error
}

type Collections struct {
	Orders     string
	OrderItems string
}

type Service struct {
	store       docstore.Store
	collections Collections
	session     Session
	publisher   publisher.OrderPublisher
	log         *slog.Logger

	now   func() time.Time
	draw  func() int
	newID func() string
}

func NewService(store docstore.Store, collections Collections, session Session,
	pub publisher.OrderPublisher, log *slog.Logger) *Service {
	if pub == nil {
		pub = publisher.Nop{}
	}
	return &Service{
		store:       store,
		collections: collections,
		session:     session,
		publisher:   pub,
		log:         log.With(slog.String("component", "checkout")),
		now:         time.Now,
		draw:        func() int { return rand.Intn(domain.OrderSequenceRange) },
		newID:       uuid.NewString,
	}
}

func ValidateCustomer(c domain.CustomerInfo) error {
	errs := validation.Errors{}
	errs.Add("name", validation.Name(c.Name))
	errs.Add("phone", validation.Phone(c.Phone))
	errs.Add("address", validation.Address(c.Address))
	return errs.Err()
}

// PlaceOrder writes the order and one item per cart line, then clears the cart.
// A failed item write yields *PartialOrderError. When only the cart clear
// fails the placement is returned together with ErrCartNotCleared.
func (s *Service) PlaceOrder(ctx context.Context, customer domain.CustomerInfo) (*Placement, error) {
	loc, hasLoc := s.session.Location()
	shop, hasShop := s.session.Shop()
	if !hasLoc || !hasShop {
		return nil, ErrSessionIncomplete
	}

	cart := s.session.Cart()
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	if err := ValidateCustomer(customer); err != nil {
		return nil, err
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	order := domain.Order{
		ID:              s.newID(),
		OrderNumber:     domain.NewOrderNumber(now, s.draw()),
		ShopID:          shop.ID,
		ShopName:        shop.Name,
		ShopPhone:       shop.Phone,
		ShopAddress:     shop.Address,
		CustomerName:    strings.TrimSpace(customer.Name),
		CustomerPhone:   validation.NormalizePhone(customer.Phone),
		CustomerAddress: strings.TrimSpace(customer.Address),
		LocationID:      loc.ID,
		TotalAmount:     cart.Total(),
		ItemCount:       len(cart),
		Status:          domain.OrderStatusPending,
		PaymentMethod:   domain.PaymentCashOnDelivery,
		CreatedAt:       now,
	}

	log := s.log.With(slog.String("order_id", order.ID), slog.String("order_number", order.OrderNumber))

	if _, err := s.store.Create(ctx, s.collections.Orders, order.ID, newOrderRecord(order)); err != nil {
		log.ErrorContext(ctx, "order write failed", slog.Any("error", err))
		return nil, fmt.Errorf("failed to place order: %w", err)
	}

	items := make([]domain.OrderItem, len(cart))
	for i, line := range cart {
		items[i] = domain.OrderItemFromCart(order.ID, line)
		items[i].ID = s.newID()
	}

	if err := s.writeItems(ctx, items); err != nil {
		log.ErrorContext(ctx, "order item write failed", slog.Any("error", err))
		return nil, &PartialOrderError{OrderID: order.ID, OrderNumber: order.OrderNumber, Err: err}
	}

	placement := &Placement{OrderID: order.ID, OrderNumber: order.OrderNumber}

	clearErr := s.session.ClearCart(ctx)
	if clearErr != nil {
		log.ErrorContext(ctx, "cart clear after order failed", slog.Any("error", clearErr))
	}

	if err := s.publisher.PublishOrderPlaced(ctx, order, items); err != nil {
		log.WarnContext(ctx, "order event not published", slog.Any("error", err))
	}

	if clearErr != nil {
		return placement, fmt.Errorf("%w: %w", ErrCartNotCleared, clearErr)
	}

	log.InfoContext(ctx, "order placed",
		slog.String("shop_id", shop.ID),
		slog.Int("item_count", order.ItemCount),
		slog.String("total", order.TotalAmount.StringFixed(2)))
	return placement, nil
}

func (s *Service) writeItems(ctx context.Context, items []domain.OrderItem) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxItemWriters)

	for _, item := range items {
		item := item
		g.Go(func() error {
			_, err := s.store.Create(gctx, s.collections.OrderItems, item.ID, newOrderItemRecord(item))
			if err != nil {
				return fmt.Errorf("item %s: %w", item.ProductID, err)
			}
			return nil
		})
	}
	return g.Wait()
}
