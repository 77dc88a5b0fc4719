// Package session holds the client session: selected location, authenticated
// shop and cart. Every mutation is written to the durable store first and only
// then applied in memory, so a failed write leaves the previous state visible.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const (
	KeyLocation  = "@ratana:userLocation"
	KeyShop      = "@ratana:shopData"
	KeyCart      = "@ratana:cart"
	KeyUserPrefs = "@ratana:userPrefs"
)

var ErrPersist = errors.New("failed to persist session state")

type Store struct {
	kv  kvstore.Store
	log *slog.Logger

	// writeMu serializes persist-then-commit sequences so concurrent
	// mutations cannot overwrite each other's writes.
	writeMu sync.Mutex

	mu          sync.RWMutex
	location    *domain.Location
	shop        *domain.Shop
	cart        domain.Cart
	initialized bool
}

func New(kv kvstore.Store, log *slog.Logger) *Store {
	return &Store{
		kv:  kv,
		log: log.With(slog.String("component", "session")),
	}
}

// Init hydrates the session from durable storage. The three keys are read
// concurrently; a read or decode failure leaves only that field empty.
func (s *Store) Init(ctx context.Context) {
	var (
		location *domain.Location
		shop     *domain.Shop
		cart     domain.Cart
	)

	var g errgroup.Group
	g.Go(func() error {
		var loc domain.Location
		if s.load(ctx, KeyLocation, &loc) {
			location = &loc
		}
		return nil
	})
	g.Go(func() error {
		var sh domain.Shop
		if s.load(ctx, KeyShop, &sh) {
			shop = &sh
		}
		return nil
	})
	g.Go(func() error {
		var c domain.Cart
		if s.load(ctx, KeyCart, &c) {
			cart = c
		}
		return nil
	})
	_ = g.Wait()

	s.mu.Lock()
	s.location = location
	s.shop = shop
	s.cart = cart
	s.initialized = true
	s.mu.Unlock()

	s.log.InfoContext(ctx, "session hydrated",
		slog.Bool("has_location", location != nil),
		slog.Bool("has_shop", shop != nil),
		slog.Int("cart_lines", len(cart)))
}

func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

func (s *Store) Location() (domain.Location, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.location == nil {
		return domain.Location{}, false
	}
	return *s.location, true
}

func (s *Store) Shop() (domain.Shop, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.shop == nil {
		return domain.Shop{}, false
	}
	return *s.shop, true
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() domain.Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(domain.Cart, len(s.cart))
	copy(out, s.cart)
	return out
}

func (s *Store) CartTotal() decimal.Decimal {
	return s.Cart().Total()
}

func (s *Store) CartItemCount() int {
	return s.Cart().ItemCount()
}

func (s *Store) SetLocation(ctx context.Context, loc domain.Location) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.save(ctx, KeyLocation, loc); err != nil {
		return err
	}

	s.mu.Lock()
	s.location = &loc
	s.mu.Unlock()
	return nil
}

func (s *Store) SetShop(ctx context.Context, shop domain.Shop) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.save(ctx, KeyShop, shop); err != nil {
		return err
	}

	s.mu.Lock()
	s.shop = &shop
	s.mu.Unlock()
	return nil
}

func (s *Store) AddToCart(ctx context.Context, item domain.CartItem) error {
	return s.mutateCart(ctx, func(c domain.Cart) domain.Cart {
		return c.Add(item)
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, key domain.LineKey, qty int) error {
	return s.mutateCart(ctx, func(c domain.Cart) domain.Cart {
		return c.UpdateQuantity(key, qty)
	})
}

func (s *Store) RemoveFromCart(ctx context.Context, key domain.LineKey) error {
	return s.mutateCart(ctx, func(c domain.Cart) domain.Cart {
		return c.Remove(key)
	})
}

func (s *Store) ClearCart(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.kv.Remove(ctx, KeyCart); err != nil {
		s.log.ErrorContext(ctx, "clear cart failed", slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}

	s.mu.Lock()
	s.cart = nil
	s.mu.Unlock()
	return nil
}

// Logout removes every session key and resets memory even when the removal
// fails; the removal error is still returned.
func (s *Store) Logout(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err := s.kv.RemoveMany(ctx, KeyLocation, KeyShop, KeyCart, KeyUserPrefs)
	if err != nil {
		s.log.WarnContext(ctx, "clearing session storage failed", slog.Any("error", err))
	}

	s.mu.Lock()
	s.location = nil
	s.shop = nil
	s.cart = nil
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *Store) mutateCart(ctx context.Context, fn func(domain.Cart) domain.Cart) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := fn(s.Cart())
	if err := s.save(ctx, KeyCart, next); err != nil {
		return err
	}

	s.mu.Lock()
	s.cart = next
	s.mu.Unlock()
	return nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %w", ErrPersist, key, err)
	}
	if err := s.kv.Set(ctx, key, string(data)); err != nil {
		s.log.ErrorContext(ctx, "saving session state failed", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// load reports whether key held a decodable value.
func (s *Store) load(ctx context.Context, key string, v any) bool {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, kvstore.ErrNotFound) {
		return false
	}
	if err != nil {
		s.log.WarnContext(ctx, "reading session state failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		s.log.WarnContext(ctx, "decoding session state failed", slog.String("key", key), slog.Any("error", err))
		return false
	}
	return true
}
