// Package catalog reads service areas, categories and products from the
// document store and folds products into price groups.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fjod/go_cart/storefront/internal/docstore"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/sync/singleflight"
)

type Collections struct {
	Locations  string
	Categories string
	Products   string
}

type Service struct {
	store       docstore.Store
	collections Collections
	log         *slog.Logger
	sfg         singleflight.Group // collapses concurrent reference-data reads
}

func NewService(store docstore.Store, collections Collections, log *slog.Logger) *Service {
	return &Service{
		store:       store,
		collections: collections,
		log:         log.With(slog.String("component", "catalog")),
	}
}

// Locations returns active service areas ordered by name.
func (s *Service) Locations(ctx context.Context) ([]domain.Location, error) {
	v, err := s.shared(ctx, "locations", func(ctx context.Context) (any, error) {
		q := docstore.Query{}.Where("isActive", true).OrderAsc("name")
		return list(ctx, s.store, s.collections.Locations, q, decodeLocation)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "fetching locations failed", slog.Any("error", err))
		return nil, err
	}
	return clone(v.([]domain.Location)), nil
}

// Categories returns active categories ordered by sort order, then name.
func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	v, err := s.shared(ctx, "categories", func(ctx context.Context) (any, error) {
		q := docstore.Query{}.Where("isActive", true).OrderAsc("order").OrderAsc("name")
		return list(ctx, s.store, s.collections.Categories, q, decodeCategory)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "fetching categories failed", slog.Any("error", err))
		return nil, err
	}
	return clone(v.([]domain.Category)), nil
}

// Products returns the active products of a location, optionally limited to
// one category, grouped by price group. Products are read in name order.
func (s *Service) Products(ctx context.Context, locationID, categoryID string) ([]domain.ProductGroup, error) {
	q := docstore.Query{}.Where("locationId", locationID).Where("isActive", true)
	if categoryID != "" {
		q = q.Where("categoryId", categoryID)
	}
	q = q.OrderAsc("name")

	products, err := list(ctx, s.store, s.collections.Products, q, decodeProduct)
	if err != nil {
		s.log.ErrorContext(ctx, "fetching products failed",
			slog.String("location_id", locationID),
			slog.String("category_id", categoryID),
			slog.Any("error", err))
		return nil, err
	}

	return domain.GroupProducts(products), nil
}

// shared runs one read per key for all concurrent callers. The read is
// detached from any single caller's cancellation; each caller still stops
// waiting when its own context ends.
func (s *Service) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	ch := s.sfg.DoChan(key, func() (any, error) {
		return fn(context.WithoutCancel(ctx))
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func list[T any](ctx context.Context, store docstore.Store, collection string, q docstore.Query,
	decode func(string, bson.Raw) (T, error)) ([]T, error) {

	docs, err := store.List(ctx, collection, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", collection, err)
	}

	out := make([]T, 0, len(docs))
	for _, raw := range docs {
		v, err := decode(collection, raw)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// clone keeps callers sharing a singleflight result from aliasing each other.
func clone[T any](in []T) []T {
	return append([]T(nil), in...)
}
