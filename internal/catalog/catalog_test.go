package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fjod/go_cart/storefront/internal/docstore"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

var testCollections = Collections{Locations: "locations", Categories: "categories", Products: "products"}

func setup(t *testing.T) (*Service, *docstore.MemoryStore) {
	t.Helper()
	store := docstore.NewMemoryStore()
	ctx := context.Background()

	locations := []domain.Location{
		{ID: "L2", Name: "Thrissur", IsActive: true},
		{ID: "L1", Name: "Kochi", IsActive: true},
		{ID: "L3", Name: "Alappuzha", IsActive: false},
	}
	for _, l := range locations {
		_, err := store.Create(ctx, "locations", l.ID, l)
		require.NoError(t, err)
	}

	categories := []domain.Category{
		{ID: "c1", Name: "Oils", Order: 2, IsActive: true},
		{ID: "c2", Name: "Grains", Order: 1, IsActive: true},
		{ID: "c3", Name: "Beverages", Order: 2, IsActive: true},
		{ID: "c4", Name: "Hidden", Order: 0, IsActive: false},
	}
	for _, c := range categories {
		_, err := store.Create(ctx, "categories", c.ID, c)
		require.NoError(t, err)
	}

	products := []domain.Product{
		{ID: "p1", Name: "Basmati Rice", CategoryID: "c2", LocationID: "L1", PriceGroupID: "rice", Price: decimal.NewFromInt(120), Unit: "bag", Variant: "1kg", IsActive: true},
		{ID: "p2", Name: "Coconut Oil", CategoryID: "c1", LocationID: "L1", Price: decimal.RequireFromString("89.5"), Unit: "bottle", IsActive: true},
		{ID: "p3", Name: "Basmati Rice", CategoryID: "c2", LocationID: "L1", PriceGroupID: "rice", Price: decimal.NewFromInt(120), Unit: "bag", Variant: "5kg", IsActive: true},
		{ID: "p4", Name: "Atta", CategoryID: "c2", LocationID: "L1", Price: decimal.NewFromInt(60), Unit: "kg", IsActive: true},
		{ID: "p5", Name: "Basmati Rice", CategoryID: "c2", LocationID: "L2", PriceGroupID: "rice", Price: decimal.NewFromInt(125), Unit: "bag", Variant: "1kg", IsActive: true},
		{ID: "p6", Name: "Jaggery", CategoryID: "c2", LocationID: "L1", Price: decimal.NewFromInt(70), Unit: "kg", IsActive: false},
	}
	for _, p := range products {
		_, err := store.Create(ctx, "products", p.ID, NewProductRecord(p))
		require.NoError(t, err)
	}

	return NewService(store, testCollections, logger.Nop()), store
}

func TestLocations_ActiveByName(t *testing.T) {
	svc, _ := setup(t)

	locations, err := svc.Locations(context.Background())
	require.NoError(t, err)
	require.Len(t, locations, 2)
	assert.Equal(t, "Kochi", locations[0].Name)
	assert.Equal(t, "Thrissur", locations[1].Name)
}

func TestCategories_ByOrderThenName(t *testing.T) {
	svc, _ := setup(t)

	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	ids := make([]string, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
	}
	assert.Equal(t, []string{"c2", "c3", "c1"}, ids)
}

func TestProducts_GroupsByPriceGroup(t *testing.T) {
	svc, _ := setup(t)

	groups, err := svc.Products(context.Background(), "L1", "")
	require.NoError(t, err)

	// name order: Atta, Basmati Rice x2, Coconut Oil; inactive Jaggery dropped
	require.Len(t, groups, 3)
	assert.Equal(t, "p4", groups[0].ID)
	assert.Equal(t, "rice", groups[1].ID)
	assert.Equal(t, "p2", groups[2].ID)

	rice := groups[1]
	require.Len(t, rice.Variants, 2)
	assert.Equal(t, "1kg", rice.Variants[0].Variant)
	assert.Equal(t, "5kg", rice.Variants[1].Variant)
	assert.True(t, decimal.NewFromInt(120).Equal(rice.Price))
	assert.Equal(t, "89.5", groups[2].Price.String())
	assert.Equal(t, domain.DefaultVariant, groups[2].Variants[0].Variant)
}

func TestProducts_CategoryFilter(t *testing.T) {
	svc, _ := setup(t)

	groups, err := svc.Products(context.Background(), "L1", "c1")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Coconut Oil", groups[0].Name)

	groups, err = svc.Products(context.Background(), "L2", "")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "125", groups[0].Price.String())
}

func TestProducts_MalformedRecordFailsFast(t *testing.T) {
	svc, store := setup(t)
	_, err := store.Create(context.Background(), "products", "bad", bson.M{
		"name": "No Price", "locationId": "L1", "isActive": true,
	})
	require.NoError(t, err)

	_, err = svc.Products(context.Background(), "L1", "")
	assert.ErrorIs(t, err, docstore.ErrMalformedRecord)
}

func TestLocations_MalformedRecord(t *testing.T) {
	svc, store := setup(t)
	_, err := store.Create(context.Background(), "locations", "L9", bson.M{"isActive": true, "name": 12})
	require.NoError(t, err)

	_, err = svc.Locations(context.Background())
	assert.ErrorIs(t, err, docstore.ErrMalformedRecord)
}

type brokenStore struct{}

func (brokenStore) List(context.Context, string, docstore.Query) ([]bson.Raw, error) {
	return nil, errors.New("network unreachable")
}

func (brokenStore) Create(context.Context, string, string, any) (bson.Raw, error) {
	return nil, errors.New("network unreachable")
}

func TestRemoteFailureIsReturned(t *testing.T) {
	svc := NewService(brokenStore{}, testCollections, logger.Nop())

	_, err := svc.Locations(context.Background())
	assert.ErrorContains(t, err, "network unreachable")
	_, err = svc.Categories(context.Background())
	assert.ErrorContains(t, err, "failed to list categories")
	_, err = svc.Products(context.Background(), "L1", "")
	assert.ErrorContains(t, err, "network unreachable")
}

// gatedStore holds List calls until the gate is closed.
type gatedStore struct {
	docstore.Store
	entered chan struct{}
	gate    chan struct{}
}

func (g *gatedStore) List(ctx context.Context, collection string, q docstore.Query) ([]bson.Raw, error) {
	g.entered <- struct{}{}
	<-g.gate
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return g.Store.List(ctx, collection, q)
}

func TestLocations_CancelledCallerDoesNotFailOthers(t *testing.T) {
	svc, store := setup(t)
	gated := &gatedStore{Store: store, entered: make(chan struct{}, 4), gate: make(chan struct{})}
	svc.store = gated

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Locations(ctx)
		firstErr <- err
	}()
	<-gated.entered

	type result struct {
		locations []domain.Location
		err       error
	}
	second := make(chan result, 1)
	go func() {
		locs, err := svc.Locations(context.Background())
		second <- result{locs, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(gated.gate)
	res := <-second
	require.NoError(t, res.err)
	assert.Len(t, res.locations, 2)
}
