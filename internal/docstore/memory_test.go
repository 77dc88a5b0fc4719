package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type testProduct struct {
	ID         string  `bson:"_id,omitempty"`
	Name       string  `bson:"name"`
	LocationID string  `bson:"locationId"`
	Order      int     `bson:"order"`
	Price      float64 `bson:"price"`
	IsActive   bool    `bson:"isActive"`
}

func seed(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	docs := []testProduct{
		{Name: "Sugar", LocationID: "L1", Order: 2, Price: 45, IsActive: true},
		{Name: "Atta", LocationID: "L1", Order: 2, Price: 60, IsActive: true},
		{Name: "Rice", LocationID: "L2", Order: 1, Price: 120, IsActive: true},
		{Name: "Oil", LocationID: "L1", Order: 1, Price: 90, IsActive: false},
		{Name: "Dal", LocationID: "L1", Order: 1, Price: 80, IsActive: true},
	}
	for i, d := range docs {
		_, err := s.Create(ctx, "products", string(rune('a'+i)), d)
		require.NoError(t, err)
	}
}

func names(t *testing.T, docs []bson.Raw) []string {
	t.Helper()
	out := make([]string, 0, len(docs))
	for _, raw := range docs {
		var p testProduct
		require.NoError(t, Decode(raw, &p))
		out = append(out, p.Name)
	}
	return out
}

func TestMemoryStore_ListFiltersAndOrders(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s)

	q := Query{}.Where("locationId", "L1").Where("isActive", true).OrderAsc("name")
	docs, err := s.List(context.Background(), "products", q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Atta", "Dal", "Sugar"}, names(t, docs))
}

func TestMemoryStore_ListMultiKeyOrder(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s)

	docs, err := s.List(context.Background(), "products", Query{}.OrderAsc("order").OrderAsc("name"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Dal", "Oil", "Rice", "Atta", "Sugar"}, names(t, docs))
}

func TestMemoryStore_NumericFilterAcrossTypes(t *testing.T) {
	s := NewMemoryStore()
	seed(t, s)

	docs, err := s.List(context.Background(), "products", Query{}.Where("price", int64(90)))
	require.NoError(t, err)
	assert.Equal(t, []string{"Oil"}, names(t, docs))
}

func TestMemoryStore_CreateSetsIDAndRejectsDuplicates(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	raw, err := s.Create(ctx, "shops", "shop-1", bson.M{"_id": "ignored", "phone": "9876543210"})
	require.NoError(t, err)
	assert.Equal(t, "shop-1", raw.Lookup("_id").StringValue())
	assert.Equal(t, "9876543210", raw.Lookup("phone").StringValue())

	_, err = s.Create(ctx, "shops", "shop-1", bson.M{"phone": "9876543211"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Equal(t, 1, s.Count("shops"))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.List(ctx, "products", Query{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuery_BuildersDoNotAlias(t *testing.T) {
	base := Query{}.Where("isActive", true)
	a := base.Where("locationId", "L1")
	b := base.Where("locationId", "L2")

	assert.Len(t, base.Filters, 1)
	assert.Equal(t, "L1", a.Filters[1].Value)
	assert.Equal(t, "L2", b.Filters[1].Value)
}

func TestDecode_Malformed(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"name": 42})
	require.NoError(t, err)

	var p testProduct
	assert.ErrorIs(t, Decode(raw, &p), ErrMalformedRecord)
	assert.ErrorIs(t, Malformed("products", "p1", "missing name"), ErrMalformedRecord)
}
