package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
)

func setupTestDB(t *testing.T) (*MongoStore, func()) {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	store := NewMongoStore(db)
	require.NoError(t, store.CreateIndexes(ctx, "shops", "products"))

	cleanup := func() {
		_ = db.Client().Disconnect(ctx)
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return store, cleanup
}

func TestMongoStore_ListFiltersAndOrders(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	seed(t, store)

	q := Query{}.Where("locationId", "L1").Where("isActive", true).OrderAsc("name")
	docs, err := store.List(context.Background(), "products", q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Atta", "Dal", "Sugar"}, names(t, docs))
}

func TestMongoStore_CreateReturnsStoredDocument(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	raw, err := store.Create(ctx, "shops", "shop-1", bson.M{"phone": "9876543210", "status": "pending"})
	require.NoError(t, err)
	assert.Equal(t, "shop-1", raw.Lookup("_id").StringValue())
	assert.Equal(t, "pending", raw.Lookup("status").StringValue())

	_, err = store.Create(ctx, "shops", "shop-1", bson.M{"phone": "9876543211"})
	assert.ErrorIs(t, err, ErrDuplicate)

	// unique phone index
	_, err = store.Create(ctx, "shops", "shop-2", bson.M{"phone": "9876543210"})
	assert.ErrorIs(t, err, ErrDuplicate)
}
