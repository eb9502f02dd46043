package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hanaflu/techzone/internal/domain"
)

func setupTestDB(t *testing.T) (CartRepository, *mongo.Database, func()) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)

	repo, err := NewMongoRepository(ctx, db)
	require.NoError(t, err)

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return repo, db, cleanup
}

func TestMongo_CartLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	_, err := repo.GetCart(ctx, "cust-1")
	assert.ErrorIs(t, err, ErrCartNotFound)

	line := domain.CartLine{
		Product: domain.ProductSnapshot{
			ID:     "p1",
			Name:   "Mechanical Keyboard",
			Price:  89.90,
			Stock:  12,
			Images: []string{"https://img/p1-front", "https://img/p1-side"},
		},
		Quantity: 2,
	}
	require.NoError(t, repo.AddItem(ctx, "cust-1", line))

	cart, err := repo.GetCart(ctx, "cust-1")
	require.NoError(t, err)
	assert.NotEmpty(t, cart.ID)
	assert.Equal(t, "cust-1", cart.CustomerID)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, []string{"https://img/p1-front", "https://img/p1-side"}, cart.Items[0].Product.Images)

	// Adding the same product again sums into the existing line.
	require.NoError(t, repo.AddItem(ctx, "cust-1", line))
	cart, err = repo.GetCart(ctx, "cust-1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 4, cart.Items[0].Quantity)

	require.NoError(t, repo.UpdateItemQuantity(ctx, "cust-1", "p1", 7))
	cart, err = repo.GetCart(ctx, "cust-1")
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)

	assert.ErrorIs(t, repo.UpdateItemQuantity(ctx, "cust-1", "ghost", 1), ErrItemNotFound)

	require.NoError(t, repo.RemoveItem(ctx, "cust-1", "p1"))
	require.NoError(t, repo.RemoveItem(ctx, "cust-1", "p1"), "removal must be idempotent")
	cart, err = repo.GetCart(ctx, "cust-1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	require.NoError(t, repo.DeleteCart(ctx, "cust-1"))
	assert.ErrorIs(t, repo.DeleteCart(ctx, "cust-1"), ErrCartNotFound)
}

func TestMongo_CartsAreIsolatedPerCustomer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	lineA := domain.CartLine{Product: domain.ProductSnapshot{ID: "p1", Name: "A", Stock: 5}, Quantity: 1}
	lineB := domain.CartLine{Product: domain.ProductSnapshot{ID: "p1", Name: "A", Stock: 5}, Quantity: 3}

	require.NoError(t, repo.AddItem(ctx, "cust-1", lineA))
	require.NoError(t, repo.AddItem(ctx, "cust-2", lineB))

	cart1, err := repo.GetCart(ctx, "cust-1")
	require.NoError(t, err)
	cart2, err := repo.GetCart(ctx, "cust-2")
	require.NoError(t, err)

	assert.Equal(t, 1, cart1.Items[0].Quantity)
	assert.Equal(t, 3, cart2.Items[0].Quantity)
	assert.NotEqual(t, cart1.ID, cart2.ID)
}

// The constructor must leave the unique customer index in place, so a second
// cart document for the same customer is rejected at the database level.
func TestMongo_OneCartPerCustomer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	_, db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	carts := db.Collection("carts")
	_, err := carts.InsertOne(ctx, bson.M{"_id": "c-1", "customer": "cust-1"})
	require.NoError(t, err)

	_, err = carts.InsertOne(ctx, bson.M{"_id": "c-2", "customer": "cust-1"})
	require.Error(t, err)
	assert.True(t, mongo.IsDuplicateKeyError(err))
}
