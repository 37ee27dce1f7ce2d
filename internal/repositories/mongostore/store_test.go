package mongostore

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"storefront/internal/database"
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// newTestStore connects to MONGO_TEST_URI and returns a store on a throwaway
// database. Tests are skipped when the variable is unset.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	client, err := database.Connect(uri)
	require.NoError(t, err)
	db := client.Database(fmt.Sprintf("storefront_test_%d", time.Now().UnixNano()))
	require.NoError(t, database.EnsureIndexes(db, zap.NewNop()))

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})
	return NewStore(db)
}

func paidOrder(reference, number string) models.Order {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return models.Order{
		OrderNumber:      number,
		UserID:           primitive.NewObjectID(),
		Items:            []models.OrderItem{{ProductID: "p1", Name: "Mug", Price: 10, Quantity: 1}},
		PaymentReference: reference,
		PaymentStatus:    models.PaymentStatusPaid,
		OrderStatus:      models.OrderStatusPaid,
		StatusHistory:    []models.StatusHistoryEntry{{Status: models.OrderStatusPaid, Timestamp: now, ChangedBy: models.ChangedBySystem}},
		Total:            10,
		IsNewOrder:       true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

func TestOrderInsertRejectsDuplicateReference(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Orders.Insert(ctx, paidOrder("PS_1", "#SWU-2026-00001"))
	require.NoError(t, err)

	_, err = store.Orders.Insert(ctx, paidOrder("PS_1", "#SWU-2026-00002"))
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	found, err := store.Orders.FindByPaymentReference(ctx, "PS_1")
	require.NoError(t, err)
	assert.Equal(t, "#SWU-2026-00001", found.OrderNumber)
}

func TestApplyStatusChangeChecksExpectedStatus(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	order, err := store.Orders.Insert(ctx, paidOrder("PS_2", "#SWU-2026-00003"))
	require.NoError(t, err)

	change := repositories.StatusChange{
		ExpectedStatus: models.OrderStatusPaid,
		Status:         models.OrderStatusShipped,
		Entry:          models.StatusHistoryEntry{Status: models.OrderStatusShipped, Timestamp: time.Now().UTC(), ChangedBy: "admin"},
		TrackingNumber: "TRK",
		UpdatedAt:      time.Now().UTC(),
	}
	updated, err := store.Orders.ApplyStatusChange(ctx, order.ID.Hex(), change)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusShipped, updated.OrderStatus)
	assert.Len(t, updated.StatusHistory, 2)
	assert.False(t, updated.IsNewOrder)
	assert.Equal(t, "TRK", updated.TrackingNumber)

	_, err = store.Orders.ApplyStatusChange(ctx, order.ID.Hex(), change)
	assert.ErrorIs(t, err, repositories.ErrConflict)
}

func TestStockUpdatesAreClamped(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	res, err := store.Products.coll.InsertOne(ctx, models.Product{Name: "Mug", Slug: "mug", Stock: 2})
	require.NoError(t, err)
	id := res.InsertedID.(primitive.ObjectID).Hex()

	require.NoError(t, store.Products.DecrementStockClamped(ctx, id, 5))
	product, err := store.Products.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock)

	require.NoError(t, store.Products.IncrementStock(ctx, id, 3))
	product, err = store.Products.FindBySlug(ctx, "mug")
	require.NoError(t, err)
	assert.Equal(t, 3, product.Stock)

	assert.ErrorIs(t, store.Products.IncrementStock(ctx, primitive.NewObjectID().Hex(), 1), repositories.ErrNotFound)
}

func TestCountersIncrementPerName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := store.Counters.Next(ctx, "orders:2026")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	got, err := store.Counters.Next(ctx, "orders:2027")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
