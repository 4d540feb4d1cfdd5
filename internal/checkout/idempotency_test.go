package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/govind-sing/farmBridge-backend/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupResultStore(t *testing.T) (*RedisResultStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisResultStore(client, 24*time.Hour), mr
}

func TestRedisResultStore_SaveAndGet(t *testing.T) {
	store, mr := setupResultStore(t)
	ctx := context.Background()

	res := &Result{
		Orders:      []*domain.Order{{ID: uuid.New(), SellerID: "s1", TotalAmount: decimal.RequireFromString("10.5")}},
		TotalAmount: decimal.RequireFromString("10.5"),
		Transfers:   []domain.Transfer{{SellerID: "s1", Amount: decimal.RequireFromString("10.5")}},
	}
	require.NoError(t, store.Save(ctx, "buyer-1", "key-1", res))

	assert.True(t, mr.Exists("checkout:idem:buyer-1:key-1"))
	assert.Equal(t, 24*time.Hour, mr.TTL("checkout:idem:buyer-1:key-1"))

	got, err := store.Get(ctx, "buyer-1", "key-1")
	require.NoError(t, err)
	require.Len(t, got.Orders, 1)
	assert.Equal(t, res.Orders[0].ID, got.Orders[0].ID)
	assert.True(t, res.TotalAmount.Equal(got.TotalAmount))
}

func TestRedisResultStore_KeysArePerBuyer(t *testing.T) {
	store, _ := setupResultStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "buyer-1", "key-1", &Result{}))

	_, err := store.Get(ctx, "buyer-2", "key-1")
	assert.ErrorIs(t, err, ErrResultNotFound)
}
