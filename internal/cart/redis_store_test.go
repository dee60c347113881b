package cart

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client, time.Hour), mr
}

func TestRedisStore_IncrementCreatesLine(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Increment(ctx, "s1", 42))
	require.NoError(t, store.Increment(ctx, "s1", 42))
	require.NoError(t, store.Increment(ctx, "s1", 7))

	lines, err := store.Lines(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{
		{ProductID: 7, Quantity: 1},
		{ProductID: 42, Quantity: 2},
	}, lines)

	assert.True(t, mr.TTL(cartKey("s1")) >= time.Hour)
}

func TestRedisStore_Decrement(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Increment(ctx, "s1", 1))
	}
	require.NoError(t, store.Increment(ctx, "s1", 2))

	require.NoError(t, store.Decrement(ctx, "s1", 1))
	require.NoError(t, store.Decrement(ctx, "s1", 2))

	lines, err := store.Lines(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: 1, Quantity: 2}}, lines)

	require.NoError(t, store.Decrement(ctx, "s1", 1))
	require.NoError(t, store.Decrement(ctx, "s1", 1))

	lines, err = store.Lines(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestRedisStore_DecrementUnknownLine(t *testing.T) {
	store, _ := setupTestRedis(t)

	require.NoError(t, store.Decrement(context.Background(), "s1", 99))
}

func TestRedisStore_RemoveAndClear(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Increment(ctx, "s1", 1))
	}
	require.NoError(t, store.Increment(ctx, "s1", 2))

	require.NoError(t, store.Remove(ctx, "s1", 1))
	lines, err := store.Lines(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: 2, Quantity: 1}}, lines)

	require.NoError(t, store.Clear(ctx, "s1"))
	assert.False(t, mr.Exists(cartKey("s1")))
}

func TestRedisStore_SessionsAreIsolated(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Increment(ctx, "a", 1))
	require.NoError(t, store.Increment(ctx, "b", 2))

	lines, err := store.Lines(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []domain.CartLine{{ProductID: 1, Quantity: 1}}, lines)
}

func TestRedisStore_EmptySession(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Lines(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.ErrorIs(t, store.Increment(context.Background(), "", 1), ErrNoSession)
}

func TestRedisStore_ConnectionError(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Lines(context.Background(), "s1")
	assert.Error(t, err)
}
