package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestReminderStore(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewReminderStore(client, time.Hour)
	ctx := context.Background()
	periodEnd := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	sent, err := store.WasSent(ctx, 7, periodEnd)
	require.NoError(t, err)
	assert.False(t, sent)

	require.NoError(t, store.MarkSent(ctx, 7, periodEnd))
	require.NoError(t, store.MarkSent(ctx, 7, periodEnd))

	sent, err = store.WasSent(ctx, 7, periodEnd)
	require.NoError(t, err)
	assert.True(t, sent)

	t.Run("next period is a new reminder", func(t *testing.T) {
		sent, err := store.WasSent(ctx, 7, periodEnd.AddDate(0, 1, 0))
		require.NoError(t, err)
		assert.False(t, sent)
	})

	t.Run("mark expires after ttl", func(t *testing.T) {
		mr.FastForward(2 * time.Hour)
		sent, err := store.WasSent(ctx, 7, periodEnd)
		require.NoError(t, err)
		assert.False(t, sent)
	})
}

func TestReminderStore_RedisDown(t *testing.T) {
	mr, client := setupRedis(t)
	store := NewReminderStore(client, time.Hour)
	mr.Close()

	_, err := store.WasSent(context.Background(), 1, time.Now())
	assert.Error(t, err)
}

func TestSchedulerLocker(t *testing.T) {
	mr, client := setupRedis(t)
	locker := NewSchedulerLocker(client, time.Minute)
	ctx := context.Background()

	lock, err := locker.Lock(ctx, "billing-due")
	require.NoError(t, err)

	_, err = locker.Lock(ctx, "billing-due")
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := locker.Lock(ctx, "expiration")
	require.NoError(t, err)
	require.NoError(t, other.Unlock(ctx))

	require.NoError(t, lock.Unlock(ctx))
	again, err := locker.Lock(ctx, "billing-due")
	require.NoError(t, err)

	t.Run("stale unlock leaves the new holder alone", func(t *testing.T) {
		require.NoError(t, lock.Unlock(ctx))
		assert.True(t, mr.Exists("cloudbilling:lock:billing-due"))
		require.NoError(t, again.Unlock(ctx))
		assert.False(t, mr.Exists("cloudbilling:lock:billing-due"))
	})

	t.Run("lock expires after ttl", func(t *testing.T) {
		_, err := locker.Lock(ctx, "invoice-sync")
		require.NoError(t, err)
		mr.FastForward(2 * time.Minute)
		_, err = locker.Lock(ctx, "invoice-sync")
		assert.NoError(t, err)
	})
}
