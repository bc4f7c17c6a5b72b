package shared

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestLockerWithLock(t *testing.T) {
	ctx := context.Background()

	t.Run("holds the key while the callback runs", func(t *testing.T) {
		client := newTestRedis(t)
		locker := Locker{R: client}
		key := LedgerLockKey(1)

		err := locker.WithLock(ctx, key, time.Minute, func(ctx context.Context) error {
			exists, err := client.Exists(ctx, key).Result()
			require.NoError(t, err)
			require.EqualValues(t, 1, exists)
			return nil
		})
		require.NoError(t, err)

		exists, err := client.Exists(ctx, key).Result()
		require.NoError(t, err)
		require.Zero(t, exists, "lock must be released")
	})

	t.Run("releases even when the callback fails", func(t *testing.T) {
		client := newTestRedis(t)
		locker := Locker{R: client}
		key := LedgerLockKey(2)
		boom := errors.New("boom")

		err := locker.WithLock(ctx, key, time.Minute, func(ctx context.Context) error {
			return boom
		})
		require.ErrorIs(t, err, boom)

		exists, err := client.Exists(ctx, key).Result()
		require.NoError(t, err)
		require.Zero(t, exists)
	})

	t.Run("waits for a held lock until the context expires", func(t *testing.T) {
		client := newTestRedis(t)
		locker := Locker{R: client, RetryBackoff: 5 * time.Millisecond}
		key := LedgerLockKey(3)
		require.NoError(t, client.SetNX(ctx, key, "someone-else", time.Minute).Err())

		waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()

		err := locker.WithLock(waitCtx, key, time.Minute, func(ctx context.Context) error {
			t.Fatal("callback must not run while the lock is held elsewhere")
			return nil
		})
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("does not delete a lock it no longer owns", func(t *testing.T) {
		client := newTestRedis(t)
		locker := Locker{R: client}
		key := LedgerLockKey(4)

		err := locker.WithLock(ctx, key, time.Minute, func(ctx context.Context) error {
			// Simulate expiry plus takeover by another till.
			require.NoError(t, client.Set(ctx, key, "other-token", time.Minute).Err())
			return nil
		})
		require.NoError(t, err)

		val, err := client.Get(ctx, key).Result()
		require.NoError(t, err)
		require.Equal(t, "other-token", val)
	})

	t.Run("runs directly without a redis client", func(t *testing.T) {
		var ran bool
		err := Locker{}.WithLock(ctx, "any", time.Minute, func(ctx context.Context) error {
			ran = true
			return nil
		})
		require.NoError(t, err)
		require.True(t, ran)
	})

	t.Run("rejects a nil callback", func(t *testing.T) {
		err := Locker{}.WithLock(ctx, "any", time.Minute, nil)
		require.Error(t, err)
	})
}
