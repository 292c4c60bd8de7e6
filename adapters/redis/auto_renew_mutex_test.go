package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestAutoRenewMutex(t *testing.T) {
	t.Run("lock and unlock", func(t *testing.T) {
		client, mr := setupMiniredis(t)

		mutex := NewAutoRenewMutex(client, "lock:test")
		lockCtx, err := mutex.Lock(context.Background())
		require.NoError(t, err)
		assert.True(t, mr.Exists("lock:test"))
		assert.True(t, mutex.Valid())

		ok, err := mutex.Unlock()
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, mr.Exists("lock:test"))
		assert.False(t, mutex.Valid())

		select {
		case <-lockCtx.Done():
		case <-time.After(100 * time.Millisecond):
			t.Error("lock context was not cancelled after unlock")
		}
	})

	t.Run("waits for holder until ctx expires", func(t *testing.T) {
		client, _ := setupMiniredis(t)

		holder := NewAutoRenewMutex(client, "lock:test")
		_, err := holder.Lock(context.Background())
		require.NoError(t, err)
		defer holder.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		waiter := NewAutoRenewMutex(client, "lock:test", WithAutoRenewMutexRetryDelay(10*time.Millisecond))
		_, err = waiter.Lock(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("acquires after holder releases", func(t *testing.T) {
		client, _ := setupMiniredis(t)

		holder := NewAutoRenewMutex(client, "lock:test")
		_, err := holder.Lock(context.Background())
		require.NoError(t, err)
		time.AfterFunc(50*time.Millisecond, func() { holder.Unlock() })

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		waiter := NewAutoRenewMutex(client, "lock:test", WithAutoRenewMutexRetryDelay(10*time.Millisecond))
		_, err = waiter.Lock(ctx)
		require.NoError(t, err)
		_, err = waiter.Unlock()
		assert.NoError(t, err)
	})

	t.Run("detached lock outlives the wait context", func(t *testing.T) {
		client, _ := setupMiniredis(t)

		ctx, cancel := context.WithCancel(context.Background())
		mutex := NewAutoRenewMutex(client, "lock:test", WithAutoRenewMutexDetached(true))
		lockCtx, err := mutex.Lock(ctx)
		require.NoError(t, err)
		cancel()

		assert.NoError(t, lockCtx.Err())
		assert.True(t, mutex.Valid())
		_, err = mutex.Unlock()
		assert.NoError(t, err)
		assert.Error(t, lockCtx.Err())
	})

	t.Run("attached lock context follows the parent", func(t *testing.T) {
		client, _ := setupMiniredis(t)

		ctx, cancel := context.WithCancel(context.Background())
		mutex := NewAutoRenewMutex(client, "lock:test")
		lockCtx, err := mutex.Lock(ctx)
		require.NoError(t, err)
		cancel()
		assert.Error(t, lockCtx.Err())
		_, _ = mutex.Unlock()
	})
}

func TestAutoRenewMutex_RedisError(t *testing.T) {
	defer goleak.VerifyNone(t)
	client, mock, cleanup := setupTest(t)
	defer cleanup()

	mock.Regexp().ExpectSetNX("lock:test", ".*", 8*time.Second).SetErr(redis.ErrClosed)

	mutex := NewAutoRenewMutex(client, "lock:test")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := mutex.Lock(ctx)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, context.DeadlineExceeded, "communication errors return immediately")
}
