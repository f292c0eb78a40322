package locker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testLockKey = "store:write"

func setupTestRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	// Create an in-memory Redis instance for testing
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}

	return client, cleanup
}

func TestRedisLocker_Acquire_Success(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	locker := NewRedisLocker(client, zap.NewNop(), DefaultOptions())

	acquired, err := locker.Acquire(context.Background(), testLockKey, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired, "First acquisition should succeed")
}

func TestRedisLocker_Acquire_AlreadyHeld(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	locker1 := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	locker2 := NewRedisLocker(client, zap.NewNop(), DefaultOptions())

	ctx := context.Background()

	acquired1, err := locker1.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired1)

	acquired2, err := locker2.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err, "contention is not an error")
	assert.False(t, acquired2, "Second acquisition should fail when lock is held")
}

// TestRedisLocker_Acquire_WaitsForRelease verifies retries pick up a lock freed meanwhile.
func TestRedisLocker_Acquire_WaitsForRelease(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	holder := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	waiter := NewRedisLocker(client, zap.NewNop(), Options{Tries: 40, RetryDelay: 25 * time.Millisecond})

	ctx := context.Background()
	acquired, err := holder.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = holder.Release(ctx, testLockKey)
	}()

	acquired, err = waiter.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired, "waiter should acquire after the holder releases")
}

func TestRedisLocker_Release_Success(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	locker := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	ctx := context.Background()

	acquired, err := locker.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, locker.Release(ctx, testLockKey))

	acquired2, err := locker.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, acquired2, "Should be able to acquire after release")
}

func TestRedisLocker_Release_NotOwned(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	locker1 := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	locker2 := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	ctx := context.Background()

	acquired, err := locker1.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	// Locker2 tries to release (should not error, but won't release)
	require.NoError(t, locker2.Release(ctx, testLockKey))

	acquired2, err := locker2.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, acquired2, "lock must still be held by locker1")

	require.NoError(t, locker1.Release(ctx, testLockKey))
}

func TestRedisLocker_ConcurrentAcquisition(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	// Simulate 5 instances trying to acquire the lock concurrently
	const numInstances = 5
	results := make(chan bool, numInstances)
	ctx := context.Background()

	for i := 0; i < numInstances; i++ {
		go func() {
			locker := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
			acquired, _ := locker.Acquire(ctx, testLockKey, 2*time.Second)
			results <- acquired
		}()
	}

	successCount := 0
	for i := 0; i < numInstances; i++ {
		if <-results {
			successCount++
		}
	}

	assert.Equal(t, 1, successCount, "Exactly one instance should acquire the lock")
}

func TestRedisLocker_ContextCancellation(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	locker := NewRedisLocker(client, zap.NewNop(), DefaultOptions())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	acquired, err := locker.Acquire(ctx, testLockKey, 5*time.Second)
	assert.Error(t, err)
	assert.False(t, acquired)
}

func TestWithLock(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	locker := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	ctx := context.Background()

	ran := false
	err := WithLock(ctx, locker, testLockKey, time.Second, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	// released afterwards
	acquired, err := locker.Acquire(ctx, testLockKey, time.Second)
	require.NoError(t, err)
	assert.True(t, acquired)

	// held: fn does not run
	other := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	err = WithLock(ctx, other, testLockKey, time.Second, func(context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, ErrNotAcquired)
}

func TestWithLock_PropagatesError(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	locker := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	boom := errors.New("boom")

	err := WithLock(context.Background(), locker, testLockKey, time.Second, func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	acquired, err := locker.Acquire(context.Background(), testLockKey, time.Second)
	require.NoError(t, err)
	assert.True(t, acquired, "lock is released even when fn fails")
}

func TestRedisLocker_LapsedLeaseKeepsNextHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	locker := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	ctx := context.Background()

	first, err := locker.AcquireLease(ctx, testLockKey, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)

	// first holder's ttl lapses and a second holder takes the lock
	mr.FastForward(2 * time.Second)
	second, err := locker.AcquireLease(ctx, testLockKey, time.Minute)
	require.NoError(t, err)
	require.NotNil(t, second)

	_ = first.Release(ctx)
	assert.True(t, mr.Exists(testLockKey), "second holder keeps the lock")

	require.NoError(t, second.Release(ctx))
	assert.False(t, mr.Exists(testLockKey))

	// releasing twice is a no-op
	assert.NoError(t, second.Release(ctx))
}

func TestRedisLocker_AcquireLease_Held(t *testing.T) {
	client, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	holder := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	acquired, err := holder.Acquire(ctx, testLockKey, 5*time.Second)
	require.NoError(t, err)
	require.True(t, acquired)

	lease, err := NewRedisLocker(client, zap.NewNop(), DefaultOptions()).AcquireLease(ctx, testLockKey, time.Second)
	require.NoError(t, err)
	assert.Nil(t, lease)
}

func TestWithLock_LapsedHolderDoesNotReleaseNextHolder(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = client.Close() }()

	locker := NewRedisLocker(client, zap.NewNop(), DefaultOptions())
	ctx := context.Background()

	// the outer holder overruns its ttl while the same locker hands the key
	// to another caller
	_ = WithLock(ctx, locker, testLockKey, time.Second, func(ctx context.Context) error {
		mr.FastForward(2 * time.Second)
		acquired, err := locker.Acquire(ctx, testLockKey, time.Minute)
		require.NoError(t, err)
		require.True(t, acquired)
		return nil
	})

	assert.True(t, mr.Exists(testLockKey), "the later holder's lock survives the outer release")

	require.NoError(t, locker.Release(ctx, testLockKey))
	assert.False(t, mr.Exists(testLockKey))
}
