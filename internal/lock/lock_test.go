package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLocker_NilClientAlwaysAcquires(t *testing.T) {
	l := NewRedisLocker(nil, "lock:openmic")
	for i := 0; i < 2; i++ {
		release, err := l.Acquire(context.Background(), "a@x.com|2025-07-04", time.Second)
		require.NoError(t, err)
		require.NotNil(t, release)
		release()
		release()
	}

	var nilLocker *RedisLocker
	release, err := nilLocker.Acquire(context.Background(), "k", time.Second)
	assert.NoError(t, err)
	release()
}

func newMiniredisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisLocker(rdb, "lock:openmic"), mr
}

func TestRedisLocker_AcquireSetsNamespacedKey(t *testing.T) {
	l, mr := newMiniredisLocker(t)

	release, err := l.Acquire(context.Background(), "k", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("lock:openmic:k"))
	assert.Equal(t, 5*time.Second, mr.TTL("lock:openmic:k"))

	release()
	assert.False(t, mr.Exists("lock:openmic:k"))
}

func TestRedisLocker_ContendedKeyIsHeld(t *testing.T) {
	l, _ := newMiniredisLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k", 5*time.Second)
	require.NoError(t, err)
	defer release()

	second, err := l.Acquire(ctx, "k", 5*time.Second)
	assert.ErrorIs(t, err, ErrHeld)
	require.NotNil(t, second)
	second()

	// other keys are independent
	other, err := l.Acquire(ctx, "other", 5*time.Second)
	require.NoError(t, err)
	other()
}

func TestRedisLocker_ReleaseThenReacquire(t *testing.T) {
	l, _ := newMiniredisLocker(t)
	ctx := context.Background()

	release, err := l.Acquire(ctx, "k", 5*time.Second)
	require.NoError(t, err)
	release()

	again, err := l.Acquire(ctx, "k", 5*time.Second)
	require.NoError(t, err)
	again()
}

func TestRedisLocker_ExpiredHolderCannotReleaseNewHolder(t *testing.T) {
	l, mr := newMiniredisLocker(t)
	ctx := context.Background()

	stale, err := l.Acquire(ctx, "k", time.Second)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)
	require.False(t, mr.Exists("lock:openmic:k"))

	fresh, err := l.Acquire(ctx, "k", 5*time.Second)
	require.NoError(t, err)
	token, err := mr.Get("lock:openmic:k")
	require.NoError(t, err)

	stale()
	got, err := mr.Get("lock:openmic:k")
	require.NoError(t, err)
	assert.Equal(t, token, got)

	_, err = l.Acquire(ctx, "k", 5*time.Second)
	assert.ErrorIs(t, err, ErrHeld)

	fresh()
	assert.False(t, mr.Exists("lock:openmic:k"))
}
