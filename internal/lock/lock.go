// Package lock provides short-lived mutual exclusion keyed by string,
// backed by Redis so it holds across server instances.
package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrHeld is returned by Acquire when another holder owns the key.
var ErrHeld = errors.New("lock held by another request")

// releaseScript deletes the key only while it still carries our token, so
// a holder whose TTL expired cannot release someone else's lock.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
    return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements SET NX PX locks.  A nil client disables locking:
// Acquire always succeeds.
type RedisLocker struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisLocker returns a locker whose keys are namespaced by prefix.
func NewRedisLocker(rdb *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix}
}

// Acquire takes the lock for key for at most ttl.  The returned release
// func is always non-nil and safe to call more than once.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if l == nil || l.rdb == nil {
		return func() {}, nil
	}
	k := l.prefix + ":" + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return func() {}, err
	}
	if !ok {
		return func() {}, ErrHeld
	}
	released := false
	return func() {
		if released {
			return
		}
		released = true
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		_ = releaseScript.Run(rctx, l.rdb, []string{k}, token).Err()
	}, nil
}
