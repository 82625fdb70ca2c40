package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
)

// ErrLockNotObtained is returned when another holder kept the lock for the
// whole wait.
var ErrLockNotObtained = errors.New("lock not obtained")

// Locker hands out short-lived distributed locks. A Locker over an empty
// Store grants every lock immediately.
type Locker struct {
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewLocker(store *Store, ttl, wait time.Duration) *Locker {
	l := &Locker{ttl: ttl, wait: wait}
	if c := store.Client(); c != nil {
		l.locker = redislock.New(c)
	}
	return l
}

// Obtain takes key, retrying for up to the configured wait. The returned
// release func is always safe to call.
func (l *Locker) Obtain(ctx context.Context, key string) (func(), error) {
	if l == nil || l.locker == nil {
		return func() {}, nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	lock, err := l.locker.Obtain(waitCtx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(50 * time.Millisecond),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
		return func() {}, ErrLockNotObtained
	}
	if err != nil {
		return func() {}, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}
