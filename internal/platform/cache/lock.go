package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// ErrLockNotAcquired is returned when the lock stays held past the wait budget.
var ErrLockNotAcquired = fmt.Errorf("%w: platform/cache: lock not acquired", shared.ErrBusy)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker implements short-lived mutual exclusion on top of SET NX.
type Locker struct {
	client   *redis.Client
	wait     time.Duration
	interval time.Duration
}

// NewLocker builds a Locker. wait bounds how long Acquire retries a held key.
func NewLocker(client *redis.Client, wait time.Duration) *Locker {
	if wait <= 0 {
		wait = 3 * time.Second
	}
	return &Locker{client: client, wait: wait, interval: 25 * time.Millisecond}
}

// Acquire blocks until key is held or the wait budget runs out. The returned
// release function only deletes the key while this caller still owns it.
func (l *Locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	if l == nil || l.client == nil {
		return func(context.Context) error { return nil }, nil
	}
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)
	for {
		ok, err := l.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("platform/cache: acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockNotAcquired, key)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.interval):
		}
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, l.client, []string{key}, token).Err()
	}, nil
}
