package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/platform/cache"
	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
	_ "github.com/nippon-flex/servicios-rapidos-ec/testing"
)

func newLocker(t *testing.T, wait time.Duration) (*cache.Locker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewLocker(client, wait), mr
}

func TestLockerAcquireRelease(t *testing.T) {
	locker, mr := newLocker(t, 50*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "codes:quote:1:202601:lock", time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("codes:quote:1:202601:lock"))

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("codes:quote:1:202601:lock"))
}

func TestLockerTimesOutWhileHeld(t *testing.T) {
	locker, _ := newLocker(t, 50*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)
	defer func() { _ = release(ctx) }()

	_, err = locker.Acquire(ctx, "k", time.Minute)
	require.ErrorIs(t, err, cache.ErrLockNotAcquired)
	require.ErrorIs(t, err, shared.ErrBusy)
}

func TestLockerReleaseKeepsForeignOwner(t *testing.T) {
	locker, mr := newLocker(t, 50*time.Millisecond)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "k", time.Minute)
	require.NoError(t, err)

	// Simulate expiry followed by another owner taking the key.
	require.NoError(t, mr.Set("k", "someone-else"))
	require.NoError(t, release(ctx))

	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "someone-else", got)
}
