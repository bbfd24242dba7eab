package codes

import (
	"context"
	"fmt"
	"time"

	"github.com/nippon-flex/servicios-rapidos-ec/internal/shared"
)

// Locker provides mutual exclusion across processes.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Generator hands out codes by counting existing records in the current
// period. Count and insert must run in the same transaction, wrapped in
// Serialize, for codes to stay unique under concurrent writers.
type Generator struct {
	locker Locker
	ttl    time.Duration
}

// NewGenerator constructs a Generator. A nil locker disables serialization.
func NewGenerator(locker Locker, ttl time.Duration) *Generator {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Generator{locker: locker, ttl: ttl}
}

// Next returns count+1 formatted with the period token of at.
func (g *Generator) Next(ctx context.Context, counter Counter, entity Entity, scope Scope, at time.Time) (string, error) {
	period, err := Period(entity, at)
	if err != nil {
		return "", err
	}
	from, to, err := Window(entity, at)
	if err != nil {
		return "", err
	}
	count, err := counter.CountCreated(ctx, scope, from, to)
	if err != nil {
		return "", fmt.Errorf("count %s codes: %w", entity, err)
	}
	return Format(entity, period, count+1)
}

// Serialize runs fn while holding the allocation lock for entity, scope and
// the counting window of at.
func (g *Generator) Serialize(ctx context.Context, entity Entity, scope Scope, at time.Time, fn func(context.Context) error) error {
	if g == nil || g.locker == nil {
		return fn(ctx)
	}
	period, err := lockPeriod(entity, at)
	if err != nil {
		return err
	}
	release, err := g.locker.Acquire(ctx, shared.CodeLockKey(string(entity), scope.key(), period), g.ttl)
	if err != nil {
		return fmt.Errorf("lock %s codes: %w", entity, err)
	}
	defer func() {
		// Released with a fresh context so a cancelled request still frees the key.
		_ = release(context.WithoutCancel(ctx))
	}()
	return fn(ctx)
}
