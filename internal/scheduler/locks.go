package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/hullbook/internal/clock"
)

// Locker hands out at most one holder per key until ttl elapses.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// NewLocker coordinates replicas through Redis when a client is available and
// falls back to an in-process lock otherwise.
func NewLocker(client *redis.Client, clk clock.Clock) Locker {
	if client == nil {
		return newLocalLocker(clk)
	}
	return &redisLocker{client: redislock.New(client)}
}

type redisLocker struct {
	client *redislock.Client
}

func (l *redisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	_, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type localLocker struct {
	mu    sync.Mutex
	clock clock.Clock
	held  map[string]time.Time
}

func newLocalLocker(clk clock.Clock) *localLocker {
	if clk == nil {
		clk = clock.System()
	}
	return &localLocker{clock: clk, held: map[string]time.Time{}}
}

func (l *localLocker) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if expires, ok := l.held[key]; ok && now.Before(expires) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

func digestLockKey(day time.Time) string {
	return "hullbook:digest:" + day.Format("2006-01-02")
}
