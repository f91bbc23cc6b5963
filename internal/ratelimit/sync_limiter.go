package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/hullbook/internal/config"
)

const keyProviderSync = "hullbook:sync:%s"

// SyncLimiter throttles provider syncs per owner. A nil or disabled limiter
// allows everything.
type SyncLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewSyncLimiter(client *redis.Client, cfg config.Config) *SyncLimiter {
	if client == nil || cfg.SyncRatePerMinute <= 0 || cfg.SyncBurst <= 0 {
		return &SyncLimiter{}
	}
	return &SyncLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    float64(cfg.SyncRatePerMinute) / 60,
		burst:   cfg.SyncBurst,
	}
}

func (l *SyncLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *SyncLimiter) AllowSync(ctx context.Context, ownerID string) (*RateLimitResult, error) {
	if !l.Enabled() {
		return &RateLimitResult{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, syncKey(ownerID), l.rate, l.burst)
}

func syncKey(ownerID string) string {
	return fmt.Sprintf(keyProviderSync, strings.TrimSpace(ownerID))
}
