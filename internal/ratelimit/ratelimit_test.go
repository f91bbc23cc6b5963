package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/hullbook/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncLimiterDisabledWithoutRedis(t *testing.T) {
	limiter := NewSyncLimiter(nil, config.Config{SyncRatePerMinute: 6, SyncBurst: 3})
	require.False(t, limiter.Enabled())

	for i := 0; i < 10; i++ {
		res, err := limiter.AllowSync(context.Background(), "42")
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	var nilLimiter *SyncLimiter
	res, err := nilLimiter.AllowSync(context.Background(), "42")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestTokenBucketRejectsMisuse(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, NewTokenBucket(nil))
}

func TestBucketTTLAndRetryAfter(t *testing.T) {
	assert.Equal(t, 12*time.Second, defaultBucketTTL(0.5, 3))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 0))

	assert.Zero(t, retryAfter(true, 0, 0.1))
	assert.Equal(t, 2*time.Second, retryAfter(false, 0, 0.5))
}

func TestScriptValueCasting(t *testing.T) {
	assert.Equal(t, int64(1), castToInt(int64(1)))
	assert.Equal(t, int64(7), castToInt("7"))
	assert.InDelta(t, 2.5, castToFloat("2.5"), 0.0001)
	assert.InDelta(t, 3.0, castToFloat(int64(3)), 0.0001)
	assert.Equal(t, "hullbook:sync:42", syncKey(" 42 "))
}
