package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/billflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseResultAllowed(t *testing.T) {
	res, err := parseResult([]any{int64(1), "4.5", int64(1_700_000_000_000)}, 2, 10)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 10, res.Limit)
	assert.Equal(t, 4, res.Remaining)
	assert.Zero(t, res.RetryAfter)
	assert.Equal(t, time.UnixMilli(1_700_000_000_000), res.ResetTime)
}

func TestParseResultDeniedComputesRetryAfter(t *testing.T) {
	res, err := parseResult([]any{int64(0), "0.5", int64(0)}, 2, 10)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 250*time.Millisecond, res.RetryAfter)
}

func TestParseResultRejectsShortReply(t *testing.T) {
	_, err := parseResult([]any{int64(1)}, 1, 1)
	assert.Error(t, err)
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 10*time.Second, defaultBucketTTL(2, 10))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 1))
}

func TestNilBucketIsNotConfigured(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, NewTokenBucket(nil))
}

func TestDisabledLimiterAllows(t *testing.T) {
	limiter, err := New(nil, config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, limiter)
	assert.False(t, limiter.Enabled())

	res, err := limiter.AllowWrite(context.Background(), "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLimiterRequiresPositiveRate(t *testing.T) {
	cfg := config.Config{}
	cfg.Redis.Addr = "localhost:6379"
	cfg.RateLimit.Enabled = true
	_, err := New(nil, cfg, zap.NewNop())
	assert.Error(t, err)
}
