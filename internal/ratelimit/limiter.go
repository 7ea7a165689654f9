package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/billflow/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyWriteClient = "billflow:ratelimit:write:%s"

// Limiter throttles mutating requests per client. A nil Limiter allows
// everything.
type Limiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

// New returns nil when rate limiting is disabled or Redis is not configured.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*Limiter, error) {
	limitCfg := cfg.RateLimit
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if !limitCfg.Enabled || addr == "" {
		log.Info("rate limiting disabled")
		return nil, nil
	}
	if limitCfg.Rate <= 0 || limitCfg.Burst <= 0 {
		return nil, errors.New("rate limit rate and burst must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.Redis.Password),
		DB:       cfg.Redis.DB,
	})
	if lc != nil {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
			OnStop: func(ctx context.Context) error {
				return client.Close()
			},
		})
	}

	log.Info("rate limiting enabled",
		zap.String("redis_addr", addr),
		zap.Float64("rate", limitCfg.Rate),
		zap.Int("burst", limitCfg.Burst),
	)
	return NewLimiter(NewTokenBucket(client), limitCfg.Rate, limitCfg.Burst), nil
}

func NewLimiter(bucket *TokenBucket, rate float64, burst int) *Limiter {
	if bucket == nil {
		return nil
	}
	return &Limiter{bucket: bucket, rate: rate, burst: burst}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// AllowWrite takes one token from the client's write bucket.
func (l *Limiter) AllowWrite(ctx context.Context, clientKey string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyWriteClient, strings.TrimSpace(clientKey)), l.rate, l.burst)
}
