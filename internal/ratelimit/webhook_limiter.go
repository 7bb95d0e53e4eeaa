package ratelimit

import (
	"context"
	"fmt"

	"github.com/adwatchhq/adwatch/internal/config"
	"github.com/adwatchhq/adwatch/internal/platform"
	redis "github.com/redis/go-redis/v9"
)

const keyPlatformWebhook = "webhook:platform:%s:%s"

// WebhookLimiter throttles inbound platform push notifications per
// (platform, external account) so one chatty integration cannot starve the
// detection pipeline.
type WebhookLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewWebhookLimiter(cfg config.Config, client *redis.Client) *WebhookLimiter {
	if !cfg.RateLimit.Enabled || client == nil {
		return &WebhookLimiter{}
	}
	return &WebhookLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.RateLimit.WebhookRate,
		burst:   cfg.RateLimit.WebhookBurst,
	}
}

// Allow reports whether the push may proceed. A disabled limiter always
// allows; redis errors fail open so webhook intake survives a redis outage.
func (l *WebhookLimiter) Allow(ctx context.Context, p platform.Platform, externalAccountID string) (*RateLimitResult, error) {
	if l == nil || !l.enabled {
		return &RateLimitResult{Allowed: true}, nil
	}

	key := fmt.Sprintf(keyPlatformWebhook, p, externalAccountID)
	result, err := l.bucket.Allow(ctx, key, l.rate, l.burst)
	if err != nil {
		return &RateLimitResult{Allowed: true}, err
	}
	return result, nil
}
