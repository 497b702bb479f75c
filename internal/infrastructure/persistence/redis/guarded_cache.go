package redis

import (
	"context"
	"errors"
	"time"

	"github.com/roshankumarc210506-arch/learnsphere/pkg/circuitbreaker"
)

// GuardedCache puts a circuit breaker in front of a DocumentCache.
// A miss is a normal answer and never trips the breaker.
type GuardedCache struct {
	inner   DocumentCache
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedCache wraps inner with breaker.
func NewGuardedCache(inner DocumentCache, breaker *circuitbreaker.CircuitBreaker) *GuardedCache {
	return &GuardedCache{inner: inner, breaker: breaker}
}

// IsCacheFailure reports whether err should count against the breaker.
func IsCacheFailure(err error) bool {
	return !errors.Is(err, ErrCacheMiss)
}

func (g *GuardedCache) GetBytes(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := g.breaker.Execute(ctx, func(ctx context.Context) error {
		var err error
		data, err = g.inner.GetBytes(ctx, key)
		return err
	})
	return data, err
}

func (g *GuardedCache) SetBytes(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.SetBytes(ctx, key, data, ttl)
	})
}

func (g *GuardedCache) Delete(ctx context.Context, keys ...string) error {
	return g.breaker.Execute(ctx, func(ctx context.Context) error {
		return g.inner.Delete(ctx, keys...)
	})
}

// State exposes the breaker state for health reporting.
func (g *GuardedCache) State() circuitbreaker.State {
	return g.breaker.State()
}
