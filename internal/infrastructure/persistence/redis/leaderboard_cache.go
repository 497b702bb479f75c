package redis

import (
	"context"
	"time"
)

// LeaderboardCache stores leaderboard snapshots per requested size.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewLeaderboardCache creates a snapshot cache. ttl <= 0 uses TTLLeaderboard.
func NewLeaderboardCache(cache *Cache, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = TTLLeaderboard
	}
	return &LeaderboardCache{cache: cache, ttl: ttl}
}

// Get decodes the cached snapshot into dest. Returns ErrCacheMiss if absent.
func (c *LeaderboardCache) Get(ctx context.Context, limit int, dest any) error {
	return c.cache.Get(ctx, LeaderboardKey(limit), dest)
}

// Set stores a snapshot for limit.
func (c *LeaderboardCache) Set(ctx context.Context, limit int, snapshot any) error {
	return c.cache.Set(ctx, LeaderboardKey(limit), snapshot, c.ttl)
}

// Invalidate drops all cached snapshots.
func (c *LeaderboardCache) Invalidate(ctx context.Context) error {
	return c.cache.DeleteByPattern(ctx, PrefixLeaderboard+"*")
}
