package memory

import (
	"context"
	"sync"
	"time"

	"gameed/internal/domain"
)

// LeaderboardCache is an in-memory implementation of app.LeaderboardCache, keyed by limit.
type LeaderboardCache struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.RWMutex
	entries map[int]cachedBoard
}

type cachedBoard struct {
	entries   []domain.LeaderboardEntry
	expiresAt time.Time
}

func NewLeaderboardCache(ttl time.Duration) *LeaderboardCache {
	return NewLeaderboardCacheWithClock(ttl, time.Now)
}

// NewLeaderboardCacheWithClock is test-only for deterministic expiry.
func NewLeaderboardCacheWithClock(ttl time.Duration, clock func() time.Time) *LeaderboardCache {
	return &LeaderboardCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[int]cachedBoard),
	}
}

func (c *LeaderboardCache) Get(_ context.Context, limit int) ([]domain.LeaderboardEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	board, ok := c.entries[limit]
	if !ok || !board.expiresAt.After(c.clock()) {
		return nil, false
	}
	return append([]domain.LeaderboardEntry(nil), board.entries...), true
}

func (c *LeaderboardCache) Set(_ context.Context, limit int, entries []domain.LeaderboardEntry) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[limit] = cachedBoard{
		entries:   append([]domain.LeaderboardEntry(nil), entries...),
		expiresAt: c.clock().Add(c.ttl),
	}
}

func (c *LeaderboardCache) Invalidate(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[int]cachedBoard)
}
