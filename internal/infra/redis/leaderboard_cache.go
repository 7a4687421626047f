package redis

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"time"

	"gameed/internal/domain"
	"github.com/redis/go-redis/v9"
)

const leaderboardKeyPrefix = "leaderboard:top:"

func leaderboardKey(limit int) string {
	return leaderboardKeyPrefix + strconv.Itoa(limit)
}

// LeaderboardCache keeps each top-N ranking under its own key with its own TTL. Limits are
// bounded by domain.MaxLeaderboardLimit, so one DEL over every possible key invalidates all
// cached sizes across instances.
type LeaderboardCache struct {
	client *redis.Client
	ttl    time.Duration
	keys   []string
}

func NewLeaderboardCache(client *redis.Client, ttl time.Duration) *LeaderboardCache {
	keys := make([]string, 0, domain.MaxLeaderboardLimit)
	for limit := 1; limit <= domain.MaxLeaderboardLimit; limit++ {
		keys = append(keys, leaderboardKey(limit))
	}
	return &LeaderboardCache{client: client, ttl: ttl, keys: keys}
}

func (c *LeaderboardCache) Get(ctx context.Context, limit int) ([]domain.LeaderboardEntry, bool) {
	if limit < 1 || limit > domain.MaxLeaderboardLimit {
		return nil, false
	}
	raw, err := c.client.Get(ctx, leaderboardKey(limit)).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []domain.LeaderboardEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *LeaderboardCache) Set(ctx context.Context, limit int, entries []domain.LeaderboardEntry) {
	if c.ttl <= 0 || limit < 1 || limit > domain.MaxLeaderboardLimit {
		return
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, leaderboardKey(limit), payload, c.ttl).Err(); err != nil {
		log.Printf("cache leaderboard: %v", err)
	}
}

func (c *LeaderboardCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, c.keys...).Err(); err != nil {
		log.Printf("invalidate leaderboard: %v", err)
	}
}
