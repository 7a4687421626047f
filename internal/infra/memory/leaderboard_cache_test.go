package memory

import (
	"context"
	"testing"
	"time"

	"gameed/internal/domain"
)

func TestLeaderboardCacheLifecycle(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewLeaderboardCacheWithClock(30*time.Second, func() time.Time { return now })
	ctx := context.Background()

	if _, ok := cache.Get(ctx, 10); ok {
		t.Fatalf("expected empty cache")
	}
	cache.Set(ctx, 10, []domain.LeaderboardEntry{{UserID: "u1", Points: 10}})
	entries, ok := cache.Get(ctx, 10)
	if !ok || len(entries) != 1 {
		t.Fatalf("expected cached entry, got %v %v", entries, ok)
	}
	if _, ok := cache.Get(ctx, 5); ok {
		t.Fatalf("expected different limit to miss")
	}

	cache.Invalidate(ctx)
	if _, ok := cache.Get(ctx, 10); ok {
		t.Fatalf("expected invalidated cache")
	}

	cache.Set(ctx, 10, entries)
	now = now.Add(time.Minute)
	if _, ok := cache.Get(ctx, 10); ok {
		t.Fatalf("expected entry expired")
	}
}
