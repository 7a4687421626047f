package app

import (
	"context"
	"log"
	"sync"
	"time"

	"gameed/internal/domain"
)

const (
	DefaultLeaderboardLimit = domain.DefaultLeaderboardLimit
	MaxLeaderboardLimit     = domain.MaxLeaderboardLimit
)

// LeaderboardService ranks users by points and pushes fresh rankings to live subscribers
// whenever points change.
type LeaderboardService struct {
	users UserRepository
	cache LeaderboardCache
	now   func() time.Time

	// cacheMu orders cache writes against invalidation. generation moves on every change so a
	// ranking read before the change is never stored after it.
	cacheMu    sync.Mutex
	generation uint64

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

// NewLeaderboardService builds the service. cache may be nil.
func NewLeaderboardService(users UserRepository, cache LeaderboardCache) *LeaderboardService {
	return NewLeaderboardServiceWithClock(users, cache, time.Now)
}

// NewLeaderboardServiceWithClock is test-only for deterministic timestamps.
func NewLeaderboardServiceWithClock(users UserRepository, cache LeaderboardCache, now func() time.Time) *LeaderboardService {
	return &LeaderboardService{
		users:       users,
		cache:       cache,
		now:         now,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

func clampLeaderboardLimit(limit int) int {
	if limit < 1 {
		return DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		return MaxLeaderboardLimit
	}
	return limit
}

// Top returns the highest ranked users ordered by points desc.
func (s *LeaderboardService) Top(ctx context.Context, limit int) (domain.Leaderboard, error) {
	limit = clampLeaderboardLimit(limit)
	if s.cache != nil {
		if entries, ok := s.cache.Get(ctx, limit); ok {
			return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
		}
	}
	s.cacheMu.Lock()
	generation := s.generation
	s.cacheMu.Unlock()

	entries, err := s.users.TopUsers(ctx, limit)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	if entries == nil {
		entries = []domain.LeaderboardEntry{}
	}
	if s.cache != nil {
		s.cacheMu.Lock()
		if s.generation == generation {
			s.cache.Set(ctx, limit, entries)
		}
		s.cacheMu.Unlock()
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.now()}, nil
}

// PointsChanged drops cached rankings and notifies subscribers.
func (s *LeaderboardService) PointsChanged(ctx context.Context) {
	s.cacheMu.Lock()
	s.generation++
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	s.cacheMu.Unlock()

	s.mu.Lock()
	listeners := len(s.subscribers)
	s.mu.Unlock()
	if listeners == 0 {
		return
	}

	lb, err := s.Top(ctx, DefaultLeaderboardLimit)
	if err != nil {
		log.Printf("leaderboard refresh failed: %v", err)
		return
	}
	s.mu.Lock()
	s.broadcastLocked(lb)
	s.mu.Unlock()
}

// Subscribe returns a channel that receives the current top users and every later change.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Top(ctx, DefaultLeaderboardLimit)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

// Subscribers reports how many live listeners are attached.
func (s *LeaderboardService) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers)
}

func (s *LeaderboardService) broadcastLocked(lb domain.Leaderboard) {
	for ch := range s.subscribers {
		select {
		case ch <- lb:
		default:
			// Slow listener: replace its oldest pending ranking with the newest.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
