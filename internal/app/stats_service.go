package app

import (
	"context"

	"gameed/internal/domain"
	"golang.org/x/sync/errgroup"
)

type StatsService struct {
	stats StatsRepository
}

func NewStatsService(stats StatsRepository) *StatsService {
	return &StatsService{stats: stats}
}

// PlatformStats computes every counter from the store. The counts run concurrently.
func (s *StatsService) PlatformStats(ctx context.Context) (domain.PlatformStats, error) {
	var out domain.PlatformStats
	g, gctx := errgroup.WithContext(ctx)

	count := func(dst *int, fn func(context.Context) (int, error)) {
		g.Go(func() error {
			n, err := fn(gctx)
			*dst = n
			return err
		})
	}

	count(&out.MissionsCompleted, func(ctx context.Context) (int, error) {
		return s.stats.CountSubmissions(ctx, domain.StatusApproved)
	})
	count(&out.TotalMissions, func(ctx context.Context) (int, error) {
		return s.stats.CountMissions(ctx, false)
	})
	count(&out.ActiveMissions, func(ctx context.Context) (int, error) {
		return s.stats.CountMissions(ctx, true)
	})
	count(&out.TotalQuizzes, s.stats.CountQuizzes)
	count(&out.QuizzesCompleted, s.stats.CountQuizCompletions)
	count(&out.TotalUsers, s.stats.CountUsers)
	count(&out.StudentsEngaged, s.stats.CountEngagedStudents)
	count(&out.XPEarned, s.stats.SumPoints)

	if err := g.Wait(); err != nil {
		return domain.PlatformStats{}, err
	}
	return out, nil
}
