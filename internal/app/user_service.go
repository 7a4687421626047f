package app

import (
	"context"
	"sort"

	"gameed/internal/domain"
	"golang.org/x/sync/errgroup"
)

// RewardService serves the read-only reward catalog.
type RewardService struct {
	rewards RewardRepository
}

func NewRewardService(rewards RewardRepository) *RewardService {
	return &RewardService{rewards: rewards}
}

// ListRewards returns active rewards ordered by points required.
func (s *RewardService) ListRewards(ctx context.Context) ([]domain.Reward, error) {
	rewards, err := s.rewards.ListRewards(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Reward, 0, len(rewards))
	for _, reward := range rewards {
		if reward.IsActive {
			active = append(active, reward)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].PointsRequired < active[j].PointsRequired
	})
	return active, nil
}

// Badges are the active rewards the given point total has unlocked.
func (s *RewardService) Badges(ctx context.Context, points int) ([]domain.Reward, error) {
	rewards, err := s.ListRewards(ctx)
	if err != nil {
		return nil, err
	}
	badges := make([]domain.Reward, 0, len(rewards))
	for _, reward := range rewards {
		if reward.PointsRequired <= points {
			badges = append(badges, reward)
		}
	}
	return badges, nil
}

// UserService serves profiles and the leaderboard.
type UserService struct {
	users   UserRepository
	rewards *RewardService
	board   *LeaderboardService
}

func NewUserService(users UserRepository, rewards *RewardService, board *LeaderboardService) *UserService {
	return &UserService{users: users, rewards: rewards, board: board}
}

func (s *UserService) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	return s.board.Top(ctx, limit)
}

// Profile returns the user with completed missions, quiz history and badges populated.
func (s *UserService) Profile(ctx context.Context, caller Identity) (domain.Profile, error) {
	if !validID(caller.UserID) {
		return domain.Profile{}, domain.ErrUserNotFound
	}
	user, err := s.users.UserByID(ctx, caller.UserID)
	if err != nil {
		return domain.Profile{}, err
	}

	profile := domain.Profile{User: user}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		missions, err := s.users.CompletedMissions(gctx, user.ID)
		profile.CompletedMissions = missions
		return err
	})
	g.Go(func() error {
		quizzes, err := s.users.CompletedQuizzes(gctx, user.ID)
		profile.CompletedQuizzes = quizzes
		return err
	})
	g.Go(func() error {
		badges, err := s.rewards.Badges(gctx, user.Points)
		profile.Badges = badges
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Profile{}, err
	}

	if profile.CompletedMissions == nil {
		profile.CompletedMissions = []domain.CompletedMission{}
	}
	if profile.CompletedQuizzes == nil {
		profile.CompletedQuizzes = []domain.QuizCompletion{}
	}
	return profile, nil
}
