package app

import (
	"context"

	"gameed/internal/domain"
)

// Scorer is the only path through which user points change. Every write increments points
// and re-derives the level atomically in the store, then refreshes the leaderboard.
type Scorer struct {
	users    UserRepository
	missions MissionRepository
	board    *LeaderboardService
}

func NewScorer(users UserRepository, missions MissionRepository, board *LeaderboardService) *Scorer {
	return &Scorer{users: users, missions: missions, board: board}
}

// AwardPoints adds delta points to the user. Negative deltas are rejected.
func (s *Scorer) AwardPoints(ctx context.Context, userID string, delta int) (domain.Progress, error) {
	if delta < 0 {
		return domain.Progress{}, domain.ErrNegativePoints
	}
	if !validID(userID) {
		return domain.Progress{}, domain.ErrUserNotFound
	}
	progress, err := s.users.AwardPoints(ctx, userID, delta)
	if err != nil {
		return domain.Progress{}, err
	}
	s.changed(ctx, delta)
	return progress, nil
}

// ApplyReview resolves a pending submission. On approval the mission points are credited in
// the same store transaction that flips the status.
func (s *Scorer) ApplyReview(ctx context.Context, review domain.Review) (domain.ReviewOutcome, error) {
	outcome, err := s.missions.ReviewSubmission(ctx, review)
	if err != nil {
		return domain.ReviewOutcome{}, err
	}
	s.changed(ctx, outcome.PointsAwarded)
	return outcome, nil
}

// RecordQuiz appends a quiz completion and credits its score.
func (s *Scorer) RecordQuiz(ctx context.Context, userID string, completion domain.QuizCompletion) (domain.Progress, error) {
	if completion.Score < 0 {
		return domain.Progress{}, domain.ErrNegativePoints
	}
	progress, err := s.users.RecordQuizCompletion(ctx, userID, completion)
	if err != nil {
		return domain.Progress{}, err
	}
	s.changed(ctx, completion.Score)
	return progress, nil
}

func (s *Scorer) changed(ctx context.Context, delta int) {
	if delta == 0 || s.board == nil {
		return
	}
	s.board.PointsChanged(ctx)
}
