package app

import (
	"context"
	"time"

	"gameed/internal/domain"
)

// UserRepository stores accounts and their progress.
// AwardPoints and RecordQuizCompletion must increment points and re-derive the level in a
// single write so concurrent awards for one user cannot be lost.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User) error
	UserByID(ctx context.Context, id string) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	TouchLastActive(ctx context.Context, id string, at time.Time) error
	AwardPoints(ctx context.Context, userID string, delta int) (domain.Progress, error)
	RecordQuizCompletion(ctx context.Context, userID string, completion domain.QuizCompletion) (domain.Progress, error)
	TopUsers(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
	CompletedMissions(ctx context.Context, userID string) ([]domain.CompletedMission, error)
	CompletedQuizzes(ctx context.Context, userID string) ([]domain.QuizCompletion, error)
}

// MissionRepository stores missions and their submissions.
// ReviewSubmission must move the submission out of pending with a conditional write and, on
// approval, award the mission points in the same transaction.
type MissionRepository interface {
	CreateMission(ctx context.Context, mission domain.Mission) error
	MissionByID(ctx context.Context, id string) (domain.Mission, error)
	ListMissions(ctx context.Context, filter domain.MissionFilter) ([]domain.Mission, int, error)
	DeleteMission(ctx context.Context, id string) error

	CreateSubmission(ctx context.Context, submission domain.Submission) error
	HasSubmitted(ctx context.Context, missionID, studentID string) (bool, error)
	SubmissionsForMission(ctx context.Context, missionID string, status domain.SubmissionStatus) ([]domain.Submission, error)
	SubmissionsByStudent(ctx context.Context, studentID string) ([]domain.StudentSubmission, error)
	ReviewSubmission(ctx context.Context, review domain.Review) (domain.ReviewOutcome, error)
}

// QuizStore is the system of record for quizzes.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	ListQuizzes(ctx context.Context, filter domain.QuizFilter) ([]domain.Quiz, int, error)
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string)
}

// RewardRepository serves the reward catalog.
type RewardRepository interface {
	ListRewards(ctx context.Context) ([]domain.Reward, error)
	SeedRewards(ctx context.Context, rewards []domain.Reward) (int, error)
}

// StatsRepository computes platform-wide aggregates.
type StatsRepository interface {
	CountUsers(ctx context.Context) (int, error)
	CountEngagedStudents(ctx context.Context) (int, error)
	SumPoints(ctx context.Context) (int, error)
	CountMissions(ctx context.Context, activeOnly bool) (int, error)
	CountSubmissions(ctx context.Context, status domain.SubmissionStatus) (int, error)
	CountQuizzes(ctx context.Context) (int, error)
	CountQuizCompletions(ctx context.Context) (int, error)
}

// LeaderboardCache keeps recent top-N rankings so reads skip the store.
type LeaderboardCache interface {
	Get(ctx context.Context, limit int) ([]domain.LeaderboardEntry, bool)
	Set(ctx context.Context, limit int, entries []domain.LeaderboardEntry)
	Invalidate(ctx context.Context)
}
