package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gameed/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuizLoader reads a quiz with its answer key straight from Postgres. It backs the grading
// cache so cache misses skip the ORM.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

const loadQuizQuery = `
SELECT q.id::text, q.title, q.description, q.questions, q.category, q.difficulty,
       q.time_limit, q.total_points, q.is_active, COALESCE(q.created_by::text, ''),
       COALESCE(u.name, ''), COALESCE(u.email, ''), q.created_at, q.updated_at
FROM quizzes AS q
LEFT JOIN users AS u ON u.id = q.created_by
WHERE q.id = $1`

func (l *QuizLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		quiz         domain.Quiz
		raw          []byte
		difficulty   string
		creatorName  string
		creatorEmail string
	)
	err := l.pool.QueryRow(ctx, loadQuizQuery, quizID).Scan(
		&quiz.ID, &quiz.Title, &quiz.Description, &raw, &quiz.Category, &difficulty,
		&quiz.TimeLimit, &quiz.TotalPoints, &quiz.IsActive, &quiz.CreatedBy,
		&creatorName, &creatorEmail, &quiz.CreatedAt, &quiz.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	if err := json.Unmarshal(raw, &quiz.Questions); err != nil {
		return domain.Quiz{}, fmt.Errorf("unmarshal quiz questions: %w", err)
	}
	quiz.Difficulty = domain.Difficulty(difficulty)
	if quiz.CreatedBy != "" {
		quiz.Creator = &domain.UserSummary{ID: quiz.CreatedBy, Name: creatorName, Email: creatorEmail}
	}
	return quiz, nil
}
