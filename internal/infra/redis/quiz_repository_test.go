package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gameed/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": sampleQuiz()}}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected loader called once, got %d", loader.count())
	}
	if !mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected redis key to be set")
	}

	// Second call should hit cache, loader not incremented.
	cached, err := repo.GetQuiz(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("get cached quiz: %v", err)
	}
	if loader.count() != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.count())
	}
	if cached.TotalPoints != quiz.TotalPoints || cached.Questions[1].CorrectAnswer != 1 || cached.CreatedBy != "teacher-1" {
		t.Fatalf("cached quiz lost data: %+v", cached)
	}
}

func TestQuizRepositoryInvalidateAndExpiry(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{quizzes: map[string]domain.Quiz{"quiz-1": sampleQuiz()}}
	repo := NewQuizRepository(newClient(mr), loader, time.Minute)
	ctx := context.Background()

	_, _ = repo.GetQuiz(ctx, "quiz-1")
	repo.Invalidate(ctx, "quiz-1")
	if mr.Exists("quiz:quiz-1") {
		t.Fatalf("expected redis key removed")
	}
	_, _ = repo.GetQuiz(ctx, "quiz-1")
	if loader.count() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.count())
	}

	mr.FastForward(2 * time.Minute)
	_, _ = repo.GetQuiz(ctx, "quiz-1")
	if loader.count() != 3 {
		t.Fatalf("expected reload after ttl, loader calls=%d", loader.count())
	}
}

func TestQuizRepositoryMissIsNotCached(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	repo := NewQuizRepository(newClient(mr), &countingLoader{quizzes: map[string]domain.Quiz{}}, time.Minute)
	if _, err := repo.GetQuiz(context.Background(), "missing"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	if mr.Exists("quiz:missing") {
		t.Fatalf("expected no cache entry for a miss")
	}
}

type countingLoader struct {
	mu      sync.Mutex
	quizzes map[string]domain.Quiz
	calls   int
}

func (l *countingLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *countingLoader) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

func sampleQuiz() domain.Quiz {
	quiz := domain.Quiz{
		ID:        "quiz-1",
		Title:     "Energy savers",
		Category:  "environment",
		IsActive:  true,
		CreatedBy: "teacher-1",
		Questions: []domain.Question{
			{Question: "LED or incandescent?", Options: []string{"LED", "incandescent"}, CorrectAnswer: 0, Points: 5},
			{Question: "Standby power is free?", Options: []string{"yes", "no"}, CorrectAnswer: 1, Points: 10},
		},
	}
	quiz.RecomputeTotal()
	return quiz
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
