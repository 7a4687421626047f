package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gameed/internal/domain"
	"github.com/google/uuid"
)

// DefaultTimeLimit is the quiz time limit in minutes when none is given.
const DefaultTimeLimit = 10

type QuestionInput struct {
	Question      string   `json:"question" validate:"required"`
	Options       []string `json:"options" validate:"required,min=2,dive,required"`
	CorrectAnswer *int     `json:"correctAnswer" validate:"required,gte=0"`
	Explanation   string   `json:"explanation"`
	Points        int      `json:"points" validate:"omitempty,gte=0,lte=10000"`
}

type QuizInput struct {
	Title       string          `json:"title" validate:"required,max=100"`
	Description string          `json:"description"`
	Questions   []QuestionInput `json:"questions" validate:"required,min=1,max=100,dive"`
	Category    string          `json:"category" validate:"required,oneof=math science coding general language environment"`
	Difficulty  string          `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	TimeLimit   int             `json:"timeLimit" validate:"omitempty,gte=1"`
	IsActive    *bool           `json:"isActive"`
}

type SubmitQuizInput struct {
	Answers []domain.QuizAnswer `json:"answers" validate:"required"`
}

type QuizPage struct {
	Quizzes []domain.PublicQuiz `json:"quizzes"`
	Count   int                 `json:"count"`
	Total   int                 `json:"total"`
	Page    int                 `json:"page"`
	Pages   int                 `json:"pages"`
}

// QuizService authors, serves and grades quizzes. Grading reads through the quiz cache.
type QuizService struct {
	store   QuizStore
	quizzes QuizRepository
	scorer  *Scorer
	now     func() time.Time
}

func NewQuizService(store QuizStore, quizzes QuizRepository, scorer *Scorer) *QuizService {
	return &QuizService{store: store, quizzes: quizzes, scorer: scorer, now: time.Now}
}

func (s *QuizService) CreateQuiz(ctx context.Context, creator Identity, in QuizInput) (domain.Quiz, error) {
	if !creator.Role.CanReview() {
		return domain.Quiz{}, domain.ErrReviewersOnly
	}
	quiz, err := buildQuiz(in)
	if err != nil {
		return domain.Quiz{}, err
	}
	now := s.now()
	quiz.ID = uuid.NewString()
	quiz.CreatedBy = creator.UserID
	quiz.CreatedAt = now
	quiz.UpdatedAt = now
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("create quiz: %w", err)
	}
	return s.store.LoadQuiz(ctx, quiz.ID)
}

// UpdateQuiz replaces the quiz content and drops any cached copy.
func (s *QuizService) UpdateQuiz(ctx context.Context, caller Identity, id string, in QuizInput) (domain.Quiz, error) {
	if !caller.Role.CanReview() {
		return domain.Quiz{}, domain.ErrReviewersOnly
	}
	if !validID(id) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	existing, err := s.store.LoadQuiz(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz, err := buildQuiz(in)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz.ID = existing.ID
	quiz.CreatedBy = existing.CreatedBy
	quiz.CreatedAt = existing.CreatedAt
	quiz.UpdatedAt = s.now()
	if err := s.store.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, fmt.Errorf("update quiz: %w", err)
	}
	s.quizzes.Invalidate(ctx, id)
	return s.store.LoadQuiz(ctx, id)
}

// ListQuizzes returns active quizzes without their answer keys.
func (s *QuizService) ListQuizzes(ctx context.Context, filter domain.QuizFilter) (QuizPage, error) {
	filter.Page = filter.Page.Normalize()
	quizzes, total, err := s.store.ListQuizzes(ctx, filter)
	if err != nil {
		return QuizPage{}, err
	}
	public := make([]domain.PublicQuiz, 0, len(quizzes))
	for _, quiz := range quizzes {
		public = append(public, quiz.Redacted())
	}
	return QuizPage{
		Quizzes: public,
		Count:   len(public),
		Total:   total,
		Page:    filter.Page.Number,
		Pages:   filter.Page.Pages(total),
	}, nil
}

// GetQuiz returns one quiz without its answer key. Inactive quizzes are hidden from students.
func (s *QuizService) GetQuiz(ctx context.Context, caller Identity, id string) (domain.PublicQuiz, error) {
	quiz, err := s.quiz(ctx, id)
	if err != nil {
		return domain.PublicQuiz{}, err
	}
	if !quiz.IsActive && !caller.Role.CanReview() {
		return domain.PublicQuiz{}, domain.ErrQuizNotFound
	}
	return quiz.Redacted(), nil
}

// SubmitQuiz grades the answers, appends the attempt to the caller's history and credits the
// score. Every submission appends a new history entry.
func (s *QuizService) SubmitQuiz(ctx context.Context, caller Identity, id string, in SubmitQuizInput) (domain.QuizResult, error) {
	quiz, err := s.quiz(ctx, id)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if !quiz.IsActive {
		return domain.QuizResult{}, domain.ErrQuizInactive
	}
	if err := validateInput(in, "Please provide quiz answers"); err != nil {
		return domain.QuizResult{}, err
	}

	result := domain.GradeQuiz(quiz, in.Answers)
	progress, err := s.scorer.RecordQuiz(ctx, caller.UserID, domain.QuizCompletion{
		QuizID:      quiz.ID,
		QuizTitle:   quiz.Title,
		Score:       result.Score,
		CompletedAt: s.now(),
	})
	if err != nil {
		return domain.QuizResult{}, err
	}
	result.Level = progress.Level
	return result, nil
}

func (s *QuizService) quiz(ctx context.Context, id string) (domain.Quiz, error) {
	if !validID(id) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return s.quizzes.GetQuiz(ctx, id)
}

func buildQuiz(in QuizInput) (domain.Quiz, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(in, "Please provide a valid quiz"); err != nil {
		return domain.Quiz{}, err
	}

	fields := map[string]string{}
	questions := make([]domain.Question, 0, len(in.Questions))
	for i, q := range in.Questions {
		if *q.CorrectAnswer >= len(q.Options) {
			fields["questions["+strconv.Itoa(i)+"].correctAnswer"] = "must point at one of the options"
			continue
		}
		points := q.Points
		if points == 0 {
			points = domain.DefaultQuestionPoints
		}
		questions = append(questions, domain.Question{
			Question:      q.Question,
			Options:       append([]string(nil), q.Options...),
			CorrectAnswer: *q.CorrectAnswer,
			Explanation:   q.Explanation,
			Points:        points,
		})
	}
	if len(fields) > 0 {
		return domain.Quiz{}, domain.ValidationFields("Please provide a valid quiz", fields)
	}

	quiz := domain.Quiz{
		Title:       in.Title,
		Description: in.Description,
		Questions:   questions,
		Category:    in.Category,
		Difficulty:  domain.DifficultyEasy,
		TimeLimit:   DefaultTimeLimit,
		IsActive:    true,
	}
	if in.Difficulty != "" {
		quiz.Difficulty = domain.Difficulty(in.Difficulty)
	}
	if in.TimeLimit > 0 {
		quiz.TimeLimit = in.TimeLimit
	}
	if in.IsActive != nil {
		quiz.IsActive = *in.IsActive
	}
	quiz.RecomputeTotal()
	return quiz, nil
}
