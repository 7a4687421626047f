package domain

import "time"

// DefaultQuestionPoints is used when a question is stored without a point value.
const DefaultQuestionPoints = 5

// Question models an MCQ question; CorrectAnswer is a zero-based index into Options.
type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
	Points        int      `json:"points"`
}

// Quiz is a collection of questions. TotalPoints is derived, see RecomputeTotal.
type Quiz struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Questions   []Question   `json:"questions"`
	Category    string       `json:"category"`
	Difficulty  Difficulty   `json:"difficulty"`
	TimeLimit   int          `json:"timeLimit"`
	TotalPoints int          `json:"totalPoints"`
	IsActive    bool         `json:"isActive"`
	CreatedBy   string       `json:"-"`
	Creator     *UserSummary `json:"createdBy,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// RecomputeTotal sets TotalPoints to the sum of the question point values.
// Every write path calls it before persisting.
func (q *Quiz) RecomputeTotal() {
	total := 0
	for _, question := range q.Questions {
		total += question.Points
	}
	q.TotalPoints = total
}

// PublicQuestion is a question without its answer key.
type PublicQuestion struct {
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
	Points      int      `json:"points"`
}

// PublicQuiz is the student-safe projection of a quiz.
type PublicQuiz struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Questions   []PublicQuestion `json:"questions"`
	Category    string           `json:"category"`
	Difficulty  Difficulty       `json:"difficulty"`
	TimeLimit   int              `json:"timeLimit"`
	TotalPoints int              `json:"totalPoints"`
	IsActive    bool             `json:"isActive"`
	Creator     *UserSummary     `json:"createdBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Redacted strips the answer key.
func (q Quiz) Redacted() PublicQuiz {
	questions := make([]PublicQuestion, 0, len(q.Questions))
	for _, question := range q.Questions {
		questions = append(questions, PublicQuestion{
			Question:    question.Question,
			Options:     append([]string(nil), question.Options...),
			Explanation: question.Explanation,
			Points:      question.Points,
		})
	}
	return PublicQuiz{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Questions:   questions,
		Category:    q.Category,
		Difficulty:  q.Difficulty,
		TimeLimit:   q.TimeLimit,
		TotalPoints: q.TotalPoints,
		IsActive:    q.IsActive,
		Creator:     q.Creator,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

type QuizFilter struct {
	Category   string
	Difficulty Difficulty
	Page       Page
}

// QuizAnswer models the answer to one question from clients.
type QuizAnswer struct {
	QuestionIndex  int `json:"questionIndex"`
	SelectedOption int `json:"selectedOption"`
}

// QuizCompletion is one entry of a user's quiz history.
type QuizCompletion struct {
	QuizID      string    `json:"quizId"`
	QuizTitle   string    `json:"title,omitempty"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completedAt"`
}

// QuizResult summarizes the outcome of a quiz submission.
type QuizResult struct {
	Score          int   `json:"score"`
	TotalPoints    int   `json:"totalPoints"`
	CorrectAnswers int   `json:"correctAnswers"`
	TotalQuestions int   `json:"totalQuestions"`
	PointsEarned   int   `json:"pointsEarned"`
	Level          int   `json:"level"`
	InvalidAnswers []int `json:"invalidAnswers,omitempty"`
}

// GradeQuiz scores answers against the quiz key. Answers pointing at a question that does
// not exist earn nothing and are reported by position in InvalidAnswers. A question answered
// more than once is only credited for its first answer.
func GradeQuiz(quiz Quiz, answers []QuizAnswer) QuizResult {
	result := QuizResult{
		TotalPoints:    quiz.TotalPoints,
		TotalQuestions: len(quiz.Questions),
	}
	seen := make(map[int]struct{}, len(answers))
	for i, answer := range answers {
		if answer.QuestionIndex < 0 || answer.QuestionIndex >= len(quiz.Questions) {
			result.InvalidAnswers = append(result.InvalidAnswers, i)
			continue
		}
		if _, dup := seen[answer.QuestionIndex]; dup {
			continue
		}
		seen[answer.QuestionIndex] = struct{}{}

		question := quiz.Questions[answer.QuestionIndex]
		if question.CorrectAnswer == answer.SelectedOption {
			result.Score += question.Points
			result.CorrectAnswers++
		}
	}
	result.PointsEarned = result.Score
	return result
}
