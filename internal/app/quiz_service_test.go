package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gameed/internal/app"
	"gameed/internal/domain"
)

func intPtr(v int) *int { return &v }

func sampleQuizInput() app.QuizInput {
	return app.QuizInput{
		Title:    "Recycling basics",
		Category: "environment",
		Questions: []app.QuestionInput{
			{Question: "Which bin takes glass?", Options: []string{"green", "blue"}, CorrectAnswer: intPtr(0), Points: 5},
			{Question: "Is styrofoam recyclable curbside?", Options: []string{"yes", "no"}, CorrectAnswer: intPtr(1), Points: 10},
		},
	}
}

func TestCreateQuizDefaultsAndTotal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	teacher := h.register(t, "Tess", "tess@example.com", "teacher")

	in := sampleQuizInput()
	in.Questions[0].Points = 0
	quiz, err := h.quizzes.CreateQuiz(ctx, teacher, in)
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.Questions[0].Points != domain.DefaultQuestionPoints {
		t.Fatalf("expected default points, got %d", quiz.Questions[0].Points)
	}
	if quiz.TotalPoints != 15 {
		t.Fatalf("expected total 15, got %d", quiz.TotalPoints)
	}
	if quiz.TimeLimit != app.DefaultTimeLimit || quiz.Difficulty != domain.DifficultyEasy || !quiz.IsActive {
		t.Fatalf("unexpected defaults %+v", quiz)
	}
	if quiz.Creator == nil || quiz.Creator.Name != "Tess" {
		t.Fatalf("expected creator populated, got %+v", quiz.Creator)
	}
}

func tooManyQuestions(in *app.QuizInput) {
	for len(in.Questions) <= 100 {
		in.Questions = append(in.Questions, in.Questions[0])
	}
}

func TestCreateQuizValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	teacher := h.register(t, "Tess", "tess@example.com", "teacher")
	student := h.register(t, "Sam", "sam@example.com", "student")

	if _, err := h.quizzes.CreateQuiz(ctx, student, sampleQuizInput()); !errors.Is(err, domain.ErrReviewersOnly) {
		t.Fatalf("expected reviewers only, got %v", err)
	}

	cases := map[string]func(*app.QuizInput){
		"empty title":      func(in *app.QuizInput) { in.Title = " " },
		"bad category":     func(in *app.QuizInput) { in.Category = "history" },
		"no questions":     func(in *app.QuizInput) { in.Questions = nil },
		"one option":       func(in *app.QuizInput) { in.Questions[0].Options = []string{"only"} },
		"answer too large": func(in *app.QuizInput) { in.Questions[1].CorrectAnswer = intPtr(2) },
		"missing answer":   func(in *app.QuizInput) { in.Questions[1].CorrectAnswer = nil },
		"huge points":      func(in *app.QuizInput) { in.Questions[0].Points = 1 << 62 },
		"many questions":   tooManyQuestions,
	}
	for name, mutate := range cases {
		in := sampleQuizInput()
		mutate(&in)
		_, err := h.quizzes.CreateQuiz(ctx, teacher, in)
		if domain.KindOf(err) != domain.KindValidation {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestQuizViewsRedactAnswers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	teacher := h.register(t, "Tess", "tess@example.com", "teacher")
	student := h.register(t, "Sam", "sam@example.com", "student")
	quiz, _ := h.quizzes.CreateQuiz(ctx, teacher, sampleQuizInput())

	one, err := h.quizzes.GetQuiz(ctx, student, quiz.ID)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	page, err := h.quizzes.ListQuizzes(ctx, domain.QuizFilter{})
	if err != nil {
		t.Fatalf("list quizzes: %v", err)
	}
	if page.Total != 1 || page.Count != 1 || page.Pages != 1 {
		t.Fatalf("unexpected page %+v", page)
	}
	for _, view := range []any{one, page} {
		raw, _ := json.Marshal(view)
		if strings.Contains(string(raw), "correctAnswer") {
			t.Fatalf("answer key leaked: %s", raw)
		}
	}
}

// Two questions worth 5 and 10, first right and second wrong.
func TestSubmitQuizScoresAndAwards(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	teacher := h.register(t, "Tess", "tess@example.com", "teacher")
	student := h.register(t, "Sam", "sam@example.com", "student")
	quiz, _ := h.quizzes.CreateQuiz(ctx, teacher, sampleQuizInput())

	result, err := h.quizzes.SubmitQuiz(ctx, student, quiz.ID, app.SubmitQuizInput{Answers: []domain.QuizAnswer{
		{QuestionIndex: 0, SelectedOption: 0},
		{QuestionIndex: 1, SelectedOption: 0},
	}})
	if err != nil {
		t.Fatalf("submit quiz: %v", err)
	}
	if result.Score != 5 || result.CorrectAnswers != 1 || result.TotalPoints != 15 || result.TotalQuestions != 2 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.PointsEarned != 5 || result.Level != 1 {
		t.Fatalf("unexpected award %+v", result)
	}

	user, _ := h.store.UserByID(ctx, student.UserID)
	if user.Points != 5 {
		t.Fatalf("expected 5 points, got %d", user.Points)
	}

	// A second attempt appends history.
	_, _ = h.quizzes.SubmitQuiz(ctx, student, quiz.ID, app.SubmitQuizInput{Answers: []domain.QuizAnswer{{QuestionIndex: 0, SelectedOption: 0}}})
	history, _ := h.store.CompletedQuizzes(ctx, student.UserID)
	if len(history) != 2 || history[0].Score != 5 || history[0].QuizTitle != "Recycling basics" {
		t.Fatalf("unexpected history %+v", history)
	}
}

func TestSubmitQuizOutOfRangeIndex(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	teacher := h.register(t, "Tess", "tess@example.com", "teacher")
	student := h.register(t, "Sam", "sam@example.com", "student")
	quiz, _ := h.quizzes.CreateQuiz(ctx, teacher, sampleQuizInput())

	result, err := h.quizzes.SubmitQuiz(ctx, student, quiz.ID, app.SubmitQuizInput{Answers: []domain.QuizAnswer{
		{QuestionIndex: 7, SelectedOption: 0},
		{QuestionIndex: 1, SelectedOption: 1},
	}})
	if err != nil {
		t.Fatalf("submit quiz: %v", err)
	}
	if result.Score != 10 || len(result.InvalidAnswers) != 1 || result.InvalidAnswers[0] != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSubmitQuizUnknownAndMissingAnswers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	teacher := h.register(t, "Tess", "tess@example.com", "teacher")
	student := h.register(t, "Sam", "sam@example.com", "student")

	if _, err := h.quizzes.SubmitQuiz(ctx, student, "not-a-uuid", app.SubmitQuizInput{}); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
	quiz, _ := h.quizzes.CreateQuiz(ctx, teacher, sampleQuizInput())
	if _, err := h.quizzes.SubmitQuiz(ctx, student, quiz.ID, app.SubmitQuizInput{}); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateQuizRecomputesAndInvalidates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	teacher := h.register(t, "Tess", "tess@example.com", "teacher")
	student := h.register(t, "Sam", "sam@example.com", "student")
	quiz, _ := h.quizzes.CreateQuiz(ctx, teacher, sampleQuizInput())

	// Warm the grading cache.
	if _, err := h.quizzes.GetQuiz(ctx, student, quiz.ID); err != nil {
		t.Fatalf("get quiz: %v", err)
	}

	in := sampleQuizInput()
	in.Questions = append(in.Questions, app.QuestionInput{Question: "Compost eggshells?", Options: []string{"yes", "no"}, CorrectAnswer: intPtr(0), Points: 20})
	updated, err := h.quizzes.UpdateQuiz(ctx, teacher, quiz.ID, in)
	if err != nil {
		t.Fatalf("update quiz: %v", err)
	}
	if updated.TotalPoints != 35 {
		t.Fatalf("expected total 35, got %d", updated.TotalPoints)
	}

	view, _ := h.quizzes.GetQuiz(ctx, student, quiz.ID)
	if len(view.Questions) != 3 || view.TotalPoints != 35 {
		t.Fatalf("expected fresh quiz after update, got %+v", view)
	}
}
