package http

import (
	"net/http"

	"gameed/internal/app"
	"gameed/internal/domain"
	"github.com/gin-gonic/gin"
)

func (h *Handler) listQuizzes(c *gin.Context) {
	page, err := h.svc.Quizzes.ListQuizzes(c.Request.Context(), domain.QuizFilter{
		Category:   c.Query("category"),
		Difficulty: domain.Difficulty(c.Query("difficulty")),
		Page:       pageFromQuery(c),
	})
	if err != nil {
		h.fail(c, "Error fetching quizzes", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{
		"count":   page.Count,
		"total":   page.Total,
		"page":    page.Page,
		"pages":   page.Pages,
		"quizzes": page.Quizzes,
	})
}

func (h *Handler) getQuiz(c *gin.Context) {
	quiz, err := h.svc.Quizzes.GetQuiz(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		h.fail(c, "Error fetching quiz", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"quiz": quiz})
}

func (h *Handler) createQuiz(c *gin.Context) {
	var in app.QuizInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, "Error creating quiz", err)
		return
	}
	quiz, err := h.svc.Quizzes.CreateQuiz(c.Request.Context(), identity(c), in)
	if err != nil {
		h.fail(c, "Error creating quiz", err)
		return
	}
	ok(c, http.StatusCreated, "Quiz created successfully", gin.H{"quiz": quiz})
}

func (h *Handler) updateQuiz(c *gin.Context) {
	var in app.QuizInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, "Error updating quiz", err)
		return
	}
	quiz, err := h.svc.Quizzes.UpdateQuiz(c.Request.Context(), identity(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, "Error updating quiz", err)
		return
	}
	ok(c, http.StatusOK, "Quiz updated successfully", gin.H{"quiz": quiz})
}

func (h *Handler) submitQuiz(c *gin.Context) {
	var in app.SubmitQuizInput
	if err := bindOptionalJSON(c, &in); err != nil {
		h.fail(c, "Error submitting quiz", err)
		return
	}
	result, err := h.svc.Quizzes.SubmitQuiz(c.Request.Context(), identity(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, "Error submitting quiz", err)
		return
	}
	ok(c, http.StatusOK, "Quiz submitted successfully", gin.H{"result": result})
}
