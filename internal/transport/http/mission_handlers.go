package http

import (
	"net/http"
	"strconv"

	"gameed/internal/app"
	"gameed/internal/domain"
	"github.com/gin-gonic/gin"
)

type reviewRequest struct {
	Feedback string `json:"feedback"`
}

func pageFromQuery(c *gin.Context) domain.Page {
	number, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return domain.Page{Number: number, Limit: limit}
}

func (h *Handler) listMissions(c *gin.Context) {
	page, err := h.svc.Missions.ListMissions(c.Request.Context(), domain.MissionFilter{
		Category:   c.Query("category"),
		Difficulty: domain.Difficulty(c.Query("difficulty")),
		Page:       pageFromQuery(c),
	})
	if err != nil {
		h.fail(c, "Error fetching missions", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{
		"count":    page.Count,
		"total":    page.Total,
		"page":     page.Page,
		"pages":    page.Pages,
		"missions": page.Missions,
	})
}

func (h *Handler) getMission(c *gin.Context) {
	mission, err := h.svc.Missions.GetMission(c.Request.Context(), identity(c), c.Param("id"))
	if err != nil {
		h.fail(c, "Error fetching mission", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"mission": mission})
}

func (h *Handler) createMission(c *gin.Context) {
	var in app.MissionInput
	if err := bindJSON(c, &in); err != nil {
		h.fail(c, "Error creating mission", err)
		return
	}
	mission, err := h.svc.Missions.CreateMission(c.Request.Context(), identity(c), in)
	if err != nil {
		h.fail(c, "Error creating mission", err)
		return
	}
	ok(c, http.StatusCreated, "Mission created successfully", gin.H{"mission": mission})
}

func (h *Handler) submitMission(c *gin.Context) {
	var in app.SubmissionInput
	if err := bindOptionalJSON(c, &in); err != nil {
		h.fail(c, "Error submitting mission", err)
		return
	}
	sub, err := h.svc.Missions.SubmitMission(c.Request.Context(), identity(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, "Error submitting mission", err)
		return
	}
	ok(c, http.StatusOK, "Mission submitted successfully! Waiting for teacher approval.", gin.H{
		"submission": sub,
	})
}

func (h *Handler) approveSubmission(c *gin.Context) {
	var in reviewRequest
	if err := bindOptionalJSON(c, &in); err != nil {
		h.fail(c, "Error approving mission", err)
		return
	}
	outcome, err := h.svc.Missions.ApproveSubmission(c.Request.Context(), identity(c),
		c.Param("id"), c.Param("submissionId"), in.Feedback)
	if err != nil {
		h.fail(c, "Error approving mission", err)
		return
	}
	ok(c, http.StatusOK, "Mission approved! Points awarded to student.", gin.H{
		"pointsAwarded": outcome.PointsAwarded,
		"feedback":      outcome.Submission.Feedback,
		"student": gin.H{
			"id":        outcome.Student.UserID,
			"name":      studentName(outcome.Submission),
			"newPoints": outcome.Student.Points,
			"newLevel":  outcome.Student.Level,
		},
	})
}

func (h *Handler) rejectSubmission(c *gin.Context) {
	var in reviewRequest
	if err := bindOptionalJSON(c, &in); err != nil {
		h.fail(c, "Error rejecting mission", err)
		return
	}
	outcome, err := h.svc.Missions.RejectSubmission(c.Request.Context(), identity(c),
		c.Param("id"), c.Param("submissionId"), in.Feedback)
	if err != nil {
		h.fail(c, "Error rejecting mission", err)
		return
	}
	ok(c, http.StatusOK, "Mission rejected.", gin.H{
		"feedback":   outcome.Submission.Feedback,
		"submission": outcome.Submission,
	})
}

func (h *Handler) missionSubmissions(c *gin.Context) {
	status := domain.SubmissionStatus(c.Query("status"))
	subs, err := h.svc.Missions.MissionSubmissions(c.Request.Context(), identity(c), c.Param("id"), status)
	if err != nil {
		h.fail(c, "Error fetching submissions", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"count": len(subs), "submissions": subs})
}

func (h *Handler) mySubmissions(c *gin.Context) {
	subs, err := h.svc.Missions.MySubmissions(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, "Error fetching submissions", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"submissions": subs})
}

func (h *Handler) deleteMission(c *gin.Context) {
	if err := h.svc.Missions.DeleteMission(c.Request.Context(), identity(c), c.Param("id")); err != nil {
		h.fail(c, "Error deleting mission", err)
		return
	}
	ok(c, http.StatusOK, "Mission deleted successfully", nil)
}

func studentName(sub domain.Submission) string {
	if sub.Student == nil {
		return ""
	}
	return sub.Student.Name
}
