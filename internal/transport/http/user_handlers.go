package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listRewards(c *gin.Context) {
	rewards, err := h.svc.Rewards.ListRewards(c.Request.Context())
	if err != nil {
		h.fail(c, "Error fetching rewards", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"rewards": rewards})
}

func (h *Handler) leaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	lb, err := h.svc.Users.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "Error fetching leaderboard", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"leaders": lb.Entries, "updatedAt": lb.UpdatedAt})
}

func (h *Handler) profile(c *gin.Context) {
	profile, err := h.svc.Users.Profile(c.Request.Context(), identity(c))
	if err != nil {
		h.fail(c, "Error fetching user profile", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{"user": profile})
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.svc.Stats.PlatformStats(c.Request.Context())
	if err != nil {
		h.fail(c, "Error fetching stats", err)
		return
	}
	ok(c, http.StatusOK, "", gin.H{
		"missionsCompleted": stats.MissionsCompleted,
		"totalMissions":     stats.TotalMissions,
		"activeMissions":    stats.ActiveMissions,
		"totalQuizzes":      stats.TotalQuizzes,
		"quizzesCompleted":  stats.QuizzesCompleted,
		"totalUsers":        stats.TotalUsers,
		"studentsEngaged":   stats.StudentsEngaged,
		"xpEarned":          stats.XPEarned,
	})
}
