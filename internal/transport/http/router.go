package http

import (
	"net/http"
	"time"

	"gameed/internal/app"
	"gameed/internal/domain"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Services are the use cases exposed over HTTP.
type Services struct {
	Auth        *app.AuthService
	Missions    *app.MissionService
	Quizzes     *app.QuizService
	Rewards     *app.RewardService
	Users       *app.UserService
	Stats       *app.StatsService
	Leaderboard *app.LeaderboardService
}

type Options struct {
	// Production hides error details from clients.
	Production bool
	// CORSOrigins lists allowed origins. Empty allows any origin.
	CORSOrigins []string
	// AccessLog enables gin's request logger.
	AccessLog bool
}

type Handler struct {
	svc      Services
	opts     Options
	upgrader websocket.Upgrader
}

func NewHandler(svc Services, opts Options) *Handler {
	return &Handler{
		svc:  svc,
		opts: opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// NewRouter builds the gin engine with every REST route and the leaderboard feed.
func NewRouter(svc Services, opts Options) *gin.Engine {
	h := NewHandler(svc, opts)

	r := gin.New()
	if opts.AccessLog {
		r.Use(gin.Logger())
	}
	r.Use(gin.CustomRecovery(h.recovered))
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/ws/leaderboard", h.ServeLeaderboard)

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", h.register)
	auth.POST("/login", h.login)
	auth.GET("/me", h.Authenticate(), h.me)

	protected := api.Group("", h.Authenticate())
	reviewers := h.Authorize(domain.RoleTeacher, domain.RoleAdmin)

	missions := protected.Group("/missions")
	missions.GET("", h.listMissions)
	missions.POST("", reviewers, h.createMission)
	missions.GET("/submissions/mine", h.mySubmissions)
	missions.GET("/:id", h.getMission)
	missions.DELETE("/:id", reviewers, h.deleteMission)
	missions.POST("/:id/submit", h.submitMission)
	missions.GET("/:id/submissions", reviewers, h.missionSubmissions)
	missions.PUT("/:id/approve/:submissionId", reviewers, h.approveSubmission)
	missions.PUT("/:id/reject/:submissionId", reviewers, h.rejectSubmission)

	quizzes := protected.Group("/quizzes")
	quizzes.GET("", h.listQuizzes)
	quizzes.POST("", reviewers, h.createQuiz)
	quizzes.GET("/:id", h.getQuiz)
	quizzes.PUT("/:id", reviewers, h.updateQuiz)
	quizzes.POST("/:id/submit", h.submitQuiz)

	protected.GET("/rewards", h.listRewards)
	protected.GET("/users/leaderboard", h.leaderboard)
	protected.GET("/users/profile", h.profile)
	protected.GET("/stats", h.stats)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Route not found"})
	})
	return r
}

func (h *Handler) recovered(c *gin.Context, rec any) {
	status, body := h.errorBody(genericFailure, panicError{value: rec})
	c.AbortWithStatusJSON(status, body)
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: len(origins) > 0,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
