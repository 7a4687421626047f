package app_test

import (
	"context"
	"testing"
	"time"

	"gameed/internal/app"
	"gameed/internal/infra/memory"
	"golang.org/x/crypto/bcrypt"
)

type harness struct {
	store    *memory.Store
	tokens   *app.TokenIssuer
	auth     *app.AuthService
	board    *app.LeaderboardService
	scorer   *app.Scorer
	missions *app.MissionService
	quizzes  *app.QuizService
	rewards  *app.RewardService
	users    *app.UserService
	stats    *app.StatsService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := memory.NewStore()
	tokens := app.NewTokenIssuer("test-secret", time.Hour)
	board := app.NewLeaderboardService(store, memory.NewLeaderboardCache(time.Minute))
	scorer := app.NewScorer(store, store, board)
	rewards := app.NewRewardService(store)
	return &harness{
		store:    store,
		tokens:   tokens,
		auth:     app.NewAuthService(store, tokens, app.AuthOptions{AllowAdminSignup: true, BcryptCost: bcrypt.MinCost}),
		board:    board,
		scorer:   scorer,
		missions: app.NewMissionService(store, scorer),
		quizzes:  app.NewQuizService(store, memory.NewQuizRepository(store, time.Minute), scorer),
		rewards:  rewards,
		users:    app.NewUserService(store, rewards, board),
		stats:    app.NewStatsService(store),
	}
}

func (h *harness) register(t *testing.T, name, email, role string) app.Identity {
	t.Helper()
	session, err := h.auth.Register(context.Background(), app.RegisterInput{
		Name: name, Email: email, Password: "secret123", Role: role,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return app.Identity{UserID: session.User.ID, Role: session.User.Role}
}

func (h *harness) mission(t *testing.T, creator app.Identity, points int) string {
	t.Helper()
	mission, err := h.missions.CreateMission(context.Background(), creator, app.MissionInput{
		Title:        "Plant a tree",
		Description:  "Plant a native tree in your neighbourhood",
		Instructions: "Upload a photo of the planted tree",
		Points:       points,
		Difficulty:   "easy",
		Category:     "environment",
	})
	if err != nil {
		t.Fatalf("create mission: %v", err)
	}
	return mission.ID
}
