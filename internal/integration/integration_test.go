package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gameed/internal/app"
	"gameed/internal/domain"
	"gameed/internal/infra/postgres"
	pgmigrations "gameed/internal/infra/postgres/migrations"
	infraredis "gameed/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun/migrate"
	"golang.org/x/crypto/bcrypt"
)

type services struct {
	auth     *app.AuthService
	missions *app.MissionService
	quizzes  *app.QuizService
	users    *app.UserService
	stats    *app.StatsService
	rewards  *app.RewardService
}

func TestPostgresAndRedisEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	svc := wire(t, ctx, pgURL, redisURL)

	teacher := register(t, ctx, svc, "Tess", "tess@school.test", "teacher")
	student := register(t, ctx, svc, "Sam", "sam@school.test", "student")

	mission, err := svc.missions.CreateMission(ctx, teacher, app.MissionInput{
		Title: "Plant a tree", Description: "Plant one tree", Instructions: "Send a photo",
		Points: 100, Difficulty: "easy", Category: "environment",
	})
	if err != nil {
		t.Fatalf("create mission: %v", err)
	}
	if mission.Creator == nil || mission.Creator.Email != "tess@school.test" {
		t.Fatalf("expected populated creator, got %+v", mission.Creator)
	}

	sub, err := svc.missions.SubmitMission(ctx, student, mission.ID, app.SubmissionInput{Submission: "Planted an oak"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := svc.missions.SubmitMission(ctx, student, mission.ID, app.SubmissionInput{Submission: "again"}); !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected already submitted, got %v", err)
	}

	// Concurrent approvals of one submission award the points once.
	var wg sync.WaitGroup
	results := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.missions.ApproveSubmission(ctx, teacher, mission.ID, sub.ID, "")
			results <- err
		}()
	}
	wg.Wait()
	close(results)
	approved := 0
	for err := range results {
		switch {
		case err == nil:
			approved++
		case domain.KindOf(err) == domain.KindConflict:
		default:
			t.Fatalf("approve: %v", err)
		}
	}
	if approved != 1 {
		t.Fatalf("expected exactly one approval, got %d", approved)
	}

	quiz, err := svc.quizzes.CreateQuiz(ctx, teacher, app.QuizInput{
		Title:    "Recycling basics",
		Category: "environment",
		Questions: []app.QuestionInput{
			{Question: "Glass is recyclable?", Options: []string{"yes", "no"}, CorrectAnswer: intPtr(0), Points: 5},
			{Question: "Pizza boxes go to?", Options: []string{"paper", "compost"}, CorrectAnswer: intPtr(1), Points: 10},
		},
	})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	if quiz.TotalPoints != 15 {
		t.Fatalf("expected total 15, got %d", quiz.TotalPoints)
	}

	result, err := svc.quizzes.SubmitQuiz(ctx, student, quiz.ID, app.SubmitQuizInput{Answers: []domain.QuizAnswer{
		{QuestionIndex: 0, SelectedOption: 0},
		{QuestionIndex: 1, SelectedOption: 0},
	}})
	if err != nil {
		t.Fatalf("submit quiz: %v", err)
	}
	if result.Score != 5 || result.CorrectAnswers != 1 || result.Level != 2 {
		t.Fatalf("unexpected quiz result %+v", result)
	}

	profile, err := svc.users.Profile(ctx, student)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.Points != 105 || profile.Level != domain.LevelForPoints(105) {
		t.Fatalf("expected 105 points, got %d (level %d)", profile.Points, profile.Level)
	}
	if len(profile.CompletedMissions) != 1 || len(profile.CompletedQuizzes) != 1 {
		t.Fatalf("expected populated history, got %+v", profile)
	}
	if len(profile.Badges) == 0 {
		t.Fatalf("expected seeded badges to be unlocked")
	}

	board, err := svc.users.Leaderboard(ctx, 5)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board.Entries) != 2 || board.Entries[0].UserID != student.UserID {
		t.Fatalf("expected student leading, got %+v", board.Entries)
	}

	stats, err := svc.stats.PlatformStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.MissionsCompleted != 1 || stats.QuizzesCompleted != 1 || stats.StudentsEngaged != 1 || stats.XPEarned != 105 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if err := svc.missions.DeleteMission(ctx, teacher, mission.ID); err != nil {
		t.Fatalf("delete mission: %v", err)
	}
	profile, err = svc.users.Profile(ctx, student)
	if err != nil {
		t.Fatalf("profile after delete: %v", err)
	}
	if profile.Points != 105 {
		t.Fatalf("expected points to survive mission deletion, got %d", profile.Points)
	}
}

func wire(t *testing.T, ctx context.Context, pgURL, redisURL string) services {
	t.Helper()
	db, err := postgres.Open(ctx, pgURL)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	t.Cleanup(pool.Close)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	t.Cleanup(func() { redisClient.Close() })

	store := postgres.NewStore(db)
	quizRepo := infraredis.NewQuizRepository(redisClient, postgres.NewQuizLoader(pool), 5*time.Minute)
	board := app.NewLeaderboardService(store, infraredis.NewLeaderboardCache(redisClient, time.Minute))
	scorer := app.NewScorer(store, store, board)
	rewards := app.NewRewardService(store)
	if _, err := rewards.SeedCatalog(ctx); err != nil {
		t.Fatalf("seed rewards: %v", err)
	}

	return services{
		auth:     app.NewAuthService(store, app.NewTokenIssuer("integration", time.Hour), app.AuthOptions{BcryptCost: bcrypt.MinCost}),
		missions: app.NewMissionService(store, scorer),
		quizzes:  app.NewQuizService(store, quizRepo, scorer),
		users:    app.NewUserService(store, rewards, board),
		stats:    app.NewStatsService(store),
		rewards:  rewards,
	}
}

func register(t *testing.T, ctx context.Context, svc services, name, email, role string) app.Identity {
	t.Helper()
	session, err := svc.auth.Register(ctx, app.RegisterInput{Name: name, Email: email, Password: "secret123", Role: role})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return app.Identity{UserID: session.User.ID, Role: session.User.Role}
}

func intPtr(v int) *int { return &v }

var postgresReady = wait.ForLog("database system is ready to accept connections").
	WithOccurrence(2).
	WithStartupTimeout(60 * time.Second)

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "gameed", "POSTGRES_PASSWORD": "gameedpass", "POSTGRES_DB": "gameed"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   postgresReady,
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://gameed:gameedpass@%s:%s/gameed?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(opts), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
