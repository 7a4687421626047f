package cli

import (
	"context"
	"log"
	"time"

	"gameed/internal/app"
	"gameed/internal/config"
	"gameed/internal/infra/memory"
	"gameed/internal/infra/postgres"
	rediscache "gameed/internal/infra/redis"
	transport "gameed/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
)

// stores groups the repositories one storage driver provides.
type stores struct {
	users    app.UserRepository
	missions app.MissionRepository
	quizzes  app.QuizStore
	loader   memory.QuizLoader
	rewards  app.RewardRepository
	stats    app.StatsRepository
}

// stack is the fully wired application plus the resources it holds open.
type stack struct {
	services transport.Services
	closers  []func()
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func buildStack(ctx context.Context, cfg config.Config) (*stack, error) {
	st := &stack{}

	var repos stores
	if cfg.UsePostgres() {
		db, err := postgres.Open(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { db.Close() })
		if err := migrateUp(ctx, db); err != nil {
			st.Close()
			return nil, err
		}

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			st.Close()
			return nil, err
		}
		st.closers = append(st.closers, pool.Close)

		store := postgres.NewStore(db)
		repos = stores{
			users: store, missions: store, quizzes: store, rewards: store, stats: store,
			loader: postgres.NewQuizLoader(pool),
		}
		log.Printf("using postgres storage")
	} else {
		store := memory.NewStore()
		repos = stores{
			users: store, missions: store, quizzes: store, rewards: store, stats: store,
			loader: store,
		}
		log.Printf("using in-memory storage")
	}

	redisClient := connectRedis(ctx, cfg)
	if redisClient != nil {
		st.closers = append(st.closers, func() { redisClient.Close() })
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	boardTTL := config.TTLDuration(cfg.Leaderboard.TTL, 30*time.Second)

	var quizRepo app.QuizRepository
	var boardCache app.LeaderboardCache
	if redisClient != nil {
		quizRepo = rediscache.NewQuizRepository(redisClient, repos.loader, quizTTL)
		boardCache = rediscache.NewLeaderboardCache(redisClient, boardTTL)
	} else {
		quizRepo = memory.NewQuizRepository(repos.loader, quizTTL)
		boardCache = memory.NewLeaderboardCache(boardTTL)
	}

	tokens := app.NewTokenIssuer(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.TokenTTL, app.DefaultTokenTTL))
	board := app.NewLeaderboardService(repos.users, boardCache)
	scorer := app.NewScorer(repos.users, repos.missions, board)
	rewards := app.NewRewardService(repos.rewards)

	st.services = transport.Services{
		Auth: app.NewAuthService(repos.users, tokens, app.AuthOptions{
			AllowAdminSignup: cfg.Auth.AllowAdminSignup,
			BcryptCost:       cfg.Auth.BcryptCost,
		}),
		Missions:    app.NewMissionService(repos.missions, scorer),
		Quizzes:     app.NewQuizService(repos.quizzes, quizRepo, scorer),
		Rewards:     rewards,
		Users:       app.NewUserService(repos.users, rewards, board),
		Stats:       app.NewStatsService(repos.stats),
		Leaderboard: board,
	}
	return st, nil
}

// connectRedis returns nil when Redis is not configured or unreachable; callers then fall
// back to in-process caches.
func connectRedis(ctx context.Context, cfg config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("redis unavailable at %s, using in-process caches: %v", cfg.Redis.Addr, err)
		client.Close()
		return nil
	}
	log.Printf("using redis caches at %s", cfg.Redis.Addr)
	return client
}

// seed stores the reward catalog and, when configured, the admin account.
func seed(ctx context.Context, cfg config.Config, svc transport.Services) error {
	added, err := svc.Rewards.SeedCatalog(ctx)
	if err != nil {
		return err
	}
	if added > 0 {
		log.Printf("seeded %d rewards", added)
	}
	if cfg.Seed.AdminEmail == "" || cfg.Seed.AdminPassword == "" {
		return nil
	}
	admin, created, err := svc.Auth.EnsureAdmin(ctx, cfg.Seed.AdminName, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Printf("created admin account %s", admin.Email)
	}
	return nil
}
