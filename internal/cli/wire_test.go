package cli

import (
	"context"
	"testing"

	"gameed/internal/app"
	"gameed/internal/config"
	"github.com/alicebob/miniredis/v2"
)

func memoryConfig() config.Config {
	cfg := config.Config{}
	cfg.Storage.Driver = "memory"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.BcryptCost = 4
	cfg.Seed.AdminEmail = "admin@school.test"
	cfg.Seed.AdminPassword = "adminpass"
	return cfg
}

func TestBuildStackInMemoryAndSeed(t *testing.T) {
	ctx := context.Background()
	cfg := memoryConfig()

	st, err := buildStack(ctx, cfg)
	if err != nil {
		t.Fatalf("build stack: %v", err)
	}
	defer st.Close()

	if err := seed(ctx, cfg, st.services); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := seed(ctx, cfg, st.services); err != nil {
		t.Fatalf("reseed: %v", err)
	}

	rewards, err := st.services.Rewards.ListRewards(ctx)
	if err != nil || len(rewards) == 0 {
		t.Fatalf("expected seeded rewards, got %d (%v)", len(rewards), err)
	}
	session, err := st.services.Auth.Login(ctx, app.LoginInput{Email: "admin@school.test", Password: "adminpass"})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if session.User.Role != "admin" {
		t.Fatalf("expected admin role, got %s", session.User.Role)
	}
}

func TestBuildStackUsesRedisWhenReachable(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.Redis.Addr = mr.Addr()

	if client := connectRedis(context.Background(), cfg); client == nil {
		t.Fatalf("expected redis client for reachable server")
	} else {
		client.Close()
	}

	st, err := buildStack(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build stack: %v", err)
	}
	st.Close()

	cfg.Redis.Addr = "127.0.0.1:1"
	if client := connectRedis(context.Background(), cfg); client != nil {
		t.Fatalf("expected nil client for unreachable redis")
	}
}
