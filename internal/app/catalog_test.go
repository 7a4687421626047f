package app_test

import (
	"context"
	"testing"

	"gameed/internal/domain"
)

func TestSeedCatalogIsIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	added, err := h.rewards.SeedCatalog(ctx)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if added == 0 {
		t.Fatalf("expected rewards to be added")
	}
	again, err := h.rewards.SeedCatalog(ctx)
	if err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected reseed to add nothing, added %d", again)
	}

	rewards, err := h.rewards.ListRewards(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rewards) != added {
		t.Fatalf("expected %d rewards, got %d", added, len(rewards))
	}
	for i := 1; i < len(rewards); i++ {
		if rewards[i-1].PointsRequired > rewards[i].PointsRequired {
			t.Fatalf("rewards not ordered by points: %+v", rewards)
		}
	}
}

func TestEnsureAdmin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	admin, created, err := h.auth.EnsureAdmin(ctx, "", "Root@School.test", "supersecret")
	if err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	if !created || admin.Role != domain.RoleAdmin || admin.Email != "root@school.test" || admin.Name != "Administrator" {
		t.Fatalf("unexpected admin %+v created=%v", admin, created)
	}

	again, created, err := h.auth.EnsureAdmin(ctx, "Other", "root@school.test", "supersecret")
	if err != nil {
		t.Fatalf("ensure admin again: %v", err)
	}
	if created || again.ID != admin.ID {
		t.Fatalf("expected existing admin to be reused")
	}

	if _, _, err := h.auth.EnsureAdmin(ctx, "Root", "not-an-email", "supersecret"); domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
