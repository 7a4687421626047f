package app

import (
	"context"
	"time"

	"gameed/internal/domain"
	"github.com/google/uuid"
)

type catalogEntry struct {
	name, description, icon string
	points                  int
	category, rarity        string
}

var defaultCatalog = []catalogEntry{
	{"Seedling", "Earned your first points", "🌱", 0, "badge", "common"},
	{"Green Starter", "Reached 100 points", "🍃", 100, "badge", "common"},
	{"Eco Hero", "Reached 300 points", "🌟", 300, "badge", "rare"},
	{"Recycling Ranger", "Reached 500 points", "♻️", 500, "medal", "rare"},
	{"Energy Saver", "Reached 750 points", "⚡", 750, "medal", "epic"},
	{"Planet Guardian", "Reached 1000 points", "🌍", 1000, "trophy", "epic"},
	{"Earth Legend", "Reached 2500 points", "🏆", 2500, "special", "legendary"},
}

// DefaultRewards is the built-in reward catalog. Names are unique.
func DefaultRewards(now time.Time) []domain.Reward {
	rewards := make([]domain.Reward, 0, len(defaultCatalog))
	for _, entry := range defaultCatalog {
		rewards = append(rewards, domain.Reward{
			ID:             uuid.NewString(),
			Name:           entry.name,
			Description:    entry.description,
			Icon:           entry.icon,
			PointsRequired: entry.points,
			Category:       entry.category,
			Rarity:         entry.rarity,
			IsActive:       true,
			CreatedAt:      now,
		})
	}
	return rewards
}

// SeedCatalog inserts the built-in rewards that are not stored yet and returns how many were added.
func (s *RewardService) SeedCatalog(ctx context.Context) (int, error) {
	return s.rewards.SeedRewards(ctx, DefaultRewards(time.Now()))
}
