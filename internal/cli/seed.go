package cli

import (
	"context"

	"gameed/internal/config"
	"github.com/spf13/cobra"
)

// NewSeedCmd stores the reward catalog and the configured admin account, then exits.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the reward catalog and admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath)
		},
	}
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	st, err := buildStack(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return seed(ctx, cfg, st.services)
}
