package cli

import (
	"context"
	"log"

	"exam-review-service/internal/config"
	"exam-review-service/internal/infra/sqlite"
	"github.com/spf13/cobra"
)

// NewSeedCmd installs the quiz presets and starter questions into sqlite.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Seed the local question bank and quiz presets",
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
	store, err := sqlite.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Seed(ctx); err != nil {
		return err
	}
	log.Printf("seed applied")
	return nil
}
