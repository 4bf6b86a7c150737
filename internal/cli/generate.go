package cli

import (
	"context"
	"fmt"
	"log"

	"exam-review-service/internal/config"
	"exam-review-service/internal/genai"
	"exam-review-service/internal/infra/sqlite"
	"github.com/spf13/cobra"
)

// NewGenerateCmd generates one pending question targeting the weakest
// category and stores it for review.
func NewGenerateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate one AI question for the weakest category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), *configPath)
		},
	}
}

func runGenerate(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.GenAI.BaseURL == "" {
		return fmt.Errorf("genai base_url not configured")
	}
	store, err := sqlite.Open(ctx, cfg.SQLite.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	gen := genai.NewGenerator(cfg.GenAI.BaseURL, cfg.GenAI.APIKey, cfg.GenAI.Model, store, store)
	question, err := gen.Generate(ctx)
	if err != nil {
		return err
	}
	log.Printf("generated question %d (%s, %s), pending review", question.ID, question.CategoryName, question.Difficulty)
	return nil
}
