package cli

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"quiz-web-service/internal/app"
	"quiz-web-service/internal/config"
)

// NewSeedCmd loads the sample users and quizzes.
func NewSeedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the sample users and quizzes if they are missing",
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
	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()
	if err := app.NewSeeder(d.store).Seed(ctx); err != nil {
		return err
	}
	log.Printf("sample data seeded")
	return nil
}
