package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"quiz-web-service/internal/config"
	"quiz-web-service/internal/infra/bunstore"
	"quiz-web-service/internal/infra/bunstore/migrations"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if !isRelational(cfg.Database.Driver) {
		return fmt.Errorf("database driver %q has no schema to migrate", cfg.Database.Driver)
	}
	db, err := bunstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	return migrations.Apply(ctx, db)
}

func isRelational(driver string) bool {
	return driver == bunstore.DriverPostgres || driver == bunstore.DriverSQLite
}
