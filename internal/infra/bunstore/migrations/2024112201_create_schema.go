package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"quiz-web-service/internal/infra/bunstore"
)

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return bunstore.CreateSchema(ctx, db)
		},
		func(ctx context.Context, db *bun.DB) error {
			return bunstore.DropSchema(ctx, db)
		},
	)
}
