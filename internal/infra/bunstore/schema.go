package bunstore

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-web-service/internal/domain"
)

// CreateSchema creates every table and index and seeds the closed role set.
// It is safe to run against an existing schema.
func CreateSchema(ctx context.Context, db bun.IDB) error {
	tables := []struct {
		model interface{}
		fks   []string
	}{
		{model: (*userRow)(nil)},
		{model: (*roleRow)(nil)},
		{model: (*userRoleRow)(nil), fks: []string{
			`("user_id") REFERENCES "users" ("id")`,
			`("role_id") REFERENCES "roles" ("id")`,
		}},
		{model: (*quizRow)(nil)},
		{model: (*questionRow)(nil), fks: []string{
			`("quiz_id") REFERENCES "quizzes" ("id")`,
		}},
		{model: (*resultRow)(nil), fks: []string{
			`("user_id") REFERENCES "users" ("id")`,
			`("quiz_id") REFERENCES "quizzes" ("id")`,
		}},
	}
	for _, t := range tables {
		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.fks {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table %T: %w", t.model, err)
		}
	}

	indexes := []struct {
		model  interface{}
		name   string
		column string
	}{
		{(*questionRow)(nil), "questions_quiz_id_idx", "quiz_id"},
		{(*resultRow)(nil), "quiz_results_user_id_idx", "user_id"},
		{(*resultRow)(nil), "quiz_results_quiz_id_idx", "quiz_id"},
		{(*quizRow)(nil), "quizzes_category_slug_idx", "category_slug"},
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().Model(idx.model).Index(idx.name).Column(idx.column).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}

	roles := make([]roleRow, 0, len(domain.AllRoles))
	for _, r := range domain.AllRoles {
		roles = append(roles, roleRow{Name: string(r)})
	}
	if _, err := db.NewInsert().Model(&roles).On("CONFLICT (name) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	return nil
}

// DropSchema removes every table in reverse dependency order.
func DropSchema(ctx context.Context, db bun.IDB) error {
	models := []interface{}{
		(*resultRow)(nil),
		(*questionRow)(nil),
		(*quizRow)(nil),
		(*userRoleRow)(nil),
		(*roleRow)(nil),
		(*userRow)(nil),
	}
	for _, m := range models {
		if _, err := db.NewDropTable().Model(m).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table %T: %w", m, err)
		}
	}
	return nil
}
