// Package bunstore persists users, quizzes and results in PostgreSQL or SQLite through bun.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-web-service/internal/domain"
)

// Store implements app.Store on a bun database.
type Store struct {
	db    *bun.DB
	clock func() time.Time
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, clock: time.Now}
}

// DB exposes the underlying handle for migrations and tests.
func (s *Store) DB() *bun.DB {
	return s.db
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.Field('C') == "23503"
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func notFound(err error, sentinel error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return err
}

// users

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.clock()
	}
	row := toUserRow(*u)
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrEmailTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if len(u.Roles) == 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO user_roles (user_id, role_id) SELECT ?, id FROM roles WHERE name IN (?)`,
			row.ID, bun.In(u.Roles.Strings()))
		if err != nil {
			return fmt.Errorf("insert user roles: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	u.ID = row.ID
	return nil
}

func (s *Store) rolesFor(ctx context.Context, db bun.IDB, ids ...int64) (map[int64]domain.RoleSet, error) {
	out := make(map[int64]domain.RoleSet, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var links []roleLink
	err := db.NewSelect().
		TableExpr("user_roles AS ur").
		ColumnExpr("ur.user_id, r.name").
		Join("JOIN roles AS r ON r.id = ur.role_id").
		Where("ur.user_id IN (?)", bun.In(ids)).
		OrderExpr("ur.user_id ASC, r.id ASC").
		Scan(ctx, &links)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}
	for _, l := range links {
		r := domain.Role(l.Name)
		if r.Valid() {
			out[l.UserID] = append(out[l.UserID], r)
		}
	}
	return out, nil
}

func (s *Store) withRoles(ctx context.Context, rows []userRow) ([]domain.User, error) {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	roles, err := s.rolesFor(ctx, s.db, ids...)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, len(rows))
	for i, r := range rows {
		users[i] = r.toDomain(roles[r.ID])
	}
	return users, nil
}

func (s *Store) oneUser(ctx context.Context, where string, arg interface{}) (domain.User, error) {
	var row userRow
	if err := s.db.NewSelect().Model(&row).Where(where, arg).Limit(1).Scan(ctx); err != nil {
		return domain.User{}, notFound(err, domain.ErrUserNotFound)
	}
	users, err := s.withRoles(ctx, []userRow{row})
	if err != nil {
		return domain.User{}, err
	}
	return users[0], nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.oneUser(ctx, "u.email = ?", email)
}

func (s *Store) UserByID(ctx context.Context, id int64) (domain.User, error) {
	return s.oneUser(ctx, "u.id = ?", id)
}

func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	return s.db.NewSelect().Model((*userRow)(nil)).Where("u.email = ?", email).Exists(ctx)
}

func (s *Store) listUsers(ctx context.Context, order []string, limit int) ([]domain.User, error) {
	var rows []userRow
	q := s.db.NewSelect().Model(&rows)
	for _, o := range order {
		q = q.OrderExpr(o)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return s.withRoles(ctx, rows)
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.listUsers(ctx, []string{"u.id ASC"}, 0)
}

func (s *Store) RecentUsers(ctx context.Context, n int) ([]domain.User, error) {
	return s.listUsers(ctx, []string{"u.created_at DESC", "u.id DESC"}, n)
}

func (s *Store) TopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	return s.listUsers(ctx, []string{"u.score DESC", "u.quizzes_passed DESC", "u.created_at ASC", "u.id ASC"}, limit)
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*userRow)(nil)).Count(ctx)
}

// DeleteUser removes results, role links and the user in one transaction.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*resultRow)(nil)).Where("user_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete user results: %w", err)
		}
		if _, err := tx.NewDelete().Model((*userRoleRow)(nil)).Where("user_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete user roles: %w", err)
		}
		res, err := tx.NewDelete().Model((*userRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrUserNotFound
		}
		return nil
	})
}

// quizzes

func toQuizRow(q domain.Quiz) quizRow {
	return quizRow{
		ID:           q.ID,
		Title:        q.Title,
		Description:  q.Description,
		Category:     q.Category,
		CategorySlug: slug.Make(q.Category),
		Difficulty:   q.Difficulty,
		TimeLimit:    q.TimeLimit,
		PassingScore: q.PassingScore,
		CreatedAt:    q.CreatedAt,
	}
}

func insertQuestions(ctx context.Context, tx bun.Tx, q *domain.Quiz) error {
	if len(q.Questions) == 0 {
		return nil
	}
	rows := make([]questionRow, len(q.Questions))
	for i, question := range q.Questions {
		idx := -1
		if question.CorrectOptionIndex != nil {
			idx = *question.CorrectOptionIndex
		}
		rows[i] = questionRow{
			QuizID:             q.ID,
			Position:           i,
			Text:               question.Text,
			Options:            question.Options,
			CorrectOptionIndex: idx,
			Explanation:        question.Explanation,
		}
	}
	if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	for i := range rows {
		q.Questions[i].ID = rows[i].ID
		q.Questions[i].QuizID = q.ID
		q.Questions[i].Position = i
	}
	return nil
}

func (s *Store) CreateQuiz(ctx context.Context, q *domain.Quiz) error {
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.clock()
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := toQuizRow(*q)
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("insert quiz: %w", err)
		}
		q.ID = row.ID
		return insertQuestions(ctx, tx, q)
	})
}

func (s *Store) UpdateQuiz(ctx context.Context, q *domain.Quiz) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existing quizRow
		if err := tx.NewSelect().Model(&existing).Where("q.id = ?", q.ID).Scan(ctx); err != nil {
			return notFound(err, domain.ErrQuizNotFound)
		}
		q.CreatedAt = existing.CreatedAt
		row := toQuizRow(*q)
		_, err := tx.NewUpdate().Model(&row).
			Column("title", "description", "category", "category_slug", "difficulty", "time_limit", "passing_score").
			WherePK().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("update quiz: %w", err)
		}
		if _, err := tx.NewDelete().Model((*questionRow)(nil)).Where("quiz_id = ?", q.ID).Exec(ctx); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		return insertQuestions(ctx, tx, q)
	})
}

// withQuestions loads questions for rows with one explicit query keyed by quiz id.
func (s *Store) withQuestions(ctx context.Context, rows []quizRow) ([]domain.Quiz, error) {
	if len(rows) == 0 {
		return []domain.Quiz{}, nil
	}
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	var questions []questionRow
	err := s.db.NewSelect().Model(&questions).
		Where("qn.quiz_id IN (?)", bun.In(ids)).
		OrderExpr("qn.quiz_id ASC, qn.position ASC, qn.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	byQuiz := make(map[int64][]questionRow, len(rows))
	for _, q := range questions {
		byQuiz[q.QuizID] = append(byQuiz[q.QuizID], q)
	}
	out := make([]domain.Quiz, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain(byQuiz[r.ID])
	}
	return out, nil
}

func (s *Store) QuizByID(ctx context.Context, id int64) (domain.Quiz, error) {
	var row quizRow
	if err := s.db.NewSelect().Model(&row).Where("q.id = ?", id).Scan(ctx); err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound)
	}
	quizzes, err := s.withQuestions(ctx, []quizRow{row})
	if err != nil {
		return domain.Quiz{}, err
	}
	return quizzes[0], nil
}

func (s *Store) selectQuizzes(ctx context.Context, build func(*bun.SelectQuery) *bun.SelectQuery) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := build(s.db.NewSelect().Model(&rows)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return s.withQuestions(ctx, rows)
}

func (s *Store) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.selectQuizzes(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("q.id ASC")
	})
}

func (s *Store) QuizzesByCategory(ctx context.Context, category string) ([]domain.Quiz, error) {
	return s.selectQuizzes(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("q.category = ? OR q.category_slug = ?", category, slug.Make(category)).OrderExpr("q.id ASC")
	})
}

func (s *Store) RecentQuizzes(ctx context.Context, n int) ([]domain.Quiz, error) {
	return s.selectQuizzes(ctx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("q.created_at DESC, q.id DESC").Limit(n)
	})
}

// DeleteQuiz removes results, then questions, then the quiz.
func (s *Store) DeleteQuiz(ctx context.Context, id int64) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().Model((*resultRow)(nil)).Where("quiz_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete quiz results: %w", err)
		}
		if _, err := tx.NewDelete().Model((*questionRow)(nil)).Where("quiz_id = ?", id).Exec(ctx); err != nil {
			return fmt.Errorf("delete questions: %w", err)
		}
		res, err := tx.NewDelete().Model((*quizRow)(nil)).Where("id = ?", id).Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete quiz: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrQuizNotFound
		}
		return nil
	})
}

func (s *Store) CountQuizzes(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*quizRow)(nil)).Count(ctx)
}

func (s *Store) CountQuestions(ctx context.Context) (int, error) {
	return s.db.NewSelect().Model((*questionRow)(nil)).Count(ctx)
}

// LoadAnswerKey reads only the scoring columns of a quiz.
func (s *Store) LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	var quiz quizRow
	if err := s.db.NewSelect().Model(&quiz).Column("id", "passing_score").Where("q.id = ?", quizID).Scan(ctx); err != nil {
		return domain.AnswerKey{}, notFound(err, domain.ErrQuizNotFound)
	}
	var questions []questionRow
	err := s.db.NewSelect().Model(&questions).Column("id", "correct_option_index").Where("qn.quiz_id = ?", quizID).Scan(ctx)
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	key := domain.AnswerKey{QuizID: quiz.ID, PassingScore: quiz.PassingScore, Correct: make(map[int64]int, len(questions))}
	for _, q := range questions {
		key.Correct[q.ID] = q.CorrectOptionIndex
	}
	return key, nil
}

// results

// RecordAttempt inserts the result and increments the user's stats in place,
// so concurrent attempts by the same user never lose an update.
func (s *Store) RecordAttempt(ctx context.Context, r *domain.QuizResult, delta domain.StatsDelta) error {
	if r.CompletedAt.IsZero() {
		r.CompletedAt = s.clock()
	}
	passed := 0
	if delta.Passed {
		passed = 1
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET score = score + ?, total_quizzes_taken = total_quizzes_taken + 1, quizzes_passed = quizzes_passed + ? WHERE id = ?`,
			delta.Points, passed, r.UserID)
		if err != nil {
			return fmt.Errorf("update user stats: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrUserNotFound
		}
		exists, err := tx.NewSelect().Model((*quizRow)(nil)).Where("q.id = ?", r.QuizID).Exists(ctx)
		if err != nil {
			return fmt.Errorf("check quiz: %w", err)
		}
		if !exists {
			return domain.ErrQuizNotFound
		}
		row := resultRow{
			UserID:         r.UserID,
			QuizID:         r.QuizID,
			Score:          r.Score,
			TotalQuestions: r.TotalQuestions,
			CorrectAnswers: r.CorrectAnswers,
			TimeTaken:      r.TimeTaken,
			Passed:         r.Passed,
			CompletedAt:    r.CompletedAt,
		}
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			// the quiz was deleted after the check above
			if isForeignKeyViolation(err) {
				return domain.ErrQuizNotFound
			}
			return fmt.Errorf("insert result: %w", err)
		}
		r.ID = row.ID
		return nil
	})
}

func (s *Store) selectResults(ctx context.Context, where string, args ...interface{}) ([]domain.QuizResult, error) {
	var rows []resultRow
	q := s.db.NewSelect().Model(&rows).OrderExpr("qr.completed_at DESC, qr.id DESC")
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	out := make([]domain.QuizResult, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) ResultsByUser(ctx context.Context, userID int64) ([]domain.QuizResult, error) {
	return s.selectResults(ctx, "qr.user_id = ?", userID)
}

func (s *Store) ResultsByQuiz(ctx context.Context, quizID int64) ([]domain.QuizResult, error) {
	return s.selectResults(ctx, "qr.quiz_id = ?", quizID)
}

func (s *Store) ListResults(ctx context.Context) ([]domain.QuizResult, error) {
	return s.selectResults(ctx, "")
}
