package bunstore

import (
	"time"

	"github.com/uptrace/bun"

	"quiz-web-service/internal/domain"
)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                int64     `bun:"id,pk,autoincrement"`
	FirstName         string    `bun:"first_name,notnull"`
	LastName          string    `bun:"last_name,notnull"`
	Email             string    `bun:"email,notnull,unique"`
	PasswordHash      string    `bun:"password_hash,notnull"`
	Score             int       `bun:"score,notnull,default:0"`
	TotalQuizzesTaken int       `bun:"total_quizzes_taken,notnull,default:0"`
	QuizzesPassed     int       `bun:"quizzes_passed,notnull,default:0"`
	AvatarColor       string    `bun:"avatar_color,notnull"`
	CreatedAt         time.Time `bun:"created_at,notnull"`
}

type roleRow struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

type userRoleRow struct {
	bun.BaseModel `bun:"table:user_roles,alias:ur"`

	UserID int64 `bun:"user_id,pk"`
	RoleID int64 `bun:"role_id,pk"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Title        string    `bun:"title,notnull"`
	Description  string    `bun:"description,notnull"`
	Category     string    `bun:"category,notnull"`
	CategorySlug string    `bun:"category_slug,notnull"`
	Difficulty   string    `bun:"difficulty,notnull"`
	TimeLimit    int       `bun:"time_limit,notnull"`
	PassingScore int       `bun:"passing_score,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID                 int64    `bun:"id,pk,autoincrement"`
	QuizID             int64    `bun:"quiz_id,notnull"`
	Position           int      `bun:"position,notnull"`
	Text               string   `bun:"text,notnull"`
	Options            []string `bun:"options,notnull"`
	CorrectOptionIndex int      `bun:"correct_option_index,notnull"`
	Explanation        string   `bun:"explanation,notnull"`
}

type resultRow struct {
	bun.BaseModel `bun:"table:quiz_results,alias:qr"`

	ID             int64     `bun:"id,pk,autoincrement"`
	UserID         int64     `bun:"user_id,notnull"`
	QuizID         int64     `bun:"quiz_id,notnull"`
	Score          int       `bun:"score,notnull"`
	TotalQuestions int       `bun:"total_questions,notnull"`
	CorrectAnswers int       `bun:"correct_answers,notnull"`
	TimeTaken      int64     `bun:"time_taken,notnull"`
	Passed         bool      `bun:"passed,notnull"`
	CompletedAt    time.Time `bun:"completed_at,notnull"`
}

// roleLink is one row of the user_roles/roles join.
type roleLink struct {
	UserID int64  `bun:"user_id"`
	Name   string `bun:"name"`
}

func toUserRow(u domain.User) userRow {
	return userRow{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Score:             u.Score,
		TotalQuizzesTaken: u.TotalQuizzesTaken,
		QuizzesPassed:     u.QuizzesPassed,
		AvatarColor:       u.AvatarColor,
		CreatedAt:         u.CreatedAt,
	}
}

func (r userRow) toDomain(roles domain.RoleSet) domain.User {
	return domain.User{
		ID:                r.ID,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		Roles:             roles,
		Score:             r.Score,
		TotalQuizzesTaken: r.TotalQuizzesTaken,
		QuizzesPassed:     r.QuizzesPassed,
		AvatarColor:       r.AvatarColor,
		CreatedAt:         r.CreatedAt,
	}
}

func (r quizRow) toDomain(questions []questionRow) domain.Quiz {
	q := domain.Quiz{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Category:     r.Category,
		Difficulty:   r.Difficulty,
		TimeLimit:    r.TimeLimit,
		PassingScore: r.PassingScore,
		CreatedAt:    r.CreatedAt,
		Questions:    make([]domain.Question, 0, len(questions)),
	}
	for _, qr := range questions {
		q.Questions = append(q.Questions, domain.Question{
			ID:                 qr.ID,
			QuizID:             qr.QuizID,
			Position:           qr.Position,
			Text:               qr.Text,
			Options:            qr.Options,
			CorrectOptionIndex: domain.IntPtr(qr.CorrectOptionIndex),
			Explanation:        qr.Explanation,
		})
	}
	return q
}

func (r resultRow) toDomain() domain.QuizResult {
	return domain.QuizResult{
		ID:             r.ID,
		UserID:         r.UserID,
		QuizID:         r.QuizID,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		CorrectAnswers: r.CorrectAnswers,
		TimeTaken:      r.TimeTaken,
		Passed:         r.Passed,
		CompletedAt:    r.CompletedAt,
	}
}
