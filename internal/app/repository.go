package app

import (
	"context"

	"quiz-web-service/internal/domain"
)

// UserRepository persists accounts and their role memberships.
type UserRepository interface {
	// CreateUser assigns ID and CreatedAt. Duplicate emails fail with domain.ErrEmailTaken.
	CreateUser(ctx context.Context, u *domain.User) error
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	UserByID(ctx context.Context, id int64) (domain.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	// DeleteUser removes the user with their results and role memberships.
	DeleteUser(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int, error)
	RecentUsers(ctx context.Context, n int) ([]domain.User, error)
	// TopUsers orders by score desc, quizzes passed desc, then earliest registration.
	TopUsers(ctx context.Context, limit int) ([]domain.User, error)
}

// QuizRepository persists quizzes together with their ordered questions.
type QuizRepository interface {
	CreateQuiz(ctx context.Context, q *domain.Quiz) error
	// UpdateQuiz overwrites quiz fields and replaces the question list.
	UpdateQuiz(ctx context.Context, q *domain.Quiz) error
	QuizByID(ctx context.Context, id int64) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	// QuizzesByCategory matches the category name exactly or by slug.
	QuizzesByCategory(ctx context.Context, category string) ([]domain.Quiz, error)
	RecentQuizzes(ctx context.Context, n int) ([]domain.Quiz, error)
	// DeleteQuiz removes results, then questions, then the quiz.
	DeleteQuiz(ctx context.Context, id int64) error
	CountQuizzes(ctx context.Context) (int, error)
	CountQuestions(ctx context.Context) (int, error)
}

// ResultRepository persists immutable attempt records.
type ResultRepository interface {
	// RecordAttempt inserts r and applies delta to the user in one unit of work.
	RecordAttempt(ctx context.Context, r *domain.QuizResult, delta domain.StatsDelta) error
	ResultsByUser(ctx context.Context, userID int64) ([]domain.QuizResult, error)
	ResultsByQuiz(ctx context.Context, quizID int64) ([]domain.QuizResult, error)
	ListResults(ctx context.Context) ([]domain.QuizResult, error)
}

// AnswerKeyLoader reads the scoring view of a quiz from a backing store.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error)
}

// AnswerKeyRepository serves answer keys, usually through a cache.
type AnswerKeyRepository interface {
	AnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error)
	Invalidate(ctx context.Context, quizID int64) error
}

// ChangeNotifier signals that user standings changed.
type ChangeNotifier interface {
	Notify(ctx context.Context) error
	// Listen calls fn for every notification until ctx is done.
	Listen(ctx context.Context, fn func()) error
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserRepository
	QuizRepository
	ResultRepository
}
