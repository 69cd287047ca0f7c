package app

import (
	"context"
	"log"

	"quiz-web-service/internal/domain"
)

const recentWindow = 5

// AdminService holds the administrator use cases.
type AdminService struct {
	store    Store
	keys     AnswerKeyRepository
	notifier ChangeNotifier
}

func NewAdminService(store Store, keys AnswerKeyRepository, notifier ChangeNotifier) *AdminService {
	return &AdminService{store: store, keys: keys, notifier: notifier}
}

func (s *AdminService) Users(ctx context.Context) ([]domain.User, error) {
	return s.store.ListUsers(ctx)
}

func (s *AdminService) Quizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.store.ListQuizzes(ctx)
}

func (s *AdminService) Quiz(ctx context.Context, id int64) (domain.Quiz, error) {
	return s.store.QuizByID(ctx, id)
}

func (s *AdminService) CreateQuiz(ctx context.Context, in QuizInput) (domain.Quiz, error) {
	if err := ValidateQuiz(in); err != nil {
		return domain.Quiz{}, err
	}
	q := in.toDomain()
	if err := s.store.CreateQuiz(ctx, &q); err != nil {
		return domain.Quiz{}, err
	}
	return q, nil
}

// UpdateQuiz overwrites the quiz and replaces its questions.
func (s *AdminService) UpdateQuiz(ctx context.Context, id int64, in QuizInput) (domain.Quiz, error) {
	if err := ValidateQuiz(in); err != nil {
		return domain.Quiz{}, err
	}
	existing, err := s.store.QuizByID(ctx, id)
	if err != nil {
		return domain.Quiz{}, err
	}
	q := in.toDomain()
	q.ID = existing.ID
	q.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateQuiz(ctx, &q); err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, id)
	return q, nil
}

// DeleteQuiz removes the quiz with its questions and results.
func (s *AdminService) DeleteQuiz(ctx context.Context, id int64) error {
	if err := s.store.DeleteQuiz(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *AdminService) Results(ctx context.Context) ([]domain.QuizResult, error) {
	results, err := s.store.ListResults(ctx)
	if err != nil {
		return nil, err
	}
	sortRecentFirst(results)
	return results, nil
}

// DeleteUser removes the user with their results and role memberships.
func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.notify(ctx)
	return nil
}

// Stats aggregates platform-wide counts.
func (s *AdminService) Stats(ctx context.Context) (domain.Stats, error) {
	var st domain.Stats
	var err error
	if st.TotalUsers, err = s.store.CountUsers(ctx); err != nil {
		return domain.Stats{}, err
	}
	if st.TotalQuizzes, err = s.store.CountQuizzes(ctx); err != nil {
		return domain.Stats{}, err
	}
	if st.TotalQuestions, err = s.store.CountQuestions(ctx); err != nil {
		return domain.Stats{}, err
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	sum := 0
	for _, u := range users {
		sum += u.Score
	}
	st.AverageUserScore = roundDiv(sum, len(users))

	recentQuizzes, err := s.store.RecentQuizzes(ctx, recentWindow)
	if err != nil {
		return domain.Stats{}, err
	}
	recentUsers, err := s.store.RecentUsers(ctx, recentWindow)
	if err != nil {
		return domain.Stats{}, err
	}
	st.RecentQuizzes = len(recentQuizzes)
	st.RecentUsers = len(recentUsers)
	return st, nil
}

func (s *AdminService) invalidate(ctx context.Context, quizID int64) {
	if s.keys == nil {
		return
	}
	if err := s.keys.Invalidate(ctx, quizID); err != nil {
		log.Printf("invalidate answer key %d: %v", quizID, err)
	}
}

func (s *AdminService) notify(ctx context.Context) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx); err != nil {
		log.Printf("leaderboard notify failed: %v", err)
	}
}

// roundDiv is round-half-up of a/b for non-negative a; zero when b is zero.
func roundDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (2*a + b) / (2 * b)
}
