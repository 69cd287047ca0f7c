package app

import (
	"context"
	"log"
	"sort"
	"time"

	"quiz-web-service/internal/auth"
	"quiz-web-service/internal/domain"
)

// QuizService contains the student-facing quiz use cases.
type QuizService struct {
	quizzes  QuizRepository
	users    UserRepository
	results  ResultRepository
	keys     AnswerKeyRepository
	notifier ChangeNotifier
	now      func() time.Time
}

func NewQuizService(quizzes QuizRepository, users UserRepository, results ResultRepository, keys AnswerKeyRepository, notifier ChangeNotifier) *QuizService {
	return &QuizService{
		quizzes:  quizzes,
		users:    users,
		results:  results,
		keys:     keys,
		notifier: notifier,
		now:      time.Now,
	}
}

// NewQuizServiceWithClock is test-only for deterministic timestamps.
func NewQuizServiceWithClock(quizzes QuizRepository, users UserRepository, results ResultRepository, keys AnswerKeyRepository, notifier ChangeNotifier, now func() time.Time) *QuizService {
	s := NewQuizService(quizzes, users, results, keys, notifier)
	s.now = now
	return s
}

func (s *QuizService) List(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.ListQuizzes(ctx)
}

func (s *QuizService) Get(ctx context.Context, id int64) (domain.Quiz, error) {
	return s.quizzes.QuizByID(ctx, id)
}

func (s *QuizService) ByCategory(ctx context.Context, category string) ([]domain.Quiz, error) {
	return s.quizzes.QuizzesByCategory(ctx, category)
}

// Submit scores an attempt by the caller and records it together with the
// caller's updated stats.
func (s *QuizService) Submit(ctx context.Context, p auth.Principal, in SubmissionInput) (domain.QuizResult, error) {
	if err := Validate(in); err != nil {
		return domain.QuizResult{}, err
	}
	sub := in.toDomain(p.UserID)

	key, err := s.keys.AnswerKey(ctx, sub.QuizID)
	if err != nil {
		return domain.QuizResult{}, err
	}
	outcome, err := Score(key, sub.Answers)
	if err != nil {
		return domain.QuizResult{}, err
	}
	if _, err := s.users.UserByID(ctx, sub.UserID); err != nil {
		return domain.QuizResult{}, err
	}

	result := domain.QuizResult{
		UserID:         sub.UserID,
		QuizID:         sub.QuizID,
		Score:          outcome.Score,
		TotalQuestions: outcome.Total,
		CorrectAnswers: outcome.Correct,
		TimeTaken:      sub.TimeTaken,
		Passed:         outcome.Passed,
		CompletedAt:    s.now(),
	}
	if err := s.results.RecordAttempt(ctx, &result, outcome.Delta()); err != nil {
		return domain.QuizResult{}, err
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx); err != nil {
			log.Printf("leaderboard notify failed: %v", err)
		}
	}
	return result, nil
}

// MyResults lists the caller's attempts, most recent first.
func (s *QuizService) MyResults(ctx context.Context, p auth.Principal) ([]domain.QuizResult, error) {
	results, err := s.results.ResultsByUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	sortRecentFirst(results)
	return results, nil
}

func sortRecentFirst(results []domain.QuizResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if !results[i].CompletedAt.Equal(results[j].CompletedAt) {
			return results[i].CompletedAt.After(results[j].CompletedAt)
		}
		return results[i].ID > results[j].ID
	})
}
