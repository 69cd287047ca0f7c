package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gosimple/slug"

	"quiz-web-service/internal/domain"
)

// Store is an in-process implementation of app.Store. A single lock
// serialises writers, so stat increments on the same user never interleave.
type Store struct {
	mu      sync.RWMutex
	clock   func() time.Time
	nextID  int64
	users   map[int64]domain.User
	byEmail map[string]int64
	quizzes map[int64]domain.Quiz
	results map[int64]domain.QuizResult
}

func NewStore() *Store {
	return &Store{
		clock:   time.Now,
		users:   make(map[int64]domain.User),
		byEmail: make(map[string]int64),
		quizzes: make(map[int64]domain.Quiz),
		results: make(map[int64]domain.QuizResult),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) CreateUser(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[u.Email]; ok {
		return domain.ErrEmailTaken
	}
	u.ID = s.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.clock()
	}
	s.users[u.ID] = cloneUser(*u)
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *Store) UserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(s.users[id]), nil
}

func (s *Store) UserByID(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (s *Store) EmailExists(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *Store) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	for rid, r := range s.results {
		if r.UserID == id {
			delete(s.results, rid)
		}
	}
	delete(s.byEmail, u.Email)
	delete(s.users, id)
	return nil
}

func (s *Store) CountUsers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *Store) RecentUsers(ctx context.Context, n int) ([]domain.User, error) {
	users, _ := s.ListUsers(ctx)
	sort.SliceStable(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})
	return head(users, n), nil
}

func (s *Store) TopUsers(ctx context.Context, limit int) ([]domain.User, error) {
	users, _ := s.ListUsers(ctx)
	sort.SliceStable(users, func(i, j int) bool {
		a, b := users[i], users[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.QuizzesPassed != b.QuizzesPassed {
			return a.QuizzesPassed > b.QuizzesPassed
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return head(users, limit), nil
}

func (s *Store) CreateQuiz(_ context.Context, q *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q.ID = s.id()
	if q.CreatedAt.IsZero() {
		q.CreatedAt = s.clock()
	}
	s.assignQuestionsLocked(q)
	s.quizzes[q.ID] = cloneQuiz(*q)
	return nil
}

func (s *Store) UpdateQuiz(_ context.Context, q *domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.quizzes[q.ID]
	if !ok {
		return domain.ErrQuizNotFound
	}
	q.CreatedAt = existing.CreatedAt
	s.assignQuestionsLocked(q)
	s.quizzes[q.ID] = cloneQuiz(*q)
	return nil
}

func (s *Store) assignQuestionsLocked(q *domain.Quiz) {
	for i := range q.Questions {
		q.Questions[i].ID = s.id()
		q.Questions[i].QuizID = q.ID
		q.Questions[i].Position = i
	}
}

func (s *Store) QuizByID(_ context.Context, id int64) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(q), nil
}

func (s *Store) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	return s.filterQuizzes(func(domain.Quiz) bool { return true }), nil
}

func (s *Store) QuizzesByCategory(_ context.Context, category string) ([]domain.Quiz, error) {
	want := slug.Make(category)
	return s.filterQuizzes(func(q domain.Quiz) bool {
		return q.Category == category || slug.Make(q.Category) == want
	}), nil
}

func (s *Store) filterQuizzes(keep func(domain.Quiz) bool) []domain.Quiz {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, q := range s.quizzes {
		if keep(q) {
			out = append(out, cloneQuiz(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) RecentQuizzes(ctx context.Context, n int) ([]domain.Quiz, error) {
	quizzes, _ := s.ListQuizzes(ctx)
	sort.SliceStable(quizzes, func(i, j int) bool {
		if !quizzes[i].CreatedAt.Equal(quizzes[j].CreatedAt) {
			return quizzes[i].CreatedAt.After(quizzes[j].CreatedAt)
		}
		return quizzes[i].ID > quizzes[j].ID
	})
	return head(quizzes, n), nil
}

func (s *Store) DeleteQuiz(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		return domain.ErrQuizNotFound
	}
	for rid, r := range s.results {
		if r.QuizID == id {
			delete(s.results, rid)
		}
	}
	delete(s.quizzes, id)
	return nil
}

func (s *Store) CountQuizzes(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.quizzes), nil
}

func (s *Store) CountQuestions(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, q := range s.quizzes {
		n += len(q.Questions)
	}
	return n, nil
}

// RecordAttempt stores r and applies delta under the write lock.
func (s *Store) RecordAttempt(_ context.Context, r *domain.QuizResult, delta domain.StatsDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[r.UserID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if _, ok := s.quizzes[r.QuizID]; !ok {
		return domain.ErrQuizNotFound
	}
	r.ID = s.id()
	if r.CompletedAt.IsZero() {
		r.CompletedAt = s.clock()
	}
	u.Score += delta.Points
	u.TotalQuizzesTaken++
	if delta.Passed {
		u.QuizzesPassed++
	}
	s.users[u.ID] = u
	s.results[r.ID] = *r
	return nil
}

func (s *Store) ResultsByUser(_ context.Context, userID int64) ([]domain.QuizResult, error) {
	return s.filterResults(func(r domain.QuizResult) bool { return r.UserID == userID }), nil
}

func (s *Store) ResultsByQuiz(_ context.Context, quizID int64) ([]domain.QuizResult, error) {
	return s.filterResults(func(r domain.QuizResult) bool { return r.QuizID == quizID }), nil
}

func (s *Store) ListResults(_ context.Context) ([]domain.QuizResult, error) {
	return s.filterResults(func(domain.QuizResult) bool { return true }), nil
}

func (s *Store) filterResults(keep func(domain.QuizResult) bool) []domain.QuizResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.QuizResult, 0)
	for _, r := range s.results {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LoadAnswerKey lets the store back an answer-key cache.
func (s *Store) LoadAnswerKey(ctx context.Context, quizID int64) (domain.AnswerKey, error) {
	q, err := s.QuizByID(ctx, quizID)
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return domain.AnswerKeyOf(q), nil
}

func head[T any](items []T, n int) []T {
	if n >= 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func cloneUser(u domain.User) domain.User {
	u.Roles = append(domain.RoleSet(nil), u.Roles...)
	return u
}

func cloneQuiz(q domain.Quiz) domain.Quiz {
	questions := make([]domain.Question, len(q.Questions))
	for i, question := range q.Questions {
		question.Options = append([]string(nil), question.Options...)
		if question.CorrectOptionIndex != nil {
			question.CorrectOptionIndex = domain.IntPtr(*question.CorrectOptionIndex)
		}
		questions[i] = question
	}
	q.Questions = questions
	return q
}
