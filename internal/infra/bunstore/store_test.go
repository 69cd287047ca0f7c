package bunstore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-web-service/internal/domain"
	"quiz-web-service/internal/infra/bunstore"
	"quiz-web-service/internal/infra/bunstore/migrations"
)

var dbSeq atomic.Int64

func newStore(t *testing.T) *bunstore.Store {
	t.Helper()
	ctx := context.Background()
	dsn := fmt.Sprintf("file:bunstore_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := bunstore.Open(ctx, bunstore.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := migrations.Apply(ctx, db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return bunstore.NewStore(db)
}

func newUser(email string, roles ...domain.Role) *domain.User {
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleStudent}
	}
	return &domain.User{FirstName: "Ann", LastName: "Lee", Email: email, PasswordHash: "x", AvatarColor: "#4F46E5", Roles: roles}
}

func newQuiz(title, category string, questions int) *domain.Quiz {
	q := &domain.Quiz{
		Title:        title,
		Category:     category,
		Difficulty:   "Beginner",
		TimeLimit:    10,
		PassingScore: 70,
		CreatedAt:    time.Date(2024, 11, 22, 9, 30, 0, 0, time.UTC),
	}
	for i := 0; i < questions; i++ {
		q.Questions = append(q.Questions, domain.Question{
			Text:               fmt.Sprintf("question %d", i),
			Options:            []string{"a", "b", "c"},
			CorrectOptionIndex: domain.IntPtr(i % 3),
			Explanation:        "because",
		})
	}
	return q
}

func TestUserRoundTripWithRoles(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	u := newUser("admin@quiz.com", domain.RoleAdmin, domain.RoleStudent)
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("expected id to be assigned")
	}

	got, err := store.UserByEmail(ctx, "admin@quiz.com")
	if err != nil {
		t.Fatalf("by email: %v", err)
	}
	if got.ID != u.ID || !got.Roles.IsAdmin() || !got.Roles.Has(domain.RoleStudent) || got.AvatarColor != "#4F46E5" {
		t.Fatalf("unexpected user %+v", got)
	}

	if err := store.CreateUser(ctx, newUser("admin@quiz.com")); !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if ok, _ := store.EmailExists(ctx, "admin@quiz.com"); !ok {
		t.Fatalf("expected email to exist")
	}
	if _, err := store.UserByID(ctx, 999); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestQuizLifecycle(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	q := newQuiz("JavaScript Fundamentals", "Web Development", 3)
	if err := store.CreateQuiz(ctx, q); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.QuizByID(ctx, q.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Questions) != 3 || got.Questions[2].Options[2] != "c" || *got.Questions[1].CorrectOptionIndex != 1 {
		t.Fatalf("unexpected quiz %+v", got)
	}

	bySlug, _ := store.QuizzesByCategory(ctx, "web-development")
	byName, _ := store.QuizzesByCategory(ctx, "Web Development")
	if len(bySlug) != 1 || len(byName) != 1 {
		t.Fatalf("category lookup failed: slug=%d name=%d", len(bySlug), len(byName))
	}

	key, err := store.LoadAnswerKey(ctx, q.ID)
	if err != nil {
		t.Fatalf("answer key: %v", err)
	}
	if key.PassingScore != 70 || key.TotalQuestions() != 3 || key.Correct[got.Questions[2].ID] != 2 {
		t.Fatalf("unexpected key %+v", key)
	}

	update := newQuiz("JS Basics", "Programming", 1)
	update.ID = q.ID
	if err := store.UpdateQuiz(ctx, update); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = store.QuizByID(ctx, q.ID)
	if got.Title != "JS Basics" || len(got.Questions) != 1 || !got.CreatedAt.Equal(q.CreatedAt) {
		t.Fatalf("update not applied %+v", got)
	}
	if n, _ := store.CountQuestions(ctx); n != 1 {
		t.Fatalf("expected replaced questions, got %d", n)
	}

	missing := newQuiz("x", "y", 1)
	missing.ID = 4242
	if err := store.UpdateQuiz(ctx, missing); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := store.LoadAnswerKey(ctx, 4242); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestDeleteQuizCascadesResults(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	u := newUser("a@x.com")
	_ = store.CreateUser(ctx, u)
	q := newQuiz("Go", "Programming", 2)
	_ = store.CreateQuiz(ctx, q)
	if err := store.RecordAttempt(ctx, &domain.QuizResult{UserID: u.ID, QuizID: q.ID, Score: 100, TotalQuestions: 2, CorrectAnswers: 2, Passed: true}, domain.StatsDelta{Points: 20, Passed: true}); err != nil {
		t.Fatalf("record: %v", err)
	}

	if err := store.DeleteQuiz(ctx, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteQuiz(ctx, q.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if results, _ := store.ListResults(ctx); len(results) != 0 {
		t.Fatalf("results not removed")
	}
	if n, _ := store.CountQuestions(ctx); n != 0 {
		t.Fatalf("questions not removed")
	}
	got, _ := store.UserByID(ctx, u.ID)
	if got.Score != 20 {
		t.Fatalf("user stats must survive quiz deletion, got %d", got.Score)
	}
}

func TestDeleteUserRemovesResultsAndRoles(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	u := newUser("a@x.com")
	other := newUser("b@x.com")
	_ = store.CreateUser(ctx, u)
	_ = store.CreateUser(ctx, other)
	q := newQuiz("Go", "Programming", 1)
	_ = store.CreateQuiz(ctx, q)
	_ = store.RecordAttempt(ctx, &domain.QuizResult{UserID: u.ID, QuizID: q.ID, TotalQuestions: 1}, domain.StatsDelta{})
	_ = store.RecordAttempt(ctx, &domain.QuizResult{UserID: other.ID, QuizID: q.ID, TotalQuestions: 1}, domain.StatsDelta{})

	if err := store.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := store.DeleteUser(ctx, u.ID); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	results, _ := store.ListResults(ctx)
	if len(results) != 1 || results[0].UserID != other.ID {
		t.Fatalf("unexpected results %+v", results)
	}
	if n, _ := store.CountUsers(ctx); n != 1 {
		t.Fatalf("expected 1 user, got %d", n)
	}
	if err := store.CreateUser(ctx, newUser("a@x.com")); err != nil {
		t.Fatalf("email must be free again: %v", err)
	}
}

func TestRecordAttemptConcurrentSameUser(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	u := newUser("a@x.com")
	_ = store.CreateUser(ctx, u)
	q := newQuiz("Go", "Programming", 2)
	_ = store.CreateQuiz(ctx, q)

	const attempts = 20
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(passed bool) {
			defer wg.Done()
			r := &domain.QuizResult{UserID: u.ID, QuizID: q.ID, Score: 100, TotalQuestions: 2, CorrectAnswers: 2, Passed: passed}
			if err := store.RecordAttempt(ctx, r, domain.StatsDelta{Points: 20, Passed: passed}); err != nil {
				t.Errorf("record: %v", err)
			}
		}(i%2 == 0)
	}
	wg.Wait()

	got, _ := store.UserByID(ctx, u.ID)
	if got.TotalQuizzesTaken != attempts || got.Score != attempts*20 || got.QuizzesPassed != attempts/2 {
		t.Fatalf("lost update: %+v", got)
	}
	if results, _ := store.ResultsByUser(ctx, u.ID); len(results) != attempts {
		t.Fatalf("expected %d results, got %d", attempts, len(results))
	}
}

func TestRecordAttemptUnknownUserStoresNothing(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	q := newQuiz("Go", "Programming", 1)
	_ = store.CreateQuiz(ctx, q)
	err := store.RecordAttempt(ctx, &domain.QuizResult{UserID: 42, QuizID: q.ID}, domain.StatsDelta{Points: 10})
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if results, _ := store.ResultsByQuiz(ctx, q.ID); len(results) != 0 {
		t.Fatalf("result must not be stored on failure")
	}
}

func TestRecordAttemptDeletedQuiz(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	u := newUser("a@x.com")
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	q := newQuiz("Go", "Programming", 1)
	_ = store.CreateQuiz(ctx, q)
	if err := store.DeleteQuiz(ctx, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err := store.RecordAttempt(ctx, &domain.QuizResult{UserID: u.ID, QuizID: q.ID, TotalQuestions: 1, CorrectAnswers: 1, Passed: true}, domain.StatsDelta{Points: 10, Passed: true})
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	got, _ := store.UserByID(ctx, u.ID)
	if got.Score != 0 || got.TotalQuizzesTaken != 0 || got.QuizzesPassed != 0 {
		t.Fatalf("user stats must roll back, got %+v", got)
	}
	if results, _ := store.ListResults(ctx); len(results) != 0 {
		t.Fatalf("result must not be stored on failure")
	}
}

func TestOrderingHelpers(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		u := newUser(email)
		u.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		u.Score = []int{50, 80, 50}[i]
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	recent, _ := store.RecentUsers(ctx, 2)
	if len(recent) != 2 || recent[0].Email != "c@x.com" || recent[1].Email != "b@x.com" {
		t.Fatalf("unexpected recent users %+v", recent)
	}
	top, _ := store.TopUsers(ctx, 3)
	if len(top) != 3 || top[0].Email != "b@x.com" || top[1].Email != "a@x.com" || top[2].Email != "c@x.com" {
		t.Fatalf("unexpected top users %+v", top)
	}
	if all, _ := store.ListUsers(ctx); len(all) != 3 || all[0].Email != "a@x.com" {
		t.Fatalf("unexpected user list %+v", all)
	}
}
