package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"quiz-web-service/internal/app"
	"quiz-web-service/internal/domain"
)

func readNext(t *testing.T, ch <-chan domain.Leaderboard) domain.Leaderboard {
	t.Helper()
	select {
	case lb, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return lb
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for leaderboard")
	}
	return domain.Leaderboard{}
}

func TestLeaderboardSnapshot(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	a := env.registerAndLogin(t, "a@x.com", "pw1234567")
	env.registerAndLogin(t, "b@x.com", "pw1234567")
	quiz, _ := env.admin.CreateQuiz(ctx, threeQuestionQuiz())
	_, _ = env.quizzes.Submit(ctx, a, app.SubmissionInput{QuizID: quiz.ID, Answers: allCorrect(quiz)})
	_, _ = env.quizzes.Submit(ctx, a, app.SubmissionInput{QuizID: quiz.ID})

	hub := app.NewLeaderboardHub(env.store, 10)
	lb, err := hub.Snapshot(ctx, 0)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(lb.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lb.Entries))
	}
	top := lb.Entries[0]
	if top.Rank != 1 || top.UserID != a.UserID || top.Score != 30 || top.QuizzesTaken != 2 || top.QuizzesPassed != 1 || top.PassRate != 50 {
		t.Fatalf("unexpected top entry %+v", top)
	}
	if top.Name != "Ann Lee" || top.AvatarColor == "" {
		t.Fatalf("unexpected identity fields %+v", top)
	}
	if lb.Entries[1].Rank != 2 || lb.Entries[1].PassRate != 0 {
		t.Fatalf("unexpected second entry %+v", lb.Entries[1])
	}

	limited, _ := hub.Snapshot(ctx, 1)
	if len(limited.Entries) != 1 {
		t.Fatalf("limit not applied")
	}
}

func TestLeaderboardHubBroadcastsOnSubmit(t *testing.T) {
	env := newTestEnv()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := env.registerAndLogin(t, "a@x.com", "pw1234567")
	quiz, _ := env.admin.CreateQuiz(ctx, threeQuestionQuiz())

	hub := app.NewLeaderboardHub(env.store, 5)
	if err := hub.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	go func() { _ = hub.Run(ctx, env.notifier) }()

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	initial := readNext(t, ch)
	if len(initial.Entries) != 1 || initial.Entries[0].Score != 0 {
		t.Fatalf("unexpected initial snapshot %+v", initial)
	}

	deadline := time.Now().Add(2 * time.Second)
	for env.notifier.Listeners() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("hub never started listening")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := env.quizzes.Submit(ctx, p, app.SubmissionInput{QuizID: quiz.ID, Answers: allCorrect(quiz)}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	for {
		lb := readNext(t, ch)
		if len(lb.Entries) == 1 && lb.Entries[0].Score == 30 {
			return
		}
	}
}

func TestLeaderboardSubscribeBeforeFirstRefresh(t *testing.T) {
	env := newTestEnv()
	env.registerAndLogin(t, "a@x.com", "pw1234567")
	hub := app.NewLeaderboardHub(env.store, 5)

	ch, cancel := hub.Subscribe()
	defer cancel()
	select {
	case lb := <-ch:
		t.Fatalf("expected no snapshot before refresh, got %+v", lb)
	default:
	}

	if err := hub.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	lb := readNext(t, ch)
	if lb.UpdatedAt.IsZero() || len(lb.Entries) != 1 {
		t.Fatalf("unexpected first snapshot %+v", lb)
	}
}

func TestLeaderboardSubscribeCancelClosesChannel(t *testing.T) {
	env := newTestEnv()
	hub := app.NewLeaderboardHub(env.store, 5)
	if err := hub.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	ch, cancel := hub.Subscribe()
	readNext(t, ch)
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	if err := hub.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh after cancel: %v", err)
	}
}

type failingStandings struct {
	app.UserRepository
}

func (failingStandings) TopUsers(context.Context, int) ([]domain.User, error) {
	return nil, errors.New("store unavailable")
}

func TestLeaderboardHubKeepsListeningAfterRefreshError(t *testing.T) {
	env := newTestEnv()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := app.NewLeaderboardHub(failingStandings{UserRepository: env.store}, 5)
	if err := hub.Refresh(ctx); err == nil {
		t.Fatalf("expected refresh error")
	}

	stopped := make(chan error, 1)
	go func() { stopped <- hub.Run(ctx, env.notifier) }()

	deadline := time.Now().Add(2 * time.Second)
	for env.notifier.Listeners() == 0 {
		select {
		case err := <-stopped:
			t.Fatalf("hub stopped after refresh error: %v", err)
		default:
		}
		if time.Now().After(deadline) {
			t.Fatalf("hub never started listening")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := env.notifier.Notify(ctx); err != nil {
		t.Fatalf("notify: %v", err)
	}

	cancel()
	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("hub did not stop on cancel")
	}
}
