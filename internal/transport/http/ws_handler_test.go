package http

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"quiz-web-service/internal/domain"
)

type leaderboardMessage struct {
	Type    string             `json:"type"`
	Payload domain.Leaderboard `json:"payload"`
}

func readLeaderboard(t *testing.T, conn *websocket.Conn) leaderboardMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg leaderboardMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestLeaderboardFeed(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.hub.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	go func() { _ = srv.hub.Run(ctx, srv.notifier) }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.notifier.Listeners() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("hub never started listening")
		}
		time.Sleep(5 * time.Millisecond)
	}

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/leaderboard"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readLeaderboard(t, conn)
	if first.Type != "leaderboard" || len(first.Payload.Entries) != 2 || first.Payload.Entries[0].Score != 500 {
		t.Fatalf("unexpected snapshot %+v", first)
	}

	student := srv.login(t, "test@quiz.com", "password123")
	admin := srv.login(t, "admin@quiz.com", "admin123")
	_, resp := srv.do(t, http.MethodGet, "/api/admin/quizzes", admin.Token, nil)
	quiz := decodeData[[]quizView](t, resp)[0]
	answers := make([]map[string]any, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answers = append(answers, map[string]any{"questionId": q.ID, "selectedOption": *q.CorrectOptionIndex})
	}
	if status, resp := srv.do(t, http.MethodPost, "/api/quiz/submit", student.Token, map[string]any{"quizId": quiz.ID, "answers": answers}); status != http.StatusOK {
		t.Fatalf("submit: %d %+v", status, resp)
	}

	want := 100 + len(quiz.Questions)*10
	for {
		msg := readLeaderboard(t, conn)
		for _, e := range msg.Payload.Entries {
			if e.Name == "Test User" && e.Score == want {
				return
			}
		}
	}
}
