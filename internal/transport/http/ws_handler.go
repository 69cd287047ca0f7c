package http

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-web-service/internal/access"
	"quiz-web-service/internal/app"
	"quiz-web-service/internal/auth"
)

// LeaderboardFeed streams leaderboard snapshots to websocket clients.
type LeaderboardFeed struct {
	hub      *app.LeaderboardHub
	upgrader websocket.Upgrader
}

func NewLeaderboardFeed(hub *app.LeaderboardHub) *LeaderboardFeed {
	return &LeaderboardFeed{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// Serve sends the current standings, then one message per change, until the client goes away.
func (h *LeaderboardFeed) Serve(w http.ResponseWriter, r *http.Request) {
	if err := access.Authorize(access.OpLeaderboard, auth.PrincipalFromContext(r.Context())); err != nil {
		respondError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancel := h.hub.Subscribe()
	defer cancel()

	// the reader only drains control frames and notices when the client leaves
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case lb, ok := <-updates:
			if !ok {
				return
			}
			if err := conn.WriteJSON(outboundMessage[any]{Type: "leaderboard", Payload: lb}); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		case <-readerDone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
