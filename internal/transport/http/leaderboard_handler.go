package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"quiz-web-service/internal/access"
	"quiz-web-service/internal/app"
	"quiz-web-service/internal/domain"
)

type LeaderboardHandler struct {
	hub *app.LeaderboardHub
}

func NewLeaderboardHandler(hub *app.LeaderboardHub) *LeaderboardHandler {
	return &LeaderboardHandler{hub: hub}
}

func (h *LeaderboardHandler) RegisterRoutes(r chi.Router) {
	r.With(Require(access.OpLeaderboard)).Get("/", h.leaderboard)
}

func (h *LeaderboardHandler) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(w, domain.NewValidationError("Invalid limit"))
			return
		}
		limit = n
	}
	lb, err := h.hub.Snapshot(r.Context(), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	respondOK(w, lb, "")
}
