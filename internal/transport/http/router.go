// Package http exposes the quiz use cases as a JSON API and a leaderboard websocket feed.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quiz-web-service/internal/app"
	"quiz-web-service/internal/auth"
)

// Services bundles everything the router dispatches to.
type Services struct {
	Tokens      *auth.TokenService
	Auth        *app.AuthService
	Quizzes     *app.QuizService
	Admin       *app.AdminService
	Leaderboard *app.LeaderboardHub
}

type RouterOptions struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
}

func NewRouter(svc Services, opts RouterOptions) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"http://localhost:3000"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           3600,
	}))
	r.Use(Authenticate(svc.Tokens))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	// websocket connections outlive the request timeout
	r.Get("/ws/leaderboard", NewLeaderboardFeed(svc.Leaderboard).Serve)

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.Timeout(opts.RequestTimeout))
		api.Route("/auth", NewAuthHandler(svc.Auth).RegisterRoutes)
		api.Route("/quiz", NewQuizHandler(svc.Quizzes).RegisterRoutes)
		api.Route("/admin", NewAdminHandler(svc.Admin).RegisterRoutes)
		api.Route("/leaderboard", NewLeaderboardHandler(svc.Leaderboard).RegisterRoutes)
	})

	return r
}
