package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"quiz-web-service/internal/app"
	"quiz-web-service/internal/auth"
	"quiz-web-service/internal/config"
	transport "quiz-web-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Serve the quiz HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d, err := buildDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.Close()

	if cfg.Seed {
		if err := app.NewSeeder(d.store).Seed(ctx); err != nil {
			return err
		}
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, config.TTLDuration(cfg.Auth.JWTExpiration, 24*time.Hour))
	hub := app.NewLeaderboardHub(d.store, app.DefaultLeaderboardSize)
	if err := hub.Refresh(ctx); err != nil {
		return fmt.Errorf("load leaderboard: %w", err)
	}
	go func() {
		if err := hub.Run(ctx, d.notifier); err != nil {
			log.Printf("leaderboard hub stopped: %v", err)
		}
	}()

	handler := transport.NewRouter(transport.Services{
		Tokens:      tokens,
		Auth:        app.NewAuthService(d.store, tokens),
		Quizzes:     app.NewQuizService(d.store, d.store, d.store, d.keys, d.notifier),
		Admin:       app.NewAdminService(d.store, d.keys, d.notifier),
		Leaderboard: hub,
	}, transport.RouterOptions{
		CORSOrigins:    cfg.Server.CORSOrigins,
		RequestTimeout: config.TTLDuration(cfg.Server.RequestTimeout, 30*time.Second),
	})

	server := &http.Server{
		Addr:        ":" + finalPort,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("quiz api listening on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("failed to start server: %v", err)
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
