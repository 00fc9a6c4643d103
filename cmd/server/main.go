package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/tabitabi/shiori/internal/config"
	"github.com/tabitabi/shiori/internal/server/handlers"
	"github.com/tabitabi/shiori/internal/server/middleware"
	"github.com/tabitabi/shiori/internal/server/storage/sqlite"
	"github.com/tabitabi/shiori/internal/server/token"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Password attempts per client IP, to slow down brute force against
// itinerary passwords.
const (
	passwordAuthRate   = 10
	passwordAuthWindow = 5 * time.Minute
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "shiori-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("failed to close storage", slog.Any("error", err))
		}
	}()

	tokens, err := token.NewService(cfg.JWTSecret, token.DefaultTTL)
	if err != nil {
		return err
	}

	handler := buildHandler(logger, store, tokens, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("addr", cfg.Addr),
			slog.String("version", Version))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// buildHandler assembles the route table and the middleware chain:
// recovery → CORS → logging → optional auth → mux.
func buildHandler(logger *slog.Logger, store *sqlite.Storage, tokens *token.Service, allowedOrigins []string) http.Handler {
	healthHandler := handlers.NewHealthHandler(logger, Version)
	authHandler := handlers.NewAuthHandler(logger, store, tokens)
	itineraryHandler := handlers.NewItineraryHandler(logger, store)
	stepHandler := handlers.NewStepHandler(logger, store, store)
	timelineHandler := handlers.NewTimelineHandler(logger, store, store)

	rateLimitAuth := middleware.RateLimit(passwordAuthRate, passwordAuthWindow, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler.Health)

	mux.Handle("POST /api/v1/auth/password", rateLimitAuth(http.HandlerFunc(authHandler.PasswordAuth)))

	mux.HandleFunc("GET /api/v1/itineraries", itineraryHandler.List)
	mux.HandleFunc("POST /api/v1/itineraries", itineraryHandler.Create)
	mux.HandleFunc("GET /api/v1/itineraries/{id}", itineraryHandler.Get)
	mux.HandleFunc("PUT /api/v1/itineraries/{id}", itineraryHandler.Update)
	mux.HandleFunc("DELETE /api/v1/itineraries/{id}", itineraryHandler.Delete)

	mux.HandleFunc("GET /api/v1/steps", stepHandler.List)
	mux.HandleFunc("POST /api/v1/steps", stepHandler.Create)
	mux.HandleFunc("PUT /api/v1/steps/{id}", stepHandler.Update)
	mux.HandleFunc("DELETE /api/v1/steps/{id}", stepHandler.Delete)

	mux.HandleFunc("GET /api/v1/itineraries/{id}/timeline", timelineHandler.List)
	mux.HandleFunc("POST /api/v1/itineraries/{id}/timeline/steps", timelineHandler.Create)
	mux.HandleFunc("PUT /api/v1/timeline/steps/{id}", timelineHandler.Update)
	mux.HandleFunc("DELETE /api/v1/timeline/steps/{id}", timelineHandler.Delete)
	mux.HandleFunc("POST /api/v1/timeline/steps/{id}/reorder", timelineHandler.Reorder)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	var handler http.Handler = mux
	handler = middleware.OptionalAuth(logger, tokens)(handler)
	handler = middleware.LoggingWithSkip(logger, []string{"/health"})(handler)
	handler = corsHandler.Handler(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}

func printVersion() {
	fmt.Printf("Shiori Server\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
