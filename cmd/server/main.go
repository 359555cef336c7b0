// Package main is the entry point for the HostelDex maintenance server.
// It provides a REST API for hostel maintenance tickets: students submit
// issues (electricity, cleaning, Wi-Fi, ...), administrators triage and
// resolve them, and both roles receive notifications.
//
// Architecture:
//   - A mock two-account session directory gates access (demo deployment)
//   - Tickets and notifications live in memory, most recent first
//   - Every mutation persists the full collection to a named storage slot
//   - Slots are backed by local files, Redis, or Postgres
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/hosteldex/hosteldex-server/internal/config"
	"github.com/hosteldex/hosteldex-server/internal/handlers"
	"github.com/hosteldex/hosteldex-server/internal/middleware"
	"github.com/hosteldex/hosteldex-server/internal/services"
	"github.com/hosteldex/hosteldex-server/internal/storage"
)

func main() {
	// Initialize structured logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("Failed to load config: %v", err)
	}

	sugar.Infow("Starting HostelDex Server",
		"port", cfg.Port,
		"env", cfg.Environment,
		"storage", cfg.StorageBackend,
	)

	// Initialize the durable slot store
	store, err := newStore(cfg)
	if err != nil {
		sugar.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Initialize services
	sessionSvc := services.NewSessionService(services.NewDirectory(), store, sugar, cfg.MockLatency)
	ticketSvc := services.NewTicketService(store, sugar)
	notifySvc := services.NewNotificationService(store, sugar)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(sessionSvc, cfg.JWTSecret, cfg.TokenTTL, sugar)
	ticketHandler := handlers.NewTicketHandler(ticketSvc, notifySvc, sugar)
	notifyHandler := handlers.NewNotificationHandler(notifySvc, sugar)
	healthHandler := handlers.NewHealthHandler(store, cfg.DataDir, sugar)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Rate limiting
	r.Use(middleware.RateLimit(cfg.RateLimitRPM))

	// API Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check
		r.Get("/health", healthHandler.Check)
		r.Get("/health/ready", healthHandler.Ready)

		// Session endpoints (public)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)       // Login against the mock directory
			r.Post("/register", authHandler.Register) // Register a fresh identity
			r.Get("/me", authHandler.Me)              // Current session

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth(cfg.JWTSecret))
				r.Put("/profile", authHandler.UpdateProfile)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Ticket endpoints (authenticated, role-aware)
		r.Route("/tickets", func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))
			r.Post("/", ticketHandler.Submit)
			r.Get("/", ticketHandler.List)
			r.Get("/{id}", ticketHandler.Get)
			r.Patch("/{id}", ticketHandler.Update)
			r.Delete("/{id}", ticketHandler.Delete)
		})

		// Dashboard projections
		r.Route("/dashboard", func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))
			r.Get("/stats", ticketHandler.Stats)
		})

		// Notification endpoints
		r.Route("/notifications", func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))
			r.Get("/", notifyHandler.List)
			r.Post("/{id}/read", notifyHandler.MarkRead)
			r.Delete("/", notifyHandler.Clear)
			r.Get("/ws", notifyHandler.Stream)
		})

		// System metrics (admin only)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.JWTSecret))
			r.Use(middleware.RequireAdmin())
			r.Get("/health/metrics", healthHandler.Metrics)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sugar.Infof("Server listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Server error: %v", err)
		}
	}()

	<-done
	sugar.Info("Shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		sugar.Fatalf("Forced shutdown: %v", err)
	}

	sugar.Info("Server stopped")
}

// newStore selects the slot backend from configuration.
func newStore(cfg *config.Config) (storage.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.StorageBackend {
	case "redis":
		return storage.NewRedisStore(ctx, cfg.RedisURL)
	case "postgres":
		return storage.NewPGStore(ctx, cfg.DatabaseURL)
	default:
		return storage.NewFileStore(cfg.DataDir)
	}
}
