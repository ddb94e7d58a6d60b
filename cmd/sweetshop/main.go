// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"sweetshop/internal/auth"
	"sweetshop/internal/config"
	"sweetshop/internal/handler/api"
	"sweetshop/internal/logging"
	"sweetshop/internal/middleware"
	"sweetshop/internal/scheduler"
	"sweetshop/internal/service"
	"sweetshop/internal/store"
	"sweetshop/internal/webhook"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Sweet Shop - Inventory Management API\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SWEETSHOP_JWT_SECRET          Token signing key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SWEETSHOP_DB_PATH             SQLite database path (default: ./data/sweetshop.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SWEETSHOP_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SWEETSHOP_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SWEETSHOP_LOW_STOCK_THRESHOLD Low stock warning threshold (default: 5)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SWEETSHOP_WEBHOOK_URLS        Comma-separated webhook endpoints (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  SWEETSHOP_DO_SEED             Seed admin user and sample data on startup\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Printf("sweetshop %s (commit: %s, built: %s)\n", appVersion, appGitCommit, appBuildTime)
		os.Exit(0)
	}

	if err := run(); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if present (development)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Setup logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	// Initialize database
	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func(db *sql.DB) {
		err = db.Close()
		if err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}(db)

	// Run migrations
	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database ready")

	// Upgrade logger to also write WARN and ERROR logs to the events table
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	eventLogHandler := logging.NewEventLogHandler(textHandler, db)
	logger = slog.New(eventLogHandler)
	slog.SetDefault(logger)
	slog.Info("event log integration enabled", "min_level", "warn")

	// Seed default data
	ctx := context.Background()
	if cfg.DoSeed {
		if err := store.Seed(ctx, db, store.SeedParams{
			AdminEmail:    cfg.AdminEmail,
			AdminName:     cfg.AdminName,
			AdminPassword: cfg.AdminPassword,
		}); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// Initialize and start scheduler
	sched := scheduler.New(db, logger, cfg.EventRetentionDays, cfg.LowStockThreshold)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer sched.Stop()

	// Token manager for issuing and verifying bearer tokens
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)

	// Services
	authService := service.NewAuth(db, tokens, logger)
	sweetService := service.NewSweets(db, logger, cfg.LowStockThreshold)

	// Initialize and start webhook dispatcher if endpoints are configured
	if cfg.WebhooksEnabled() {
		dispatcher := webhook.NewDispatcher(webhook.Config{
			Endpoints: cfg.WebhookURLs,
			Secret:    cfg.WebhookSecret,
		}, logger)
		dispatcher.Start(ctx)
		defer dispatcher.Stop()
		sweetService.SetDispatcher(dispatcher)
		slog.Info("webhook dispatcher initialized", "endpoints", len(cfg.WebhookURLs))
	}

	// Login brute-force protection: per-IP rate limit plus account lockout
	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	// API handlers
	apiHandler := api.NewHandler(authService, sweetService)
	apiHandler.SetLoginGuard(loginProtection)
	healthHandler := api.NewHealthHandler(db, tokens)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))

	// Health check endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	// REST API
	apiRateLimiter := middleware.NewGlobalRateLimiter(100, 200)
	r.Route("/api", func(r chi.Router) {
		r.Use(apiRateLimiter.Middleware())

		r.Get("/status", apiHandler.Status)

		// Public auth endpoints
		r.Post("/auth/register", apiHandler.Register)
		r.With(loginProtection.Middleware()).Post("/auth/login", apiHandler.Login)

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(tokens))

			r.Get("/sweets", apiHandler.ListSweets)
			r.Get("/sweets/search", apiHandler.SearchSweets)
			r.Get("/sweets/{id}", apiHandler.GetSweet)
			r.Post("/sweets/{id}/purchase", apiHandler.PurchaseSweet)

			// Admin-only endpoints
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin())

				r.Post("/sweets", apiHandler.CreateSweet)
				r.Put("/sweets/{id}", apiHandler.UpdateSweet)
				r.Delete("/sweets/{id}", apiHandler.DeleteSweet)
				r.Post("/sweets/{id}/restock", apiHandler.RestockSweet)
			})
		})
	})
	slog.Info("REST API mounted at /api")

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB max header size
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
