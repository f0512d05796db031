// Copyright (c) 2026 Cinara. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Cinara HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Start the notification senders.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/cinara/internal/api"
	"github.com/taibuivan/cinara/internal/catalog"
	"github.com/taibuivan/cinara/internal/issues"
	"github.com/taibuivan/cinara/internal/media"
	"github.com/taibuivan/cinara/internal/notifications"
	"github.com/taibuivan/cinara/internal/permissions"
	"github.com/taibuivan/cinara/internal/platform/config"
	"github.com/taibuivan/cinara/internal/platform/constants"
	"github.com/taibuivan/cinara/internal/platform/migration"
	pgstore "github.com/taibuivan/cinara/internal/platform/postgres"
	redisstore "github.com/taibuivan/cinara/internal/platform/redis"
	"github.com/taibuivan/cinara/internal/platform/sec"
	"github.com/taibuivan/cinara/internal/users/account"
	"github.com/taibuivan/cinara/internal/users/auth"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", "cinara"))
	slog.SetDefault(log)

	log.Info("[Cinara] service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", "cinara"))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for background workers. Cancelled on shutdown so the
	// rate limiter and notification workers drain cleanly.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Startup context with a 30s deadline so misconfiguration is caught
	// quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Security ───────────────────────────────────────────────────────
	jwtSvc, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
	}, log)

	// ── 8. Notifications ──────────────────────────────────────────────────
	var senders []notifications.Sender
	var webhookSender *notifications.WebhookSender
	if cfg.NotifyWebhookURL != "" {
		webhookSender, err = notifications.NewWebhookSender(cfg.NotifyWebhookURL, cfg.NotifyWebhookToken, log)
		must(log, err, "initialize webhook sender")
		senders = append(senders, webhookSender)
	}

	notificationManager := notifications.NewManager(senders, log)
	notificationManager.Start(rootCtx)

	// ── 9. Domain Wiring ──────────────────────────────────────────────────
	catalogClient := catalog.NewClient(catalog.Options{
		BaseURL:      cfg.CatalogAPIURL,
		APIKey:       cfg.CatalogAPIKey,
		Language:     cfg.CatalogLanguage,
		ImageBaseURL: cfg.CatalogImageBaseURL,
		CacheTTL:     cfg.CatalogCacheTTL,
	}, rdb, log)

	mediaService := media.NewService(media.NewPostgresRepository(pool))

	engine := notifications.NewEngine(notificationManager, catalogClient, mediaService, cfg.ApplicationURL, log)

	userRepository := auth.NewUserRepository(pool)
	authService := auth.NewService(
		userRepository,
		auth.NewSessionRepository(pool),
		auth.NewResetTokenRepository(rdb),
		auth.NewVerificationTokenRepository(rdb),
		jwtSvc,
	)
	authHandler := auth.NewHandler(authService)

	features := permissions.Features{Movie4K: cfg.Movie4KEnabled, Series4K: cfg.Series4KEnabled}
	accountService := account.NewService(
		account.NewAccountRepository(pool),
		account.NewSessionRepository(pool),
		features,
		log,
	)
	accountHandler := account.NewHandler(accountService)

	issueService := issues.NewService(
		issues.NewIssueRepository(pool),
		issues.NewCommentRepository(pool),
		userRepository,
		catalogClient,
		mediaService,
		engine,
		log,
	)
	issueHandler := issues.NewHandler(issueService)

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:      liveness,
		Readiness:     readiness,
		Auth:          authHandler,
		Account:       accountHandler,
		Issues:        issueHandler,
		Notifications: notifications.NewHandler(notificationManager),
	}

	server := api.NewServer(rootCtx, cfg, log, jwtSvc, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	// Stop background workers and drain pending notifications.
	rootCancel()
	if webhookSender != nil {
		webhookSender.Close()
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
