package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/handler"
	"github.com/physical-edu/physical-backend/internal/logger"
	"github.com/physical-edu/physical-backend/internal/mail"
	"github.com/physical-edu/physical-backend/internal/middleware"
	"github.com/physical-edu/physical-backend/internal/router"
	"github.com/physical-edu/physical-backend/internal/service"
	"github.com/physical-edu/physical-backend/internal/validator"
	"github.com/physical-edu/physical-backend/internal/websocket"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, cfg.AppName)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("storage", cfg.StorageDriver).
		Str("cache", cfg.CacheDriver).
		Str("blob", cfg.BlobDriver).
		Msg("Starting Physical backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Backends ──────────────────────────────────────────────────────
	stores, closeStores, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer closeStores()

	store, closeCache, err := openCache(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open cache")
	}
	defer closeCache()

	blobs, err := openBlobStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open blob store")
	}

	mailer, err := mail.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure mailer")
	}

	// ─── Review Hub ────────────────────────────────────────────────────
	hub := websocket.NewHub(log)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	go hub.Run(hubCtx)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, stores.users, store, log)
	userService := service.NewUserService(cfg, stores.users, authService, store, mailer, hub, log)
	questionService := service.NewQuestionService(stores.questions, stores.users, blobs, store, hub, log)
	mediaService := service.NewMediaService(cfg, blobs, log)
	subjectService := service.NewSubjectService(stores.subjects, log)

	// ─── Prewarm Caches ────────────────────────────────────────────────
	// Load the question lists before accepting traffic.
	if err := questionService.PrewarmCaches(ctx); err != nil {
		log.Warn().Err(err).Msg("Cache prewarm failed")
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		User:     handler.NewUserHandler(userService, log),
		Question: handler.NewQuestionHandler(questionService, log),
		Media:    handler.NewMediaHandler(mediaService, log),
		Subject:  handler.NewSubjectHandler(subjectService, log),
		WS:       handler.NewWSHandler(hub, log, cfg.AllowedOrigins, cfg.AllowedOriginSuffixes),
	}

	loginLimiter := middleware.NewLoginRateLimiter(store, cfg.LoginWindow, cfg.LoginMaxAttempts, log)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, loginLimiter, handlers, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Close reviewer connections so Shutdown does not wait on them.
	hubCancel()

	// 2. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
