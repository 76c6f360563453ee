package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluentprep/exam-engine/internal/config"
	"github.com/fluentprep/exam-engine/internal/handler"
	"github.com/fluentprep/exam-engine/internal/logger"
	"github.com/fluentprep/exam-engine/internal/router"
	"github.com/fluentprep/exam-engine/internal/store"
	"github.com/fluentprep/exam-engine/internal/validator"
	"github.com/rs/zerolog"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting practice server")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	// ─── Seed In-Memory Store ──────────────────────────────────────────
	st, err := store.New(cfg.BcryptCost, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed store")
	}

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:    handler.NewAuthHandler(cfg, st),
		Session: handler.NewSessionHandler(st),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.Setup(handlers, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

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
