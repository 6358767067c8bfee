package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/urmidesai8/gruner-ai-features/internal/api"
	"github.com/urmidesai8/gruner-ai-features/internal/chat"
	"github.com/urmidesai8/gruner-ai-features/internal/config"
	"github.com/urmidesai8/gruner-ai-features/internal/handlers"
	"github.com/urmidesai8/gruner-ai-features/internal/store"
	"github.com/urmidesai8/gruner-ai-features/internal/summary"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize Redis (optional; backs rate limiting only)
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Core chat components
	messageLog := chat.NewLog()
	hub := chat.NewHub(logger, messageLog, cfg.SendBufferSize)

	// Summarization
	if cfg.GroqAPIKey == "" {
		logger.Warn().Msg("GROQ_API_KEY not set; summary requests will fail")
	}
	groq := summary.NewGroqClient(cfg.GroqAPIKey, cfg.GroqModel)
	summarizer := summary.NewService(messageLog, groq, logger, cfg.HistoryLimit, cfg.SummaryTimeout)
	features := summary.NewFeatureService(groq, logger, cfg.SummaryTimeout)

	// HTTP surface
	h := handlers.NewHandler(hub, messageLog, summarizer, features, redisStore, cfg, logger)
	router := api.NewRouter(logger, cfg, h, redisStore)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting chat relay server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Stop accepting new connections, then evict live chat sessions.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown did not complete cleanly")
	}
	hub.Shutdown()

	logger.Info().Msg("server stopped")
}
