// Package api assembles the HTTP surface: WebSocket chat endpoint, summary
// and history APIs, health, and Prometheus metrics.
package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/urmidesai8/gruner-ai-features/internal/api/middleware"
	"github.com/urmidesai8/gruner-ai-features/internal/config"
	"github.com/urmidesai8/gruner-ai-features/internal/handlers"
	"github.com/urmidesai8/gruner-ai-features/internal/store"
)

// NewRouter creates and configures the HTTP router. redisStore may be nil;
// rate limiting is only installed when it is present.
func NewRouter(logger zerolog.Logger, cfg *config.Config, h *handlers.Handler, redisStore *store.RedisStore) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// Rate limiting (optional, Redis-backed)
	if redisStore != nil {
		limiter := middleware.NewRateLimiter(redisStore.Client(), logger, middleware.RateLimiterConfig{
			Whitelist:        cfg.RateLimitWhitelist,
			AutoBlockEnabled: cfg.AutoBlockEnabled,
		})
		r.Use(limiter.Middleware)
	}

	// CORS - the browser client may be served from anywhere
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	// Chat relay
	r.Get("/ws", h.WS)

	// Conversation APIs
	r.Get("/api/messages", h.Messages)
	r.Post("/api/summarize", h.Summarize)
	r.Get("/api/stats", h.Stats)

	// Batch AI features
	r.Route("/api/features", func(r chi.Router) {
		r.Post("/prioritize", h.Prioritize)
		r.Post("/moderate", h.Moderate)
		r.Post("/smart-replies", h.SmartReplies)
	})

	return r
}
