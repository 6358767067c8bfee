package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/urmidesai8/gruner-ai-features/internal/chat"
	"github.com/urmidesai8/gruner-ai-features/internal/config"
	"github.com/urmidesai8/gruner-ai-features/internal/store"
	"github.com/urmidesai8/gruner-ai-features/internal/summary"
)

// Summarizer generates conversation summaries. Satisfied by *summary.Service.
type Summarizer interface {
	Summarize(ctx context.Context, username string) (*summary.Result, error)
}

// Features runs the batch AI features. Satisfied by *summary.FeatureService.
type Features interface {
	Prioritize(ctx context.Context, msgs []summary.FeatureMessage) (map[string]string, error)
	Moderate(ctx context.Context, msgs []summary.FeatureMessage) (map[string]summary.ModerationVerdict, error)
	SmartReplies(ctx context.Context, msgs []summary.FeatureMessage) ([]string, error)
}

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	hub        *chat.Hub
	log        *chat.Log
	summarizer Summarizer
	features   Features
	redis      *store.RedisStore
	cfg        *config.Config
	logger     zerolog.Logger
}

// NewHandler creates a new Handler. redis may be nil when rate limiting is
// not configured.
func NewHandler(hub *chat.Hub, log *chat.Log, summarizer Summarizer, features Features, redis *store.RedisStore, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		log:        log,
		summarizer: summarizer,
		features:   features,
		redis:      redis,
		cfg:        cfg,
		logger:     logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}
