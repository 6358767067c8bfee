package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/urmidesai8/gruner-ai-features/internal/summary"
)

const maxFeatureBody = 1 << 20

// Prioritize classifies the priority of a batch of messages. The body is a
// JSON array of {id, sender, message}; the response maps message id to one of
// Low, Normal, High, Urgent.
func (h *Handler) Prioritize(w http.ResponseWriter, r *http.Request) {
	msgs, ok := h.decodeFeatureBatch(w, r)
	if !ok {
		return
	}

	result, err := h.features.Prioritize(r.Context(), msgs)
	if err != nil {
		h.Error(w, http.StatusBadGateway, "priority classification failed: "+err.Error())
		return
	}
	h.JSON(w, http.StatusOK, result)
}

// Moderate checks a batch of messages for spam, scams, or abuse. The response
// maps message id to {"safe": bool, "reason": string}.
func (h *Handler) Moderate(w http.ResponseWriter, r *http.Request) {
	msgs, ok := h.decodeFeatureBatch(w, r)
	if !ok {
		return
	}

	result, err := h.features.Moderate(r.Context(), msgs)
	if err != nil {
		h.Error(w, http.StatusBadGateway, "moderation failed: "+err.Error())
		return
	}
	h.JSON(w, http.StatusOK, result)
}

// SmartRepliesResponse carries the suggested replies.
type SmartRepliesResponse struct {
	Suggestions []string `json:"suggestions"`
}

// SmartReplies suggests short replies to the last message of the batch.
func (h *Handler) SmartReplies(w http.ResponseWriter, r *http.Request) {
	msgs, ok := h.decodeFeatureBatch(w, r)
	if !ok {
		return
	}

	suggestions, err := h.features.SmartReplies(r.Context(), msgs)
	if err != nil {
		h.Error(w, http.StatusBadGateway, "smart replies failed: "+err.Error())
		return
	}
	h.JSON(w, http.StatusOK, SmartRepliesResponse{Suggestions: suggestions})
}

func (h *Handler) decodeFeatureBatch(w http.ResponseWriter, r *http.Request) ([]summary.FeatureMessage, bool) {
	var msgs []summary.FeatureMessage
	r.Body = http.MaxBytesReader(w, r.Body, maxFeatureBody)
	if err := json.NewDecoder(r.Body).Decode(&msgs); err != nil {
		h.Error(w, http.StatusBadRequest, "request body must be a JSON array of messages")
		return nil, false
	}
	return msgs, true
}
