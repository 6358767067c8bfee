package handlers

import (
	"net/http"
	"strings"
)

// Summarize generates a conversation summary. The optional username query
// parameter personalizes the what-did-I-miss section and advances that
// user's read cursor on success. Summarizer failures surface as 502; the
// chat path is never affected.
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))

	result, err := h.summarizer.Summarize(r.Context(), username)
	if err != nil {
		h.Error(w, http.StatusBadGateway, "summary generation failed: "+err.Error())
		return
	}

	h.JSON(w, http.StatusOK, result)
}
