package handlers

import (
	"net/http"
	"strings"

	"github.com/urmidesai8/gruner-ai-features/internal/chat"
)

// MessageJSON is the REST shape of a stored message.
type MessageJSON struct {
	Seq       uint64 `json:"seq"`
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// MessagesResponse is the full-history response.
type MessagesResponse struct {
	Messages   []MessageJSON `json:"messages"`
	TotalCount int           `json:"total_count"`
}

// UnreadMessagesResponse is the per-user unread response.
type UnreadMessagesResponse struct {
	Messages    []MessageJSON `json:"messages"`
	UnreadCount int           `json:"unread_count"`
}

// Messages returns the chat history. With a username query parameter it
// returns only that user's unread messages; the read cursor is not moved
// (only an explicit summary read advances it).
func (h *Handler) Messages(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))

	if username != "" {
		msgs := h.log.Unread(username)
		h.JSON(w, http.StatusOK, UnreadMessagesResponse{
			Messages:    toMessageJSON(msgs),
			UnreadCount: len(msgs),
		})
		return
	}

	msgs := h.log.All()
	h.JSON(w, http.StatusOK, MessagesResponse{
		Messages:   toMessageJSON(msgs),
		TotalCount: len(msgs),
	})
}

func toMessageJSON(msgs []chat.Message) []MessageJSON {
	out := make([]MessageJSON, len(msgs))
	for i, m := range msgs {
		out[i] = MessageJSON{
			Seq:       m.Seq,
			MessageID: m.ID,
			Sender:    m.Sender,
			Message:   m.Body,
			Timestamp: m.Timestamp.Format(chat.TimeFormat),
		}
	}
	return out
}
