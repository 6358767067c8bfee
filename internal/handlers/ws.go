package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/urmidesai8/gruner-ai-features/internal/chat"
)

// Close codes for handshake rejections after the upgrade. 4000-4999 is the
// range reserved for application use.
const (
	closeUsernameTaken = 4409
	closeBadHandshake  = 4400
)

// WS upgrades the connection and runs the client pumps. The username query
// parameter is required; an empty one is rejected before the upgrade, a
// duplicate with a close frame right after it (the browser WebSocket API
// exposes close codes but not HTTP statuses once upgraded).
func (h *Handler) WS(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.URL.Query().Get("username"))
	if username == "" {
		h.Error(w, http.StatusBadRequest, "username query parameter is required")
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(h.cfg.AllowedOrigins),
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("remote_addr", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}

	session, err := h.hub.Connect(username, r.RemoteAddr)
	if err != nil {
		code := closeBadHandshake
		if errors.Is(err, chat.ErrUsernameTaken) {
			code = closeUsernameTaken
		}
		deadline := time.Now().Add(5 * time.Second)
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, err.Error()), deadline)
		_ = conn.Close()
		return
	}

	chat.NewClient(conn, session, h.hub, h.logger, h.cfg.MaxMessageSize).Run()
}

// originChecker builds the upgrade origin check from the configured allow
// list. Entries are matched on normalized scheme://host.
func originChecker(allowed []string) func(*http.Request) bool {
	allowAll := false
	normalized := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			allowAll = true
			continue
		}
		if n, ok := normalizeOrigin(origin); ok {
			normalized[n] = struct{}{}
		}
	}

	return func(r *http.Request) bool {
		if allowAll {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header.
			return true
		}
		n, ok := normalizeOrigin(origin)
		if !ok {
			return false
		}
		_, ok = normalized[n]
		return ok
	}
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}
