package chat

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUsernameEmpty is returned when a handshake carries no username.
	ErrUsernameEmpty = errors.New("username is required")

	// ErrUsernameTaken is returned when the username is already held by a
	// live session.
	ErrUsernameTaken = errors.New("username already taken")

	// ErrSessionClosed is returned when an operation targets a session that
	// has already been unregistered.
	ErrSessionClosed = errors.New("session is closed")

	// ErrHubClosed is returned when connecting to a hub that has shut down.
	ErrHubClosed = errors.New("hub is shut down")
)

// Session is one live connection's identity inside the hub. The hub owns the
// session exclusively: the outbound channel is closed, and the closed flag
// flipped, only under the hub's serialization. The connection handler merely
// drains the outbound channel.
type Session struct {
	ID          uuid.UUID
	Username    string
	RemoteAddr  string
	ConnectedAt time.Time

	send   chan []byte
	closed bool
}

func newSession(username, remoteAddr string, sendBuffer int) *Session {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Session{
		ID:          uuid.New(),
		Username:    username,
		RemoteAddr:  remoteAddr,
		ConnectedAt: time.Now(),
		send:        make(chan []byte, sendBuffer),
	}
}

// Outbound returns the channel the connection's write loop drains. The
// channel is closed by the hub when the session is unregistered.
func (s *Session) Outbound() <-chan []byte {
	return s.send
}

// enqueue attempts a non-blocking delivery to the session's outbound channel.
// Callers must hold the hub lock; a false return means the frame was dropped
// (buffer full or session closed).
func (s *Session) enqueue(frame []byte) bool {
	if s.closed || frame == nil {
		return false
	}
	select {
	case s.send <- frame:
		return true
	default:
		return false
	}
}

// shortID returns the session id prefix used in operator log lines.
func (s *Session) shortID() string {
	return s.ID.String()[:8]
}
