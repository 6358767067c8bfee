// Package chat implements the connection registry and broadcast engine: it
// tracks live sessions, serializes concurrent join/leave/send events into one
// global order, and fans each event out to every other connected session.
package chat

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/urmidesai8/gruner-ai-features/internal/metrics"
)

// Hub is the broadcast engine. A single mutex serializes every mutating
// operation (register, unregister, append, fan-out), so no two of them ever
// interleave partially; the order in which operations acquire the lock is the
// global total order every recipient observes.
//
// Fan-out uses only non-blocking channel sends, so a slow consumer can never
// stall the hub. A session whose buffer is full when a frame arrives is
// terminated (the gochat discipline): the delivery is counted as dropped and
// the session is evicted after the fan-out pass. Departure announcements during
// an eviction are best-effort and never cascade into further evictions.
type Hub struct {
	mu       sync.Mutex
	registry *Registry
	log      *Log
	logger   zerolog.Logger

	sendBuffer int
	echoSender bool // deliver a sender's own messages back to it; off, matching the client protocol
	dropped    uint64
	stopped    bool
}

// NewHub creates a hub over the given message log. sendBuffer is the
// per-session outbound channel capacity.
func NewHub(logger zerolog.Logger, log *Log, sendBuffer int) *Hub {
	return &Hub{
		registry:   NewRegistry(),
		log:        log,
		logger:     logger,
		sendBuffer: sendBuffer,
	}
}

// Connect registers a new session and announces the join to everyone else.
// No state is mutated when the username is empty or already taken.
func (h *Hub) Connect(username, remoteAddr string) (*Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrUsernameEmpty
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopped {
		return nil, ErrHubClosed
	}

	s := newSession(username, remoteAddr, h.sendBuffer)
	if err := h.registry.register(s); err != nil {
		return nil, err
	}
	h.log.TrackParticipant(username)

	count := h.registry.count()
	metrics.ConnectsTotal.Inc()
	metrics.UsersOnline.Set(float64(count))

	h.logger.Info().
		Str("user", username).
		Str("session", s.shortID()).
		Str("remote_addr", remoteAddr).
		Int("users_online", count).
		Msg("user connected")

	// The newcomer gets a personal welcome and the current count; everyone
	// else gets the join announcement. Announcements are outbound events
	// only, never log entries.
	if !s.enqueue(systemFrame("Welcome to the chat, " + username + "!")) {
		h.countDropLocked()
	}
	if !s.enqueue(userCountFrame(count)) {
		h.countDropLocked()
	}

	lagging := h.broadcastLocked(systemFrame(username+" joined the chat"), s.ID)
	lagging = append(lagging, h.broadcastLocked(userCountFrame(count), s.ID)...)
	h.evictLocked(lagging)

	return s, nil
}

// Disconnect unregisters the session and announces the departure. It is safe
// to call any number of times, including after an abrupt connection failure.
func (h *Hub) Disconnect(s *Session) {
	if s == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(s, "client")
}

// Submit appends the text to the message log and fans the message out to
// every other live session.
func (h *Hub) Submit(s *Session, text string) (Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s == nil || !h.registry.contains(s.ID) {
		return Message{}, ErrSessionClosed
	}

	msg := h.log.Append(s.Username, text)
	metrics.MessagesBroadcast.Inc()

	h.logger.Info().
		Str("user", s.Username).
		Str("session", s.shortID()).
		Uint64("seq", msg.Seq).
		Str("message", msg.Body).
		Msg("message")

	exclude := s.ID
	if h.echoSender {
		exclude = uuid.Nil
	}
	h.evictLocked(h.broadcastLocked(messageFrame(msg), exclude))

	return msg, nil
}

// SendError delivers an error frame to one session only. Used by the
// connection handler to report malformed inbound payloads.
func (h *Hub) SendError(s *Session, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s == nil || !h.registry.contains(s.ID) {
		return
	}
	if !s.enqueue(errorFrame(text)) {
		h.countDropLocked()
	}
}

// Snapshot returns the live usernames at a single consistent instant, sorted.
func (h *Hub) Snapshot() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.usernames()
}

// Count returns the live user count.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registry.count()
}

// Dropped returns the total number of outbound frames dropped so far.
func (h *Hub) Dropped() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dropped
}

// Shutdown evicts every live session and refuses further connects. Each
// session's outbound channel is closed, which lets its write loop send a
// close frame and exit.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.stopped = true
	for _, s := range h.registry.allExcept(uuid.Nil) {
		h.removeLocked(s, "shutdown")
	}
	h.logger.Info().Msg("hub shut down")
}

// broadcastLocked enqueues the frame to every live session except the given
// id and returns the sessions whose buffers were full. Drops are counted here;
// eviction is the caller's call.
func (h *Hub) broadcastLocked(frame []byte, exclude uuid.UUID) []*Session {
	var lagging []*Session
	for _, target := range h.registry.allExcept(exclude) {
		if !target.enqueue(frame) {
			h.countDropLocked()
			lagging = append(lagging, target)
		}
	}
	return lagging
}

// evictLocked terminates sessions that could not keep up with delivery.
func (h *Hub) evictLocked(lagging []*Session) {
	for _, s := range lagging {
		h.removeLocked(s, "slow_consumer")
	}
}

// removeLocked unregisters the session, closes its outbound channel, and
// announces the departure to the remaining sessions. Idempotent: a second
// removal of the same session does nothing. Departure announcements here are
// best-effort; their drops are counted but never trigger further evictions.
func (h *Hub) removeLocked(s *Session, reason string) {
	if !h.registry.unregister(s.ID) {
		return
	}
	s.closed = true
	close(s.send)

	count := h.registry.count()
	metrics.DisconnectsTotal.WithLabelValues(reason).Inc()
	metrics.UsersOnline.Set(float64(count))

	h.logger.Info().
		Str("user", s.Username).
		Str("session", s.shortID()).
		Str("reason", reason).
		Int("users_online", count).
		Msg("user disconnected")

	leave := systemFrame(s.Username + " left the chat")
	counts := userCountFrame(count)
	for _, target := range h.registry.allExcept(s.ID) {
		if !target.enqueue(leave) {
			h.countDropLocked()
			continue
		}
		if !target.enqueue(counts) {
			h.countDropLocked()
		}
	}
}

func (h *Hub) countDropLocked() {
	h.dropped++
	metrics.DeliveriesDropped.Inc()
}
