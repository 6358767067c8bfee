package chat

import "sync"

// Log is the append-only message store. Sequence numbers start at 1 and are
// strictly increasing with no gaps; appends happen only through the Hub's
// serialized operations. Reads return snapshot copies so callers (summaries,
// history endpoints) never observe a partially applied mutation and never
// hold up broadcast.
//
// The log also keeps a per-username read cursor (last sequence number seen)
// and the set of everyone who ever took part in the conversation, either by
// connecting or by sending a message.
type Log struct {
	mu           sync.RWMutex
	messages     []Message
	cursors      map[string]uint64
	participants []string
	seen         map[string]struct{}
}

// NewLog creates an empty message log.
func NewLog() *Log {
	return &Log{
		cursors: make(map[string]uint64),
		seen:    make(map[string]struct{}),
	}
}

// Append stores a new message and assigns it the next sequence number.
func (l *Log) Append(sender, body string) Message {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := newMessage(uint64(len(l.messages))+1, sender, body)
	l.messages = append(l.messages, msg)
	l.trackLocked(sender)
	return msg
}

// All returns a copy of every message in sequence order.
func (l *Log) All() []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Since returns every message with a sequence number greater than seq.
func (l *Log) Since(seq uint64) []Message {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if seq >= uint64(len(l.messages)) {
		return nil
	}
	tail := l.messages[seq:]
	out := make([]Message, len(tail))
	copy(out, tail)
	return out
}

// Unread returns the messages the given user has not yet read.
func (l *Log) Unread(username string) []Message {
	l.mu.RLock()
	cursor := l.cursors[username]
	l.mu.RUnlock()
	return l.Since(cursor)
}

// UnreadCount returns how many messages the given user has not yet read.
func (l *Log) UnreadCount(username string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cursor := l.cursors[username]
	if cursor >= uint64(len(l.messages)) {
		return 0
	}
	return len(l.messages) - int(cursor)
}

// MarkRead advances the user's read cursor to the latest message. The cursor
// moves only on explicit reads (summary or history), never on live delivery.
func (l *Log) MarkRead(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cursors[username] = uint64(len(l.messages))
}

// TrackParticipant records a username as part of the conversation even before
// it has sent anything. The Hub calls this on connect.
func (l *Log) TrackParticipant(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.trackLocked(username)
}

// Participants returns everyone who ever joined or sent a message, in
// first-seen order.
func (l *Log) Participants() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]string, len(l.participants))
	copy(out, l.participants)
	return out
}

// Len returns the total number of messages.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.messages)
}

func (l *Log) trackLocked(username string) {
	if _, ok := l.seen[username]; ok {
		return
	}
	l.seen[username] = struct{}{}
	l.participants = append(l.participants, username)
}
