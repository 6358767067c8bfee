package chat

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// TimeFormat is the second-precision timestamp format used on the wire and in
// operator-facing output.
const TimeFormat = "2006-01-02 15:04:05"

// Message is a single chat message. Messages are immutable once appended to
// the log; Seq is the global arrival order and the only ordering authority.
type Message struct {
	Seq       uint64
	ID        string // ULID
	Sender    string
	Body      string
	Timestamp time.Time
}

func newMessage(seq uint64, sender, body string) Message {
	return Message{
		Seq:       seq,
		ID:        ulid.Make().String(),
		Sender:    sender,
		Body:      body,
		Timestamp: time.Now().Truncate(time.Second),
	}
}
