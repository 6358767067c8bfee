package chat

import "encoding/json"

// Inbound is the frame clients send. Only type "message" is accepted; any
// other type is rejected back to that client with an error frame.
type Inbound struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// MessageFrame is the outbound broadcast form of a chat message.
type MessageFrame struct {
	Type      string `json:"type"`
	Sender    string `json:"sender"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	MessageID string `json:"message_id"`
}

// SystemFrame announces joins, leaves, and the personal welcome line.
type SystemFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// UserCountFrame reports the live user count.
type UserCountFrame struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ErrorFrame reports a per-connection problem (malformed payload); it never
// terminates the connection.
type ErrorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func encodeFrame(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

func messageFrame(msg Message) []byte {
	return encodeFrame(MessageFrame{
		Type:      "message",
		Sender:    msg.Sender,
		Message:   msg.Body,
		Timestamp: msg.Timestamp.Format(TimeFormat),
		MessageID: msg.ID,
	})
}

func systemFrame(text string) []byte {
	return encodeFrame(SystemFrame{Type: "system", Message: text})
}

func userCountFrame(count int) []byte {
	return encodeFrame(UserCountFrame{Type: "user_count", Count: count})
}

func errorFrame(text string) []byte {
	return encodeFrame(ErrorFrame{Type: "error", Message: text})
}
