package chat

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client couples one WebSocket connection to its hub session. Two loops run
// per connection: the read loop decodes inbound frames and feeds the hub, the
// write loop drains the session's outbound channel. Either loop exiting tears
// the other down — the write loop closes the socket, which unblocks the
// reader; the hub closing the outbound channel unblocks the writer.
type Client struct {
	conn    *websocket.Conn
	session *Session
	hub     *Hub
	logger  zerolog.Logger
}

// NewClient wires a freshly upgraded connection to its registered session.
func NewClient(conn *websocket.Conn, session *Session, hub *Hub, logger zerolog.Logger, maxMessageSize int64) *Client {
	if maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}
	return &Client{
		conn:    conn,
		session: session,
		hub:     hub,
		logger:  logger,
	}
}

// Run starts the write loop and blocks in the read loop until the connection
// ends. Disconnect fires exactly once regardless of how the connection died.
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Disconnect(c.session)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Debug().
					Str("user", c.session.Username).
					Err(err).
					Msg("websocket read failed")
			}
			return
		}
		c.handleInbound(raw)
	}
}

// handleInbound decodes one frame and forwards it to the hub. Malformed
// payloads are reported back to this client only; the connection stays open.
func (c *Client) handleInbound(raw []byte) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		c.hub.SendError(c.session, "invalid JSON payload")
		return
	}
	if in.Type != "message" {
		c.hub.SendError(c.session, "unsupported frame type "+strconv.Quote(in.Type))
		return
	}
	if in.Message == "" {
		c.hub.SendError(c.session, "message is required")
		return
	}

	if _, err := c.hub.Submit(c.session, in.Message); err != nil {
		// The session was already evicted; the read loop will observe the
		// closed socket shortly.
		c.logger.Debug().
			Str("user", c.session.Username).
			Err(err).
			Msg("submit rejected")
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.session.Outbound():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the session: say goodbye properly.
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
