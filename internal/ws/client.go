package ws

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"tasker/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second
	sendBuffer = 64
)

// Client is one websocket connection of a signed-in browser tab.
type Client struct {
	UserID string
	Conn   *websocket.Conn
	Send   chan []byte
	Done   chan struct{}

	hub       *Hub
	logMu     sync.Mutex
	log       *slog.Logger
	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(userID string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, sendBuffer),
		Done:   make(chan struct{}),
		hub:    hub,
		log:    clientLog(userID),
		closed: make(chan struct{}),
	}
}

// SetUser records the user the connection resolved to. Call it before Run.
func (c *Client) SetUser(userID string) {
	c.logMu.Lock()
	c.UserID = userID
	c.log = c.log.With("user_id", userID)
	c.logMu.Unlock()
}

func (c *Client) logger() *slog.Logger {
	c.logMu.Lock()
	defer c.logMu.Unlock()
	return c.log
}

func clientLog(userID string) *slog.Logger {
	l := logger.With("component", "ws")
	if userID != "" {
		l = l.With("user_id", userID)
	}
	return l
}

// Run registers the client, starts the pumps and blocks until the
// connection is gone. handle receives every inbound message.
func (c *Client) Run(handle func(Message)) {
	if c.hub != nil {
		c.hub.Register(c)
	}
	go c.writePump()
	c.readPump(handle)
}

// Emit queues a message. It drops the message when the client is closed or
// too far behind.
func (c *Client) Emit(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.logger().Error("ws marshal failed", "type", msgType, "error", err)
		return
	}
	frame, err := json.Marshal(Message{Type: msgType, Data: raw})
	if err != nil {
		return
	}

	select {
	case <-c.closed:
		return
	default:
	}
	select {
	case c.Send <- frame:
	case <-c.closed:
	default:
		c.logger().Warn("ws send buffer full, dropping message", "type", msgType)
	}
}

// Close ends the connection. The write pump flushes queued messages first.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

func (c *Client) readPump(handle func(Message)) {
	defer func() {
		if c.hub != nil {
			c.hub.Unregister(c)
		}
		c.Close()
		close(c.Done)
	}()

	c.Conn.SetReadLimit(4096)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger().Debug("ws read error", "error", err)
			}
			return
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.Emit(MsgError, ErrorPayload{Error: "invalid message"})
			continue
		}
		if msg.Type == MsgPing {
			c.Emit(MsgPong, nil)
			continue
		}
		if handle != nil {
			handle(msg)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger().Debug("ws write error", "error", err)
				c.Close()
				return
			}

		case <-c.closed:
			// flush what is already queued, then say goodbye
			for {
				select {
				case msg := <-c.Send:
					c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
					continue
				default:
				}
				break
			}
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		}
	}
}
