package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/zalepa/infractions/pages"
)

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 64 * 1024,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// sessionClient relays events from one websocket connection into a session
// and sends back every resulting description.
type sessionClient struct {
	conn      *websocket.Conn
	send      chan []byte
	sessionID string
	session   *pages.Session
	config    WebSocketConfig
	closeOnce sync.Once
	done      chan struct{}
}

type wsError struct {
	Error string `json:"error"`
}

func (s *Server) sessionWebSocket(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := s.session(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.L().Warn("websocket upgrade failed", zap.String("session", id), zap.Error(err))
		return
	}

	c := &sessionClient{
		conn:      conn,
		send:      make(chan []byte, 16),
		sessionID: id,
		session:   sess,
		config:    DefaultWebSocketConfig(),
		done:      make(chan struct{}),
	}
	go c.writePump()
	go c.readPump()

	c.queue(sess.Description())
	zap.L().Info("websocket connected", zap.String("session", id))
}

func (c *sessionClient) queue(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		zap.L().Error("websocket marshal", zap.String("session", c.sessionID), zap.Error(err))
		return
	}
	select {
	case c.send <- msg:
	case <-c.done:
	}
}

// readPump applies each incoming message as one or more events.
func (c *sessionClient) readPump() {
	defer c.close()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Warn("websocket read", zap.String("session", c.sessionID), zap.Error(err))
			}
			return
		}
		events, err := decodeEvents(message)
		if err != nil {
			c.queue(wsError{Error: err.Error()})
			continue
		}
		c.queue(c.session.Dispatch(events...))
	}
}

// writePump sends queued descriptions and keeps the connection alive.
func (c *sessionClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

func (c *sessionClient) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
		zap.L().Info("websocket closed", zap.String("session", c.sessionID))
	})
}
