package realtime

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Connection is the ephemeral record of one live WebSocket. It exists
// only after a successful authentication handshake and is destroyed on
// disconnect; it is never persisted.
type Connection struct {
	ID       string
	UserID   string
	TenantID string
	Role     string

	mu    sync.RWMutex
	rooms map[string]bool

	send chan []byte
	sock *websocket.Conn
}

// NewConnection wraps an upgraded socket for a verified identity.
func NewConnection(id, userID, tenantID, role string, sock *websocket.Conn, sendBuffer int) *Connection {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &Connection{
		ID:       id,
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
		rooms:    make(map[string]bool),
		send:     make(chan []byte, sendBuffer),
		sock:     sock,
	}
}

// joinRoom records room membership on the connection.
func (c *Connection) joinRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room] = true
}

// leaveRoom removes room membership.
func (c *Connection) leaveRoom(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.rooms, room)
}

// inRoom reports whether the connection is a member of room.
func (c *Connection) inRoom(room string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[room]
}

// Rooms returns a snapshot of current room memberships.
func (c *Connection) Rooms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rooms := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		rooms = append(rooms, r)
	}
	return rooms
}

// enqueue hands a frame to the write pump without blocking. Frames to a
// slow or disconnected peer are dropped; delivery is best-effort and
// never retried.
func (c *Connection) enqueue(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// readPump reads inbound envelopes and dispatches them to the hub. It
// owns the socket's read side; on any read error the connection is
// deregistered and closed.
func (c *Connection) readPump(h *Hub) {
	defer func() {
		h.Unregister(c)
		c.sock.Close()
	}()

	c.sock.SetReadLimit(h.cfg.MaxMessageSize)
	c.sock.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	c.sock.SetPongHandler(func(string) error {
		c.sock.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
		return nil
	})

	for {
		_, raw, err := c.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("Unexpected websocket close",
					slog.String("connection_id", c.ID),
					slog.Any("error", err),
				)
			}
			return
		}

		h.HandleMessage(c, raw)
	}
}

// writePump drains the send channel onto the socket and keeps the peer
// alive with pings. It owns the socket's write side.
func (c *Connection) writePump(h *Hub) {
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.sock.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.sock.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				c.sock.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			c.sock.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
