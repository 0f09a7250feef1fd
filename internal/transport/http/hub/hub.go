// Package hub provides connection management for chat WebSocket clients.
package hub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xiaot623/gogo/sdk/internal/logger"
)

const closeWriteTimeout = time.Second

// Connection represents a single chat WebSocket connection.
type Connection struct {
	ID        string
	SessionID string
	Conn      *websocket.Conn
	mu        sync.Mutex
}

// Hub tracks the open chat connections of each session.
type Hub struct {
	// Connections indexed by connection ID
	connections map[string]*Connection

	// Sessions maps session_id to set of connection IDs
	sessions map[string]map[string]bool

	log logger.Logger
	mu  sync.RWMutex
}

// New creates a new Hub.
func New(log logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		connections: make(map[string]*Connection),
		sessions:    make(map[string]map[string]bool),
		log:         log,
	}
}

// Register adds ws as a connection of sessionID.
func (h *Hub) Register(sessionID string, ws *websocket.Conn) *Connection {
	conn := &Connection{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Conn:      ws,
	}

	h.mu.Lock()
	h.connections[conn.ID] = conn
	if h.sessions[sessionID] == nil {
		h.sessions[sessionID] = make(map[string]bool)
	}
	h.sessions[sessionID][conn.ID] = true
	h.mu.Unlock()

	h.log.Debug("connection registered", "connection_id", conn.ID, "session_id", sessionID)
	return conn
}

// Unregister removes conn. It is safe to call more than once.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(conn)
}

func (h *Hub) remove(conn *Connection) {
	if _, ok := h.connections[conn.ID]; !ok {
		return
	}
	delete(h.connections, conn.ID)
	if ids := h.sessions[conn.SessionID]; ids != nil {
		delete(ids, conn.ID)
		if len(ids) == 0 {
			delete(h.sessions, conn.SessionID)
		}
	}
	h.log.Debug("connection unregistered", "connection_id", conn.ID)
}

// CloseSession ends every connection of sessionID with a going-away close
// frame and returns how many were closed.
func (h *Hub) CloseSession(sessionID, reason string) int {
	h.mu.Lock()
	var conns []*Connection
	for id := range h.sessions[sessionID] {
		if conn, ok := h.connections[id]; ok {
			conns = append(conns, conn)
			h.remove(conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.closeWith(reason)
	}
	return len(conns)
}

// CloseAll ends every connection. The server calls it on shutdown, since
// hijacked connections outlive http.Server.Shutdown.
func (h *Hub) CloseAll(reason string) {
	h.mu.Lock()
	conns := make([]*Connection, 0, len(h.connections))
	for _, conn := range h.connections {
		conns = append(conns, conn)
		h.remove(conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.closeWith(reason)
	}
}

// GetConnectionCount returns the number of active connections.
func (h *Hub) GetConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// HasActiveConnections checks if a session has any active connections.
func (h *Hub) HasActiveConnections(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID]) > 0
}

// WriteJSON writes v to the connection with proper locking.
func (c *Connection) WriteJSON(v any, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.Conn.WriteJSON(v)
}

// CloseNormal sends a normal closure frame.
func (c *Connection) CloseNormal() error {
	return c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(closeWriteTimeout))
}

func (c *Connection) closeWith(reason string) {
	c.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, reason), time.Now().Add(closeWriteTimeout))
	c.Conn.Close()
}

// Close closes the connection.
func (c *Connection) Close() error {
	return c.Conn.Close()
}
