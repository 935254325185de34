package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/jokenpo/go/internal/models"
	"github.com/mcdev12/jokenpo/go/internal/room"
	"github.com/rs/zerolog/log"
)

// SessionHandler is the game side of a connection: the room manager.
type SessionHandler interface {
	Connect(conn room.Conn)
	HandleMessage(ctx context.Context, conn room.Conn, data []byte)
	HandleDisconnect(conn room.Conn)
}

// ConnectionManager manages WebSocket connections for game sessions
type ConnectionManager struct {
	connections map[string]*Connection
	mu          sync.RWMutex

	// Upgrader for WebSocket connections
	upgrader websocket.Upgrader

	config   ConnectionConfig
	sessions SessionHandler

	ctx context.Context
}

// Connection represents a WebSocket connection to a player
type Connection struct {
	id       string
	identity models.Identity
	conn     *websocket.Conn
	send     chan []byte
	manager  *ConnectionManager

	ConnectedAt time.Time

	mu       sync.Mutex
	roomCode string
	closed   bool
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024, // 1KB max message size
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBufferSize:  64,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig, sessions SessionHandler) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:   config,
		sessions: sessions,
		ctx:      context.Background(),
	}
}

// Start binds inbound command handling to ctx and closes every
// connection once ctx is done.
func (cm *ConnectionManager) Start(ctx context.Context) {
	cm.mu.Lock()
	cm.ctx = ctx
	cm.mu.Unlock()
	log.Info().Msg("connection manager started")

	<-ctx.Done()

	cm.mu.RLock()
	open := make([]*Connection, 0, len(cm.connections))
	for _, c := range cm.connections {
		open = append(open, c)
	}
	cm.mu.RUnlock()
	for _, c := range open {
		c.conn.Close()
	}
	log.Info().Int("connections", len(open)).Msg("connection manager shutting down")
}

func (cm *ConnectionManager) baseContext() context.Context {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.ctx
}

// UpgradeConnection upgrades an HTTP connection to WebSocket for an
// already authenticated identity.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, identity models.Identity) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		id:          uuid.New().String(),
		identity:    identity,
		conn:        conn,
		send:        make(chan []byte, cm.config.SendBufferSize),
		manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	cm.sessions.Connect(connection)
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.id).
		Int64("user_id", identity.ID).
		Str("username", identity.Username).
		Msg("WebSocket connection established")

	return nil
}

// registerConnection adds a connection to the manager
func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn.id] = conn

	log.Debug().
		Str("connection_id", conn.id).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

// unregisterConnection removes a connection from the manager. It reports
// whether this call did the removal.
func (cm *ConnectionManager) unregisterConnection(conn *Connection) bool {
	cm.mu.Lock()
	_, exists := cm.connections[conn.id]
	delete(cm.connections, conn.id)
	cm.mu.Unlock()
	if !exists {
		return false
	}

	conn.mu.Lock()
	conn.closed = true
	close(conn.send)
	conn.mu.Unlock()

	log.Info().
		Str("connection_id", conn.id).
		Int64("user_id", conn.identity.ID).
		Msg("connection unregistered")
	return true
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	users := make(map[int64]struct{}, len(cm.connections))
	for _, c := range cm.connections {
		users[c.identity.ID] = struct{}{}
	}
	return map[string]interface{}{
		"total_connections": len(cm.connections),
		"unique_users":      len(users),
	}
}

func (c *Connection) ID() string                { return c.id }
func (c *Connection) Identity() models.Identity { return c.identity }

func (c *Connection) RoomCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode
}

func (c *Connection) SetRoomCode(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// Send queues msg for the write pump. Delivery is best effort: messages
// to a closed or backed-up connection are dropped.
func (c *Connection) Send(msg room.Outbound) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("type", string(msg.Type)).Msg("failed to marshal outbound message")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Warn().
			Str("connection_id", c.id).
			Str("type", string(msg.Type)).
			Msg("connection send buffer full, dropping message")
	}
}

// writePump handles sending messages to the WebSocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				// Channel was closed
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump feeds inbound frames to the session handler until the
// connection fails, then runs disconnect cleanup exactly once.
func (c *Connection) readPump() {
	defer func() {
		if c.manager.unregisterConnection(c) {
			c.manager.sessions.HandleDisconnect(c)
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		c.manager.sessions.HandleMessage(c.manager.baseContext(), c, message)
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}
