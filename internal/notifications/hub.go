package notifications

import (
	"context"
	"errors"
	"sync"

	"ripple/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 12
	// Max total connections
	maxTotalConns = 10000
)

// Hub is a websocket hub that maps userID -> set of Clients. Each client
// carries its own set of broker subscriptions; the hub runs their
// teardowns when the client disconnects, so no subscription outlives its
// socket.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	teardowns  map[*Client][]func()
	totalConns int
	logger     *observability.WSLogger
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	h := &Hub{
		conns:     make(map[string]map[*Client]struct{}),
		teardowns: make(map[*Client][]func()),
	}
	h.logger = observability.NewWSLogger(h.Name())
	return h
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "subscription hub" }

// Register a connection for a given userID. Returns the Client or an
// error if connection limits are exceeded.
func (h *Hub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()

	if h.totalConns >= maxTotalConns {
		h.mu.Unlock()
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}

	if len(m) >= maxConnsPerUser {
		h.mu.Unlock()
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	h.mu.Unlock()

	observability.WebSocketConnectionsTotal.Inc()
	h.logger.LogConnect(context.Background(), userID)

	return client, nil
}

// AddTeardown attaches fn to client so it runs exactly once when the
// client unregisters. Used for broker unsubscribe functions.
func (h *Hub) AddTeardown(client *Client, fn func()) {
	h.mu.Lock()
	h.teardowns[client] = append(h.teardowns[client], fn)
	h.mu.Unlock()
}

// UnregisterClient removes a client and runs its teardowns.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
	fns := h.teardowns[client]
	delete(h.teardowns, client)
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}

	if removed {
		observability.WebSocketConnectionsTotal.Dec()
		h.logger.LogDisconnect(context.Background(), client.UserID, "unregistered")
	}
}

// Broadcast sends message to all connections for userID.
func (h *Hub) Broadcast(userID string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if clients, ok := h.conns[userID]; ok {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// IsOnline reports whether a user currently has at least one active
// websocket connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.conns[userID]
	return ok && len(clients) > 0
}

// BroadcastAll sends message to every connected client.
func (h *Hub) BroadcastAll(message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(message)
		}
	}
}

// Shutdown gracefully closes all websocket connections.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	var fns []func()
	for _, clientFns := range h.teardowns {
		fns = append(fns, clientFns...)
	}
	h.teardowns = make(map[*Client][]func())

	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				h.logger.LogError(context.Background(), userID, err, "shutdown close message")
			}
			if err := client.Conn.Close(); err != nil {
				h.logger.LogError(context.Background(), userID, err, "shutdown close")
			}
		}
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}

	return nil
}
