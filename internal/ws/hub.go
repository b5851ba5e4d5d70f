// Package ws manages websocket subscribers and best-effort progress delivery.
package ws

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/doc2dev/doc2dev/internal/models"
)

// subscriber is one registered websocket connection with a write lock so
// events for a single subscriber are delivered in order.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub tracks live websocket subscribers by client ID. It is the only state
// shared across concurrently running ingest jobs; all methods are safe for
// concurrent use.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*subscriber
	upgrader    websocket.Upgrader
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]*subscriber),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// register adds a connection under the given client ID, replacing any
// previous connection for the same ID, and returns the new entry.
func (h *Hub) register(clientID string, conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn}

	h.mu.Lock()
	if old, ok := h.subscribers[clientID]; ok {
		_ = old.conn.Close()
	}
	h.subscribers[clientID] = sub
	count := len(h.subscribers)
	h.mu.Unlock()

	slog.Info("websocket client connected", "client_id", clientID, "connections", count)
	return sub
}

// evict removes a client's entry only while it still maps to the given
// subscriber, so a replacement connection registered in the meantime is left
// alone.
func (h *Hub) evict(clientID string, sub *subscriber) {
	h.mu.Lock()
	ok := h.subscribers[clientID] == sub
	if ok {
		delete(h.subscribers, clientID)
	}
	count := len(h.subscribers)
	h.mu.Unlock()

	_ = sub.conn.Close()
	if ok {
		slog.Info("websocket client disconnected", "client_id", clientID, "connections", count)
	}
}

// Deliver sends a progress event to the subscriber with the given ID.
// Returns false when no such subscriber exists or the write fails; a failed
// write deregisters the subscriber. Never returns an error and never blocks
// the caller beyond the single write.
func (h *Hub) Deliver(clientID string, event models.ProgressEvent) bool {
	h.mu.RLock()
	sub, ok := h.subscribers[clientID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	sub.mu.Lock()
	err := sub.conn.WriteJSON(event)
	sub.mu.Unlock()

	if err != nil {
		slog.Warn("websocket delivery failed, dropping subscriber", "client_id", clientID, "error", err)
		h.evict(clientID, sub)
		return false
	}
	return true
}

// Count returns the number of live subscribers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeWS upgrades /ws/{client_id} requests and keeps the connection
// registered until the peer disconnects. The read loop only drains control
// and keep-alive frames; the server never expects client messages.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	clientID := strings.TrimPrefix(r.URL.Path, "/ws/")
	if clientID == "" || strings.Contains(clientID, "/") {
		http.Error(w, "client id required", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "client_id", clientID, "error", err)
		return
	}

	sub := h.register(clientID, conn)
	defer h.evict(clientID, sub)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
