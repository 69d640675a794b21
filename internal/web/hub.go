package web

import (
	"sync"

	"github.com/codefionn/rechenschnell/internal/logger"
)

// outbound is a message waiting for delivery. With target set it goes to that
// client only, otherwise to every client of sessionID except the sender.
type outbound struct {
	target    *Client
	sessionID string
	except    *Client
	msg       *WebMessage
}

// Hub maintains the set of active clients and fans state changes out to the
// other clients of the same session.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	closing    chan string
	mu         sync.RWMutex
	quit       chan struct{}
	stopOnce   sync.Once
	metrics    *Metrics
}

// NewHub creates a new hub
func NewHub(metrics *Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		closing:    make(chan string),
		quit:       make(chan struct{}),
		metrics:    metrics,
	}
}

// Run starts the hub. On Stop every client send channel is closed, which makes
// the write pumps close their connections.
func (h *Hub) Run() {
	logger.Info("WebSocket hub started")
	defer logger.Info("WebSocket hub stopped")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.metrics.clients.Inc()
			logger.Debug("Client registered: %s (session %s)", client.ID, client.session.ID)

		case client := <-h.unregister:
			h.remove(client)
			logger.Debug("Client unregistered: %s", client.ID)

		case sessionID := <-h.closing:
			h.mu.RLock()
			var ended []*Client
			for client := range h.clients {
				if client.session.ID == sessionID {
					ended = append(ended, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range ended {
				h.remove(client)
			}
			if len(ended) > 0 {
				logger.Debug("Closed %d client(s) of ended session %s", len(ended), sessionID)
			}

		case m := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients {
				if m.target != nil && client != m.target {
					continue
				}
				if m.target == nil && (client == m.except || client.session.ID != m.sessionID) {
					continue
				}
				select {
				case client.send <- m.msg:
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				logger.Warn("Client %s is not reading, dropping it", client.ID)
				h.remove(client)
			}

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
				h.metrics.clients.Dec()
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.metrics.clients.Dec()
	}
}

// Stop stops the hub. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Register registers a new client. It reports false once the hub is stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister unregisters a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// CloseSession disconnects every client of sessionID. It is used when the
// session is deleted or evicted.
func (h *Hub) CloseSession(sessionID string) {
	select {
	case h.closing <- sessionID:
	case <-h.quit:
	}
}

// HasSession reports whether any registered client uses sessionID.
func (h *Hub) HasSession(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.session.ID == sessionID {
			return true
		}
	}
	return false
}

// Send queues msg for a single client. All writes to a client's send channel
// happen on the hub goroutine, so a removed client is never written to.
func (h *Hub) Send(client *Client, msg *WebMessage) {
	h.enqueue(outbound{target: client, msg: msg})
}

// BroadcastSession sends msg to all clients of sessionID except the sender.
func (h *Hub) BroadcastSession(sessionID string, except *Client, msg *WebMessage) {
	h.enqueue(outbound{sessionID: sessionID, except: except, msg: msg})
}

func (h *Hub) enqueue(m outbound) {
	select {
	case h.broadcast <- m:
	case <-h.quit:
	default:
		logger.Warn("Broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
