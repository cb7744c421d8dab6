// Package realtime owns the set of live websocket subscribers and fans
// broadcast events out to them. A subscriber that is slow, closed or broken
// is removed on the spot; delivery is best-effort and a single bad client
// never blocks the rest.
package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"stockstream/models"
)

const (
	// Per-client outbound buffer. A client that lets this fill up is
	// treated the same as a dead one.
	clientSendBuffer = 256

	pongTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 512
)

// Client is an opaque handle for one live subscriber connection. The hub is
// the sole owner of the live set; once a client is unregistered its handle
// never becomes eligible for delivery again.
type Client struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// Hub tracks live subscribers and delivers events to all of them.
// Membership changes are linearizable with respect to Broadcast: everything
// happens under one mutex.
type Hub struct {
	mu      sync.Mutex
	clients map[*Client]bool
	closed  bool

	maxClients  int
	sendTimeout time.Duration
	upgrader    websocket.Upgrader
}

// NewHub creates a hub that accepts at most maxClients concurrent
// subscribers and bounds each websocket write by sendTimeout.
func NewHub(maxClients int, sendTimeout time.Duration) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		maxClients:  maxClients,
		sendTimeout: sendTimeout,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Register adds a new subscriber handle for conn. The handle is eligible
// for every subsequent broadcast. Returns nil when the hub is at capacity
// or shut down.
func (h *Hub) Register(conn *websocket.Conn) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || len(h.clients) >= h.maxClients {
		return nil
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}
	h.clients[client] = true
	log.Printf("WebSocket client connected. Total clients: %d", len(h.clients))
	return client
}

// Unregister removes a subscriber handle. Idempotent and safe to call
// concurrently with Broadcast.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

func (h *Hub) removeLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.close()
	log.Printf("WebSocket client disconnected. Total clients: %d", len(h.clients))
}

// ClientCount returns the number of live subscribers.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast delivers message to every currently registered subscriber.
// Clients whose buffers are full are dropped and unregistered; their
// failure is never surfaced to the caller. Returns how many clients were
// delivered to and how many were reaped.
func (h *Hub) Broadcast(message models.WSMessage) (delivered, dropped int) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling broadcast message: %v", err)
		return 0, 0
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	var dead []*Client
	for client := range h.clients {
		select {
		case client.send <- data:
			delivered++
		default:
			dead = append(dead, client)
		}
	}
	for _, client := range dead {
		h.removeLocked(client)
		dropped++
	}
	return delivered, dropped
}

// SendTo delivers message to a single subscriber. On failure the client is
// unregistered, same as during a broadcast. Returns whether the message was
// queued.
func (h *Hub) SendTo(client *Client, message models.WSMessage) bool {
	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling unicast message: %v", err)
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		h.removeLocked(client)
		return false
	}
}

// Close tears down every subscriber and rejects further registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for client := range h.clients {
		delete(h.clients, client)
		client.close()
		if client.conn != nil {
			client.conn.Close()
		}
	}
	log.Println("WebSocket hub shut down")
}
