package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"tankwatch/backend/services/ingest-service/internal/fuel"
)

// Envelope is the frame written to dashboard sockets.
type Envelope struct {
	Event  string      `json:"event"`
	Device string      `json:"device,omitempty"`
	Data   interface{} `json:"data"`
}

// Hub tracks dashboard subscribers. A subscriber with an empty device receives every event.
type Hub struct {
	mu           sync.RWMutex
	clients      map[*Client]struct{}
	pingInterval time.Duration
	logger       *zap.Logger
}

// NewHub builds a subscriber registry.
func NewHub(pingInterval time.Duration, logger *zap.Logger) *Hub {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Hub{
		clients:      make(map[*Client]struct{}),
		pingInterval: pingInterval,
		logger:       logger,
	}
}

// Add registers a client.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

// Remove unregisters a client and closes its outgoing queue.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

// Subscribers returns how many clients would receive events for device.
func (h *Hub) Subscribers(device string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.clients {
		if c.wants(device) {
			n++
		}
	}
	return n
}

// Channel returns the push target for device, or nil when nobody listens.
func (h *Hub) Channel(device string) fuel.Channel {
	if h.Subscribers(device) == 0 {
		return nil
	}
	return &deviceChannel{hub: h, device: device}
}

// Broadcast sends an event to every subscriber interested in device.
func (h *Hub) Broadcast(device, event string, payload interface{}) error {
	frame, err := json.Marshal(Envelope{Event: event, Device: device, Data: payload})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(device) {
			continue
		}
		select {
		case c.send <- frame:
		default:
			h.logger.Warn("dropping live event, buffer full", zap.String("device", device), zap.String("event", event))
		}
	}
	return nil
}

// Start pings subscribers until ctx is cancelled, then disconnects them all.
func (h *Hub) Start(ctx context.Context) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.pingAll((*Client).Ping)
		}
	}
}

// pingAll pings a snapshot of the clients so a slow peer never holds the registry lock.
func (h *Hub) pingAll(ping func(*Client) error) {
	for _, c := range h.snapshot() {
		if err := ping(c); err != nil {
			h.logger.Debug("live socket ping failed", zap.String("device", c.device), zap.Error(err))
		}
	}
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	return clients
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

type deviceChannel struct {
	hub    *Hub
	device string
}

func (d *deviceChannel) Emit(event string, payload interface{}) error {
	return d.hub.Broadcast(d.device, event, payload)
}
