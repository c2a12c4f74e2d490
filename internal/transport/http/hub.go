package http

import (
	"sync"

	"github.com/sirupsen/logrus"

	"trivia-room-service/internal/domain"
)

const sendBuffer = 64

// Hub maps connection ids to their outbound queues. It is the app.Notifier the
// controller talks to.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan domain.Event
	log     logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		clients: make(map[string]chan domain.Event),
		log:     logger,
	}
}

// Register opens the outbound queue for a connection. The channel is closed by Unregister.
func (h *Hub) Register(connectionID string) <-chan domain.Event {
	ch := make(chan domain.Event, sendBuffer)
	h.mu.Lock()
	h.clients[connectionID] = ch
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unregister(connectionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[connectionID]; ok {
		delete(h.clients, connectionID)
		close(ch)
	}
}

// Notify never blocks: a connection that cannot keep up loses the event.
func (h *Hub) Notify(connectionID string, event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.clients[connectionID]
	if !ok {
		return
	}
	select {
	case ch <- event:
	default:
		h.log.WithFields(logrus.Fields{"conn": connectionID, "event": event.Type}).Warn("send buffer full, dropping event")
	}
}

// Connections reports how many sockets are registered.
func (h *Hub) Connections() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
