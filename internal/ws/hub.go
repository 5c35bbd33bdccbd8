package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event is one message pushed to a staff member's feed.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// EventNotification carries a staff message such as a new step assignment.
const EventNotification = "notification"

type userEvent struct {
	UserID uuid.UUID
	Event  Event
}

// Hub fans events out to the open connections of each staff member. A user
// may hold several connections (tablet and phone); each gets a copy.
type Hub struct {
	rooms map[uuid.UUID]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *userEvent

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates a new Hub. Start it with Run.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *userEvent, 256),
		logger:     logger,
	}
}

// Run is the hub loop. Start it once with go hub.Run().
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.rooms[client.userID] == nil {
				h.rooms[client.userID] = make(map[*Client]bool)
			}
			h.rooms[client.userID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case ev := <-h.broadcast:
			message, err := json.Marshal(ev.Event)
			if err != nil {
				h.logger.Warn("ws event marshal failed", zap.String("type", ev.Event.Type), zap.Error(err))
				continue
			}

			h.mu.Lock()
			for client := range h.rooms[ev.UserID] {
				select {
				case client.send <- message:
				default:
					h.logger.Warn("ws client too slow, disconnecting", zap.String("user_id", ev.UserID.String()))
					h.drop(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// drop removes a client and closes its send channel. Callers hold mu.
func (h *Hub) drop(client *Client) {
	clients, ok := h.rooms[client.userID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.rooms, client.userID)
	}
}

// Connected reports whether the user has at least one open connection.
func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID]) > 0
}

// SendToUser queues an event for every connection of one user.
func (h *Hub) SendToUser(userID uuid.UUID, event Event) {
	h.broadcast <- &userEvent{UserID: userID, Event: event}
}
