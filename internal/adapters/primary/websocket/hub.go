package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/gamemod/support-desk/internal/infrastructure/metrics"
	"github.com/google/uuid"
)

// Hub maintains the set of active Clients and broadcasts events to them.
type Hub struct {
	// clients holds every live connection
	clients map[*Client]bool

	// rooms maps ticket IDs to subscribed clients
	rooms map[uuid.UUID]map[*Client]bool

	// broadcast channel for events
	broadcast chan domain.Event

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	// done is closed when Run returns
	done chan struct{}

	// mu protects the clients and rooms maps
	mu sync.RWMutex

	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Broadcast queues an event for delivery. A full queue drops the event
// rather than blocking the request that produced it.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		metrics.WSEventsDropped.Inc()
		h.logger.Warn("broadcast channel full, dropping event",
			"event_type", event.Type,
		)
	}
	return nil
}

// Run starts the hub's event loop until ctx is cancelled. On exit every
// client's send channel is closed.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Join hands a client to the running hub. It reports false once the hub
// has stopped, in which case the caller owns closing the connection.
func (h *Hub) Join(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Leave hands a client back to the hub; it returns immediately once the
// hub has stopped.
func (h *Hub) Leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	metrics.WSConnectionsActive.Inc()

	h.logger.Info("client registered",
		"client_id", client.ID,
		"total_connections", len(h.clients),
	)
}

// unregisterClient removes a client from the hub and all rooms
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	metrics.WSConnectionsActive.Dec()

	for _, ticketID := range client.GetSubscriptions() {
		h.leaveRoom(client, ticketID)
	}

	client.CloseSend()

	h.logger.Info("client unregistered", "client_id", client.ID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.CloseSend()
		metrics.WSConnectionsActive.Dec()
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[uuid.UUID]map[*Client]bool)
}

// recipients returns the clients an event is delivered to: the ticket's
// room for message events, everyone otherwise.
func (h *Hub) recipients(event domain.Event) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	set := h.clients
	if event.IsTicketScoped() {
		set = h.rooms[*event.TicketID]
	}

	clients := make([]*Client, 0, len(set))
	for client := range set {
		clients = append(clients, client)
	}
	return clients
}

func (h *Hub) broadcastEvent(event domain.Event) {
	clients := h.recipients(event)

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"client_count", len(clients),
	)

	for _, client := range clients {
		select {
		case client.Send <- event:
			metrics.WSEventsSent.WithLabelValues(string(event.Type)).Inc()
		default:
			h.logger.Warn("client send buffer full, unregistering",
				"client_id", client.ID,
			)
			h.unregisterClient(client)
		}
	}
}

// subscribeClientToTicket adds a client to a ticket's room
func (h *Hub) subscribeClientToTicket(client *Client, ticketID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	if h.rooms[ticketID] == nil {
		h.rooms[ticketID] = make(map[*Client]bool)
	}
	h.rooms[ticketID][client] = true
	client.AddSubscription(ticketID)

	h.logger.Debug("client subscribed to ticket",
		"client_id", client.ID,
		"ticket_id", ticketID,
	)
}

// unsubscribeClientFromTicket removes a client from a ticket's room
func (h *Hub) unsubscribeClientFromTicket(client *Client, ticketID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveRoom(client, ticketID)
	client.RemoveSubscription(ticketID)
}

// leaveRoom must be called with mu held.
func (h *Hub) leaveRoom(client *Client, ticketID uuid.UUID) {
	if room, ok := h.rooms[ticketID]; ok {
		delete(room, client)
		if len(room) == 0 {
			delete(h.rooms, ticketID)
		}
	}
}

// GetClientCount returns the total number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetRoomCount returns the number of active rooms
func (h *Hub) GetRoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// GetClientsInRoom returns the number of clients subscribed to a ticket
func (h *Hub) GetClientsInRoom(ticketID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[ticketID])
}
