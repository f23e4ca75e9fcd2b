package websocket

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gamemod/support-desk/internal/adapters/primary/dto"
	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024

	sendBufferSize = 256
)

// Client message types.
const (
	MessageSubscribe   = "SUBSCRIBE_TO_TICKET"
	MessageUnsubscribe = "UNSUBSCRIBE_FROM_TICKET"
	MessagePing        = "PING"
)

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Buffered channel of outbound events.
	Send chan domain.Event

	// ID identifies this connection in logs.
	ID uuid.UUID

	subscriptions map[uuid.UUID]bool

	// closeOnce ensures the Send channel is only closed once
	closeOnce sync.Once

	// mu protects subscriptions
	mu sync.RWMutex

	logger *slog.Logger
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		Hub:           hub,
		Conn:          conn,
		Send:          make(chan domain.Event, sendBufferSize),
		ID:            id,
		subscriptions: make(map[uuid.UUID]bool),
		logger:        logger.With("client_id", id.String()),
	}
}

// CloseSend safely closes the Send channel exactly once
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// AddSubscription adds a subscription to a ticket
func (c *Client) AddSubscription(ticketID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscriptions[ticketID] = true
}

// RemoveSubscription removes a subscription from a ticket
func (c *Client) RemoveSubscription(ticketID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscriptions, ticketID)
}

// HasSubscription checks if the client is subscribed to a ticket
func (c *Client) HasSubscription(ticketID uuid.UUID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subscriptions[ticketID]
}

// GetSubscriptions returns a copy of all subscriptions
func (c *Client) GetSubscriptions() []uuid.UUID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	subs := make([]uuid.UUID, 0, len(c.subscriptions))
	for ticketID := range c.subscriptions {
		subs = append(subs, ticketID)
	}
	return subs
}

// ReadPump pumps messages from the websocket connection to the hub.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Leave(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	if err := c.Conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}

		c.handleIncomingMessage(message)
	}
}

// WritePump pumps events from the hub to the websocket connection.
// This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			frame, err := EncodeEvent(event)
			if err != nil {
				c.logger.Error("failed to encode event", "event_type", event.Type, "error", err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// EncodeEvent renders an event as a JSON text frame.
func EncodeEvent(event domain.Event) ([]byte, error) {
	return json.Marshal(dto.FromEvent(event))
}

// ClientMessage is the structure for messages sent from the client.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SubscribePayload is the payload for subscribe/unsubscribe messages
type SubscribePayload struct {
	TicketID string `json:"ticketId"`
}

func (c *Client) handleIncomingMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal client message", "error", err)
		return
	}

	switch msg.Type {
	case MessageSubscribe:
		if ticketID, ok := c.parseTicketID(msg.Payload); ok {
			c.Hub.subscribeClientToTicket(c, ticketID)
		}

	case MessageUnsubscribe:
		if ticketID, ok := c.parseTicketID(msg.Payload); ok {
			c.Hub.unsubscribeClientFromTicket(c, ticketID)
		}

	case MessagePing:
		c.sendPong()

	default:
		c.logger.Debug("received unknown message type", "type", msg.Type)
	}
}

func (c *Client) parseTicketID(payload json.RawMessage) (uuid.UUID, bool) {
	var p SubscribePayload
	if len(payload) == 0 {
		c.logger.Warn("missing subscribe payload")
		return uuid.Nil, false
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		c.logger.Warn("failed to unmarshal subscribe payload", "error", err)
		return uuid.Nil, false
	}

	ticketID, err := uuid.Parse(p.TicketID)
	if err != nil {
		c.logger.Warn("invalid ticket ID in subscribe request", "ticket_id", p.TicketID)
		return uuid.Nil, false
	}
	return ticketID, true
}

func (c *Client) sendPong() {
	defer func() {
		// Send may already be closed by the hub
		_ = recover()
	}()

	select {
	case c.Send <- domain.Event{Type: domain.EventPong}:
	default:
	}
}
