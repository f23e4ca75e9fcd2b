package domain

import "github.com/google/uuid"

// EventType defines the type of real-time event.
type EventType string

const (
	EventTicketCreated   EventType = "ticket.created"
	EventTicketUpdated   EventType = "ticket.updated"
	EventMessageCreated  EventType = "message.created"
	EventTopicCreated    EventType = "topic.created"
	EventSettingsUpdated EventType = "settings.updated"
	EventPong            EventType = "PONG"
)

// Event is the payload sent over WebSocket.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	// TicketID routes message events to the ticket's room; nil events go to everyone.
	TicketID *uuid.UUID `json:"ticketId,omitempty"`
}

// IsTicketScoped reports whether only subscribers of TicketID receive the event.
func (e Event) IsTicketScoped() bool {
	return e.Type == EventMessageCreated && e.TicketID != nil
}
