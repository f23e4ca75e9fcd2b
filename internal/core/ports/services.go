package ports

import (
	"context"

	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/google/uuid"
)

// CreateTicketParams defines the required input for creating a new ticket.
type CreateTicketParams struct {
	Title          string
	Body           string
	PlayerID       string
	TopicID        uuid.UUID
	OrganizationID *uuid.UUID
}

// CreateMessageParams defines the input for appending a ticket message.
type CreateMessageParams struct {
	TicketID   uuid.UUID
	Body       string
	AuthorType domain.AuthorType
}

// CreateTopicParams defines the input for creating a topic.
type CreateTopicParams struct {
	Name        string
	Description *string
}

// UpdateSettingsParams carries the sub-objects to replace; nil means keep.
type UpdateSettingsParams struct {
	Theme *domain.ThemeSettings
	Site  *domain.SiteSettings
}

// TicketService defines the core business operations for managing tickets.
type TicketService interface {
	ListTickets(ctx context.Context) ([]*domain.Ticket, error)
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, id uuid.UUID, patch domain.TicketPatch) (*domain.Ticket, error)
	ListMessages(ctx context.Context, ticketID uuid.UUID) ([]*domain.TicketMessage, error)
	CreateMessage(ctx context.Context, params CreateMessageParams) (*domain.TicketMessage, error)
}

// TopicService defines the port for topic business logic.
type TopicService interface {
	ListTopics(ctx context.Context) ([]*domain.Topic, error)
	CreateTopic(ctx context.Context, params CreateTopicParams) (*domain.Topic, error)
}

// AnalyticsService builds the per-day status series.
type AnalyticsService interface {
	StatusSeries(ctx context.Context, days int) (*domain.StatusSeries, error)
}

// SettingsService defines the port for staff settings.
type SettingsService interface {
	GetSettings(ctx context.Context) (*domain.StaffSettings, error)
	UpdateSettings(ctx context.Context, params UpdateSettingsParams) (*domain.StaffSettings, error)
}

// EventBroadcaster defines the port for pushing real-time events.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
