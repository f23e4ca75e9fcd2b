package ports

import (
	"context"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/google/uuid"
)

// TicketRepository persists tickets and their message sub-records.
// Returned tickets carry their resolved topic reference, or nil.
type TicketRepository interface {
	List(ctx context.Context) ([]*domain.Ticket, error)
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	// Update applies the provided patch fields and sets updated_at.
	// Returns apperrors.ErrTicketNotFound when no ticket matches.
	Update(ctx context.Context, id uuid.UUID, patch domain.TicketPatch, updatedAt time.Time) (*domain.Ticket, error)
	ListMessages(ctx context.Context, ticketID uuid.UUID) ([]*domain.TicketMessage, error)
	// CreateMessage appends the message and touches the parent ticket's
	// updated_at in one atomic unit.
	CreateMessage(ctx context.Context, message *domain.TicketMessage) (*domain.TicketMessage, error)
}

// TicketAnalyticsRepository reports ticket creations grouped by UTC day
// and status for tickets created within [from, to).
type TicketAnalyticsRepository interface {
	CountByDayAndStatus(ctx context.Context, from, to time.Time) ([]domain.DailyStatusCount, error)
}

// TopicRepository persists topics. Names are unique case-insensitively.
type TopicRepository interface {
	List(ctx context.Context) ([]*domain.Topic, error)
	Create(ctx context.Context, topic *domain.Topic) (*domain.Topic, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error)
}

// SettingsRepository persists the singleton staff settings record.
type SettingsRepository interface {
	// GetOrCreate inserts defaults if no record exists and returns the
	// stored record.
	GetOrCreate(ctx context.Context, defaults domain.StaffSettings) (*domain.StaffSettings, error)
	Save(ctx context.Context, settings *domain.StaffSettings) (*domain.StaffSettings, error)
}

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Storage groups the repositories a backend provides.
type Storage struct {
	Tickets   TicketRepository
	Analytics TicketAnalyticsRepository
	Topics    TopicRepository
	Settings  SettingsRepository
	Health    HealthChecker
	Close     func()
}
