package services

import (
	"context"
	"errors"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/google/uuid"
)

// TicketService implements business logic for ticket management
type TicketService struct {
	ticketRepo  ports.TicketRepository
	topicRepo   ports.TopicRepository
	broadcaster ports.EventBroadcaster
	now         func() time.Time
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service
func NewTicketService(
	ticketRepo ports.TicketRepository,
	topicRepo ports.TopicRepository,
	broadcaster ports.EventBroadcaster,
	opts ...Option,
) ports.TicketService {
	o := applyOptions(opts)
	return &TicketService{
		ticketRepo:  ticketRepo,
		topicRepo:   topicRepo,
		broadcaster: broadcaster,
		now:         o.now,
	}
}

// ListTickets returns every ticket, newest first.
func (s *TicketService) ListTickets(ctx context.Context) ([]*domain.Ticket, error) {
	return s.ticketRepo.List(ctx)
}

// CreateTicket handles the use case for submitting a new ticket
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	// 1. Create domain entity with validation
	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:          params.Title,
		Body:           params.Body,
		PlayerID:       params.PlayerID,
		TopicID:        params.TopicID,
		OrganizationID: params.OrganizationID,
	}, s.now())
	if err != nil {
		return nil, err
	}

	// 2. The topic must exist before anything is written
	topic, err := s.resolveTopic(ctx, params.TopicID)
	if err != nil {
		return nil, err
	}

	// 3. Persist the ticket
	created, err := s.ticketRepo.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if created.Topic == nil {
		created.Topic = topic.Ref()
	}

	s.broadcast(domain.Event{Type: domain.EventTicketCreated, Payload: created})
	return created, nil
}

// GetTicket retrieves a single ticket.
func (s *TicketService) GetTicket(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

// UpdateTicket applies a sparse patch. The patch is validated before the
// ticket is looked up, so an empty patch fails regardless of existence.
func (s *TicketService) UpdateTicket(ctx context.Context, id uuid.UUID, patch domain.TicketPatch) (*domain.Ticket, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	if patch.TopicID != nil {
		if _, err := s.resolveTopic(ctx, *patch.TopicID); err != nil {
			return nil, err
		}
	}

	updated, err := s.ticketRepo.Update(ctx, id, patch, domain.Timestamp(s.now()))
	if err != nil {
		return nil, err
	}

	s.broadcast(domain.Event{Type: domain.EventTicketUpdated, Payload: updated})
	return updated, nil
}

// ListMessages returns a ticket's conversation in chronological order.
// The repository reports ErrTicketNotFound for an unknown ticket.
func (s *TicketService) ListMessages(ctx context.Context, ticketID uuid.UUID) ([]*domain.TicketMessage, error) {
	return s.ticketRepo.ListMessages(ctx, ticketID)
}

// CreateMessage appends a message to a ticket.
func (s *TicketService) CreateMessage(ctx context.Context, params ports.CreateMessageParams) (*domain.TicketMessage, error) {
	message, err := domain.NewTicketMessage(params.TicketID, params.Body, params.AuthorType, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.ticketRepo.CreateMessage(ctx, message)
	if err != nil {
		return nil, err
	}

	ticketID := created.TicketID
	s.broadcast(domain.Event{
		Type:     domain.EventMessageCreated,
		Payload:  created,
		TicketID: &ticketID,
	})
	return created, nil
}

// resolveTopic maps a missing topic to ErrTopicNotFound so callers answer
// 400 rather than 404.
func (s *TicketService) resolveTopic(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	topic, err := s.topicRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrTopicNotFound) || errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrTopicNotFound
		}
		return nil, err
	}
	return topic, nil
}

func (s *TicketService) broadcast(event domain.Event) {
	if s.broadcaster == nil {
		return
	}
	_ = s.broadcaster.Broadcast(event)
}
