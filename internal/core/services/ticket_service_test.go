package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/gamemod/support-desk/internal/core/mocks"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/gamemod/support-desk/internal/core/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 9, 30, 0, 123456789, time.UTC)

func fixedClock() time.Time { return fixedNow }

type ticketFixture struct {
	tickets     *mocks.MockTicketRepository
	topics      *mocks.MockTopicRepository
	broadcaster *mocks.MockEventBroadcaster
	svc         ports.TicketService
}

func newTicketFixture() *ticketFixture {
	f := &ticketFixture{
		tickets:     mocks.NewMockTicketRepository(),
		topics:      mocks.NewMockTopicRepository(),
		broadcaster: mocks.NewMockEventBroadcaster(),
	}
	f.svc = services.NewTicketService(f.tickets, f.topics, f.broadcaster, services.WithClock(fixedClock))
	return f
}

func TestTicketService_CreateTicket(t *testing.T) {
	ctx := context.Background()
	topic := &domain.Topic{ID: uuid.New(), Name: "Billing"}

	params := ports.CreateTicketParams{
		Title:    "Refund",
		Body:     "Charged twice",
		PlayerID: "player-1",
		TopicID:  topic.ID,
	}

	t.Run("success", func(t *testing.T) {
		f := newTicketFixture()

		f.topics.On("GetByID", ctx, topic.ID).Return(topic, nil)
		f.tickets.On("Create", ctx, mock.AnythingOfType("*domain.Ticket")).
			Return(func(_ context.Context, ticket *domain.Ticket) *domain.Ticket { return ticket }, nil)
		f.broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.Type == domain.EventTicketCreated
		})).Return(nil)

		ticket, err := f.svc.CreateTicket(ctx, params)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, ticket.Status)
		assert.Equal(t, domain.Timestamp(fixedNow), ticket.CreatedAt)
		assert.Equal(t, ticket.CreatedAt, ticket.UpdatedAt)
		assert.Equal(t, &domain.TopicRef{ID: topic.ID, Name: "Billing"}, ticket.Topic)

		f.topics.AssertExpectations(t)
		f.tickets.AssertExpectations(t)
		f.broadcaster.AssertExpectations(t)
	})

	t.Run("unknown topic writes nothing", func(t *testing.T) {
		f := newTicketFixture()

		f.topics.On("GetByID", ctx, topic.ID).Return(nil, apperrors.ErrTopicNotFound)

		ticket, err := f.svc.CreateTicket(ctx, params)

		assert.Nil(t, ticket)
		assert.ErrorIs(t, err, apperrors.ErrTopicNotFound)
		f.tickets.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})

	t.Run("validation error before any lookup", func(t *testing.T) {
		f := newTicketFixture()

		ticket, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{TopicID: topic.ID})

		assert.Nil(t, ticket)
		var validationErrs *apperrors.ValidationErrors
		require.ErrorAs(t, err, &validationErrs)
		f.topics.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestTicketService_UpdateTicket(t *testing.T) {
	ctx := context.Background()
	ticketID := uuid.New()

	t.Run("empty patch fails without touching storage", func(t *testing.T) {
		f := newTicketFixture()

		ticket, err := f.svc.UpdateTicket(ctx, ticketID, domain.TicketPatch{})

		assert.Nil(t, ticket)
		assert.ErrorIs(t, err, apperrors.ErrEmptyPatch)
		f.tickets.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown topic leaves ticket unchanged", func(t *testing.T) {
		f := newTicketFixture()
		missing := uuid.New()

		f.topics.On("GetByID", ctx, missing).Return(nil, apperrors.ErrTopicNotFound)

		_, err := f.svc.UpdateTicket(ctx, ticketID, domain.TicketPatch{TopicID: &missing})

		assert.ErrorIs(t, err, apperrors.ErrTopicNotFound)
		f.tickets.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("status change from closed back to open", func(t *testing.T) {
		f := newTicketFixture()
		status := domain.StatusOpen
		patch := domain.TicketPatch{Status: &status}

		updated := &domain.Ticket{ID: ticketID, Status: domain.StatusOpen, UpdatedAt: domain.Timestamp(fixedNow)}
		f.tickets.On("Update", ctx, ticketID, patch, domain.Timestamp(fixedNow)).Return(updated, nil)
		f.broadcaster.On("Broadcast", mock.Anything).Return(nil)

		ticket, err := f.svc.UpdateTicket(ctx, ticketID, patch)

		require.NoError(t, err)
		assert.Equal(t, domain.StatusOpen, ticket.Status)
		f.tickets.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		f := newTicketFixture()
		title := "new"
		patch := domain.TicketPatch{Title: &title}

		f.tickets.On("Update", ctx, ticketID, patch, mock.Anything).Return(nil, apperrors.ErrTicketNotFound)

		_, err := f.svc.UpdateTicket(ctx, ticketID, patch)

		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
		f.broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
	})
}

func TestTicketService_Messages(t *testing.T) {
	ctx := context.Background()
	ticketID := uuid.New()

	t.Run("list on missing ticket reads storage once", func(t *testing.T) {
		f := newTicketFixture()

		f.tickets.On("ListMessages", ctx, ticketID).Return(nil, apperrors.ErrTicketNotFound).Once()

		_, err := f.svc.ListMessages(ctx, ticketID)

		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
		f.tickets.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.tickets.AssertNumberOfCalls(t, "ListMessages", 1)
	})

	t.Run("create defaults to agent and is scoped to the ticket", func(t *testing.T) {
		f := newTicketFixture()

		f.tickets.On("CreateMessage", ctx, mock.AnythingOfType("*domain.TicketMessage")).
			Return(func(_ context.Context, m *domain.TicketMessage) *domain.TicketMessage { return m }, nil)
		f.broadcaster.On("Broadcast", mock.MatchedBy(func(e domain.Event) bool {
			return e.IsTicketScoped() && *e.TicketID == ticketID
		})).Return(nil)

		msg, err := f.svc.CreateMessage(ctx, ports.CreateMessageParams{TicketID: ticketID, Body: "On it"})

		require.NoError(t, err)
		assert.Equal(t, domain.AuthorAgent, msg.AuthorType)
		assert.Equal(t, domain.Timestamp(fixedNow), msg.CreatedAt)
		f.broadcaster.AssertExpectations(t)
	})

	t.Run("create on missing ticket", func(t *testing.T) {
		f := newTicketFixture()

		f.tickets.On("CreateMessage", ctx, mock.Anything).Return(nil, apperrors.ErrTicketNotFound)

		_, err := f.svc.CreateMessage(ctx, ports.CreateMessageParams{TicketID: ticketID, Body: "hi"})

		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})

	t.Run("storage failure is passed through", func(t *testing.T) {
		f := newTicketFixture()
		boom := errors.New("connection reset")

		f.tickets.On("ListMessages", ctx, ticketID).Return(nil, boom)

		_, err := f.svc.ListMessages(ctx, ticketID)

		assert.ErrorIs(t, err, boom)
	})
}
