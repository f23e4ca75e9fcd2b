package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"github.com/gamemod/support-desk/internal/core/domain"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// TicketRepository keeps tickets in the tickets collection and their
// messages in a messages subcollection of each ticket.
type TicketRepository struct {
	client *fs.Client
	now    func() time.Time
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository(client *fs.Client) *TicketRepository {
	return &TicketRepository{client: client, now: time.Now}
}

func (r *TicketRepository) tickets() *fs.CollectionRef {
	return r.client.Collection(ticketsCollection)
}

func (r *TicketRepository) topicRef(id uuid.UUID) *fs.DocumentRef {
	return r.client.Collection(topicsCollection).Doc(id.String())
}

// List returns every ticket, newest first. Documents whose id is not a
// UUID are skipped.
func (r *TicketRepository) List(ctx context.Context) ([]*domain.Ticket, error) {
	iter := r.tickets().OrderBy(fieldCreatedAt, fs.Desc).Documents(ctx)
	defer iter.Stop()

	now := r.now()
	tickets := make([]*domain.Ticket, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list tickets: %w", err)
		}
		id, ok := docID(snap)
		if !ok {
			continue
		}
		tickets = append(tickets, ticketFromData(id, snap.Data(), now))
	}

	if err := r.resolveTopics(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

// resolveTopics attaches topic references with one batched read.
func (r *TicketRepository) resolveTopics(ctx context.Context, tickets []*domain.Ticket) error {
	refs := make([]*fs.DocumentRef, 0)
	seen := make(map[uuid.UUID]bool)
	for _, t := range tickets {
		if t.TopicID == nil || seen[*t.TopicID] {
			continue
		}
		seen[*t.TopicID] = true
		refs = append(refs, r.topicRef(*t.TopicID))
	}
	if len(refs) == 0 {
		return nil
	}

	snaps, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return fmt.Errorf("resolve topics: %w", err)
	}

	now := r.now()
	topics := make(map[uuid.UUID]*domain.TopicRef, len(snaps))
	for _, snap := range snaps {
		if !snap.Exists() {
			continue
		}
		id, ok := docID(snap)
		if !ok {
			continue
		}
		topics[id] = topicFromData(id, snap.Data(), now).Ref()
	}

	for _, t := range tickets {
		if t.TopicID != nil {
			t.Topic = topics[*t.TopicID]
		}
	}
	return nil
}

// Create checks the topic and writes the ticket in one transaction.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	created := *ticket
	ref := r.tickets().Doc(ticket.ID.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		created.Topic = nil
		if ticket.TopicID != nil {
			topic, err := r.getTopic(tx, *ticket.TopicID)
			if err != nil {
				return err
			}
			created.Topic = topic
		}
		return tx.Create(ref, ticketData(ticket))
	})
	if err != nil {
		return nil, wrapTxError("create ticket", err)
	}
	return &created, nil
}

func (r *TicketRepository) getTopic(tx *fs.Transaction, id uuid.UUID) (*domain.TopicRef, error) {
	snap, err := tx.Get(r.topicRef(id))
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrTopicNotFound
		}
		return nil, fmt.Errorf("get topic: %w", err)
	}
	return topicFromData(id, snap.Data(), r.now()).Ref(), nil
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	snap, err := r.tickets().Doc(id.String()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}

	ticket := ticketFromData(id, snap.Data(), r.now())
	if err := r.resolveTopics(ctx, []*domain.Ticket{ticket}); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Update reads the ticket and any new topic, then writes only the
// provided fields, all inside one transaction.
func (r *TicketRepository) Update(ctx context.Context, id uuid.UUID, patch domain.TicketPatch, updatedAt time.Time) (*domain.Ticket, error) {
	ref := r.tickets().Doc(id.String())
	var updated *domain.Ticket

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			if isNotFound(err) {
				return apperrors.ErrTicketNotFound
			}
			return fmt.Errorf("get ticket: %w", err)
		}

		ticket := ticketFromData(id, snap.Data(), r.now())
		topicID := ticket.TopicID
		if patch.TopicID != nil {
			topicID = patch.TopicID
		}

		var topic *domain.TopicRef
		if topicID != nil {
			topic, err = r.getTopic(tx, *topicID)
			switch {
			case errors.Is(err, apperrors.ErrTopicNotFound) && patch.TopicID == nil:
				// The stored reference may dangle; only a new one must resolve.
				topic = nil
			case err != nil:
				return err
			}
		}

		ticket.Apply(patch, updatedAt)
		ticket.Topic = topic
		updated = ticket

		return tx.Update(ref, patchUpdates(patch, ticket.UpdatedAt))
	})
	if err != nil {
		return nil, wrapTxError("update ticket", err)
	}
	return updated, nil
}

func patchUpdates(patch domain.TicketPatch, updatedAt time.Time) []fs.Update {
	updates := []fs.Update{{Path: fieldUpdatedAt, Value: updatedAt}}
	if patch.Title != nil {
		updates = append(updates, fs.Update{Path: "title", Value: *patch.Title})
	}
	if patch.Body != nil {
		updates = append(updates, fs.Update{Path: "body", Value: *patch.Body})
	}
	if patch.Status != nil {
		updates = append(updates, fs.Update{Path: "status", Value: string(*patch.Status)})
	}
	if patch.TopicID != nil {
		updates = append(updates, fs.Update{Path: "topicId", Value: patch.TopicID.String()})
	}
	if patch.OrganizationID != nil {
		updates = append(updates, fs.Update{Path: "organizationId", Value: patch.OrganizationID.String()})
	}
	return updates
}

// ListMessages returns a ticket's messages in chronological order.
func (r *TicketRepository) ListMessages(ctx context.Context, ticketID uuid.UUID) ([]*domain.TicketMessage, error) {
	ref := r.tickets().Doc(ticketID.String())
	if _, err := ref.Get(ctx); err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}

	iter := ref.Collection(messagesCollection).OrderBy(fieldCreatedAt, fs.Asc).Documents(ctx)
	defer iter.Stop()

	now := r.now()
	messages := make([]*domain.TicketMessage, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		id, ok := docID(snap)
		if !ok {
			continue
		}
		messages = append(messages, messageFromData(id, ticketID, snap.Data(), now))
	}
	return messages, nil
}

// CreateMessage appends the message and touches the ticket's updatedAt
// in one transaction.
func (r *TicketRepository) CreateMessage(ctx context.Context, message *domain.TicketMessage) (*domain.TicketMessage, error) {
	ticketRef := r.tickets().Doc(message.TicketID.String())
	messageRef := ticketRef.Collection(messagesCollection).Doc(message.ID.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		if _, err := tx.Get(ticketRef); err != nil {
			if isNotFound(err) {
				return apperrors.ErrTicketNotFound
			}
			return fmt.Errorf("get ticket: %w", err)
		}
		if err := tx.Create(messageRef, messageData(message)); err != nil {
			return err
		}
		return tx.Update(ticketRef, []fs.Update{{Path: fieldUpdatedAt, Value: message.CreatedAt}})
	})
	if err != nil {
		return nil, wrapTxError("create message", err)
	}

	created := *message
	return &created, nil
}

// wrapTxError passes domain sentinels through untouched.
func wrapTxError(op string, err error) error {
	for _, sentinel := range []error{
		apperrors.ErrTicketNotFound,
		apperrors.ErrTopicNotFound,
		apperrors.ErrTopicExists,
	} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
