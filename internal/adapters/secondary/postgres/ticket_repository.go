package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/gamemod/support-desk/internal/core/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Every ticket read joins the topic so an unresolvable reference yields a
// nil Topic rather than an error.
const (
	ticketColumns = `t.id, t.organization_id, t.title, t.body, t.player_id, t.status,
       t.topic_id, tp.id, tp.name, t.created_at, t.updated_at`

	topicJoin = `
LEFT JOIN topics tp ON tp.id = t.topic_id`

	listTicketsQuery = `SELECT ` + ticketColumns + `
FROM tickets t` + topicJoin + `
ORDER BY t.created_at DESC, t.id`

	getTicketQuery = `SELECT ` + ticketColumns + `
FROM tickets t` + topicJoin + `
WHERE t.id = $1`

	createTicketQuery = `
WITH t AS (
    INSERT INTO tickets (id, organization_id, title, body, player_id, status, topic_id, created_at, updated_at)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    RETURNING *
)
SELECT ` + ticketColumns + `
FROM t` + topicJoin

	updateTicketQuery = `
WITH t AS (
    UPDATE tickets SET
        title           = COALESCE($2, title),
        body            = COALESCE($3, body),
        status          = COALESCE($4, status),
        topic_id        = COALESCE($5, topic_id),
        organization_id = COALESCE($6, organization_id),
        updated_at      = $7
    WHERE id = $1
    RETURNING *
)
SELECT ` + ticketColumns + `
FROM t` + topicJoin

	touchTicketQuery = `UPDATE tickets SET updated_at = $2 WHERE id = $1`

	ticketExistsQuery = `SELECT EXISTS (SELECT 1 FROM tickets WHERE id = $1)`

	listMessagesQuery = `
SELECT id, ticket_id, author_type, body, created_at
FROM ticket_messages
WHERE ticket_id = $1
ORDER BY created_at ASC, id ASC`

	createMessageQuery = `
INSERT INTO ticket_messages (id, ticket_id, author_type, body, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, ticket_id, author_type, body, created_at`
)

// TicketRepository is the secondary adapter for ticket persistence.
type TicketRepository struct {
	pool *pgxpool.Pool
	tm   *TransactionManager
}

// Ensure TicketRepository implements the ports.TicketRepository interface.
var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool, tm *TransactionManager) *TicketRepository {
	return &TicketRepository{pool: pool, tm: tm}
}

// scanTicket reads one row selected with ticketColumns.
func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket          domain.Ticket
		organizationID  pgtype.UUID
		status          string
		topicID         pgtype.UUID
		resolvedTopicID pgtype.UUID
		topicName       pgtype.Text
	)

	err := row.Scan(
		&ticket.ID,
		&organizationID,
		&ticket.Title,
		&ticket.Body,
		&ticket.PlayerID,
		&status,
		&topicID,
		&resolvedTopicID,
		&topicName,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ticket.OrganizationID = utils.FromNullUUID(organizationID)
	ticket.Status = domain.NormalizeStatus(status)
	ticket.TopicID = utils.FromNullUUID(topicID)
	if resolvedTopicID.Valid {
		ticket.Topic = &domain.TopicRef{
			ID:   uuid.UUID(resolvedTopicID.Bytes),
			Name: utils.FromString(topicName),
		}
	}
	ticket.CreatedAt = ticket.CreatedAt.UTC()
	ticket.UpdatedAt = ticket.UpdatedAt.UTC()

	return &ticket, nil
}

func scanMessage(row pgx.Row) (*domain.TicketMessage, error) {
	var (
		message    domain.TicketMessage
		authorType string
	)
	if err := row.Scan(&message.ID, &message.TicketID, &authorType, &message.Body, &message.CreatedAt); err != nil {
		return nil, err
	}
	message.AuthorType = domain.AuthorType(authorType)
	message.CreatedAt = message.CreatedAt.UTC()
	return &message, nil
}

// List returns every ticket, newest first.
func (r *TicketRepository) List(ctx context.Context) ([]*domain.Ticket, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, listTicketsQuery)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	return tickets, nil
}

// Create persists a new ticket entity and returns it joined with its topic.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	row := GetDBTX(ctx, r.pool).QueryRow(ctx, createTicketQuery,
		ticket.ID,
		utils.ToNullUUID(ticket.OrganizationID),
		ticket.Title,
		ticket.Body,
		ticket.PlayerID,
		string(ticket.Status),
		utils.ToNullUUID(ticket.TopicID),
		utils.ToTimestamptz(ticket.CreatedAt),
		utils.ToTimestamptz(ticket.UpdatedAt),
	)

	created, err := scanTicket(row)
	if err != nil {
		return nil, fmt.Errorf("create ticket: %w", translateError(err))
	}
	return created, nil
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	ticket, err := scanTicket(GetDBTX(ctx, r.pool).QueryRow(ctx, getTicketQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("get ticket: %w", err)
	}
	return ticket, nil
}

// Update applies the provided patch fields in one statement. Absent
// fields are passed as NULL and keep their stored value.
func (r *TicketRepository) Update(ctx context.Context, id uuid.UUID, patch domain.TicketPatch, updatedAt time.Time) (*domain.Ticket, error) {
	var status pgtype.Text
	if patch.Status != nil {
		status = pgtype.Text{String: string(*patch.Status), Valid: true}
	}

	row := GetDBTX(ctx, r.pool).QueryRow(ctx, updateTicketQuery,
		id,
		utils.ToNullString(patch.Title),
		utils.ToNullString(patch.Body),
		status,
		utils.ToNullUUID(patch.TopicID),
		utils.ToNullUUID(patch.OrganizationID),
		utils.ToTimestamptz(updatedAt),
	)

	updated, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, fmt.Errorf("update ticket: %w", translateError(err))
	}
	return updated, nil
}

// ListMessages returns a ticket's messages in chronological order. The
// existence check and the read share one snapshot.
func (r *TicketRepository) ListMessages(ctx context.Context, ticketID uuid.UUID) ([]*domain.TicketMessage, error) {
	messages := make([]*domain.TicketMessage, 0)

	err := r.tm.WithReadOnlyTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, ticketExistsQuery, ticketID).Scan(&exists); err != nil {
			return fmt.Errorf("check ticket: %w", err)
		}
		if !exists {
			return apperrors.ErrTicketNotFound
		}

		rows, err := tx.Query(ctx, listMessagesQuery, ticketID)
		if err != nil {
			return fmt.Errorf("list messages: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			message, err := scanMessage(rows)
			if err != nil {
				return fmt.Errorf("scan message: %w", err)
			}
			messages = append(messages, message)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return messages, nil
}

// CreateMessage appends a message and sets the ticket's updated_at to the
// message timestamp in one transaction.
func (r *TicketRepository) CreateMessage(ctx context.Context, message *domain.TicketMessage) (*domain.TicketMessage, error) {
	var created *domain.TicketMessage

	err := r.tm.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, touchTicketQuery, message.TicketID, utils.ToTimestamptz(message.CreatedAt))
		if err != nil {
			return fmt.Errorf("touch ticket: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.ErrTicketNotFound
		}

		created, err = scanMessage(tx.QueryRow(ctx, createMessageQuery,
			message.ID,
			message.TicketID,
			string(message.AuthorType),
			message.Body,
			utils.ToTimestamptz(message.CreatedAt),
		))
		if err != nil {
			return fmt.Errorf("insert message: %w", translateError(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}
