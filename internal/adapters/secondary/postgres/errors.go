package postgres

import (
	"errors"

	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Constraint names from migrations/000001_init.up.sql
var constraintErrors = map[string]error{
	"topics_name_lower_key":          apperrors.ErrTopicExists,
	"tickets_topic_id_fkey":          apperrors.ErrTopicNotFound,
	"ticket_messages_ticket_id_fkey": apperrors.ErrTicketNotFound,
}

// translateError maps known constraint violations to domain sentinels.
// Anything else is returned unchanged.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	if pgErr.Code != uniqueViolation && pgErr.Code != foreignKeyViolation {
		return err
	}
	if sentinel, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return sentinel
	}
	return err
}
