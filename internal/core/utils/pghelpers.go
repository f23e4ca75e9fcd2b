package utils

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ToNullString converts an optional string to a pgtype.Text.
// A nil pointer is NULL; an empty string is stored as-is.
func ToNullString(s *string) pgtype.Text {
	if s == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{
		String: *s,
		Valid:  true,
	}
}

// FromNullString converts a pgtype.Text to an optional string.
func FromNullString(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}

// FromString converts a pgtype.Text to a plain string.
// A NULL value is converted to an empty string ("").
func FromString(t pgtype.Text) string {
	if !t.Valid {
		return ""
	}
	return t.String
}

// ToNullUUID converts an optional UUID to a pgtype.UUID.
func ToNullUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

// FromNullUUID converts a pgtype.UUID to an optional UUID.
func FromNullUUID(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	value := uuid.UUID(id.Bytes)
	return &value
}

// ToTimestamptz wraps a non-zero instant; the zero time is NULL.
func ToTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t.UTC(), Valid: !t.IsZero()}
}
