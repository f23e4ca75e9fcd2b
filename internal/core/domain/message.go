package domain

import (
	"strings"
	"time"

	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/google/uuid"
)

// AuthorType identifies who wrote a ticket message.
type AuthorType string

const (
	AuthorAgent  AuthorType = "agent"
	AuthorPlayer AuthorType = "player"
)

// IsValid checks if the author type is recognised.
func (a AuthorType) IsValid() bool {
	return a == AuthorAgent || a == AuthorPlayer
}

// TicketMessage is an append-only entry in a ticket's conversation.
type TicketMessage struct {
	ID         uuid.UUID
	TicketID   uuid.UUID
	AuthorType AuthorType
	Body       string
	CreatedAt  time.Time
}

// NewTicketMessage validates and builds a message. An empty author type
// defaults to agent.
func NewTicketMessage(ticketID uuid.UUID, body string, author AuthorType, now time.Time) (*TicketMessage, error) {
	if ticketID == uuid.Nil {
		return nil, apperrors.ErrTicketIDRequired
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperrors.ErrMessageRequired
	}
	if author == "" {
		author = AuthorAgent
	}
	if !author.IsValid() {
		return nil, apperrors.ErrInvalidAuthorType
	}

	return &TicketMessage{
		ID:         uuid.New(),
		TicketID:   ticketID,
		AuthorType: author,
		Body:       body,
		CreatedAt:  Timestamp(now),
	}, nil
}
