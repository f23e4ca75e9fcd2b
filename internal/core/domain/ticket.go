package domain

import (
	"strings"
	"time"

	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/google/uuid"
)

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

// TicketStatuses is the canonical status order used by responses and analytics.
var TicketStatuses = []TicketStatus{
	StatusOpen,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
}

// IsValid checks if the status is one of the canonical values.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// NormalizeStatus maps a persisted status to the canonical set.
// Unknown or empty values read back as open.
func NormalizeStatus(raw string) TicketStatus {
	status := TicketStatus(raw)
	if status.IsValid() {
		return status
	}
	return StatusOpen
}

// StatusStrings returns the canonical statuses as plain strings.
func StatusStrings() []string {
	out := make([]string, len(TicketStatuses))
	for i, s := range TicketStatuses {
		out[i] = string(s)
	}
	return out
}

// TopicRef is the slice of a topic embedded in a ticket.
type TopicRef struct {
	ID   uuid.UUID
	Name string
}

// Ticket is the core domain entity.
type Ticket struct {
	ID             uuid.UUID
	OrganizationID *uuid.UUID
	Title          string
	Body           string
	PlayerID       string
	Status         TicketStatus
	TopicID        *uuid.UUID
	Topic          *TopicRef // nil when the reference does not resolve
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TicketParams holds the inputs accepted by NewTicket.
type TicketParams struct {
	Title          string
	Body           string
	PlayerID       string
	TopicID        uuid.UUID
	OrganizationID *uuid.UUID
}

// Validate checks the ticket creation parameters.
func (p TicketParams) Validate() error {
	errs := apperrors.NewValidationErrors()

	if strings.TrimSpace(p.Title) == "" {
		errs.Add("title", apperrors.ErrTitleRequired.Error())
	}
	if strings.TrimSpace(p.Body) == "" {
		errs.Add("body", apperrors.ErrBodyRequired.Error())
	}
	if strings.TrimSpace(p.PlayerID) == "" {
		errs.Add("playerId", apperrors.ErrPlayerIDRequired.Error())
	}
	if p.TopicID == uuid.Nil {
		errs.Add("topicId", apperrors.ErrTopicIDRequired.Error())
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// NewTicket is a factory function to create a valid new ticket.
// Both timestamps are set to the same instant.
func NewTicket(params TicketParams, now time.Time) (*Ticket, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ts := Timestamp(now)
	topicID := params.TopicID

	return &Ticket{
		ID:             uuid.New(),
		OrganizationID: params.OrganizationID,
		Title:          params.Title,
		Body:           params.Body,
		PlayerID:       params.PlayerID,
		Status:         StatusOpen,
		TopicID:        &topicID,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}, nil
}

// TicketPatch is a sparse update; nil fields are left untouched.
type TicketPatch struct {
	Title          *string
	Body           *string
	Status         *TicketStatus
	TopicID        *uuid.UUID
	OrganizationID *uuid.UUID
}

// IsEmpty reports whether the patch carries no fields.
func (p TicketPatch) IsEmpty() bool {
	return p.Title == nil &&
		p.Body == nil &&
		p.Status == nil &&
		p.TopicID == nil &&
		p.OrganizationID == nil
}

// Validate checks the patch. Status changes are not restricted to a
// sequence: any canonical status may follow any other.
func (p TicketPatch) Validate() error {
	if p.IsEmpty() {
		return apperrors.ErrEmptyPatch
	}

	errs := apperrors.NewValidationErrors()
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		errs.Add("title", apperrors.ErrTitleRequired.Error())
	}
	if p.Body != nil && strings.TrimSpace(*p.Body) == "" {
		errs.Add("body", apperrors.ErrBodyRequired.Error())
	}
	if p.Status != nil && !p.Status.IsValid() {
		errs.Add("status", apperrors.ErrInvalidStatus.Error())
	}
	if p.TopicID != nil && *p.TopicID == uuid.Nil {
		errs.Add("topicId", apperrors.ErrTopicIDRequired.Error())
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// Apply writes the patch onto the ticket and stamps UpdatedAt.
// Document adapters use it to build the stored record; the relational
// adapter applies the same fields in SQL.
func (t *Ticket) Apply(p TicketPatch, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Body != nil {
		t.Body = *p.Body
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.TopicID != nil {
		id := *p.TopicID
		t.TopicID = &id
		t.Topic = nil
	}
	if p.OrganizationID != nil {
		id := *p.OrganizationID
		t.OrganizationID = &id
	}
	t.UpdatedAt = Timestamp(now)
}

// Timestamp normalises an instant to UTC with millisecond precision,
// the resolution exposed on the wire.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
