package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/google/uuid"
)

const (
	MaxTopicDescriptionLength = 256

	// UntitledTopicName is shown for stored topics that lost their name.
	UntitledTopicName = "Untitled Topic"
)

// Topic is a routing category tickets are filed under.
type Topic struct {
	ID          uuid.UUID
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NameKey is the case-insensitive uniqueness key for a topic name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// DisplayName returns the topic name with the untitled fallback applied.
func DisplayName(name string) string {
	if name == "" {
		return UntitledTopicName
	}
	return name
}

// NewTopic validates and builds a topic. The name is stored trimmed.
func NewTopic(name string, description *string, now time.Time) (*Topic, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, apperrors.ErrTopicNameRequired
	}
	if description != nil && utf8.RuneCountInString(*description) > MaxTopicDescriptionLength {
		return nil, apperrors.ErrDescriptionTooLong
	}

	ts := Timestamp(now)
	return &Topic{
		ID:          uuid.New(),
		Name:        trimmed,
		Description: description,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// Ref returns the embedded form used on tickets.
func (t *Topic) Ref() *TopicRef {
	return &TopicRef{ID: t.ID, Name: DisplayName(t.Name)}
}
