package firestore

import (
	"time"

	fs "cloud.google.com/go/firestore"
	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/google/uuid"
)

// Field names shared by queries and documents
const (
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
	fieldName      = "name"
	fieldNameLower = "nameLower"
)

// coerceTime reads a stored timestamp. Documents written by older clients
// may hold RFC 3339 strings; anything missing or unreadable becomes now.
func coerceTime(v any, now time.Time) time.Time {
	switch t := v.(type) {
	case time.Time:
		return domain.Timestamp(t)
	case *time.Time:
		if t != nil {
			return domain.Timestamp(*t)
		}
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return domain.Timestamp(parsed)
		}
	}
	return domain.Timestamp(now)
}

func coerceString(v any) string {
	s, _ := v.(string)
	return s
}

func coerceOptionalString(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func coerceUUID(v any) *uuid.UUID {
	s, ok := v.(string)
	if !ok || s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

func optionalUUID(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func docID(snap *fs.DocumentSnapshot) (uuid.UUID, bool) {
	id, err := uuid.Parse(snap.Ref.ID)
	return id, err == nil
}

func ticketData(t *domain.Ticket) map[string]any {
	return map[string]any{
		"organizationId": optionalUUID(t.OrganizationID),
		"title":          t.Title,
		"body":           t.Body,
		"playerId":       t.PlayerID,
		"status":         string(t.Status),
		"topicId":        optionalUUID(t.TopicID),
		fieldCreatedAt:   t.CreatedAt,
		fieldUpdatedAt:   t.UpdatedAt,
	}
}

// ticketFromData decodes a stored ticket. Topic is left for the caller
// to resolve.
func ticketFromData(id uuid.UUID, data map[string]any, now time.Time) *domain.Ticket {
	return &domain.Ticket{
		ID:             id,
		OrganizationID: coerceUUID(data["organizationId"]),
		Title:          coerceString(data["title"]),
		Body:           coerceString(data["body"]),
		PlayerID:       coerceString(data["playerId"]),
		Status:         domain.NormalizeStatus(coerceString(data["status"])),
		TopicID:        coerceUUID(data["topicId"]),
		CreatedAt:      coerceTime(data[fieldCreatedAt], now),
		UpdatedAt:      coerceTime(data[fieldUpdatedAt], now),
	}
}

func topicData(t *domain.Topic) map[string]any {
	data := map[string]any{
		fieldName:      t.Name,
		fieldNameLower: domain.NameKey(t.Name),
		fieldCreatedAt: t.CreatedAt,
		fieldUpdatedAt: t.UpdatedAt,
	}
	if t.Description != nil {
		data["description"] = *t.Description
	}
	return data
}

func topicFromData(id uuid.UUID, data map[string]any, now time.Time) *domain.Topic {
	return &domain.Topic{
		ID:          id,
		Name:        coerceString(data[fieldName]),
		Description: coerceOptionalString(data["description"]),
		CreatedAt:   coerceTime(data[fieldCreatedAt], now),
		UpdatedAt:   coerceTime(data[fieldUpdatedAt], now),
	}
}

func messageData(m *domain.TicketMessage) map[string]any {
	return map[string]any{
		"authorType":   string(m.AuthorType),
		"body":         m.Body,
		fieldCreatedAt: m.CreatedAt,
	}
}

// messageFromData decodes a stored message; a missing author is an agent.
func messageFromData(id, ticketID uuid.UUID, data map[string]any, now time.Time) *domain.TicketMessage {
	author := domain.AuthorType(coerceString(data["authorType"]))
	if !author.IsValid() {
		author = domain.AuthorAgent
	}
	return &domain.TicketMessage{
		ID:         id,
		TicketID:   ticketID,
		AuthorType: author,
		Body:       coerceString(data["body"]),
		CreatedAt:  coerceTime(data[fieldCreatedAt], now),
	}
}

// settingsDoc is the stored form of config/staffSettings.
type settingsDoc struct {
	Theme     *domain.ThemeSettings `firestore:"theme"`
	Site      *domain.SiteSettings  `firestore:"site"`
	CreatedAt any                   `firestore:"createdAt"`
	UpdatedAt any                   `firestore:"updatedAt"`
}

func newSettingsDoc(s *domain.StaffSettings) settingsDoc {
	theme, site := s.Theme, s.Site
	return settingsDoc{
		Theme:     &theme,
		Site:      &site,
		CreatedAt: s.UpdatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
