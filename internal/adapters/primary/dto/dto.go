// Package dto holds the JSON wire representation shared by the HTTP API
// and the websocket feed.
package dto

import (
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
)

// TimeLayout is ISO-8601 in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders an instant in TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

type TopicRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Ticket struct {
	ID             string    `json:"id"`
	OrganizationID *string   `json:"organizationId"`
	Title          string    `json:"title"`
	Body           string    `json:"body"`
	PlayerID       string    `json:"playerId"`
	Status         string    `json:"status"`
	CreatedAt      string    `json:"createdAt"`
	UpdatedAt      string    `json:"updatedAt"`
	Topic          *TopicRef `json:"topic"`
}

type TicketMessage struct {
	ID         string `json:"id"`
	TicketID   string `json:"ticketId"`
	AuthorType string `json:"authorType"`
	Body       string `json:"body"`
	CreatedAt  string `json:"createdAt"`
}

type Topic struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type StaffSettings struct {
	Theme domain.ThemeSettings `json:"theme"`
	Site  domain.SiteSettings  `json:"site"`
}

type StatusPoint struct {
	Date     string           `json:"date"`
	Statuses map[string]int64 `json:"statuses"`
}

type StatusAnalytics struct {
	Statuses []string      `json:"statuses"`
	Series   []StatusPoint `json:"series"`
}

// Event is a websocket frame.
type Event struct {
	Type     string      `json:"type"`
	Payload  interface{} `json:"payload,omitempty"`
	TicketID *string     `json:"ticketId,omitempty"`
}

func FromTicket(t *domain.Ticket) Ticket {
	out := Ticket{
		ID:        t.ID.String(),
		Title:     t.Title,
		Body:      t.Body,
		PlayerID:  t.PlayerID,
		Status:    string(domain.NormalizeStatus(string(t.Status))),
		CreatedAt: FormatTime(t.CreatedAt),
		UpdatedAt: FormatTime(t.UpdatedAt),
	}
	if t.OrganizationID != nil {
		org := t.OrganizationID.String()
		out.OrganizationID = &org
	}
	if t.Topic != nil {
		out.Topic = &TopicRef{ID: t.Topic.ID.String(), Name: domain.DisplayName(t.Topic.Name)}
	}
	return out
}

func FromTickets(tickets []*domain.Ticket) []Ticket {
	out := make([]Ticket, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, FromTicket(t))
	}
	return out
}

func FromMessage(m *domain.TicketMessage) TicketMessage {
	return TicketMessage{
		ID:         m.ID.String(),
		TicketID:   m.TicketID.String(),
		AuthorType: string(m.AuthorType),
		Body:       m.Body,
		CreatedAt:  FormatTime(m.CreatedAt),
	}
}

func FromMessages(messages []*domain.TicketMessage) []TicketMessage {
	out := make([]TicketMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, FromMessage(m))
	}
	return out
}

func FromTopic(t *domain.Topic) Topic {
	return Topic{
		ID:          t.ID.String(),
		Name:        domain.DisplayName(t.Name),
		Description: t.Description,
		CreatedAt:   FormatTime(t.CreatedAt),
		UpdatedAt:   FormatTime(t.UpdatedAt),
	}
}

func FromTopics(topics []*domain.Topic) []Topic {
	out := make([]Topic, 0, len(topics))
	for _, t := range topics {
		out = append(out, FromTopic(t))
	}
	return out
}

func FromSettings(s *domain.StaffSettings) StaffSettings {
	return StaffSettings{Theme: s.Theme, Site: s.Site}
}

func FromStatusSeries(s *domain.StatusSeries) StatusAnalytics {
	points := s.Points()
	series := make([]StatusPoint, 0, len(points))
	for _, p := range points {
		statuses := make(map[string]int64, len(p.Statuses))
		for status, count := range p.Statuses {
			statuses[string(status)] = count
		}
		series = append(series, StatusPoint{Date: p.Date, Statuses: statuses})
	}
	return StatusAnalytics{
		Statuses: domain.StatusStrings(),
		Series:   series,
	}
}

// FromEvent maps domain payloads to their wire form. Payload types it
// does not know are passed through unchanged.
func FromEvent(e domain.Event) Event {
	out := Event{Type: string(e.Type)}
	if e.TicketID != nil {
		id := e.TicketID.String()
		out.TicketID = &id
	}

	switch p := e.Payload.(type) {
	case *domain.Ticket:
		out.Payload = FromTicket(p)
	case *domain.TicketMessage:
		out.Payload = FromMessage(p)
	case *domain.Topic:
		out.Payload = FromTopic(p)
	case *domain.StaffSettings:
		out.Payload = FromSettings(p)
	default:
		out.Payload = p
	}
	return out
}
