package http

import (
	"log/slog"
	"net/http"

	"github.com/gamemod/support-desk/internal/adapters/primary/dto"
	"github.com/gamemod/support-desk/internal/adapters/primary/validation"
	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/gamemod/support-desk/internal/infrastructure/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	ticketIDParam         = "ticketID"
	ticketIDMessage       = "Ticket id must be a UUID"
	topicIDMessage        = "Topic id must be a UUID"
	organizationIDMessage = "Organization id must be a UUID"
)

// TicketHandler handles HTTP requests for tickets, their messages and
// the status analytics view.
type TicketHandler struct {
	ticketService    ports.TicketService
	analyticsService ports.AnalyticsService
	errorHandler     *ErrorHandler
	logger           *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	analyticsService ports.AnalyticsService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService:    ticketService,
		analyticsService: analyticsService,
		errorHandler:     errorHandler,
		logger:           logger.With("handler", "ticket"),
	}
}

// RegisterRoutes sets up the routing for all ticket endpoints.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)

	// Registered before /{ticketID} so "analytics" is never parsed as an id
	r.Get("/analytics/status", h.HandleStatusAnalytics)

	r.Route("/{"+ticketIDParam+"}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)
		r.Patch("/", h.HandleUpdateTicket)
		r.Get("/messages", h.HandleListMessages)
		r.Post("/messages", h.HandleCreateMessage)
	})
}

// --- Request DTOs ---

// CreateTicketRequest defines the expected JSON body for creating a ticket
type CreateTicketRequest struct {
	Title          string  `json:"title"`
	Body           string  `json:"body"`
	PlayerID       string  `json:"playerId"`
	TopicID        string  `json:"topicId"`
	OrganizationID *string `json:"organizationId"`
}

// Validate validates the create ticket request
func (r *CreateTicketRequest) Validate() error {
	return validation.NewValidator().
		Required("title", r.Title, "Title is required").
		Required("body", r.Body, "Body is required").
		Required("playerId", r.PlayerID, "Player identifier is required").
		UUID("topicId", r.TopicID, topicIDMessage).
		OptionalUUID("organizationId", r.OrganizationID, organizationIDMessage).
		Err()
}

// Params converts a validated request into service parameters.
func (r *CreateTicketRequest) Params() ports.CreateTicketParams {
	params := ports.CreateTicketParams{
		Title:    r.Title,
		Body:     r.Body,
		PlayerID: r.PlayerID,
		TopicID:  uuid.MustParse(r.TopicID),
	}
	if r.OrganizationID != nil {
		org := uuid.MustParse(*r.OrganizationID)
		params.OrganizationID = &org
	}
	return params
}

// UpdateTicketRequest is a sparse patch; absent fields stay untouched.
type UpdateTicketRequest struct {
	Title          *string `json:"title"`
	Body           *string `json:"body"`
	Status         *string `json:"status"`
	TopicID        *string `json:"topicId"`
	OrganizationID *string `json:"organizationId"`
}

// Validate validates the update ticket request
func (r *UpdateTicketRequest) Validate() error {
	v := validation.NewValidator().
		NonEmpty("title", r.Title, "Title is required").
		NonEmpty("body", r.Body, "Body is required").
		OptionalUUID("topicId", r.TopicID, topicIDMessage).
		OptionalUUID("organizationId", r.OrganizationID, organizationIDMessage)

	if r.Status != nil {
		v.OneOf("status", *r.Status, domain.StatusStrings())
	}
	return v.Err()
}

// Patch converts a validated request into a domain patch.
func (r *UpdateTicketRequest) Patch() domain.TicketPatch {
	patch := domain.TicketPatch{
		Title: r.Title,
		Body:  r.Body,
	}
	if r.Status != nil {
		status := domain.TicketStatus(*r.Status)
		patch.Status = &status
	}
	if r.TopicID != nil {
		id := uuid.MustParse(*r.TopicID)
		patch.TopicID = &id
	}
	if r.OrganizationID != nil {
		id := uuid.MustParse(*r.OrganizationID)
		patch.OrganizationID = &id
	}
	return patch
}

// CreateMessageRequest defines the expected JSON body for a ticket message
type CreateMessageRequest struct {
	Body       string  `json:"body"`
	AuthorType *string `json:"authorType"`
}

// Validate validates the create message request
func (r *CreateMessageRequest) Validate() error {
	v := validation.NewValidator().
		Required("body", r.Body, "Message body is required")

	if r.AuthorType != nil {
		v.OneOf("authorType", *r.AuthorType, []string{string(domain.AuthorAgent), string(domain.AuthorPlayer)})
	}
	return v.Err()
}

// AuthorTypeOrDefault returns the requested author type, agent if absent.
func (r *CreateMessageRequest) AuthorTypeOrDefault() domain.AuthorType {
	if r.AuthorType == nil {
		return domain.AuthorAgent
	}
	return domain.AuthorType(*r.AuthorType)
}

// --- Response envelopes ---

type ticketsResponse struct {
	Tickets []dto.Ticket `json:"tickets"`
}

type ticketResponse struct {
	Ticket dto.Ticket `json:"ticket"`
}

type messagesResponse struct {
	Messages []dto.TicketMessage `json:"messages"`
}

type messageResponse struct {
	Message dto.TicketMessage `json:"message"`
}

// --- Handlers ---

// HandleListTickets handles GET /tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.ticketService.ListTickets(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteOK(w, ticketsResponse{Tickets: dto.FromTickets(tickets)})
}

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateTicketRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	ticket, err := h.ticketService.CreateTicket(r.Context(), req.Params())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	metrics.TicketsCreated.Inc()
	h.logger.InfoContext(r.Context(), "ticket created",
		"ticket_id", ticket.ID,
		"player_id", ticket.PlayerID,
	)

	WriteCreated(w, ticketResponse{Ticket: dto.FromTicket(ticket)})
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseTicketID(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	ticket, err := h.ticketService.GetTicket(r.Context(), ticketID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteOK(w, ticketResponse{Ticket: dto.FromTicket(ticket)})
}

// HandleUpdateTicket handles PATCH /tickets/{ticketID}
func (h *TicketHandler) HandleUpdateTicket(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseTicketID(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	req, err := validation.DecodeAndValidate[UpdateTicketRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	ticket, err := h.ticketService.UpdateTicket(r.Context(), ticketID, req.Patch())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "ticket updated",
		"ticket_id", ticket.ID,
		"status", ticket.Status,
	)

	WriteOK(w, ticketResponse{Ticket: dto.FromTicket(ticket)})
}

// HandleListMessages handles GET /tickets/{ticketID}/messages
func (h *TicketHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseTicketID(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	messages, err := h.ticketService.ListMessages(r.Context(), ticketID)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteOK(w, messagesResponse{Messages: dto.FromMessages(messages)})
}

// HandleCreateMessage handles POST /tickets/{ticketID}/messages
func (h *TicketHandler) HandleCreateMessage(w http.ResponseWriter, r *http.Request) {
	ticketID, err := parseTicketID(r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	req, err := validation.DecodeAndValidate[CreateMessageRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	message, err := h.ticketService.CreateMessage(r.Context(), ports.CreateMessageParams{
		TicketID:   ticketID,
		Body:       req.Body,
		AuthorType: req.AuthorTypeOrDefault(),
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	metrics.TicketMessagesCreated.WithLabelValues(string(message.AuthorType)).Inc()
	WriteCreated(w, messageResponse{Message: dto.FromMessage(message)})
}

// HandleStatusAnalytics handles GET /tickets/analytics/status?days=N
func (h *TicketHandler) HandleStatusAnalytics(w http.ResponseWriter, r *http.Request) {
	days, err := validation.ParseIntQueryParam(r, "days", domain.DefaultAnalyticsDays)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	series, err := h.analyticsService.StatusSeries(r.Context(), days)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteOK(w, dto.FromStatusSeries(series))
}

func parseTicketID(r *http.Request) (uuid.UUID, error) {
	return validation.ParseUUIDParam("id", chi.URLParam(r, ticketIDParam), ticketIDMessage)
}
