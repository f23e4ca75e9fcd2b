package http

import (
	"log/slog"
	"net/http"

	"github.com/gamemod/support-desk/internal/adapters/primary/dto"
	"github.com/gamemod/support-desk/internal/adapters/primary/validation"
	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/go-chi/chi/v5"
)

// TopicHandler handles HTTP requests for topics
type TopicHandler struct {
	topicService ports.TopicService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewTopicHandler creates a new topic handler
func NewTopicHandler(topicService ports.TopicService, errorHandler *ErrorHandler, logger *slog.Logger) *TopicHandler {
	return &TopicHandler{
		topicService: topicService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "topic"),
	}
}

// RegisterRoutes registers the topic routes. adminGate wraps the
// mutating endpoints.
func (h *TopicHandler) RegisterRoutes(r chi.Router, adminGate func(http.Handler) http.Handler) {
	r.Get("/", h.HandleListTopics)
	r.With(adminGate).Post("/", h.HandleCreateTopic)
}

// CreateTopicRequest defines the expected JSON body for creating a topic
type CreateTopicRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Validate validates the create topic request
func (r *CreateTopicRequest) Validate() error {
	return validation.NewValidator().
		Required("name", r.Name, "Topic name is required").
		MaxLength("description", r.Description, domain.MaxTopicDescriptionLength).
		Err()
}

type topicsResponse struct {
	Topics []dto.Topic `json:"topics"`
}

type topicResponse struct {
	Topic dto.Topic `json:"topic"`
}

// HandleListTopics handles GET /topics
func (h *TopicHandler) HandleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := h.topicService.ListTopics(r.Context())
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	WriteOK(w, topicsResponse{Topics: dto.FromTopics(topics)})
}

// HandleCreateTopic handles POST /topics
func (h *TopicHandler) HandleCreateTopic(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[CreateTopicRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}
	if HandleError(w, r, req.Validate(), h.errorHandler) {
		return
	}

	topic, err := h.topicService.CreateTopic(r.Context(), ports.CreateTopicParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.logger.InfoContext(r.Context(), "topic created",
		"topic_id", topic.ID,
		"name", topic.Name,
	)

	WriteCreated(w, topicResponse{Topic: dto.FromTopic(topic)})
}
