package services

import (
	"context"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
)

// TopicService implements topic listing and creation.
type TopicService struct {
	topicRepo   ports.TopicRepository
	broadcaster ports.EventBroadcaster
	now         func() time.Time
}

var _ ports.TopicService = (*TopicService)(nil)

// NewTopicService creates a new topic service
func NewTopicService(topicRepo ports.TopicRepository, broadcaster ports.EventBroadcaster, opts ...Option) ports.TopicService {
	o := applyOptions(opts)
	return &TopicService{
		topicRepo:   topicRepo,
		broadcaster: broadcaster,
		now:         o.now,
	}
}

// ListTopics returns all topics ordered by name.
func (s *TopicService) ListTopics(ctx context.Context) ([]*domain.Topic, error) {
	return s.topicRepo.List(ctx)
}

// CreateTopic validates and stores a topic. Duplicate names surface as
// apperrors.ErrTopicExists from the repository.
func (s *TopicService) CreateTopic(ctx context.Context, params ports.CreateTopicParams) (*domain.Topic, error) {
	topic, err := domain.NewTopic(params.Name, params.Description, s.now())
	if err != nil {
		return nil, err
	}

	created, err := s.topicRepo.Create(ctx, topic)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		_ = s.broadcaster.Broadcast(domain.Event{Type: domain.EventTopicCreated, Payload: created})
	}
	return created, nil
}
