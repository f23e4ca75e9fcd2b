package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"github.com/gamemod/support-desk/internal/core/domain"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// TopicRepository keeps topics in the topics collection. Each document
// carries nameLower for case-insensitive uniqueness checks.
type TopicRepository struct {
	client *fs.Client
	now    func() time.Time
}

var _ ports.TopicRepository = (*TopicRepository)(nil)

func NewTopicRepository(client *fs.Client) *TopicRepository {
	return &TopicRepository{client: client, now: time.Now}
}

func (r *TopicRepository) topics() *fs.CollectionRef {
	return r.client.Collection(topicsCollection)
}

// List returns every topic ordered by name.
func (r *TopicRepository) List(ctx context.Context) ([]*domain.Topic, error) {
	iter := r.topics().OrderBy(fieldName, fs.Asc).Documents(ctx)
	defer iter.Stop()

	now := r.now()
	topics := make([]*domain.Topic, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list topics: %w", err)
		}
		id, ok := docID(snap)
		if !ok {
			continue
		}
		topics = append(topics, topicFromData(id, snap.Data(), now))
	}
	return topics, nil
}

// Create rejects a name that already exists in any letter case. The
// lookup and the write share one transaction.
func (r *TopicRepository) Create(ctx context.Context, topic *domain.Topic) (*domain.Topic, error) {
	ref := r.topics().Doc(topic.ID.String())
	sameName := r.topics().Where(fieldNameLower, "==", domain.NameKey(topic.Name)).Limit(1)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *fs.Transaction) error {
		existing, err := tx.Documents(sameName).GetAll()
		if err != nil {
			return fmt.Errorf("check topic name: %w", err)
		}
		if len(existing) > 0 {
			return apperrors.ErrTopicExists
		}
		return tx.Create(ref, topicData(topic))
	})
	if err != nil {
		if isAlreadyExists(err) {
			return nil, apperrors.ErrTopicExists
		}
		return nil, wrapTxError("create topic", err)
	}

	created := *topic
	return &created, nil
}

// GetByID retrieves a single topic by its ID.
func (r *TopicRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	snap, err := r.topics().Doc(id.String()).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.ErrTopicNotFound
		}
		return nil, fmt.Errorf("get topic: %w", err)
	}
	return topicFromData(id, snap.Data(), r.now()), nil
}
