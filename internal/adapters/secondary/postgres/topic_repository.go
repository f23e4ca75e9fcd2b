package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gamemod/support-desk/internal/core/domain"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/gamemod/support-desk/internal/core/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	topicColumns = `id, name, description, created_at, updated_at`

	listTopicsQuery = `SELECT ` + topicColumns + ` FROM topics ORDER BY name ASC, id`

	getTopicQuery = `SELECT ` + topicColumns + ` FROM topics WHERE id = $1`

	// Uniqueness of LOWER(name) is enforced by topics_name_lower_key
	createTopicQuery = `
INSERT INTO topics (id, name, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + topicColumns
)

// TopicRepository is the secondary adapter for topic persistence.
type TopicRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TopicRepository = (*TopicRepository)(nil)

func NewTopicRepository(pool *pgxpool.Pool) *TopicRepository {
	return &TopicRepository{pool: pool}
}

func scanTopic(row pgx.Row) (*domain.Topic, error) {
	var (
		topic       domain.Topic
		description pgtype.Text
	)
	if err := row.Scan(&topic.ID, &topic.Name, &description, &topic.CreatedAt, &topic.UpdatedAt); err != nil {
		return nil, err
	}
	topic.Description = utils.FromNullString(description)
	topic.CreatedAt = topic.CreatedAt.UTC()
	topic.UpdatedAt = topic.UpdatedAt.UTC()
	return &topic, nil
}

// List returns all topics ordered by name.
func (r *TopicRepository) List(ctx context.Context) ([]*domain.Topic, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, listTopicsQuery)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := make([]*domain.Topic, 0)
	for rows.Next() {
		topic, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, topic)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	return topics, nil
}

// Create inserts a topic. A case-insensitive name clash yields
// apperrors.ErrTopicExists.
func (r *TopicRepository) Create(ctx context.Context, topic *domain.Topic) (*domain.Topic, error) {
	created, err := scanTopic(GetDBTX(ctx, r.pool).QueryRow(ctx, createTopicQuery,
		topic.ID,
		topic.Name,
		utils.ToNullString(topic.Description),
		utils.ToTimestamptz(topic.CreatedAt),
		utils.ToTimestamptz(topic.UpdatedAt),
	))
	if err != nil {
		return nil, fmt.Errorf("create topic: %w", translateError(err))
	}
	return created, nil
}

// GetByID retrieves a single topic.
func (r *TopicRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Topic, error) {
	topic, err := scanTopic(GetDBTX(ctx, r.pool).QueryRow(ctx, getTopicQuery, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTopicNotFound
		}
		return nil, fmt.Errorf("get topic: %w", err)
	}
	return topic, nil
}
