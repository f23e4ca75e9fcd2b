package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
	"google.golang.org/api/iterator"
)

// AnalyticsRepository has no server-side grouping to lean on, so it reads
// the window with a range query and groups in memory.
type AnalyticsRepository struct {
	client *fs.Client
}

var _ ports.TicketAnalyticsRepository = (*AnalyticsRepository)(nil)

func NewAnalyticsRepository(client *fs.Client) *AnalyticsRepository {
	return &AnalyticsRepository{client: client}
}

// CountByDayAndStatus groups tickets created within [from, to).
func (r *AnalyticsRepository) CountByDayAndStatus(ctx context.Context, from, to time.Time) ([]domain.DailyStatusCount, error) {
	iter := r.client.Collection(ticketsCollection).
		Where(fieldCreatedAt, ">=", from).
		Where(fieldCreatedAt, "<", to).
		Select(fieldCreatedAt, "status").
		Documents(ctx)
	defer iter.Stop()

	tickets := make([]domain.TicketCreation, 0)
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("query ticket window: %w", err)
		}

		data := snap.Data()
		createdAt, ok := data[fieldCreatedAt].(time.Time)
		if !ok {
			continue
		}
		tickets = append(tickets, domain.TicketCreation{
			CreatedAt: createdAt,
			Status:    coerceString(data["status"]),
		})
	}

	return domain.AccumulateDailyStatusCounts(tickets), nil
}
