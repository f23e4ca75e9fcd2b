package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/gamemod/support-desk/internal/core/utils"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Buckets are UTC calendar days regardless of the session time zone.
const countByDayAndStatusQuery = `
SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, status, COUNT(*)
FROM tickets
WHERE created_at >= $1
  AND created_at < $2
GROUP BY 1, 2
ORDER BY 1, 2
`

// AnalyticsRepository groups ticket creations server-side.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TicketAnalyticsRepository = (*AnalyticsRepository)(nil)

func NewAnalyticsRepository(pool *pgxpool.Pool) *AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// CountByDayAndStatus returns one row per (day, stored status) pair for
// tickets created in [from, to).
func (r *AnalyticsRepository) CountByDayAndStatus(ctx context.Context, from, to time.Time) ([]domain.DailyStatusCount, error) {
	rows, err := GetDBTX(ctx, r.pool).Query(ctx, countByDayAndStatusQuery,
		utils.ToTimestamptz(from),
		utils.ToTimestamptz(to),
	)
	if err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}
	defer rows.Close()

	counts := make([]domain.DailyStatusCount, 0)
	for rows.Next() {
		var (
			day    time.Time
			status string
			count  int64
		)
		if err := rows.Scan(&day, &status, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts = append(counts, domain.DailyStatusCount{
			Day:    domain.UTCDay(day),
			Status: domain.TicketStatus(status),
			Count:  count,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}

	return counts, nil
}
