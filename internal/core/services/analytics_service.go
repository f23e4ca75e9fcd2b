package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
)

// AnalyticsService builds per-day ticket status series on top of whatever
// grouping the backend can provide.
type AnalyticsService struct {
	repo ports.TicketAnalyticsRepository
	now  func() time.Time
}

var _ ports.AnalyticsService = (*AnalyticsService)(nil)

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(repo ports.TicketAnalyticsRepository, opts ...Option) ports.AnalyticsService {
	o := applyOptions(opts)
	return &AnalyticsService{repo: repo, now: o.now}
}

// StatusSeries returns the zero-filled status counts for the last days
// UTC calendar days, today included.
func (s *AnalyticsService) StatusSeries(ctx context.Context, days int) (*domain.StatusSeries, error) {
	series, err := domain.NewStatusSeries(days, s.now())
	if err != nil {
		return nil, err
	}

	from, to := series.Window()
	rows, err := s.repo.CountByDayAndStatus(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("count tickets by day and status: %w", err)
	}

	series.AddCounts(rows)
	return series, nil
}
