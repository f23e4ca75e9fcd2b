package services

import (
	"context"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	apperrors "github.com/gamemod/support-desk/internal/core/errors"
	"github.com/gamemod/support-desk/internal/core/ports"
)

// SettingsService manages the staff dashboard settings singleton.
type SettingsService struct {
	repo        ports.SettingsRepository
	broadcaster ports.EventBroadcaster
	now         func() time.Time
}

var _ ports.SettingsService = (*SettingsService)(nil)

// NewSettingsService creates a new settings service
func NewSettingsService(repo ports.SettingsRepository, broadcaster ports.EventBroadcaster, opts ...Option) ports.SettingsService {
	o := applyOptions(opts)
	return &SettingsService{
		repo:        repo,
		broadcaster: broadcaster,
		now:         o.now,
	}
}

// GetSettings returns the stored settings, creating the defaults on first read.
func (s *SettingsService) GetSettings(ctx context.Context) (*domain.StaffSettings, error) {
	return s.repo.GetOrCreate(ctx, domain.DefaultStaffSettings(s.now()))
}

// UpdateSettings replaces the provided sub-objects wholesale.
func (s *SettingsService) UpdateSettings(ctx context.Context, params ports.UpdateSettingsParams) (*domain.StaffSettings, error) {
	if params.Theme == nil && params.Site == nil {
		return nil, apperrors.ErrEmptySettingsUpdate
	}

	current, err := s.GetSettings(ctx)
	if err != nil {
		return nil, err
	}

	current.Merge(params.Theme, params.Site, s.now())

	saved, err := s.repo.Save(ctx, current)
	if err != nil {
		return nil, err
	}

	if s.broadcaster != nil {
		_ = s.broadcaster.Broadcast(domain.Event{Type: domain.EventSettingsUpdated, Payload: saved})
	}
	return saved, nil
}
