package firestore

import (
	"context"
	"fmt"
	"time"

	fs "cloud.google.com/go/firestore"
	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
)

// SettingsRepository keeps the singleton at config/staffSettings.
type SettingsRepository struct {
	client *fs.Client
	now    func() time.Time
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(client *fs.Client) *SettingsRepository {
	return &SettingsRepository{client: client, now: time.Now}
}

func (r *SettingsRepository) doc() *fs.DocumentRef {
	return r.client.Collection(configCollection).Doc(settingsDocument)
}

// GetOrCreate writes defaults when the document is absent. Losing the
// creation race to another instance is fine: its document is returned.
func (r *SettingsRepository) GetOrCreate(ctx context.Context, defaults domain.StaffSettings) (*domain.StaffSettings, error) {
	snap, err := r.doc().Get(ctx)
	if err == nil {
		return r.decode(snap)
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	if _, err := r.doc().Create(ctx, newSettingsDoc(&defaults)); err != nil && !isAlreadyExists(err) {
		return nil, fmt.Errorf("create settings: %w", err)
	}

	snap, err = r.doc().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return r.decode(snap)
}

// Save replaces theme and site and refreshes updatedAt; createdAt is kept.
func (r *SettingsRepository) Save(ctx context.Context, settings *domain.StaffSettings) (*domain.StaffSettings, error) {
	_, err := r.doc().Set(ctx, map[string]any{
		"theme":        settings.Theme,
		"site":         settings.Site,
		fieldUpdatedAt: settings.UpdatedAt,
	}, fs.MergeAll)
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	saved := *settings
	return &saved, nil
}

func (r *SettingsRepository) decode(snap *fs.DocumentSnapshot) (*domain.StaffSettings, error) {
	var doc settingsDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return domain.ResolveStaffSettings(doc.Theme, doc.Site, coerceTime(doc.UpdatedAt, r.now())), nil
}
