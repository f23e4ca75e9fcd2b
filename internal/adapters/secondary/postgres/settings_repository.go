package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/gamemod/support-desk/internal/core/domain"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/gamemod/support-desk/internal/core/utils"
	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	settingsRowID = 1

	insertDefaultSettingsQuery = `
INSERT INTO staff_settings (id, theme, site, updated_at)
VALUES ($1, $2::jsonb, $3::jsonb, $4)
ON CONFLICT (id) DO NOTHING`

	getSettingsQuery = `
SELECT theme::text, site::text, updated_at
FROM staff_settings
WHERE id = $1`

	saveSettingsQuery = `
INSERT INTO staff_settings (id, theme, site, updated_at)
VALUES ($1, $2::jsonb, $3::jsonb, $4)
ON CONFLICT (id) DO UPDATE SET
    theme      = EXCLUDED.theme,
    site       = EXCLUDED.site,
    updated_at = EXCLUDED.updated_at
RETURNING theme::text, site::text, updated_at`
)

// SettingsRepository stores the staff settings singleton as one row with
// JSONB theme and site columns.
type SettingsRepository struct {
	pool *pgxpool.Pool
	tm   *TransactionManager
}

var _ ports.SettingsRepository = (*SettingsRepository)(nil)

func NewSettingsRepository(pool *pgxpool.Pool, tm *TransactionManager) *SettingsRepository {
	return &SettingsRepository{pool: pool, tm: tm}
}

// GetOrCreate inserts the defaults if the row is missing and returns the
// stored record. Concurrent first reads both succeed.
func (r *SettingsRepository) GetOrCreate(ctx context.Context, defaults domain.StaffSettings) (*domain.StaffSettings, error) {
	theme, site, err := encodeSettings(&defaults)
	if err != nil {
		return nil, err
	}

	var settings *domain.StaffSettings
	err = r.tm.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertDefaultSettingsQuery,
			settingsRowID, theme, site, utils.ToTimestamptz(defaults.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert default settings: %w", err)
		}

		settings, err = scanSettings(tx.QueryRow(ctx, getSettingsQuery, settingsRowID))
		if err != nil {
			return fmt.Errorf("get settings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return settings, nil
}

// Save writes the whole record.
func (r *SettingsRepository) Save(ctx context.Context, settings *domain.StaffSettings) (*domain.StaffSettings, error) {
	theme, site, err := encodeSettings(settings)
	if err != nil {
		return nil, err
	}

	saved, err := scanSettings(GetDBTX(ctx, r.pool).QueryRow(ctx, saveSettingsQuery,
		settingsRowID, theme, site, utils.ToTimestamptz(settings.UpdatedAt),
	))
	if err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}
	return saved, nil
}

func encodeSettings(settings *domain.StaffSettings) (string, string, error) {
	theme, err := json.Marshal(settings.Theme)
	if err != nil {
		return "", "", fmt.Errorf("encode theme: %w", err)
	}
	site, err := json.Marshal(settings.Site)
	if err != nil {
		return "", "", fmt.Errorf("encode site: %w", err)
	}
	return string(theme), string(site), nil
}

// scanSettings decodes a row; a NULL theme or site falls back to defaults.
func scanSettings(row pgx.Row) (*domain.StaffSettings, error) {
	var (
		themeJSON pgtype.Text
		siteJSON  pgtype.Text
		updatedAt time.Time
	)
	if err := row.Scan(&themeJSON, &siteJSON, &updatedAt); err != nil {
		return nil, err
	}

	var theme *domain.ThemeSettings
	if themeJSON.Valid {
		theme = &domain.ThemeSettings{}
		if err := json.Unmarshal([]byte(themeJSON.String), theme); err != nil {
			return nil, fmt.Errorf("decode theme: %w", err)
		}
	}

	var site *domain.SiteSettings
	if siteJSON.Valid {
		site = &domain.SiteSettings{}
		if err := json.Unmarshal([]byte(siteJSON.String), site); err != nil {
			return nil, fmt.Errorf("decode site: %w", err)
		}
	}

	return domain.ResolveStaffSettings(theme, site, updatedAt.UTC()), nil
}
