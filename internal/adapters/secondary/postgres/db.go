package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gamemod/support-desk/internal/config"
	"github.com/gamemod/support-desk/internal/core/ports"
	"github.com/gamemod/support-desk/migrations"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool opens and pings a connection pool sized from configuration.
func NewPool(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	poolConfig.MaxConnIdleTime = cfg.ConnMaxIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// HealthChecker pings the pool for readiness probes.
type HealthChecker struct {
	pool *pgxpool.Pool
}

var _ ports.HealthChecker = (*HealthChecker)(nil)

func NewHealthChecker(pool *pgxpool.Pool) *HealthChecker {
	return &HealthChecker{pool: pool}
}

func (h *HealthChecker) Ping(ctx context.Context) error {
	return h.pool.Ping(ctx)
}

// NewStorage wires every repository onto one pool. Close releases the pool.
func NewStorage(pool *pgxpool.Pool) ports.Storage {
	tm := NewTransactionManager(pool)
	return ports.Storage{
		Tickets:   NewTicketRepository(pool, tm),
		Analytics: NewAnalyticsRepository(pool),
		Topics:    NewTopicRepository(pool),
		Settings:  NewSettingsRepository(pool, tm),
		Health:    NewHealthChecker(pool),
		Close:     pool.Close,
	}
}

// MigrateUp applies every pending embedded migration.
func MigrateUp(databaseURL string) error {
	return runMigrations(databaseURL, func(m *migrate.Migrate) error { return m.Up() })
}

// MigrateDown rolls back the given number of migrations.
func MigrateDown(databaseURL string, steps int) error {
	return runMigrations(databaseURL, func(m *migrate.Migrate) error { return m.Steps(-steps) })
}

func runMigrations(databaseURL string, apply func(*migrate.Migrate) error) error {
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if err := apply(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
