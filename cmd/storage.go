package cmd

import (
	"context"
	"fmt"

	"github.com/example/facility-scheduler/internal/config"
	"github.com/example/facility-scheduler/internal/persistence"
	"github.com/example/facility-scheduler/internal/persistence/postgres"
	"github.com/example/facility-scheduler/internal/persistence/sqlite"
)

type storage struct {
	events    persistence.ScheduledEventRepository
	equipment persistence.EquipmentRepository
	migrate   func(context.Context) error
	close     func() error
}

// openStorage builds the repository pair for the configured driver.
func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &storage{
			events:    postgres.NewEventRepository(pool),
			equipment: postgres.NewEquipmentRepository(pool),
			migrate:   func(ctx context.Context) error { return postgres.Migrate(ctx, pool) },
			close:     func() error { pool.Close(); return nil },
		}, nil

	case config.DriverSQLite:
		pool, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		events := sqlite.NewEventRepository(pool)
		retry := sqlite.DefaultRetryConfig()
		retry.MaxRetries = cfg.AdmissionRetries
		events.SetRetryConfig(retry)
		return &storage{
			events:    events,
			equipment: sqlite.NewEquipmentRepository(pool),
			migrate:   pool.Migrate,
			close:     pool.Close,
		}, nil
	}

	return nil, fmt.Errorf("unsupported storage driver: %q", cfg.StorageDriver)
}
