package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/facility-scheduler/internal/config"
	"github.com/example/facility-scheduler/internal/logging"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the booking schema to the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(os.Stdout, slog.LevelInfo)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx := context.Background()
			store, err := openStorage(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer store.close()

			if err := store.migrate(ctx); err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}

			logger.Info("migrations applied", "driver", cfg.StorageDriver)
			return nil
		},
	}
}
