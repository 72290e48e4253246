package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/example/facility-scheduler/internal/application"
	"github.com/example/facility-scheduler/internal/config"
	httptransport "github.com/example/facility-scheduler/internal/http"
	"github.com/example/facility-scheduler/internal/logging"
)

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the booking API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(os.Stdout, slog.LevelInfo)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := openStorage(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() {
				if cerr := store.close(); cerr != nil {
					logger.Error("failed to close storage", "error", cerr)
				}
			}()

			if migrateUp {
				if err := store.migrate(ctx); err != nil {
					return fmt.Errorf("failed to apply migrations: %w", err)
				}
			}

			idGenerator := uuid.NewString

			bookingService := application.NewBookingService(store.events, idGenerator, logger)
			calendarService, err := application.NewCalendarService(store.events, store.equipment, logger)
			if err != nil {
				return err
			}
			equipmentService := application.NewEquipmentService(store.equipment, idGenerator, logger)

			entries := make([]application.OperatorEntry, 0, len(cfg.OperatorTokens))
			for _, token := range cfg.OperatorTokens {
				entries = append(entries, application.OperatorEntry{
					Operator: token.Operator,
					Digest:   token.Digest,
				})
			}
			registry := application.NewOperatorRegistry(entries)

			handler := httptransport.NewRouter(httptransport.RouterConfig{
				Events:    httptransport.NewEventHandler(bookingService, calendarService, logger),
				Equipment: httptransport.NewEquipmentHandler(equipmentService, logger),
				Middleware: []func(http.Handler) http.Handler{
					httptransport.RequestLogger(logger),
					httptransport.RequireOperator(registry, logger),
				},
			})

			server := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("failed to shutdown server", "error", err)
				}
			}()

			logger.Info("booking API listening", "addr", server.Addr, "driver", cfg.StorageDriver)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "apply schema migrations on startup")
	return cmd
}
