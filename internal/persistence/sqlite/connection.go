package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/facility-scheduler/internal/persistence"
	_ "modernc.org/sqlite"
)

// ConnectionPool manages SQLite database connections with transaction support.
type ConnectionPool struct {
	db *sql.DB
}

// Open creates a connection pool for the given DSN and applies the pragmas
// the booking engine relies on. SQLite serializes writers internally; the
// busy timeout keeps short lock waits from surfacing as hard failures.
func Open(dsn string) (*ConnectionPool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: empty DSN")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: failed to apply %q: %w", pragma, err)
		}
	}

	return &ConnectionPool{db: db}, nil
}

// DB returns the underlying database handle.
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool.
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// TransactionFunc represents a function that executes within a transaction.
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes a function within a database transaction. If the
// function returns an error the transaction is rolled back, otherwise it is
// committed.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// MapError maps SQLite driver errors onto the persistence sentinels.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return persistence.ErrNotFound
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "UNIQUE constraint failed"):
		return persistence.ErrDuplicate
	case strings.Contains(errStr, "FOREIGN KEY constraint failed"):
		return persistence.ErrConstraintViolation
	case strings.Contains(errStr, "CHECK constraint failed"):
		return persistence.ErrConstraintViolation
	case isBusy(errStr):
		return fmt.Errorf("%w: %v", persistence.ErrUnavailable, err)
	}

	return err
}

func isBusy(errStr string) bool {
	return strings.Contains(errStr, "database is locked") ||
		strings.Contains(errStr, "database locked") ||
		strings.Contains(errStr, "SQLITE_BUSY")
}

// RetryConfig configures retry behavior for transient store failures.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a retry configuration with sensible defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		BackoffFactor: 2.0,
	}
}

// WithRetry executes fn, retrying with exponential backoff while it reports a
// retryable store failure. Re-running the full admission cycle is correct by
// construction, so only ErrUnavailable class failures are retried; business
// outcomes such as ErrConflict surface immediately. When retries are
// exhausted the last error is returned wrapped in ErrUnavailable.
func WithRetry(ctx context.Context, config RetryConfig, fn func() error) error {
	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * config.BackoffFactor)
				if delay > config.MaxDelay {
					delay = config.MaxDelay
				}
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, persistence.ErrUnavailable) {
			return lastErr
		}
	}

	return fmt.Errorf("%w: gave up after %d retries: %v", persistence.ErrUnavailable, config.MaxRetries, lastErr)
}
