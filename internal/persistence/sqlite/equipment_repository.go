package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/facility-scheduler/internal/persistence"
)

// EquipmentRepository implements persistence.EquipmentRepository using SQLite.
type EquipmentRepository struct {
	pool *ConnectionPool
}

// NewEquipmentRepository creates a SQLite equipment repository.
func NewEquipmentRepository(pool *ConnectionPool) *EquipmentRepository {
	return &EquipmentRepository{pool: pool}
}

// CreateEquipment inserts a new equipment unit.
func (r *EquipmentRepository) CreateEquipment(ctx context.Context, equipment persistence.Equipment) error {
	if equipment.ID == "" || equipment.Name == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	equipment.CreatedAt = now
	equipment.UpdatedAt = now

	query := `
		INSERT INTO equipment (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`

	_, err := r.pool.db.ExecContext(ctx, query,
		equipment.ID,
		equipment.Name,
		equipment.CreatedAt.Format(time.RFC3339),
		equipment.UpdatedAt.Format(time.RFC3339),
	)
	return MapError(err)
}

// GetEquipment retrieves an equipment unit by id.
func (r *EquipmentRepository) GetEquipment(ctx context.Context, id string) (persistence.Equipment, error) {
	if id == "" {
		return persistence.Equipment{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, name, created_at, updated_at
		FROM equipment
		WHERE id = ?
	`

	return scanEquipment(r.pool.db.QueryRowContext(ctx, query, id))
}

// ListEquipment returns all equipment ordered by name then id.
func (r *EquipmentRepository) ListEquipment(ctx context.Context) ([]persistence.Equipment, error) {
	query := `
		SELECT id, name, created_at, updated_at
		FROM equipment
		ORDER BY name ASC, id ASC
	`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, MapError(err)
	}
	defer rows.Close()

	var items []persistence.Equipment
	for rows.Next() {
		item, err := scanEquipment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return items, nil
}

// DeleteEquipment removes an equipment unit; its assignments cascade.
func (r *EquipmentRepository) DeleteEquipment(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM equipment WHERE id = ?", id)
	if err != nil {
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func scanEquipment(row rowScanner) (persistence.Equipment, error) {
	var item persistence.Equipment
	var createdStr, updatedStr string

	err := row.Scan(&item.ID, &item.Name, &createdStr, &updatedStr)
	if err != nil {
		return persistence.Equipment{}, MapError(err)
	}

	if item.CreatedAt, err = time.Parse(time.RFC3339, createdStr); err != nil {
		return persistence.Equipment{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if item.UpdatedAt, err = time.Parse(time.RFC3339, updatedStr); err != nil {
		return persistence.Equipment{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return item, nil
}
