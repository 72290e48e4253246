package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/facility-scheduler/internal/persistence"
)

// EquipmentRepository implements persistence.EquipmentRepository on
// PostgreSQL.
type EquipmentRepository struct {
	pool *pgxpool.Pool
}

// NewEquipmentRepository creates a PostgreSQL equipment repository.
func NewEquipmentRepository(pool *pgxpool.Pool) *EquipmentRepository {
	return &EquipmentRepository{pool: pool}
}

// CreateEquipment inserts a new equipment unit.
func (r *EquipmentRepository) CreateEquipment(ctx context.Context, equipment persistence.Equipment) error {
	if equipment.ID == "" || equipment.Name == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		"INSERT INTO equipment (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)",
		equipment.ID, equipment.Name, now, now,
	)
	return mapError(err)
}

// GetEquipment retrieves an equipment unit by id.
func (r *EquipmentRepository) GetEquipment(ctx context.Context, id string) (persistence.Equipment, error) {
	if id == "" {
		return persistence.Equipment{}, persistence.ErrNotFound
	}

	var item persistence.Equipment
	err := r.pool.QueryRow(ctx,
		"SELECT id, name, created_at, updated_at FROM equipment WHERE id = $1", id,
	).Scan(&item.ID, &item.Name, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return persistence.Equipment{}, mapError(err)
	}
	return item, nil
}

// ListEquipment returns all equipment ordered by name then id.
func (r *EquipmentRepository) ListEquipment(ctx context.Context) ([]persistence.Equipment, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, name, created_at, updated_at FROM equipment ORDER BY name ASC, id ASC",
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var items []persistence.Equipment
	for rows.Next() {
		var item persistence.Equipment
		if err := rows.Scan(&item.ID, &item.Name, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, mapError(err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return items, nil
}

// DeleteEquipment removes an equipment unit; its assignments cascade.
func (r *EquipmentRepository) DeleteEquipment(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	tag, err := r.pool.Exec(ctx, "DELETE FROM equipment WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
