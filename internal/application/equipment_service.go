package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/facility-scheduler/internal/persistence"
)

// EquipmentService manages the equipment catalog.
type EquipmentService struct {
	equipment   persistence.EquipmentRepository
	idGenerator func() string
	logger      *slog.Logger
}

// NewEquipmentService wires dependencies for equipment operations.
func NewEquipmentService(equipment persistence.EquipmentRepository, idGenerator func() string, logger *slog.Logger) *EquipmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	return &EquipmentService{
		equipment:   equipment,
		idGenerator: idGenerator,
		logger:      logger,
	}
}

// Create registers a new equipment unit.
func (s *EquipmentService) Create(ctx context.Context, input EquipmentInput) (EquipmentItem, error) {
	if s == nil {
		return EquipmentItem{}, fmt.Errorf("EquipmentService is nil")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr := &ValidationError{}
		vErr.add("name", "name is required")
		return EquipmentItem{}, vErr
	}

	item := persistence.Equipment{
		ID:   s.idGenerator(),
		Name: name,
	}

	if err := s.equipment.CreateEquipment(ctx, item); err != nil {
		return EquipmentItem{}, mapPersistenceError(err)
	}

	serviceLogger(ctx, s.logger, "equipment", "create", "equipment_id", item.ID).
		InfoContext(ctx, "equipment registered", "name", name)

	created, err := s.equipment.GetEquipment(ctx, item.ID)
	if err != nil {
		return EquipmentItem{}, mapPersistenceError(err)
	}

	return equipmentFromPersistence(created), nil
}

// Get retrieves an equipment unit by id.
func (s *EquipmentService) Get(ctx context.Context, id string) (EquipmentItem, error) {
	item, err := s.equipment.GetEquipment(ctx, id)
	if err != nil {
		return EquipmentItem{}, mapPersistenceError(err)
	}
	return equipmentFromPersistence(item), nil
}

// List returns the catalog ordered by name then id.
func (s *EquipmentService) List(ctx context.Context) ([]EquipmentItem, error) {
	stored, err := s.equipment.ListEquipment(ctx)
	if err != nil {
		return nil, mapPersistenceError(err)
	}

	items := make([]EquipmentItem, 0, len(stored))
	for _, item := range stored {
		items = append(items, equipmentFromPersistence(item))
	}
	return items, nil
}

// Delete removes an equipment unit from the catalog.
func (s *EquipmentService) Delete(ctx context.Context, id string) error {
	if err := s.equipment.DeleteEquipment(ctx, id); err != nil {
		return mapPersistenceError(err)
	}

	serviceLogger(ctx, s.logger, "equipment", "delete", "equipment_id", id).
		InfoContext(ctx, "equipment deleted")
	return nil
}

func equipmentFromPersistence(item persistence.Equipment) EquipmentItem {
	return EquipmentItem{
		ID:        item.ID,
		Name:      item.Name,
		CreatedAt: item.CreatedAt,
		UpdatedAt: item.UpdatedAt,
	}
}
