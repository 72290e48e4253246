package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/example/facility-scheduler/internal/persistence"
	"github.com/example/facility-scheduler/internal/scheduling"
)

const equipmentNameCacheSize = 256

// CalendarService answers merged calendar queries: the events admitted on a
// resource plus, for each requested equipment unit, the events holding that
// unit. Equipment sourced entries are relabelled with the equipment booking
// kind and the unit's name as description, mirroring how operators read the
// calendar.
type CalendarService struct {
	events    persistence.ScheduledEventRepository
	equipment persistence.EquipmentRepository
	names     *lru.Cache[string, string]
	logger    *slog.Logger
}

// NewCalendarService wires dependencies for calendar queries.
func NewCalendarService(events persistence.ScheduledEventRepository, equipment persistence.EquipmentRepository, logger *slog.Logger) (*CalendarService, error) {
	names, err := lru.New[string, string](equipmentNameCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to build equipment name cache: %w", err)
	}
	return &CalendarService{
		events:    events,
		equipment: equipment,
		names:     names,
		logger:    logger,
	}, nil
}

// Query lists events for the calendar view. Results are ordered by start
// time, then id; an equipment entry for the same underlying event sorts
// alongside its instrument entry.
func (s *CalendarService) Query(ctx context.Context, params QueryEventsParams) ([]Event, error) {
	if s == nil {
		return nil, fmt.Errorf("CalendarService is nil")
	}

	window := persistence.EventWindow{Start: params.StartsAfter, End: params.EndsBefore}

	var merged []Event

	// An empty resource id leaves the listing unscoped. Only a pure
	// equipment filter narrows the calendar to equipment entries alone.
	if params.ResourceID != "" || len(params.EquipmentIDs) == 0 {
		stored, err := s.events.ListEvents(ctx, persistence.EventFilter{
			ResourceID: params.ResourceID,
			Window:     window,
		})
		if err != nil {
			return nil, mapPersistenceError(err)
		}
		for _, event := range stored {
			merged = append(merged, eventFromPersistence(event))
		}
	}

	for _, equipmentID := range params.EquipmentIDs {
		name, err := s.equipmentName(ctx, equipmentID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				serviceLogger(ctx, s.logger, "calendar", "query").WarnContext(ctx,
					"skipping unknown equipment", "equipment_id", equipmentID)
				continue
			}
			return nil, err
		}

		stored, err := s.events.ListEventsForEquipment(ctx, equipmentID, window)
		if err != nil {
			return nil, mapPersistenceError(err)
		}
		for _, event := range stored {
			entry := eventFromPersistence(event)
			entry.BookingKind = scheduling.BookingKindEquipment
			entry.EquipmentID = equipmentID
			label := name
			entry.Description = &label
			merged = append(merged, entry)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Start.Equal(merged[j].Start) {
			return merged[i].Start.Before(merged[j].Start)
		}
		if merged[i].ID != merged[j].ID {
			return merged[i].ID < merged[j].ID
		}
		return merged[i].EquipmentID < merged[j].EquipmentID
	})

	return merged, nil
}

// equipmentName resolves an equipment unit's display name through the LRU
// cache. Names are effectively immutable, so a cached hit never goes stale
// in a way operators would notice within a session.
func (s *CalendarService) equipmentName(ctx context.Context, equipmentID string) (string, error) {
	if name, ok := s.names.Get(equipmentID); ok {
		return name, nil
	}

	item, err := s.equipment.GetEquipment(ctx, equipmentID)
	if err != nil {
		return "", mapPersistenceError(err)
	}

	s.names.Add(equipmentID, item.Name)
	return item.Name, nil
}

// ForgetEquipment drops a cached name, used when a unit is deleted.
func (s *CalendarService) ForgetEquipment(equipmentID string) {
	if s != nil {
		s.names.Remove(equipmentID)
	}
}
