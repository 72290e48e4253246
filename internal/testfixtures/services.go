package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/facility-scheduler/internal/application"
	"github.com/example/facility-scheduler/internal/persistence"
)

// ServiceFactory builds application services wired to a shared deterministic
// clock and identifier sequence, so tests can predict generated ids and
// timestamps.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
}

// NewServiceFactory returns a factory pinned to ReferenceTime with an "id"
// prefixed identifier sequence.
func NewServiceFactory() *ServiceFactory {
	return &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
}

// NewBookingService builds a booking service on the supplied repository using
// the factory's identifier sequence.
func (f *ServiceFactory) NewBookingService(events persistence.ScheduledEventRepository, logger *slog.Logger) *application.BookingService {
	return application.NewBookingService(events, f.IDGenerator.NextFunc(), logger)
}

// NewCalendarService builds a calendar service over the supplied
// repositories.
func (f *ServiceFactory) NewCalendarService(events persistence.ScheduledEventRepository, equipment persistence.EquipmentRepository, logger *slog.Logger) (*application.CalendarService, error) {
	return application.NewCalendarService(events, equipment, logger)
}

// NewEquipmentService builds an equipment catalog service on the supplied
// repository.
func (f *ServiceFactory) NewEquipmentService(equipment persistence.EquipmentRepository, logger *slog.Logger) *application.EquipmentService {
	return application.NewEquipmentService(equipment, f.IDGenerator.NextFunc(), logger)
}
