package repositories

import (
	"context"
	"time"

	"github.com/harborlend/loancrm/internal/core/domain"
)

// AppointmentRepository persists appointments.
type AppointmentRepository interface {
	SaveAppointment(ctx context.Context, appt domain.Appointment) error
	FindAppointmentByID(ctx context.Context, apptID string) (*domain.Appointment, error)
	FindAppointments(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, int, error)
	// FindAppointmentsBetween returns every appointment of the user
	// overlapping [from, to), in start order and without pagination, for
	// day and month views.
	FindAppointmentsBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Appointment, error)
	// FindConflicting returns the user's appointments whose [start, end)
	// interval overlaps the given one. excludeID, when non-empty, leaves
	// that appointment out of the check so reschedules do not collide with
	// themselves.
	FindConflicting(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]domain.Appointment, error)
	UpdateAppointment(ctx context.Context, appt domain.Appointment) error
	DeleteAppointment(ctx context.Context, apptID string) error
	FindCategories(ctx context.Context, userID string) ([]string, error)
}
