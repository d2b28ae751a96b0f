package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

type appointmentService struct {
	BaseService
	apptRepo portsrepo.AppointmentRepository
	now      func() time.Time
}

type AppointmentServiceOption func(*appointmentService)

// WithAppointmentClock overrides the service clock, for tests.
func WithAppointmentClock(now func() time.Time) AppointmentServiceOption {
	return func(s *appointmentService) { s.now = now }
}

// NewAppointmentService creates the appointment scheduling service.
func NewAppointmentService(apptRepo portsrepo.AppointmentRepository, opts ...AppointmentServiceOption) portssvc.AppointmentService {
	s := &appointmentService{apptRepo: apptRepo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.AppointmentService = (*appointmentService)(nil)

// checkConflict rejects a slot that overlaps any of the owner's existing
// appointments. Intervals are half-open, so back-to-back bookings are fine.
func (s *appointmentService) checkConflict(ctx context.Context, userID string, start, end time.Time, excludeID string) error {
	conflicts, err := s.apptRepo.FindConflicting(ctx, userID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		blocking := conflicts[0]
		return apperrors.NewAppError(409,
			fmt.Sprintf("time slot conflicts with %q (%s - %s)",
				blocking.Title,
				blocking.StartTime.Format(time.RFC3339),
				blocking.EndTime.Format(time.RFC3339)),
			apperrors.ErrConflict)
	}
	return nil
}

func (s *appointmentService) CreateAppointment(ctx context.Context, actor *domain.User, appt domain.Appointment) (*domain.Appointment, error) {
	if appt.Title == "" || !appt.StartTime.Before(appt.EndTime) {
		return nil, apperrors.ErrValidation
	}
	if err := s.checkConflict(ctx, actor.UserID, appt.StartTime, appt.EndTime, ""); err != nil {
		return nil, err
	}

	now := s.now()
	appt.AppointmentID = uuid.NewString()
	appt.UserID = actor.UserID
	appt.CreatedAt = now
	appt.UpdatedAt = now

	if err := s.apptRepo.SaveAppointment(ctx, appt); err != nil {
		s.LogError(ctx, err, "failed to create appointment")
		return nil, err
	}
	return &appt, nil
}

func (s *appointmentService) GetAppointmentByID(ctx context.Context, actor *domain.User, apptID string) (*domain.Appointment, error) {
	appt, err := s.apptRepo.FindAppointmentByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if appt.UserID != actor.UserID && !actor.HasRole(domain.RoleAdmin) {
		return nil, apperrors.ErrNotFound
	}
	return appt, nil
}

func (s *appointmentService) ListAppointments(ctx context.Context, actor *domain.User, filter portsrepo.AppointmentFilter) ([]domain.Appointment, int, error) {
	filter.UserID = actor.UserID
	return s.apptRepo.FindAppointments(ctx, filter)
}

func (s *appointmentService) UpdateAppointment(ctx context.Context, actor *domain.User, apptID string, patch portssvc.AppointmentPatch) (*domain.Appointment, error) {
	appt, err := s.GetAppointmentByID(ctx, actor, apptID)
	if err != nil {
		return nil, err
	}
	if appt.UserID != actor.UserID {
		return nil, apperrors.ErrForbidden
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, apperrors.ErrValidation
		}
		appt.Title = *patch.Title
	}
	if patch.Description != nil {
		appt.Description = *patch.Description
	}
	if patch.Category != nil {
		appt.Category = *patch.Category
	}
	if patch.Color != nil {
		appt.Color = *patch.Color
	}
	if patch.StartTime != nil {
		appt.StartTime = *patch.StartTime
	}
	if patch.EndTime != nil {
		appt.EndTime = *patch.EndTime
	}
	if !appt.StartTime.Before(appt.EndTime) {
		return nil, apperrors.ErrValidation
	}

	// Reschedules re-run the conflict check, excluding this appointment.
	if patch.StartTime != nil || patch.EndTime != nil {
		if err := s.checkConflict(ctx, appt.UserID, appt.StartTime, appt.EndTime, appt.AppointmentID); err != nil {
			return nil, err
		}
	}
	appt.UpdatedAt = s.now()

	if err := s.apptRepo.UpdateAppointment(ctx, *appt); err != nil {
		s.LogError(ctx, err, "failed to update appointment", "appointment_id", apptID)
		return nil, err
	}
	return appt, nil
}

func (s *appointmentService) DeleteAppointment(ctx context.Context, actor *domain.User, apptID string) error {
	appt, err := s.GetAppointmentByID(ctx, actor, apptID)
	if err != nil {
		return err
	}
	if appt.UserID != actor.UserID && !actor.HasRole(domain.RoleAdmin) {
		return apperrors.ErrForbidden
	}
	return s.apptRepo.DeleteAppointment(ctx, apptID)
}

func (s *appointmentService) GetCalendar(ctx context.Context, actor *domain.User, year int, month time.Month) (map[string][]domain.Appointment, error) {
	if year < 1970 || year > 2200 {
		return nil, apperrors.ErrValidation
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	// The month view renders everything; pagination would silently drop
	// appointments from busy calendars.
	appts, err := s.apptRepo.FindAppointmentsBetween(ctx, actor.UserID, from, to)
	if err != nil {
		return nil, err
	}

	calendar := map[string][]domain.Appointment{}
	for _, a := range appts {
		day := a.StartTime.UTC().Format("2006-01-02")
		calendar[day] = append(calendar[day], a)
	}
	return calendar, nil
}

func (s *appointmentService) GetToday(ctx context.Context, actor *domain.User) ([]domain.Appointment, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1)
	return s.apptRepo.FindAppointmentsBetween(ctx, actor.UserID, from, to)
}

func (s *appointmentService) GetUpcoming(ctx context.Context, actor *domain.User, limit int) ([]domain.Appointment, error) {
	if limit <= 0 {
		limit = 10
	}
	now := s.now()
	appts, _, err := s.apptRepo.FindAppointments(ctx, portsrepo.AppointmentFilter{
		UserID: actor.UserID,
		From:   &now,
		Page:   portsrepo.Page{Limit: limit},
	})
	return appts, err
}

func (s *appointmentService) GetCategories(ctx context.Context, actor *domain.User) ([]string, error) {
	return s.apptRepo.FindCategories(ctx, actor.UserID)
}
