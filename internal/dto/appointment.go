package dto

import (
	"time"

	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

// CreateAppointmentRequest defines the data needed to book a slot.
type CreateAppointmentRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"startTime" binding:"required"`
	EndTime     time.Time `json:"endTime" binding:"required"`
	Category    string    `json:"category"`
	Color       string    `json:"color"`
}

// ToAppointment maps the request onto a domain appointment.
func (r CreateAppointmentRequest) ToAppointment() domain.Appointment {
	return domain.Appointment{
		Title:       r.Title,
		Description: r.Description,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Category:    r.Category,
		Color:       r.Color,
	}
}

// UpdateAppointmentRequest defines the mutable appointment fields.
type UpdateAppointmentRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Color       *string    `json:"color"`
	StartTime   *time.Time `json:"startTime"`
	EndTime     *time.Time `json:"endTime"`
}

// ToAppointmentPatch maps the request onto the service patch.
func (r UpdateAppointmentRequest) ToAppointmentPatch() portssvc.AppointmentPatch {
	return portssvc.AppointmentPatch{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Color:       r.Color,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
	}
}

// AppointmentResponse mirrors domain.Appointment.
type AppointmentResponse struct {
	AppointmentID string    `json:"appointmentID"`
	UserID        string    `json:"userID"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Category      string    `json:"category,omitempty"`
	Color         string    `json:"color,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ToAppointmentResponse converts a domain.Appointment to its wire
// representation.
func ToAppointmentResponse(a *domain.Appointment) AppointmentResponse {
	return AppointmentResponse{
		AppointmentID: a.AppointmentID,
		UserID:        a.UserID,
		Title:         a.Title,
		Description:   a.Description,
		StartTime:     a.StartTime,
		EndTime:       a.EndTime,
		Category:      a.Category,
		Color:         a.Color,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

// ToListAppointmentResponse converts a slice of appointments.
func ToListAppointmentResponse(appts []domain.Appointment) []AppointmentResponse {
	res := make([]AppointmentResponse, len(appts))
	for i := range appts {
		res[i] = ToAppointmentResponse(&appts[i])
	}
	return res
}

// ToCalendarResponse converts the day-grouped calendar map.
func ToCalendarResponse(calendar map[string][]domain.Appointment) map[string][]AppointmentResponse {
	res := make(map[string][]AppointmentResponse, len(calendar))
	for day, appts := range calendar {
		res[day] = ToListAppointmentResponse(appts)
	}
	return res
}

// ListAppointmentsParams defines query parameters for listing appointments.
type ListAppointmentsParams struct {
	ListParams
	From     *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To       *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Category string     `form:"category"`
}

// ToAppointmentFilter maps the query parameters onto the repository filter.
func (p ListAppointmentsParams) ToAppointmentFilter() portsrepo.AppointmentFilter {
	return portsrepo.AppointmentFilter{
		From:     p.From,
		To:       p.To,
		Category: p.Category,
		Page:     portsrepo.Page{Limit: p.Limit, Offset: p.Offset()},
	}
}
