package domain

import "time"

// Appointment is a scheduled time block for a user. Intervals are half-open
// [StartTime, EndTime): two appointments owned by the same user never
// overlap, but touching boundaries are allowed.
type Appointment struct {
	AppointmentID string    `json:"appointmentID"`
	UserID        string    `json:"userID"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	Category      string    `json:"category"`
	Color         string    `json:"color"`
	AuditFields
}

// Overlaps reports whether two half-open intervals intersect.
func (a *Appointment) Overlaps(start, end time.Time) bool {
	return a.StartTime.Before(end) && start.Before(a.EndTime)
}
