package repositories

import (
	"time"

	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
)

// Page is the offset pagination applied to every list query.
type Page struct {
	Limit  int
	Offset int
}

// Normalize clamps the page to sane bounds.
func (p *Page) Normalize() {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// DueWindow selects tasks by due date relative to now.
type DueWindow string

const (
	DueAny     DueWindow = ""
	DueOverdue DueWindow = "overdue"
	DueToday   DueWindow = "today"
	DueWeek    DueWindow = "week"
)

// LoanFilter restricts a loan list query. Scope is always applied.
type LoanFilter struct {
	Scope         access.Scope
	Stage         string
	Status        domain.LoanStatus
	LoanOfficerID string
	Page          Page
}

// TaskFilter restricts a task list query.
type TaskFilter struct {
	Scope    access.Scope
	Status   domain.TaskStatus
	Priority domain.TaskPriority
	Category string
	LoanID   string
	Due      DueWindow
	Page     Page
}

// DocumentFilter restricts a document list query.
type DocumentFilter struct {
	Scope  access.Scope
	LoanID string
	Status domain.DocumentStatus
	Type   string
	Page   Page
}

// CommunicationFilter restricts a communication list query.
type CommunicationFilter struct {
	Scope     access.Scope
	LoanID    string
	Type      domain.CommunicationType
	Direction domain.CommDirection
	Since     *time.Time
	Page      Page
}

// NotificationFilter restricts a notification list query to one user.
type NotificationFilter struct {
	UserID     string
	UnreadOnly bool
	Type       domain.NotificationType
	Page       Page
}

// AppointmentFilter restricts an appointment list query to one user.
type AppointmentFilter struct {
	UserID   string
	From     *time.Time
	To       *time.Time
	Category string
	Page     Page
}

// UserFilter restricts the admin user list.
type UserFilter struct {
	Role domain.Role
	Page Page
}
