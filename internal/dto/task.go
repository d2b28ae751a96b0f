package dto

import (
	"time"

	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

// CreateTaskRequest defines the data needed to create a task.
type CreateTaskRequest struct {
	Title       string              `json:"title" binding:"required"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	Type        string              `json:"type"`
	Priority    domain.TaskPriority `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Status      domain.TaskStatus   `json:"status" binding:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	DueDate     *time.Time          `json:"dueDate"`
	LoanID      *string             `json:"loanID"`
}

// ToTask maps the request onto a domain task.
func (r CreateTaskRequest) ToTask() domain.Task {
	return domain.Task{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Type:        r.Type,
		Priority:    r.Priority,
		Status:      r.Status,
		DueDate:     r.DueDate,
		LoanID:      r.LoanID,
	}
}

// UpdateTaskRequest defines the mutable task fields.
type UpdateTaskRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Priority    *domain.TaskPriority `json:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Status      *domain.TaskStatus   `json:"status" binding:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	DueDate     *time.Time           `json:"dueDate"`
	LoanID      *string              `json:"loanID"`
}

// ToTaskPatch maps the request onto the service patch.
func (r UpdateTaskRequest) ToTaskPatch() portssvc.TaskPatch {
	return portssvc.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		DueDate:     r.DueDate,
		LoanID:      r.LoanID,
	}
}

// TaskResponse mirrors domain.Task.
type TaskResponse struct {
	TaskID      string              `json:"taskID"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Category    string              `json:"category,omitempty"`
	Type        string              `json:"type,omitempty"`
	Priority    domain.TaskPriority `json:"priority"`
	Status      domain.TaskStatus   `json:"status"`
	DueDate     *time.Time          `json:"dueDate,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
	UserID      string              `json:"userID"`
	LoanID      *string             `json:"loanID,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// ToTaskResponse converts a domain.Task to its wire representation.
func ToTaskResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		TaskID:      t.TaskID,
		Title:       t.Title,
		Description: t.Description,
		Category:    t.Category,
		Type:        t.Type,
		Priority:    t.Priority,
		Status:      t.Status,
		DueDate:     t.DueDate,
		CompletedAt: t.CompletedAt,
		UserID:      t.UserID,
		LoanID:      t.LoanID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// ToListTaskResponse converts a slice of tasks.
func ToListTaskResponse(tasks []domain.Task) []TaskResponse {
	res := make([]TaskResponse, len(tasks))
	for i := range tasks {
		res[i] = ToTaskResponse(&tasks[i])
	}
	return res
}

// TaskSummaryResponse bundles the workload buckets with the status and
// priority breakdowns.
type TaskSummaryResponse struct {
	Overdue           int                 `json:"overdue"`
	DueToday          int                 `json:"dueToday"`
	Upcoming          int                 `json:"upcoming"`
	CompletedThisWeek int                 `json:"completedThisWeek"`
	ByStatus          []domain.GroupCount `json:"byStatus"`
	ByPriority        []domain.GroupCount `json:"byPriority"`
}

// ListTasksParams defines query parameters for listing tasks.
type ListTasksParams struct {
	ListParams
	Status   domain.TaskStatus   `form:"status" binding:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Priority domain.TaskPriority `form:"priority" binding:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Category string              `form:"category"`
	LoanID   string              `form:"loanID"`
	Due      string              `form:"due" binding:"omitempty,oneof=overdue today week"`
}

// ToTaskFilter maps the query parameters onto the repository filter.
func (p ListTasksParams) ToTaskFilter() portsrepo.TaskFilter {
	return portsrepo.TaskFilter{
		Status:   p.Status,
		Priority: p.Priority,
		Category: p.Category,
		LoanID:   p.LoanID,
		Due:      portsrepo.DueWindow(p.Due),
		Page:     portsrepo.Page{Limit: p.Limit, Offset: p.Offset()},
	}
}
