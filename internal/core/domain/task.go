package domain

import "time"

// TaskPriority orders tasks by urgency.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
	PriorityUrgent TaskPriority = "URGENT"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskCancelled  TaskStatus = "CANCELLED"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskCancelled:
		return true
	}
	return false
}

// Task is an actionable to-do, optionally tied to a loan.
// CompletedAt is non-nil iff Status == TaskCompleted.
type Task struct {
	TaskID      string       `json:"taskID"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category"`
	Type        string       `json:"type"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	DueDate     *time.Time   `json:"dueDate,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
	UserID      string       `json:"userID"`
	LoanID      *string      `json:"loanID,omitempty"`
	AuditFields
}

// TaskSummary aggregates a user's open workload.
type TaskSummary struct {
	Overdue           int `json:"overdue"`
	DueToday          int `json:"dueToday"`
	Upcoming          int `json:"upcoming"`
	CompletedThisWeek int `json:"completedThisWeek"`
}

// GroupCount is a generic (key, count) aggregation row.
type GroupCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}
