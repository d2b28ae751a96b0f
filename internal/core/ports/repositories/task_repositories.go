package repositories

import (
	"context"
	"time"

	"github.com/harborlend/loancrm/internal/core/domain"
)

// TaskRepository persists tasks.
type TaskRepository interface {
	SaveTask(ctx context.Context, task domain.Task) error
	FindTaskByID(ctx context.Context, taskID string) (*domain.Task, error)
	FindTasks(ctx context.Context, filter TaskFilter) ([]domain.Task, int, error)
	UpdateTask(ctx context.Context, task domain.Task) error
	DeleteTask(ctx context.Context, taskID string) error
	// SummarizeTasks computes the overdue / due-today / upcoming / completed
	// buckets for the user relative to now, in a single aggregate query.
	SummarizeTasks(ctx context.Context, userID string, now time.Time) (*domain.TaskSummary, error)
	CountTasksByStatus(ctx context.Context, userID string) ([]domain.GroupCount, error)
	CountTasksByPriority(ctx context.Context, userID string) ([]domain.GroupCount, error)
}
