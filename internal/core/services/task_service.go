package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

type taskService struct {
	BaseService
	taskRepo portsrepo.TaskRepository
	now      func() time.Time
}

type TaskServiceOption func(*taskService)

// WithTaskClock overrides the service clock, for tests.
func WithTaskClock(now func() time.Time) TaskServiceOption {
	return func(s *taskService) { s.now = now }
}

// NewTaskService creates the task service.
func NewTaskService(taskRepo portsrepo.TaskRepository, opts ...TaskServiceOption) portssvc.TaskService {
	s := &taskService{taskRepo: taskRepo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.TaskService = (*taskService)(nil)

// syncCompletion keeps the completedAt timestamp in lockstep with status:
// set iff COMPLETED, on every mutation path.
func syncCompletion(task *domain.Task, now time.Time) {
	if task.Status == domain.TaskCompleted {
		if task.CompletedAt == nil {
			task.CompletedAt = &now
		}
		return
	}
	task.CompletedAt = nil
}

func (s *taskService) CreateTask(ctx context.Context, actor *domain.User, task domain.Task) (*domain.Task, error) {
	if task.Title == "" {
		return nil, apperrors.ErrValidation
	}
	if task.Priority == "" {
		task.Priority = domain.PriorityMedium
	}
	if task.Status == "" {
		task.Status = domain.TaskPending
	}
	if !task.Priority.IsValid() || !task.Status.IsValid() {
		return nil, apperrors.ErrValidation
	}

	now := s.now()
	task.TaskID = uuid.NewString()
	task.UserID = actor.UserID
	task.CreatedAt = now
	task.UpdatedAt = now
	syncCompletion(&task, now)

	if err := s.taskRepo.SaveTask(ctx, task); err != nil {
		s.LogError(ctx, err, "failed to create task")
		return nil, err
	}
	return &task, nil
}

func (s *taskService) GetTaskByID(ctx context.Context, actor *domain.User, taskID string) (*domain.Task, error) {
	task, err := s.taskRepo.FindTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != actor.UserID && !actor.HasRole(domain.RoleAdmin) {
		return nil, apperrors.ErrNotFound
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, actor *domain.User, filter portsrepo.TaskFilter) ([]domain.Task, int, error) {
	filter.Scope = access.ScopeFor(actor, access.ResourceTask)
	return s.taskRepo.FindTasks(ctx, filter)
}

func (s *taskService) UpdateTask(ctx context.Context, actor *domain.User, taskID string, patch portssvc.TaskPatch) (*domain.Task, error) {
	task, err := s.GetTaskByID(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	if !access.CanMutateOwned(actor, task.UserID) {
		return nil, apperrors.ErrForbidden
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, apperrors.ErrValidation
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		if !patch.Priority.IsValid() {
			return nil, apperrors.ErrValidation
		}
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		if !patch.Status.IsValid() {
			return nil, apperrors.ErrValidation
		}
		task.Status = *patch.Status
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.LoanID != nil {
		if *patch.LoanID == "" {
			task.LoanID = nil
		} else {
			task.LoanID = patch.LoanID
		}
	}

	now := s.now()
	task.UpdatedAt = now
	syncCompletion(task, now)

	if err := s.taskRepo.UpdateTask(ctx, *task); err != nil {
		s.LogError(ctx, err, "failed to update task", "task_id", taskID)
		return nil, err
	}
	return task, nil
}

func (s *taskService) CompleteTask(ctx context.Context, actor *domain.User, taskID string) (*domain.Task, error) {
	status := domain.TaskCompleted
	return s.UpdateTask(ctx, actor, taskID, portssvc.TaskPatch{Status: &status})
}

func (s *taskService) DeleteTask(ctx context.Context, actor *domain.User, taskID string) error {
	task, err := s.GetTaskByID(ctx, actor, taskID)
	if err != nil {
		return err
	}
	if !access.CanMutateOwned(actor, task.UserID) {
		return apperrors.ErrForbidden
	}
	return s.taskRepo.DeleteTask(ctx, taskID)
}

func (s *taskService) GetTaskSummary(ctx context.Context, actor *domain.User) (*domain.TaskSummary, error) {
	return s.taskRepo.SummarizeTasks(ctx, actor.UserID, s.now())
}

func (s *taskService) GetTaskStats(ctx context.Context, actor *domain.User) ([]domain.GroupCount, []domain.GroupCount, error) {
	byStatus, err := s.taskRepo.CountTasksByStatus(ctx, actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	byPriority, err := s.taskRepo.CountTasksByPriority(ctx, actor.UserID)
	if err != nil {
		return nil, nil, err
	}
	return byStatus, byPriority, nil
}
