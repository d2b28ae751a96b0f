package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
)

type PgxTaskRepository struct {
	BaseRepository
}

func newPgxTaskRepository(db *pgxpool.Pool) portsrepo.TaskRepository {
	return &PgxTaskRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.TaskRepository = (*PgxTaskRepository)(nil)

const taskColumns = `task_id, title, description, category, type, priority, status,
	due_date, completed_at, user_id, loan_id, created_at, updated_at`

// execer is satisfied by both *pgxpool.Pool and pgx.Tx, letting inserts run
// standalone or inside a surrounding transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertTask(ctx context.Context, db execer, task domain.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err := db.Exec(ctx, query,
		task.TaskID,
		task.Title,
		task.Description,
		task.Category,
		task.Type,
		task.Priority,
		task.Status,
		task.DueDate,
		task.CompletedAt,
		task.UserID,
		task.LoanID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	return err
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.TaskID,
		&t.Title,
		&t.Description,
		&t.Category,
		&t.Type,
		&t.Priority,
		&t.Status,
		&t.DueDate,
		&t.CompletedAt,
		&t.UserID,
		&t.LoanID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PgxTaskRepository) SaveTask(ctx context.Context, task domain.Task) error {
	if err := insertTask(ctx, r.Pool, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func (r *PgxTaskRepository) FindTaskByID(ctx context.Context, taskID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE task_id = $1;`
	task, err := scanTask(r.Pool.QueryRow(ctx, query, taskID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task by ID %s: %w", taskID, err)
	}
	return task, nil
}

func (r *PgxTaskRepository) FindTasks(ctx context.Context, filter portsrepo.TaskFilter) ([]domain.Task, int, error) {
	filter.Page.Normalize()

	b := &condBuilder{}
	if filter.Scope.MatchesNothing() {
		b.conds = append(b.conds, "FALSE")
	} else if !filter.Scope.Unrestricted {
		b.addf("user_id = $%d", filter.Scope.UserID)
	}
	if filter.Status != "" {
		b.addf("status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		b.addf("priority = $%d", filter.Priority)
	}
	if filter.Category != "" {
		b.addf("category = $%d", filter.Category)
	}
	if filter.LoanID != "" {
		b.addf("loan_id = $%d", filter.LoanID)
	}
	switch filter.Due {
	case portsrepo.DueOverdue:
		b.conds = append(b.conds, "due_date < now()", "status NOT IN ('COMPLETED', 'CANCELLED')")
	case portsrepo.DueToday:
		b.conds = append(b.conds, "due_date::date = now()::date")
	case portsrepo.DueWeek:
		b.conds = append(b.conds, "due_date >= now()", "due_date < now() + interval '7 days'")
	}

	var total int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+b.where(), b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+taskColumns+` FROM tasks%s ORDER BY due_date ASC NULLS LAST, created_at DESC LIMIT $%d OFFSET $%d;`,
		b.where(), b.next(0), b.next(1))
	rows, err := r.Pool.Query(ctx, query, append(b.args, filter.Page.Limit, filter.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error iterating task rows: %w", rows.Err())
	}
	return tasks, total, nil
}

func (r *PgxTaskRepository) UpdateTask(ctx context.Context, task domain.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, category = $3, type = $4, priority = $5,
			status = $6, due_date = $7, completed_at = $8, loan_id = $9, updated_at = $10
		WHERE task_id = $11;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		task.Title,
		task.Description,
		task.Category,
		task.Type,
		task.Priority,
		task.Status,
		task.DueDate,
		task.CompletedAt,
		task.LoanID,
		task.UpdatedAt,
		task.TaskID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", task.TaskID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxTaskRepository) DeleteTask(ctx context.Context, taskID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM tasks WHERE task_id = $1;`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", taskID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxTaskRepository) SummarizeTasks(ctx context.Context, userID string, now time.Time) (*domain.TaskSummary, error) {
	weekStart := now.AddDate(0, 0, -7)
	query := `
		SELECT
			COUNT(*) FILTER (WHERE due_date < $2 AND status NOT IN ('COMPLETED', 'CANCELLED')),
			COUNT(*) FILTER (WHERE due_date::date = $2::date AND status NOT IN ('COMPLETED', 'CANCELLED')),
			COUNT(*) FILTER (WHERE due_date > $2 AND due_date < $2 + interval '7 days' AND status NOT IN ('COMPLETED', 'CANCELLED')),
			COUNT(*) FILTER (WHERE status = 'COMPLETED' AND completed_at >= $3)
		FROM tasks
		WHERE user_id = $1;
	`
	var s domain.TaskSummary
	err := r.Pool.QueryRow(ctx, query, userID, now, weekStart).Scan(
		&s.Overdue, &s.DueToday, &s.Upcoming, &s.CompletedThisWeek)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize tasks: %w", err)
	}
	return &s, nil
}

func (r *PgxTaskRepository) CountTasksByStatus(ctx context.Context, userID string) ([]domain.GroupCount, error) {
	return r.groupTasks(ctx, userID, "status")
}

func (r *PgxTaskRepository) CountTasksByPriority(ctx context.Context, userID string) ([]domain.GroupCount, error) {
	return r.groupTasks(ctx, userID, "priority")
}

func (r *PgxTaskRepository) groupTasks(ctx context.Context, userID, column string) ([]domain.GroupCount, error) {
	query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY %s;`, column, column)
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to group tasks by %s: %w", column, err)
	}
	defer rows.Close()

	counts := []domain.GroupCount{}
	for rows.Next() {
		var g domain.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, fmt.Errorf("failed to scan task group row: %w", err)
		}
		counts = append(counts, g)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating task group rows: %w", rows.Err())
	}
	return counts, nil
}
