package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
)

type dashboardRepository struct {
	BaseRepository
}

func newDashboardRepository(db *pgxpool.Pool) portsrepo.DashboardRepository {
	return &dashboardRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.DashboardRepository = (*dashboardRepository)(nil)

func (r *dashboardRepository) LoanTotals(ctx context.Context, scope access.Scope) (*portsrepo.LoanTotals, error) {
	b := &condBuilder{}
	applyLoanScope(b, scope, "loan_officer_id")

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE current_stage <> 'Closed'),
			COUNT(*) FILTER (WHERE current_stage = 'Closed'),
			COALESCE(SUM(loan_amount), 0)
		FROM loans` + b.where() + `;
	`
	var t portsrepo.LoanTotals
	if err := r.Pool.QueryRow(ctx, query, b.args...).Scan(&t.Total, &t.Active, &t.Closed, &t.TotalVolume); err != nil {
		return nil, fmt.Errorf("failed to query loan totals: %w", err)
	}
	return &t, nil
}

func (r *dashboardRepository) SummarizePipeline(ctx context.Context, scope access.Scope) ([]domain.StageStatusSummary, error) {
	b := &condBuilder{}
	applyLoanScope(b, scope, "loan_officer_id")
	b.conds = append(b.conds, "current_stage <> 'Closed'")

	query := `
		SELECT current_stage, status, COUNT(*), COALESCE(SUM(loan_amount), 0)
		FROM loans` + b.where() + `
		GROUP BY current_stage, status;
	`
	rows, err := r.Pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline summary: %w", err)
	}
	defer rows.Close()

	result := []domain.StageStatusSummary{}
	for rows.Next() {
		var s domain.StageStatusSummary
		if err := rows.Scan(&s.Stage, &s.Status, &s.LoanCount, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline summary row: %w", err)
		}
		result = append(result, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating pipeline summary rows: %w", rows.Err())
	}
	return result, nil
}

func (r *dashboardRepository) SummarizeLoansByStage(ctx context.Context, scope access.Scope) ([]domain.PipelineStageSummary, error) {
	b := &condBuilder{}
	applyLoanScope(b, scope, "loan_officer_id")

	query := `
		SELECT current_stage, COUNT(*), COALESCE(SUM(loan_amount), 0)
		FROM loans` + b.where() + `
		GROUP BY current_stage;
	`
	rows, err := r.Pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage distribution: %w", err)
	}
	defer rows.Close()

	result := []domain.PipelineStageSummary{}
	for rows.Next() {
		var s domain.PipelineStageSummary
		if err := rows.Scan(&s.Stage, &s.LoanCount, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan stage distribution row: %w", err)
		}
		result = append(result, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating stage distribution rows: %w", rows.Err())
	}
	return result, nil
}

func (r *dashboardRepository) SummarizeLoansByType(ctx context.Context, scope access.Scope) ([]domain.LoanTypeSummary, error) {
	b := &condBuilder{}
	applyLoanScope(b, scope, "loan_officer_id")

	query := `
		SELECT loan_type, COUNT(*), COALESCE(SUM(loan_amount), 0)
		FROM loans` + b.where() + `
		GROUP BY loan_type;
	`
	rows, err := r.Pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query loan type breakdown: %w", err)
	}
	defer rows.Close()

	result := []domain.LoanTypeSummary{}
	for rows.Next() {
		var s domain.LoanTypeSummary
		if err := rows.Scan(&s.LoanType, &s.LoanCount, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan loan type row: %w", err)
		}
		result = append(result, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating loan type rows: %w", rows.Err())
	}
	return result, nil
}

// ClosedLoanStats derives time-to-close from the loan's creation to its
// entry into the Closed stage.
func (r *dashboardRepository) ClosedLoanStats(ctx context.Context, scope access.Scope, since time.Time) (*portsrepo.ClosedLoanStats, error) {
	b := &condBuilder{}
	applyLoanScope(b, scope, "l.loan_officer_id")
	b.conds = append(b.conds, "l.current_stage = 'Closed'")
	b.addf("h.entered_at >= $%d", since)

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(l.loan_amount), 0),
			COALESCE(AVG(EXTRACT(EPOCH FROM (h.entered_at - l.created_at)) / 86400), 0)
		FROM loans l
		JOIN loan_stage_history h ON h.loan_id = l.loan_id AND h.stage = 'Closed' AND h.exited_at IS NULL` +
		b.where() + `;
	`
	var s portsrepo.ClosedLoanStats
	if err := r.Pool.QueryRow(ctx, query, b.args...).Scan(&s.Count, &s.TotalVolume, &s.AvgDaysToClose); err != nil {
		return nil, fmt.Errorf("failed to query closed loan stats: %w", err)
	}
	return &s, nil
}

func (r *dashboardRepository) MonthToDateStats(ctx context.Context, scope access.Scope, userID string, monthStart time.Time) (*portsrepo.MonthToDateStats, error) {
	lb := &condBuilder{}
	applyLoanScope(lb, scope, "loan_officer_id")
	lb.addf("created_at >= $%d", monthStart)

	var m portsrepo.MonthToDateStats
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM loans`+lb.where(), lb.args...).Scan(&m.LoansCreated); err != nil {
		return nil, fmt.Errorf("failed to count month-to-date loans: %w", err)
	}

	err := r.Pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM tasks WHERE user_id = $1 AND status = 'COMPLETED' AND completed_at >= $2),
			(SELECT COUNT(*) FROM communications WHERE user_id = $1 AND created_at >= $2),
			(SELECT COUNT(*) FROM appointments WHERE user_id = $1 AND created_at >= $2);
	`, userID, monthStart).Scan(&m.TasksCompleted, &m.CommunicationsSent, &m.AppointmentsScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to query month-to-date stats: %w", err)
	}
	return &m, nil
}

func (r *dashboardRepository) StageConversionCounts(ctx context.Context, scope access.Scope, since time.Time) ([]domain.GroupCount, error) {
	b := &condBuilder{}
	applyLoanScope(b, scope, "l.loan_officer_id")
	b.addf("h.entered_at >= $%d", since)

	query := `
		SELECT h.stage, COUNT(*)
		FROM loan_stage_history h
		JOIN loans l ON l.loan_id = h.loan_id` + b.where() + `
		GROUP BY h.stage;
	`
	rows, err := r.Pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage conversions: %w", err)
	}
	defer rows.Close()

	byStage := map[string]int{}
	for rows.Next() {
		var stage string
		var count int
		if err := rows.Scan(&stage, &count); err != nil {
			return nil, fmt.Errorf("failed to scan stage conversion row: %w", err)
		}
		byStage[stage] = count
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating stage conversion rows: %w", rows.Err())
	}

	// Report in canonical pipeline order so charts stay stable.
	result := []domain.GroupCount{}
	for _, stage := range domain.PipelineStages {
		if n, ok := byStage[stage]; ok {
			result = append(result, domain.GroupCount{Key: stage, Count: n})
		}
	}
	return result, nil
}

func (r *dashboardRepository) TaskCompletionRate(ctx context.Context, userID string, since time.Time) (int, int, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE status = 'COMPLETED'),
			COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND created_at >= $2;
	`
	var completed, total int
	if err := r.Pool.QueryRow(ctx, query, userID, since).Scan(&completed, &total); err != nil {
		return 0, 0, fmt.Errorf("failed to query task completion rate: %w", err)
	}
	return completed, total, nil
}

func (r *dashboardRepository) CommunicationVolume(ctx context.Context, scope access.Scope, userID string, since time.Time) (int, error) {
	b := &condBuilder{}
	applyCommScope(b, scope)
	b.addf("c.created_at >= $%d", since)

	var count int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM communications c`+b.where(), b.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to query communication volume: %w", err)
	}
	return count, nil
}

func (r *dashboardRepository) DailyTaskActivity(ctx context.Context, userID string, since time.Time) ([]domain.DailyCount, error) {
	query := `
		SELECT created_at::date, COUNT(*)
		FROM tasks
		WHERE user_id = $1 AND created_at >= $2
		GROUP BY created_at::date
		ORDER BY created_at::date;
	`
	rows, err := r.Pool.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily task activity: %w", err)
	}
	defer rows.Close()

	result := []domain.DailyCount{}
	for rows.Next() {
		var d domain.DailyCount
		if err := rows.Scan(&d.Date, &d.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily activity row: %w", err)
		}
		result = append(result, d)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating daily activity rows: %w", rows.Err())
	}
	return result, nil
}

func (r *dashboardRepository) MonthlyTrends(ctx context.Context, scope access.Scope, months int) ([]domain.MonthlyLoanTrend, error) {
	b := &condBuilder{}
	applyLoanScope(b, scope, "loan_officer_id")
	b.addf("created_at >= date_trunc('month', now()) - make_interval(months => $%d)", months-1)

	query := `
		SELECT date_trunc('month', created_at), COUNT(*), COALESCE(SUM(loan_amount), 0)
		FROM loans` + b.where() + `
		GROUP BY 1
		ORDER BY 1;
	`
	rows, err := r.Pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly trends: %w", err)
	}
	defer rows.Close()

	result := []domain.MonthlyLoanTrend{}
	for rows.Next() {
		var t domain.MonthlyLoanTrend
		if err := rows.Scan(&t.Month, &t.LoanCount, &t.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan monthly trend row: %w", err)
		}
		result = append(result, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating monthly trend rows: %w", rows.Err())
	}
	return result, nil
}

func (r *dashboardRepository) FindOverdueTasks(ctx context.Context, userID string, now time.Time, limit int) ([]domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND due_date < $2 AND status NOT IN ('COMPLETED', 'CANCELLED')
		ORDER BY due_date ASC
		LIMIT $3;
	`
	return r.queryTasks(ctx, query, userID, now, limit)
}

func (r *dashboardRepository) FindUpcomingTasks(ctx context.Context, userID string, now time.Time, limit int) ([]domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND due_date >= $2 AND status NOT IN ('COMPLETED', 'CANCELLED')
		ORDER BY due_date ASC
		LIMIT $3;
	`
	return r.queryTasks(ctx, query, userID, now, limit)
}

func (r *dashboardRepository) queryTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard tasks: %w", err)
	}
	defer rows.Close()

	tasks := []domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dashboard task row: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating dashboard task rows: %w", rows.Err())
	}
	return tasks, nil
}

func (r *dashboardRepository) FindRecentCommunications(ctx context.Context, scope access.Scope, userID string, limit int) ([]domain.Communication, error) {
	b := &condBuilder{}
	applyCommScope(b, scope)

	query := fmt.Sprintf(`SELECT `+commColumns+` FROM communications c%s ORDER BY c.created_at DESC LIMIT $%d;`,
		b.where(), b.next(0))
	rows, err := r.Pool.Query(ctx, query, append(b.args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent communications: %w", err)
	}
	defer rows.Close()

	comms := []domain.Communication{}
	for rows.Next() {
		c, err := scanCommunication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recent communication row: %w", err)
		}
		comms = append(comms, *c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating recent communication rows: %w", rows.Err())
	}
	return comms, nil
}
