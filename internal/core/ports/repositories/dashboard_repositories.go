package repositories

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
)

// LoanTotals are the headline loan counters for the dashboard overview.
type LoanTotals struct {
	Total       int
	Active      int
	Closed      int
	TotalVolume decimal.Decimal
}

// ClosedLoanStats summarize loans closed within a reporting window.
type ClosedLoanStats struct {
	Count          int
	TotalVolume    decimal.Decimal
	AvgDaysToClose float64
}

// MonthToDateStats counts this calendar month's activity.
type MonthToDateStats struct {
	LoansCreated          int
	TasksCompleted        int
	CommunicationsSent    int
	AppointmentsScheduled int
}

// DashboardRepository runs the aggregate queries behind the reporting
// endpoints. Every method pushes grouping into SQL rather than loading rows.
type DashboardRepository interface {
	LoanTotals(ctx context.Context, scope access.Scope) (*LoanTotals, error)
	SummarizePipeline(ctx context.Context, scope access.Scope) ([]domain.StageStatusSummary, error)
	SummarizeLoansByStage(ctx context.Context, scope access.Scope) ([]domain.PipelineStageSummary, error)
	SummarizeLoansByType(ctx context.Context, scope access.Scope) ([]domain.LoanTypeSummary, error)
	ClosedLoanStats(ctx context.Context, scope access.Scope, since time.Time) (*ClosedLoanStats, error)
	MonthToDateStats(ctx context.Context, scope access.Scope, userID string, monthStart time.Time) (*MonthToDateStats, error)
	// StageConversionCounts counts stage-history entries per stage within
	// the window, ordered by the pipeline stage order.
	StageConversionCounts(ctx context.Context, scope access.Scope, since time.Time) ([]domain.GroupCount, error)
	TaskCompletionRate(ctx context.Context, userID string, since time.Time) (completed int, total int, err error)
	CommunicationVolume(ctx context.Context, scope access.Scope, userID string, since time.Time) (int, error)
	DailyTaskActivity(ctx context.Context, userID string, since time.Time) ([]domain.DailyCount, error)
	MonthlyTrends(ctx context.Context, scope access.Scope, months int) ([]domain.MonthlyLoanTrend, error)
	FindOverdueTasks(ctx context.Context, userID string, now time.Time, limit int) ([]domain.Task, error)
	FindUpcomingTasks(ctx context.Context, userID string, now time.Time, limit int) ([]domain.Task, error)
	FindRecentCommunications(ctx context.Context, scope access.Scope, userID string, limit int) ([]domain.Communication, error)
}
