package repositories

import (
	"context"
	"time"

	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
)

// LoanRepository persists loans and their stage history. Multi-row writes
// (creation with the seeded history entry, stage transitions, the delete
// cascade) are single database transactions.
type LoanRepository interface {
	// CreateLoanWithStage inserts the loan, its open initial stage-history
	// entry and, when followUp is non-nil, the follow-up task, atomically.
	CreateLoanWithStage(ctx context.Context, loan domain.Loan, followUp *domain.Task) error
	FindLoanByID(ctx context.Context, loanID string, scope access.Scope) (*domain.Loan, error)
	FindLoans(ctx context.Context, filter LoanFilter) ([]domain.Loan, int, error)
	// UpdateLoan writes the loan's mutable fields. When stageChanged is true
	// it additionally closes the open history entry (computing its duration
	// in floor days from enteredAt to now), opens a new entry for
	// loan.CurrentStage and resets time_in_stage, all in one transaction.
	UpdateLoan(ctx context.Context, loan domain.Loan, stageChanged bool, now time.Time) error
	// DeleteLoanCascade removes the loan and all dependent rows (stage
	// history, tasks, documents, communications) in one transaction.
	DeleteLoanCascade(ctx context.Context, loanID string) error
	FindStageHistory(ctx context.Context, loanID string) ([]domain.StageHistoryEntry, error)
	GroupByStage(ctx context.Context, scope access.Scope, loanOfficerID string) ([]domain.PipelineStageSummary, error)
}
