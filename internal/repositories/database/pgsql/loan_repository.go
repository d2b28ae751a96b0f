package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
)

type PgxLoanRepository struct {
	BaseRepository
}

func newPgxLoanRepository(db *pgxpool.Pool) portsrepo.LoanRepository {
	return &PgxLoanRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.LoanRepository = (*PgxLoanRepository)(nil)

const loanColumns = `loan_id, loan_number, borrower_name, borrower_email, borrower_phone,
	property_address, loan_type, loan_amount, target_close_date, current_stage,
	status, progress, time_in_stage, loan_officer_id, created_at, updated_at`

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var l domain.Loan
	err := row.Scan(
		&l.LoanID,
		&l.LoanNumber,
		&l.BorrowerName,
		&l.BorrowerEmail,
		&l.BorrowerPhone,
		&l.PropertyAddress,
		&l.LoanType,
		&l.LoanAmount,
		&l.TargetCloseDate,
		&l.CurrentStage,
		&l.Status,
		&l.Progress,
		&l.TimeInStage,
		&l.LoanOfficerID,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PgxLoanRepository) CreateLoanWithStage(ctx context.Context, loan domain.Loan, followUp *domain.Task) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	loanQuery := `
		INSERT INTO loans (` + loanColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16);
	`
	_, err = tx.Exec(ctx, loanQuery,
		loan.LoanID,
		loan.LoanNumber,
		loan.BorrowerName,
		loan.BorrowerEmail,
		loan.BorrowerPhone,
		loan.PropertyAddress,
		loan.LoanType,
		loan.LoanAmount,
		loan.TargetCloseDate,
		loan.CurrentStage,
		loan.Status,
		loan.Progress,
		loan.TimeInStage,
		loan.LoanOfficerID,
		loan.CreatedAt,
		loan.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to insert loan %s: %w", loan.LoanID, err)
	}

	historyQuery := `
		INSERT INTO loan_stage_history (entry_id, loan_id, stage, entered_at)
		VALUES ($1, $2, $3, $4);
	`
	_, err = tx.Exec(ctx, historyQuery, uuid.NewString(), loan.LoanID, loan.CurrentStage, loan.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert initial stage entry for loan %s: %w", loan.LoanID, err)
	}

	if followUp != nil {
		if err := insertTask(ctx, tx, *followUp); err != nil {
			return fmt.Errorf("failed to insert follow-up task for loan %s: %w", loan.LoanID, err)
		}
	}
	return r.Commit(ctx, tx)
}

func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string, scope access.Scope) (*domain.Loan, error) {
	b := &condBuilder{}
	b.addf("loan_id = $%d", loanID)
	applyLoanScope(b, scope, "loan_officer_id")

	query := `SELECT ` + loanColumns + ` FROM loans` + b.where() + `;`
	loan, err := scanLoan(r.Pool.QueryRow(ctx, query, b.args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Out-of-scope rows are reported exactly like absent ones.
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find loan by ID %s: %w", loanID, err)
	}
	return loan, nil
}

func (r *PgxLoanRepository) FindLoans(ctx context.Context, filter portsrepo.LoanFilter) ([]domain.Loan, int, error) {
	filter.Page.Normalize()

	b := &condBuilder{}
	applyLoanScope(b, filter.Scope, "loan_officer_id")
	if filter.Stage != "" {
		b.addf("current_stage = $%d", filter.Stage)
	}
	if filter.Status != "" {
		b.addf("status = $%d", filter.Status)
	}
	if filter.LoanOfficerID != "" {
		b.addf("loan_officer_id = $%d", filter.LoanOfficerID)
	}

	var total int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM loans`+b.where(), b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count loans: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+loanColumns+` FROM loans%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d;`,
		b.where(), b.next(0), b.next(1))
	rows, err := r.Pool.Query(ctx, query, append(b.args, filter.Page.Limit, filter.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query loans: %w", err)
	}
	defer rows.Close()

	loans := []domain.Loan{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan loan row: %w", err)
		}
		loans = append(loans, *l)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error iterating loan rows: %w", rows.Err())
	}
	return loans, total, nil
}

// UpdateLoan writes the loan's mutable fields. A stage change additionally
// closes the open history entry, opens a new one and resets time_in_stage,
// all inside one transaction so the single-open-entry invariant holds.
func (r *PgxLoanRepository) UpdateLoan(ctx context.Context, loan domain.Loan, stageChanged bool, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	updateQuery := `
		UPDATE loans
		SET borrower_name = $1, borrower_email = $2, borrower_phone = $3,
			property_address = $4, loan_type = $5, loan_amount = $6,
			target_close_date = $7, current_stage = $8, status = $9,
			progress = $10, time_in_stage = $11, updated_at = $12
		WHERE loan_id = $13;
	`
	timeInStage := loan.TimeInStage
	if stageChanged {
		timeInStage = 0
	}
	cmdTag, err := tx.Exec(ctx, updateQuery,
		loan.BorrowerName,
		loan.BorrowerEmail,
		loan.BorrowerPhone,
		loan.PropertyAddress,
		loan.LoanType,
		loan.LoanAmount,
		loan.TargetCloseDate,
		loan.CurrentStage,
		loan.Status,
		loan.Progress,
		timeInStage,
		loan.UpdatedAt,
		loan.LoanID,
	)
	if err != nil {
		return fmt.Errorf("failed to update loan %s: %w", loan.LoanID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if stageChanged {
		// Close the open entry, deriving its duration in whole days.
		closeQuery := `
			UPDATE loan_stage_history
			SET exited_at = $1,
				duration = FLOOR(EXTRACT(EPOCH FROM ($1 - entered_at)) / 86400)::int
			WHERE loan_id = $2 AND exited_at IS NULL;
		`
		if _, err := tx.Exec(ctx, closeQuery, now, loan.LoanID); err != nil {
			return fmt.Errorf("failed to close stage entry for loan %s: %w", loan.LoanID, err)
		}

		openQuery := `
			INSERT INTO loan_stage_history (entry_id, loan_id, stage, entered_at)
			VALUES ($1, $2, $3, $4);
		`
		if _, err := tx.Exec(ctx, openQuery, uuid.NewString(), loan.LoanID, loan.CurrentStage, now); err != nil {
			return fmt.Errorf("failed to open stage entry for loan %s: %w", loan.LoanID, err)
		}
	}
	return r.Commit(ctx, tx)
}

func (r *PgxLoanRepository) DeleteLoanCascade(ctx context.Context, loanID string) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	for _, query := range []string{
		`DELETE FROM loan_stage_history WHERE loan_id = $1;`,
		`DELETE FROM tasks WHERE loan_id = $1;`,
		`DELETE FROM documents WHERE loan_id = $1;`,
		`DELETE FROM communications WHERE loan_id = $1;`,
	} {
		if _, err := tx.Exec(ctx, query, loanID); err != nil {
			return fmt.Errorf("failed to cascade loan delete: %w", err)
		}
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM loans WHERE loan_id = $1;`, loanID)
	if err != nil {
		return fmt.Errorf("failed to delete loan %s: %w", loanID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return r.Commit(ctx, tx)
}

func (r *PgxLoanRepository) FindStageHistory(ctx context.Context, loanID string) ([]domain.StageHistoryEntry, error) {
	query := `
		SELECT entry_id, loan_id, stage, entered_at, exited_at, duration
		FROM loan_stage_history
		WHERE loan_id = $1
		ORDER BY entered_at ASC;
	`
	rows, err := r.Pool.Query(ctx, query, loanID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stage history for loan %s: %w", loanID, err)
	}
	defer rows.Close()

	entries := []domain.StageHistoryEntry{}
	for rows.Next() {
		var e domain.StageHistoryEntry
		if err := rows.Scan(&e.EntryID, &e.LoanID, &e.Stage, &e.EnteredAt, &e.ExitedAt, &e.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan stage history row: %w", err)
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating stage history rows: %w", rows.Err())
	}
	return entries, nil
}

func (r *PgxLoanRepository) GroupByStage(ctx context.Context, scope access.Scope, loanOfficerID string) ([]domain.PipelineStageSummary, error) {
	b := &condBuilder{}
	applyLoanScope(b, scope, "loan_officer_id")
	if loanOfficerID != "" {
		b.addf("loan_officer_id = $%d", loanOfficerID)
	}

	query := `
		SELECT current_stage, COUNT(*), COALESCE(SUM(loan_amount), 0)
		FROM loans` + b.where() + `
		GROUP BY current_stage;
	`
	rows, err := r.Pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query pipeline summary: %w", err)
	}
	defer rows.Close()

	summaries := []domain.PipelineStageSummary{}
	for rows.Next() {
		var s domain.PipelineStageSummary
		if err := rows.Scan(&s.Stage, &s.LoanCount, &s.TotalAmount); err != nil {
			return nil, fmt.Errorf("failed to scan pipeline summary row: %w", err)
		}
		summaries = append(summaries, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating pipeline summary rows: %w", rows.Err())
	}
	return summaries, nil
}
