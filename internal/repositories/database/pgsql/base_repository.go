package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/access"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	Pool *pgxpool.Pool
}

// Begin starts a new database transaction
func (r *BaseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to begin transaction", err)
	}
	return tx, nil
}

// Commit commits a transaction
func (r *BaseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewAppError(500, "failed to commit transaction", err)
	}
	return nil
}

// Rollback rolls back a transaction
func (r *BaseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return apperrors.NewAppError(500, "failed to rollback transaction", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// condBuilder accumulates WHERE conditions with positional parameters.
type condBuilder struct {
	conds []string
	args  []any
}

// addf appends a condition whose %d verbs are replaced by the positional
// parameter numbers of args, in order.
func (b *condBuilder) addf(cond string, args ...any) {
	nums := make([]any, len(args))
	for i := range args {
		nums[i] = len(b.args) + i + 1
	}
	b.conds = append(b.conds, fmt.Sprintf(cond, nums...))
	b.args = append(b.args, args...)
}

func (b *condBuilder) where() string {
	if len(b.conds) == 0 {
		return ""
	}
	clause := " WHERE " + b.conds[0]
	for _, c := range b.conds[1:] {
		clause += " AND " + c
	}
	return clause
}

// next returns the positional parameter number an extra argument appended
// after the builder's args would take.
func (b *condBuilder) next(offset int) int {
	return len(b.args) + offset + 1
}

// applyLoanScope renders a visibility scope against a loan-anchored table.
// col is the loan-officer column ("loan_officer_id" on loans, or a subquery
// target for dependent tables).
func applyLoanScope(b *condBuilder, scope access.Scope, col string) {
	if scope.Unrestricted {
		return
	}
	if scope.MatchesNothing() {
		b.conds = append(b.conds, "FALSE")
		return
	}
	b.addf(col+" = $%d", scope.LoanOfficerID)
}

// applyCommScope renders a communication scope: author rows, plus rows on
// the officer's loans when the scope carries a loan-officer id.
func applyCommScope(b *condBuilder, scope access.Scope) {
	if scope.Unrestricted {
		return
	}
	if scope.MatchesNothing() {
		b.conds = append(b.conds, "FALSE")
		return
	}
	if scope.LoanOfficerID != "" && scope.UserID != "" {
		b.addf("(c.user_id = $%d OR c.loan_id IN (SELECT loan_id FROM loans WHERE loan_officer_id = $%d))",
			scope.UserID, scope.LoanOfficerID)
		return
	}
	b.addf("c.user_id = $%d", scope.UserID)
}
