package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
)

type PgxLeadSourceRepository struct {
	BaseRepository
}

func newPgxLeadSourceRepository(db *pgxpool.Pool) portsrepo.LeadSourceRepository {
	return &PgxLeadSourceRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.LeadSourceRepository = (*PgxLeadSourceRepository)(nil)

const leadSourceColumns = `source_id, name, total_leads, converted_leads, conversion_rate, is_active, created_at, updated_at`

func scanLeadSource(row pgx.Row) (*domain.LeadSource, error) {
	var s domain.LeadSource
	err := row.Scan(
		&s.SourceID,
		&s.Name,
		&s.TotalLeads,
		&s.ConvertedLeads,
		&s.ConversionRate,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *PgxLeadSourceRepository) SaveLeadSource(ctx context.Context, src domain.LeadSource) error {
	query := `
		INSERT INTO lead_sources (` + leadSourceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`
	_, err := r.Pool.Exec(ctx, query,
		src.SourceID,
		src.Name,
		src.TotalLeads,
		src.ConvertedLeads,
		src.ConversionRate,
		src.IsActive,
		src.CreatedAt,
		src.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to save lead source: %w", err)
	}
	return nil
}

func (r *PgxLeadSourceRepository) FindLeadSourceByID(ctx context.Context, sourceID string) (*domain.LeadSource, error) {
	query := `SELECT ` + leadSourceColumns + ` FROM lead_sources WHERE source_id = $1;`
	src, err := scanLeadSource(r.Pool.QueryRow(ctx, query, sourceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find lead source by ID %s: %w", sourceID, err)
	}
	return src, nil
}

func (r *PgxLeadSourceRepository) FindLeadSourceByName(ctx context.Context, name string) (*domain.LeadSource, error) {
	query := `SELECT ` + leadSourceColumns + ` FROM lead_sources WHERE lower(name) = lower($1);`
	src, err := scanLeadSource(r.Pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find lead source by name: %w", err)
	}
	return src, nil
}

func (r *PgxLeadSourceRepository) FindLeadSources(ctx context.Context, activeOnly bool) ([]domain.LeadSource, error) {
	b := &condBuilder{}
	if activeOnly {
		b.conds = append(b.conds, "is_active")
	}
	query := `SELECT ` + leadSourceColumns + ` FROM lead_sources` + b.where() + ` ORDER BY name;`
	rows, err := r.Pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query lead sources: %w", err)
	}
	defer rows.Close()

	sources := []domain.LeadSource{}
	for rows.Next() {
		s, err := scanLeadSource(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead source row: %w", err)
		}
		sources = append(sources, *s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating lead source rows: %w", rows.Err())
	}
	return sources, nil
}

func (r *PgxLeadSourceRepository) UpdateLeadSource(ctx context.Context, src domain.LeadSource) error {
	query := `
		UPDATE lead_sources
		SET name = $1, total_leads = $2, converted_leads = $3, conversion_rate = $4,
			is_active = $5, updated_at = $6
		WHERE source_id = $7;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		src.Name,
		src.TotalLeads,
		src.ConvertedLeads,
		src.ConversionRate,
		src.IsActive,
		src.UpdatedAt,
		src.SourceID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicate
		}
		return fmt.Errorf("failed to update lead source %s: %w", src.SourceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// IncrementLeadCounts bumps the counters and recomputes the conversion rate
// in one statement so concurrent imports never lose updates.
func (r *PgxLeadSourceRepository) IncrementLeadCounts(ctx context.Context, sourceID string, leads, converted int) error {
	query := `
		UPDATE lead_sources
		SET total_leads = total_leads + $1,
			converted_leads = converted_leads + $2,
			conversion_rate = CASE
				WHEN total_leads + $1 = 0 THEN 0
				ELSE ROUND((converted_leads + $2)::numeric * 100 / (total_leads + $1), 2)
			END,
			updated_at = now()
		WHERE source_id = $3;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, leads, converted, sourceID)
	if err != nil {
		return fmt.Errorf("failed to increment lead counts for %s: %w", sourceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxLeadSourceRepository) DeleteLeadSource(ctx context.Context, sourceID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM lead_sources WHERE source_id = $1;`, sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete lead source %s: %w", sourceID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
