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

type PgxCommunicationRepository struct {
	BaseRepository
}

func newPgxCommunicationRepository(db *pgxpool.Pool) portsrepo.CommunicationRepository {
	return &PgxCommunicationRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.CommunicationRepository = (*PgxCommunicationRepository)(nil)

const commColumns = `c.communication_id, c.type, c.subject, c.message, c.direction,
	c.user_id, c.loan_id, c.created_at, c.updated_at`

func scanCommunication(row pgx.Row) (*domain.Communication, error) {
	var c domain.Communication
	err := row.Scan(
		&c.CommunicationID,
		&c.Type,
		&c.Subject,
		&c.Message,
		&c.Direction,
		&c.UserID,
		&c.LoanID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PgxCommunicationRepository) SaveCommunication(ctx context.Context, comm domain.Communication) error {
	query := `
		INSERT INTO communications (communication_id, type, subject, message, direction, user_id, loan_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
	`
	_, err := r.Pool.Exec(ctx, query,
		comm.CommunicationID,
		comm.Type,
		comm.Subject,
		comm.Message,
		comm.Direction,
		comm.UserID,
		comm.LoanID,
		comm.CreatedAt,
		comm.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save communication: %w", err)
	}
	return nil
}

func (r *PgxCommunicationRepository) FindCommunicationByID(ctx context.Context, commID string) (*domain.Communication, error) {
	query := `SELECT ` + commColumns + ` FROM communications c WHERE c.communication_id = $1;`
	comm, err := scanCommunication(r.Pool.QueryRow(ctx, query, commID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find communication by ID %s: %w", commID, err)
	}
	return comm, nil
}

func commFilterConds(filter portsrepo.CommunicationFilter) *condBuilder {
	b := &condBuilder{}
	applyCommScope(b, filter.Scope)
	if filter.LoanID != "" {
		b.addf("c.loan_id = $%d", filter.LoanID)
	}
	if filter.Type != "" {
		b.addf("c.type = $%d", filter.Type)
	}
	if filter.Direction != "" {
		b.addf("c.direction = $%d", filter.Direction)
	}
	if filter.Since != nil {
		b.addf("c.created_at >= $%d", *filter.Since)
	}
	return b
}

func (r *PgxCommunicationRepository) FindCommunications(ctx context.Context, filter portsrepo.CommunicationFilter) ([]domain.Communication, int, error) {
	filter.Page.Normalize()
	b := commFilterConds(filter)

	var total int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM communications c`+b.where(), b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count communications: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+commColumns+` FROM communications c%s ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d;`,
		b.where(), b.next(0), b.next(1))
	rows, err := r.Pool.Query(ctx, query, append(b.args, filter.Page.Limit, filter.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query communications: %w", err)
	}
	defer rows.Close()

	comms := []domain.Communication{}
	for rows.Next() {
		c, err := scanCommunication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan communication row: %w", err)
		}
		comms = append(comms, *c)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error iterating communication rows: %w", rows.Err())
	}
	return comms, total, nil
}

func (r *PgxCommunicationRepository) UpdateCommunication(ctx context.Context, comm domain.Communication) error {
	query := `
		UPDATE communications
		SET type = $1, subject = $2, message = $3, updated_at = $4
		WHERE communication_id = $5;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		comm.Type,
		comm.Subject,
		comm.Message,
		comm.UpdatedAt,
		comm.CommunicationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update communication %s: %w", comm.CommunicationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxCommunicationRepository) DeleteCommunication(ctx context.Context, commID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM communications WHERE communication_id = $1;`, commID)
	if err != nil {
		return fmt.Errorf("failed to delete communication %s: %w", commID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxCommunicationRepository) SummarizeCommunications(ctx context.Context, filter portsrepo.CommunicationFilter) (*domain.CommunicationStats, error) {
	b := commFilterConds(filter)

	stats := &domain.CommunicationStats{ByType: []domain.GroupCount{}, ByDirection: []domain.GroupCount{}}

	query := `SELECT c.type, c.direction, COUNT(*) FROM communications c` + b.where() + ` GROUP BY c.type, c.direction;`
	rows, err := r.Pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize communications: %w", err)
	}
	defer rows.Close()

	byType := map[string]int{}
	byDirection := map[string]int{}
	for rows.Next() {
		var typ, dir string
		var count int
		if err := rows.Scan(&typ, &dir, &count); err != nil {
			return nil, fmt.Errorf("failed to scan communication stats row: %w", err)
		}
		stats.Total += count
		byType[typ] += count
		byDirection[dir] += count
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating communication stats rows: %w", rows.Err())
	}

	for _, t := range []domain.CommunicationType{domain.CommEmail, domain.CommPhone, domain.CommSMS, domain.CommMeeting, domain.CommNote} {
		if n, ok := byType[string(t)]; ok {
			stats.ByType = append(stats.ByType, domain.GroupCount{Key: string(t), Count: n})
		}
	}
	for _, d := range []domain.CommDirection{domain.DirectionInbound, domain.DirectionOutbound} {
		if n, ok := byDirection[string(d)]; ok {
			stats.ByDirection = append(stats.ByDirection, domain.GroupCount{Key: string(d), Count: n})
		}
	}
	return stats, nil
}
