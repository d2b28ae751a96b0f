package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
)

type PgxAppointmentRepository struct {
	BaseRepository
}

func newPgxAppointmentRepository(db *pgxpool.Pool) portsrepo.AppointmentRepository {
	return &PgxAppointmentRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.AppointmentRepository = (*PgxAppointmentRepository)(nil)

const appointmentColumns = `appointment_id, user_id, title, description, start_time, end_time,
	category, color, created_at, updated_at`

func scanAppointment(row pgx.Row) (*domain.Appointment, error) {
	var a domain.Appointment
	err := row.Scan(
		&a.AppointmentID,
		&a.UserID,
		&a.Title,
		&a.Description,
		&a.StartTime,
		&a.EndTime,
		&a.Category,
		&a.Color,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PgxAppointmentRepository) SaveAppointment(ctx context.Context, appt domain.Appointment) error {
	query := `
		INSERT INTO appointments (` + appointmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		appt.AppointmentID,
		appt.UserID,
		appt.Title,
		appt.Description,
		appt.StartTime,
		appt.EndTime,
		appt.Category,
		appt.Color,
		appt.CreatedAt,
		appt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save appointment: %w", err)
	}
	return nil
}

func (r *PgxAppointmentRepository) FindAppointmentByID(ctx context.Context, apptID string) (*domain.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE appointment_id = $1;`
	appt, err := scanAppointment(r.Pool.QueryRow(ctx, query, apptID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find appointment by ID %s: %w", apptID, err)
	}
	return appt, nil
}

func (r *PgxAppointmentRepository) FindAppointments(ctx context.Context, filter portsrepo.AppointmentFilter) ([]domain.Appointment, int, error) {
	filter.Page.Normalize()

	b := &condBuilder{}
	b.addf("user_id = $%d", filter.UserID)
	if filter.From != nil {
		b.addf("end_time > $%d", *filter.From)
	}
	if filter.To != nil {
		b.addf("start_time < $%d", *filter.To)
	}
	if filter.Category != "" {
		b.addf("category = $%d", filter.Category)
	}

	var total int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+b.where(), b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count appointments: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+appointmentColumns+` FROM appointments%s ORDER BY start_time ASC LIMIT $%d OFFSET $%d;`,
		b.where(), b.next(0), b.next(1))
	rows, err := r.Pool.Query(ctx, query, append(b.args, filter.Page.Limit, filter.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()

	appts := []domain.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan appointment row: %w", err)
		}
		appts = append(appts, *a)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error iterating appointment rows: %w", rows.Err())
	}
	return appts, total, nil
}

// FindConflicting uses half-open interval semantics: two appointments
// conflict iff existing.start < end AND start < existing.end, so touching
// boundaries never collide.
func (r *PgxAppointmentRepository) FindConflicting(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]domain.Appointment, error) {
	return r.findOverlapping(ctx, userID, start, end, excludeID)
}

// FindAppointmentsBetween returns the user's appointments overlapping
// [from, to), unpaginated.
func (r *PgxAppointmentRepository) FindAppointmentsBetween(ctx context.Context, userID string, from, to time.Time) ([]domain.Appointment, error) {
	return r.findOverlapping(ctx, userID, from, to, "")
}

func (r *PgxAppointmentRepository) findOverlapping(ctx context.Context, userID string, start, end time.Time, excludeID string) ([]domain.Appointment, error) {
	b := &condBuilder{}
	b.addf("user_id = $%d", userID)
	b.addf("start_time < $%d", end)
	b.addf("end_time > $%d", start)
	if excludeID != "" {
		b.addf("appointment_id <> $%d", excludeID)
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments` + b.where() + ` ORDER BY start_time ASC;`
	rows, err := r.Pool.Query(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query overlapping appointments: %w", err)
	}
	defer rows.Close()

	appts := []domain.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment row: %w", err)
		}
		appts = append(appts, *a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating appointment rows: %w", rows.Err())
	}
	return appts, nil
}

func (r *PgxAppointmentRepository) UpdateAppointment(ctx context.Context, appt domain.Appointment) error {
	query := `
		UPDATE appointments
		SET title = $1, description = $2, start_time = $3, end_time = $4,
			category = $5, color = $6, updated_at = $7
		WHERE appointment_id = $8;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		appt.Title,
		appt.Description,
		appt.StartTime,
		appt.EndTime,
		appt.Category,
		appt.Color,
		appt.UpdatedAt,
		appt.AppointmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment %s: %w", appt.AppointmentID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxAppointmentRepository) DeleteAppointment(ctx context.Context, apptID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM appointments WHERE appointment_id = $1;`, apptID)
	if err != nil {
		return fmt.Errorf("failed to delete appointment %s: %w", apptID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxAppointmentRepository) FindCategories(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.Pool.Query(ctx,
		`SELECT DISTINCT category FROM appointments WHERE user_id = $1 AND category <> '' ORDER BY category;`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query appointment categories: %w", err)
	}
	defer rows.Close()

	categories := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", rows.Err())
	}
	return categories, nil
}
