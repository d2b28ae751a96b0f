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

type PgxNotificationRepository struct {
	BaseRepository
}

func newPgxNotificationRepository(db *pgxpool.Pool) portsrepo.NotificationRepository {
	return &PgxNotificationRepository{BaseRepository: BaseRepository{Pool: db}}
}

var _ portsrepo.NotificationRepository = (*PgxNotificationRepository)(nil)

const notificationColumns = `notification_id, user_id, title, message, type, is_read, created_at, updated_at`

const insertNotificationQuery = `
	INSERT INTO notifications (` + notificationColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`

func scanNotification(row pgx.Row) (*domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(
		&n.NotificationID,
		&n.UserID,
		&n.Title,
		&n.Message,
		&n.Type,
		&n.IsRead,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *PgxNotificationRepository) SaveNotification(ctx context.Context, n domain.Notification) error {
	_, err := r.Pool.Exec(ctx, insertNotificationQuery,
		n.NotificationID, n.UserID, n.Title, n.Message, n.Type, n.IsRead, n.CreatedAt, n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}
	return nil
}

// SaveNotifications inserts the whole fan-out in one round trip.
func (r *PgxNotificationRepository) SaveNotifications(ctx context.Context, ns []domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, n := range ns {
		batch.Queue(insertNotificationQuery,
			n.NotificationID, n.UserID, n.Title, n.Message, n.Type, n.IsRead, n.CreatedAt, n.UpdatedAt)
	}
	results := r.Pool.SendBatch(ctx, batch)
	defer results.Close()
	for range ns {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to save notification batch: %w", err)
		}
	}
	return nil
}

func (r *PgxNotificationRepository) FindNotificationByID(ctx context.Context, notificationID string) (*domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE notification_id = $1;`
	n, err := scanNotification(r.Pool.QueryRow(ctx, query, notificationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find notification by ID %s: %w", notificationID, err)
	}
	return n, nil
}

func (r *PgxNotificationRepository) FindNotifications(ctx context.Context, filter portsrepo.NotificationFilter) ([]domain.Notification, int, error) {
	filter.Page.Normalize()

	b := &condBuilder{}
	b.addf("user_id = $%d", filter.UserID)
	if filter.UnreadOnly {
		b.conds = append(b.conds, "NOT is_read")
	}
	if filter.Type != "" {
		b.addf("type = $%d", filter.Type)
	}

	var total int
	if err := r.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`+b.where(), b.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+notificationColumns+` FROM notifications%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d;`,
		b.where(), b.next(0), b.next(1))
	rows, err := r.Pool.Query(ctx, query, append(b.args, filter.Page.Limit, filter.Page.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	ns := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification row: %w", err)
		}
		ns = append(ns, *n)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("error iterating notification rows: %w", rows.Err())
	}
	return ns, total, nil
}

func (r *PgxNotificationRepository) MarkRead(ctx context.Context, notificationID string) error {
	cmdTag, err := r.Pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, updated_at = now() WHERE notification_id = $1;`, notificationID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	cmdTag, err := r.Pool.Exec(ctx,
		`UPDATE notifications SET is_read = TRUE, updated_at = now() WHERE user_id = $1 AND NOT is_read;`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}

func (r *PgxNotificationRepository) DeleteNotification(ctx context.Context, notificationID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM notifications WHERE notification_id = $1;`, notificationID)
	if err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", notificationID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *PgxNotificationRepository) DeleteRead(ctx context.Context, userID string) (int, error) {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1 AND is_read;`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear read notifications: %w", err)
	}
	return int(cmdTag.RowsAffected()), nil
}

func (r *PgxNotificationRepository) SummarizeNotifications(ctx context.Context, userID string) (*domain.NotificationSummary, error) {
	query := `SELECT type, is_read, COUNT(*) FROM notifications WHERE user_id = $1 GROUP BY type, is_read;`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize notifications: %w", err)
	}
	defer rows.Close()

	summary := &domain.NotificationSummary{ByType: []domain.GroupCount{}}
	byType := map[string]int{}
	for rows.Next() {
		var typ string
		var isRead bool
		var count int
		if err := rows.Scan(&typ, &isRead, &count); err != nil {
			return nil, fmt.Errorf("failed to scan notification summary row: %w", err)
		}
		summary.Total += count
		if !isRead {
			summary.Unread += count
		}
		byType[typ] += count
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("error iterating notification summary rows: %w", rows.Err())
	}

	for _, t := range []domain.NotificationType{domain.NotifyInfo, domain.NotifyWarning, domain.NotifyError, domain.NotifySuccess} {
		if n, ok := byType[string(t)]; ok {
			summary.ByType = append(summary.ByType, domain.GroupCount{Key: string(t), Count: n})
		}
	}
	return summary, nil
}
