package repositories

import (
	"context"

	"github.com/harborlend/loancrm/internal/core/domain"
)

// NotificationRepository persists per-user notifications.
type NotificationRepository interface {
	SaveNotification(ctx context.Context, n domain.Notification) error
	// SaveNotifications inserts one notification per element in a single
	// batched statement; used by broadcast fan-out.
	SaveNotifications(ctx context.Context, ns []domain.Notification) error
	FindNotificationByID(ctx context.Context, notificationID string) (*domain.Notification, error)
	FindNotifications(ctx context.Context, filter NotificationFilter) ([]domain.Notification, int, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
	DeleteNotification(ctx context.Context, notificationID string) error
	DeleteRead(ctx context.Context, userID string) (int, error)
	SummarizeNotifications(ctx context.Context, userID string) (*domain.NotificationSummary, error)
}
