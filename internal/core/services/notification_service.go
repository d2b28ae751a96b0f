package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harborlend/loancrm/internal/apperrors"
	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

type notificationService struct {
	BaseService
	notifRepo portsrepo.NotificationRepository
	userRepo  portsrepo.UserRepository
	now       func() time.Time
}

type NotificationServiceOption func(*notificationService)

// WithNotificationClock overrides the service clock, for tests.
func WithNotificationClock(now func() time.Time) NotificationServiceOption {
	return func(s *notificationService) { s.now = now }
}

// NewNotificationService creates the notification service.
func NewNotificationService(notifRepo portsrepo.NotificationRepository, userRepo portsrepo.UserRepository, opts ...NotificationServiceOption) portssvc.NotificationService {
	s := &notificationService{notifRepo: notifRepo, userRepo: userRepo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ portssvc.NotificationService = (*notificationService)(nil)

func (s *notificationService) CreateNotification(ctx context.Context, actor *domain.User, n domain.Notification) (*domain.Notification, error) {
	if n.Title == "" || n.Message == "" {
		return nil, apperrors.ErrValidation
	}
	if n.Type == "" {
		n.Type = domain.NotifyInfo
	}
	if !n.Type.IsValid() {
		return nil, apperrors.ErrValidation
	}
	if n.UserID == "" {
		n.UserID = actor.UserID
	}
	// Creating alerts for someone else is an admin operation.
	if n.UserID != actor.UserID && !actor.HasRole(domain.RoleAdmin) {
		return nil, apperrors.ErrForbidden
	}

	now := s.now()
	n.NotificationID = uuid.NewString()
	n.IsRead = false
	n.CreatedAt = now
	n.UpdatedAt = now

	if err := s.notifRepo.SaveNotification(ctx, n); err != nil {
		s.LogError(ctx, err, "failed to create notification")
		return nil, err
	}
	return &n, nil
}

// Broadcast fans one message out to the resolved recipient set: explicit
// user ids, role membership, or every active user. Inactive accounts never
// receive a copy. Returns the number of notifications created.
func (s *notificationService) Broadcast(ctx context.Context, actor *domain.User, input portssvc.BroadcastInput) (int, error) {
	if !actor.HasRole(domain.RoleAdmin) {
		return 0, apperrors.ErrForbidden
	}
	if input.Title == "" || input.Message == "" {
		return 0, apperrors.ErrValidation
	}
	if len(input.UserIDs) > 0 && len(input.Roles) > 0 {
		return 0, apperrors.ErrValidation
	}
	if input.Type == "" {
		input.Type = domain.NotifyInfo
	}
	if !input.Type.IsValid() {
		return 0, apperrors.ErrValidation
	}
	for _, role := range input.Roles {
		if !role.IsValid() {
			return 0, apperrors.ErrValidation
		}
	}

	recipients, err := s.userRepo.FindActiveUserIDs(ctx, input.UserIDs, input.Roles)
	if err != nil {
		s.LogError(ctx, err, "failed to resolve broadcast recipients")
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	now := s.now()
	ns := make([]domain.Notification, len(recipients))
	for i, userID := range recipients {
		ns[i] = domain.Notification{
			NotificationID: uuid.NewString(),
			UserID:         userID,
			Title:          input.Title,
			Message:        input.Message,
			Type:           input.Type,
			IsRead:         false,
			AuditFields: domain.AuditFields{
				CreatedAt: now,
				UpdatedAt: now,
			},
		}
	}
	if err := s.notifRepo.SaveNotifications(ctx, ns); err != nil {
		s.LogError(ctx, err, "failed to save broadcast")
		return 0, err
	}
	s.LogInfo(ctx, "broadcast sent", "recipients", len(recipients))
	return len(recipients), nil
}

func (s *notificationService) ListNotifications(ctx context.Context, actor *domain.User, filter portsrepo.NotificationFilter) ([]domain.Notification, int, error) {
	filter.UserID = actor.UserID
	return s.notifRepo.FindNotifications(ctx, filter)
}

// getOwned loads a notification and hides other users' rows as absent.
func (s *notificationService) getOwned(ctx context.Context, actor *domain.User, notificationID string) (*domain.Notification, error) {
	n, err := s.notifRepo.FindNotificationByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != actor.UserID {
		return nil, apperrors.ErrNotFound
	}
	return n, nil
}

func (s *notificationService) MarkRead(ctx context.Context, actor *domain.User, notificationID string) (*domain.Notification, error) {
	n, err := s.getOwned(ctx, actor, notificationID)
	if err != nil {
		return nil, err
	}
	if err := s.notifRepo.MarkRead(ctx, notificationID); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, actor *domain.User) (int, error) {
	return s.notifRepo.MarkAllRead(ctx, actor.UserID)
}

func (s *notificationService) DeleteNotification(ctx context.Context, actor *domain.User, notificationID string) error {
	if _, err := s.getOwned(ctx, actor, notificationID); err != nil {
		return err
	}
	return s.notifRepo.DeleteNotification(ctx, notificationID)
}

func (s *notificationService) ClearRead(ctx context.Context, actor *domain.User) (int, error) {
	return s.notifRepo.DeleteRead(ctx, actor.UserID)
}

func (s *notificationService) GetNotificationSummary(ctx context.Context, actor *domain.User) (*domain.NotificationSummary, error) {
	return s.notifRepo.SummarizeNotifications(ctx, actor.UserID)
}
