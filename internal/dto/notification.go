package dto

import (
	"time"

	"github.com/harborlend/loancrm/internal/core/domain"
	portsrepo "github.com/harborlend/loancrm/internal/core/ports/repositories"
	portssvc "github.com/harborlend/loancrm/internal/core/ports/services"
)

// CreateNotificationRequest defines the data needed to create an alert.
// UserID is optional; creating alerts for other users requires ADMIN.
type CreateNotificationRequest struct {
	UserID  string                  `json:"userID"`
	Title   string                  `json:"title" binding:"required"`
	Message string                  `json:"message" binding:"required"`
	Type    domain.NotificationType `json:"type" binding:"omitempty,oneof=INFO WARNING ERROR SUCCESS"`
}

// ToNotification maps the request onto a domain notification.
func (r CreateNotificationRequest) ToNotification() domain.Notification {
	return domain.Notification{
		UserID:  r.UserID,
		Title:   r.Title,
		Message: r.Message,
		Type:    r.Type,
	}
}

// BroadcastRequest targets a broadcast at explicit users, roles, or all
// active users when both are empty.
type BroadcastRequest struct {
	UserIDs []string                `json:"userIds"`
	Roles   []domain.Role           `json:"roles" binding:"omitempty,dive,oneof=LO LOA PRODUCTION_PARTNER ADMIN"`
	Title   string                  `json:"title" binding:"required"`
	Message string                  `json:"message" binding:"required"`
	Type    domain.NotificationType `json:"type" binding:"omitempty,oneof=INFO WARNING ERROR SUCCESS"`
}

// ToBroadcastInput maps the request onto the service input.
func (r BroadcastRequest) ToBroadcastInput() portssvc.BroadcastInput {
	return portssvc.BroadcastInput{
		UserIDs: r.UserIDs,
		Roles:   r.Roles,
		Title:   r.Title,
		Message: r.Message,
		Type:    r.Type,
	}
}

// NotificationResponse mirrors domain.Notification.
type NotificationResponse struct {
	NotificationID string                  `json:"notificationID"`
	UserID         string                  `json:"userID"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	Type           domain.NotificationType `json:"type"`
	IsRead         bool                    `json:"isRead"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// ToNotificationResponse converts a domain.Notification to its wire
// representation.
func ToNotificationResponse(n *domain.Notification) NotificationResponse {
	return NotificationResponse{
		NotificationID: n.NotificationID,
		UserID:         n.UserID,
		Title:          n.Title,
		Message:        n.Message,
		Type:           n.Type,
		IsRead:         n.IsRead,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

// ToListNotificationResponse converts a slice of notifications.
func ToListNotificationResponse(ns []domain.Notification) []NotificationResponse {
	res := make([]NotificationResponse, len(ns))
	for i := range ns {
		res[i] = ToNotificationResponse(&ns[i])
	}
	return res
}

// ListNotificationsParams defines query parameters for listing alerts.
type ListNotificationsParams struct {
	ListParams
	UnreadOnly bool                    `form:"unreadOnly"`
	Type       domain.NotificationType `form:"type" binding:"omitempty,oneof=INFO WARNING ERROR SUCCESS"`
}

// ToNotificationFilter maps the query parameters onto the repository filter.
func (p ListNotificationsParams) ToNotificationFilter() portsrepo.NotificationFilter {
	return portsrepo.NotificationFilter{
		UnreadOnly: p.UnreadOnly,
		Type:       p.Type,
		Page:       portsrepo.Page{Limit: p.Limit, Offset: p.Offset()},
	}
}
