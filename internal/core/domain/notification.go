package domain

// NotificationType is the severity of a per-user alert.
type NotificationType string

const (
	NotifyInfo    NotificationType = "INFO"
	NotifyWarning NotificationType = "WARNING"
	NotifyError   NotificationType = "ERROR"
	NotifySuccess NotificationType = "SUCCESS"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case NotifyInfo, NotifyWarning, NotifyError, NotifySuccess:
		return true
	}
	return false
}

// Notification is a per-user alert. The only mutation after creation is
// flipping IsRead.
type Notification struct {
	NotificationID string           `json:"notificationID"`
	UserID         string           `json:"userID"`
	Title          string           `json:"title"`
	Message        string           `json:"message"`
	Type           NotificationType `json:"type"`
	IsRead         bool             `json:"isRead"`
	AuditFields
}

// NotificationSummary counts a user's alerts by read state and type.
type NotificationSummary struct {
	Total  int          `json:"total"`
	Unread int          `json:"unread"`
	ByType []GroupCount `json:"byType"`
}
