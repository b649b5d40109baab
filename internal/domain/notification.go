package domain

import "time"

// NotificationType classifies in-app notifications.
type NotificationType string

// Notification types.
const (
	NotifyApprovalRequested NotificationType = "APPROVAL_REQUESTED"
	NotifyApprovalGranted   NotificationType = "REQUISITION_APPROVED"
	NotifyApprovalRejected  NotificationType = "REQUISITION_REJECTED"
)

// Notification is an in-app inbox entry. External delivery (email) is
// handled separately by the dispatch job; inbox rows are the durable
// record either way.
type Notification struct {
	ID           string
	UserID       string
	Type         NotificationType
	Title        string
	Message      string
	ResourceType string
	ResourceID   string
	Read         bool
	CreatedAt    time.Time
}
