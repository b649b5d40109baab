// Package notification implements the in-app notification system.
//
// Inbox rows are the durable record; external delivery (email via the
// River dispatch job) is best-effort on top of them.
package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// Params holds the required fields for creating a notification.
type Params struct {
	RecipientID  string // User ID of the recipient
	Type         domain.NotificationType
	Title        string // Human-readable title
	Message      string // Body text
	ResourceType string // e.g. "requisition"
	ResourceID   string // ID of the related resource for navigation
}

// InboxStore persists inbox rows.
type InboxStore interface {
	CreateNotification(ctx context.Context, n *domain.Notification) error
}

// Sender defines the interface for sending notifications.
// InboxSender is the only synchronous implementation; email and webhook
// channels hang off the dispatch job instead.
type Sender interface {
	// Send creates a notification for a single recipient and returns the
	// stored row. Callers that fan out to external channels use its ID as
	// the claim check.
	Send(ctx context.Context, params Params) (*domain.Notification, error)
}

// InboxSender writes notifications to the database synchronously within
// the caller's context.
type InboxSender struct {
	store InboxStore
}

// NewInboxSender creates a new inbox sender.
func NewInboxSender(store InboxStore) *InboxSender {
	return &InboxSender{store: store}
}

// Send stores a single notification to the database.
func (s *InboxSender) Send(ctx context.Context, params Params) (*domain.Notification, error) {
	if err := validateParams(params); err != nil {
		return nil, fmt.Errorf("notification params invalid: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate notification id: %w", err)
	}

	n := &domain.Notification{
		ID:           id.String(),
		UserID:       params.RecipientID,
		Type:         params.Type,
		Title:        params.Title,
		Message:      params.Message,
		ResourceType: params.ResourceType,
		ResourceID:   params.ResourceID,
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification for user %s: %w", params.RecipientID, err)
	}

	logger.Debug("notification sent",
		zap.String("recipient", params.RecipientID),
		zap.String("type", string(params.Type)),
		zap.String("title", params.Title),
	)

	return n, nil
}

// compile-time check
var _ Sender = (*InboxSender)(nil)

func validateParams(p Params) error {
	if p.RecipientID == "" {
		return fmt.Errorf("recipient_id is required")
	}
	if p.Type == "" {
		return fmt.Errorf("type is required")
	}
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.Message == "" {
		return fmt.Errorf("message is required")
	}
	return nil
}
