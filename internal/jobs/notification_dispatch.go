// Package jobs defines River Queue job types for async processing.
//
// Jobs carry only identifiers (claim-check); workers re-read current
// state from the store.
package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// NotificationDispatchArgs carries only the inbox row ID.
type NotificationDispatchArgs struct {
	NotificationID string `json:"notification_id"`
}

// Kind returns the job kind identifier for external notification delivery.
func (NotificationDispatchArgs) Kind() string { return "notification_dispatch" }

// InsertOpts returns default insert options for dispatch jobs.
func (NotificationDispatchArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       river.QueueDefault,
		MaxAttempts: 3,
		UniqueOpts: river.UniqueOpts{
			ByArgs:  true,
			ByQueue: true,
		},
	}
}

// DispatchStore reads the state a dispatch worker needs.
type DispatchStore interface {
	GetNotification(ctx context.Context, id string) (*domain.Notification, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Deliverer pushes a notification over an external channel (email,
// webhook). The inbox row already exists; delivery failures are retried
// by River and never touch the inbox.
type Deliverer interface {
	Deliver(ctx context.Context, recipient *domain.User, n *domain.Notification) error
}

// LogDeliverer is the default channel: it records the delivery in the
// application log. Real channels replace it in deployment wiring.
type LogDeliverer struct{}

// Deliver logs the outbound notification.
func (LogDeliverer) Deliver(_ context.Context, recipient *domain.User, n *domain.Notification) error {
	logger.Info("notification delivered",
		zap.String("notification_id", n.ID),
		zap.String("recipient", recipient.Email),
		zap.String("type", string(n.Type)),
		zap.String("title", n.Title),
	)
	return nil
}

// NotificationDispatchWorker delivers inbox rows to external channels.
//
// Execution flow:
//  1. Fetch the notification by ID (claim-check)
//  2. Fetch the recipient for channel addressing
//  3. Hand off to the configured Deliverer
//
// A missing notification or recipient is terminal: retrying cannot
// recover it, so the job completes with a warning instead of failing.
type NotificationDispatchWorker struct {
	river.WorkerDefaults[NotificationDispatchArgs]
	store     DispatchStore
	deliverer Deliverer
}

// NewNotificationDispatchWorker creates a dispatch worker. A nil deliverer
// falls back to LogDeliverer.
func NewNotificationDispatchWorker(store DispatchStore, deliverer Deliverer) *NotificationDispatchWorker {
	if deliverer == nil {
		deliverer = LogDeliverer{}
	}
	return &NotificationDispatchWorker{store: store, deliverer: deliverer}
}

// Work executes the delivery.
func (w *NotificationDispatchWorker) Work(ctx context.Context, job *river.Job[NotificationDispatchArgs]) error {
	id := job.Args.NotificationID

	n, err := w.store.GetNotification(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("notification vanished before dispatch, skipping",
				zap.String("notification_id", id),
			)
			return nil
		}
		return fmt.Errorf("fetch notification %s: %w", id, err)
	}

	recipient, err := w.store.GetUser(ctx, n.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("notification recipient no longer exists, skipping",
				zap.String("notification_id", id),
				zap.String("user_id", n.UserID),
			)
			return nil
		}
		return fmt.Errorf("fetch recipient %s: %w", n.UserID, err)
	}

	if err := w.deliverer.Deliver(ctx, recipient, n); err != nil {
		return fmt.Errorf("deliver notification %s: %w", id, err)
	}
	return nil
}

// RiverEnqueuer schedules dispatch jobs on the shared River client.
type RiverEnqueuer struct {
	client *river.Client[pgx.Tx]
}

// NewRiverEnqueuer wraps a River client for dispatch enqueueing.
func NewRiverEnqueuer(client *river.Client[pgx.Tx]) *RiverEnqueuer {
	return &RiverEnqueuer{client: client}
}

// EnqueueDispatch inserts a dispatch job for the inbox row.
func (e *RiverEnqueuer) EnqueueDispatch(ctx context.Context, notificationID string) error {
	_, err := e.client.Insert(ctx, NotificationDispatchArgs{NotificationID: notificationID}, nil)
	if err != nil {
		return fmt.Errorf("insert dispatch job for %s: %w", notificationID, err)
	}
	return nil
}
