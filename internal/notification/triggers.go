package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/engine"
	"reqflow.io/reqflow/internal/pkg/logger"
	"reqflow.io/reqflow/internal/pkg/worker"
)

// Enqueuer schedules external delivery for an inbox row. The job carries
// only the notification ID; the worker re-reads the row.
type Enqueuer interface {
	EnqueueDispatch(ctx context.Context, notificationID string) error
}

// Triggers turns workflow outcomes into inbox rows, domain events, and
// dispatch jobs. The engine invokes it after commit; every method here is
// best-effort and must never surface an error back into the workflow.
//
// Trigger points:
//  1. APPROVAL_REQUESTED - each approver whose stage opened
//  2. REQUISITION_APPROVED - requestor, on final approval
//  3. REQUISITION_REJECTED - requestor, on any rejection
type Triggers struct {
	sender     Sender
	pools      *worker.Pools
	dispatcher *domain.EventDispatcher
	enqueuer   Enqueuer // nil disables external delivery
}

// NewTriggers creates the notification trigger service.
func NewTriggers(sender Sender, pools *worker.Pools, dispatcher *domain.EventDispatcher, enqueuer Enqueuer) *Triggers {
	return &Triggers{sender: sender, pools: pools, dispatcher: dispatcher, enqueuer: enqueuer}
}

// compile-time check
var _ engine.Notifier = (*Triggers)(nil)

// ApprovalRequested fires when a requisition reaches an approver's queue.
func (t *Triggers) ApprovalRequested(ctx context.Context, approver *domain.User, req *domain.Requisition) {
	payload, err := domain.ApprovalRequestedPayload{
		RequisitionID:    req.ID,
		RequisitionTitle: req.Title,
		ApproverID:       approver.ID,
		ApproverLevel:    approver.AuthorityLevel,
	}.ToJSON()
	if err != nil {
		logger.Error("failed to encode approval requested payload",
			zap.String("requisition_id", req.ID),
			zap.Error(err),
		)
		return
	}
	t.emit(ctx, domain.EventApprovalRequested, req.ID, req.RequestorID, payload)

	t.deliver(req.ID, Params{
		RecipientID:  approver.ID,
		Type:         domain.NotifyApprovalRequested,
		Title:        "Requisition pending your approval",
		Message:      fmt.Sprintf("Requisition %q is waiting for your level %d decision", req.Title, approver.AuthorityLevel),
		ResourceType: "requisition",
		ResourceID:   req.ID,
	})
}

// RequisitionApproved fires when the final level approves.
func (t *Triggers) RequisitionApproved(ctx context.Context, requestorID string, req *domain.Requisition) {
	payload, err := domain.RequisitionOutcomePayload{
		RequisitionID:    req.ID,
		RequisitionTitle: req.Title,
		RequestorID:      requestorID,
	}.ToJSON()
	if err != nil {
		logger.Error("failed to encode requisition outcome payload",
			zap.String("requisition_id", req.ID),
			zap.Error(err),
		)
		return
	}
	t.emit(ctx, domain.EventRequisitionApproved, req.ID, requestorID, payload)

	t.deliver(req.ID, Params{
		RecipientID:  requestorID,
		Type:         domain.NotifyApprovalGranted,
		Title:        "Your requisition has been approved",
		Message:      fmt.Sprintf("Requisition %q completed its approval chain", req.Title),
		ResourceType: "requisition",
		ResourceID:   req.ID,
	})
}

// RequisitionRejected fires when any approver rejects.
func (t *Triggers) RequisitionRejected(ctx context.Context, requestorID string, req *domain.Requisition, comment string) {
	payload, err := domain.RequisitionOutcomePayload{
		RequisitionID:    req.ID,
		RequisitionTitle: req.Title,
		RequestorID:      requestorID,
		Comment:          comment,
	}.ToJSON()
	if err != nil {
		logger.Error("failed to encode requisition outcome payload",
			zap.String("requisition_id", req.ID),
			zap.Error(err),
		)
		return
	}
	t.emit(ctx, domain.EventRequisitionRejected, req.ID, requestorID, payload)

	msg := fmt.Sprintf("Requisition %q was rejected", req.Title)
	if comment != "" {
		msg += fmt.Sprintf(": %s", comment)
	}
	t.deliver(req.ID, Params{
		RecipientID:  requestorID,
		Type:         domain.NotifyApprovalRejected,
		Title:        "Your requisition has been rejected",
		Message:      msg,
		ResourceType: "requisition",
		ResourceID:   req.ID,
	})
}

// emit dispatches a domain event to registered handlers. Handler failures
// are logged inside the dispatcher; nothing propagates.
func (t *Triggers) emit(ctx context.Context, eventType domain.EventType, requisitionID, createdBy string, payload []byte) {
	if t.dispatcher == nil {
		return
	}
	event := &domain.DomainEvent{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateType: "requisition",
		AggregateID:   requisitionID,
		Payload:       payload,
		CreatedBy:     createdBy,
		CreatedAt:     time.Now().UTC(),
	}
	_ = t.dispatcher.Dispatch(ctx, event)
}

// deliver writes the inbox row and schedules external dispatch on the
// notify pool. Detached: a client disconnect after commit must not drop
// the delivery.
func (t *Triggers) deliver(requisitionID string, params Params) {
	err := t.pools.SubmitDetached("notify", func(ctx context.Context) {
		n, err := t.sender.Send(ctx, params)
		if err != nil {
			// Inbox write failures must be observable, never silent.
			logger.Error("failed to write inbox notification",
				zap.String("requisition_id", requisitionID),
				zap.String("recipient", params.RecipientID),
				zap.String("type", string(params.Type)),
				zap.Error(err),
			)
			return
		}
		if t.enqueuer == nil {
			return
		}
		if err := t.enqueuer.EnqueueDispatch(ctx, n.ID); err != nil {
			logger.Error("failed to enqueue notification dispatch",
				zap.String("notification_id", n.ID),
				zap.Error(err),
			)
		}
	})
	if err != nil {
		logger.Error("failed to submit notification task",
			zap.String("requisition_id", requisitionID),
			zap.String("recipient", params.RecipientID),
			zap.Error(err),
		)
	}
}
