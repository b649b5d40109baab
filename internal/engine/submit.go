package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// Submit moves a draft or revised requisition into the approval chain:
// it resolves the applicable workflow, opens the first level and sets
// status to pending. Only the requestor may submit.
func (e *Engine) Submit(ctx context.Context, requisitionID, actorID string) (*domain.Requisition, error) {
	actor, err := e.store.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var (
		updated  *domain.Requisition
		notified []*domain.User
	)
	err = e.store.ForRequisition(ctx, requisitionID, func(ctx context.Context, tx Store) error {
		req, err := tx.GetRequisition(ctx, requisitionID)
		if err != nil {
			return err
		}
		if req.RequestorID != actor.ID {
			return apperrors.Forbidden(apperrors.CodeNotRequisitionOwner,
				"only the requestor may submit this requisition")
		}
		if !req.IsSubmittable() {
			return apperrors.InvalidState(apperrors.CodeRequisitionNotSubmittable,
				"only draft or revised requisitions can be submitted")
		}

		wf, err := resolveWorkflow(ctx, tx, req)
		if err != nil {
			return err
		}

		first := wf.FirstLevel()
		if err := tx.SetRequisitionState(ctx, req.ID, domain.StatusPending, first); err != nil {
			return fmt.Errorf("set requisition %s pending: %w", req.ID, err)
		}
		req.Status = domain.StatusPending
		req.CurrentApproverLevel = first

		notified, err = openLevel(ctx, tx, req, first)
		if err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("requisition submitted",
		zap.String("requisition_id", updated.ID),
		zap.Int("first_level", updated.CurrentApproverLevel),
		zap.Int("approvers_notified", len(notified)),
	)
	for _, approver := range notified {
		e.notifier.ApprovalRequested(ctx, approver, updated)
	}
	return updated, nil
}
