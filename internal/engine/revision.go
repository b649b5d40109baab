package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// Revise creates a new requisition version from a rejected one. The new
// row starts in status revised with the revision number incremented and
// its lineage pointer set to the chain's root; patch fields override the
// original's values. Revision does not resubmit; the caller chains
// Submit explicitly when desired.
func (e *Engine) Revise(ctx context.Context, originalID, actorID string, patch domain.RequisitionPatch) (*domain.Requisition, error) {
	actor, err := e.store.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	original, err := e.store.GetRequisition(ctx, originalID)
	if err != nil {
		return nil, err
	}
	if original.RequestorID != actor.ID {
		return nil, apperrors.Forbidden(apperrors.CodeNotRequisitionOwner,
			"only the requestor may revise this requisition")
	}
	if original.Status != domain.StatusRejected {
		return nil, apperrors.InvalidState(apperrors.CodeRequisitionNotRejected,
			"only rejected requisitions can be revised")
	}

	id, err := newID()
	if err != nil {
		return nil, err
	}
	revised := &domain.Requisition{
		ID:                    id,
		Title:                 original.Title,
		Description:           original.Description,
		RequestorID:           actor.ID,
		DepartmentID:          original.DepartmentID,
		Amount:                original.Amount,
		Category:              original.Category,
		Priority:              original.Priority,
		DueDate:               original.DueDate,
		Status:                domain.StatusRevised,
		RevisionNumber:        original.RevisionNumber + 1,
		OriginalRequisitionID: original.LineageRootID(),
	}
	applyPatch(revised, patch)

	if err := e.store.CreateRequisition(ctx, revised); err != nil {
		return nil, fmt.Errorf("create revision of requisition %s: %w", originalID, err)
	}

	logger.Info("requisition revised",
		zap.String("original_id", originalID),
		zap.String("revision_id", revised.ID),
		zap.Int("revision_number", revised.RevisionNumber),
	)
	return revised, nil
}

func applyPatch(r *domain.Requisition, patch domain.RequisitionPatch) {
	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Amount != nil {
		r.Amount = patch.Amount
	}
	if patch.Category != nil {
		r.Category = *patch.Category
	}
	if patch.Priority != nil {
		r.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		r.DueDate = patch.DueDate
	}
}
