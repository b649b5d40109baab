package engine

import (
	"context"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// ListPendingApprovals returns the caller's open approval records on
// requisitions currently sitting at the caller's authority level.
func (e *Engine) ListPendingApprovals(ctx context.Context, actorID string) ([]*domain.Approval, error) {
	actor, err := e.store.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return e.store.ListOpenApprovalsForUser(ctx, actor.ID, actor.AuthorityLevel)
}

// ApprovalHistory returns every approval record for a requisition,
// ordered by level then creation time. Regular users may only inspect
// their own requisitions.
func (e *Engine) ApprovalHistory(ctx context.Context, requisitionID, callerID string, callerRole domain.Role) ([]*domain.Approval, error) {
	req, err := e.store.GetRequisition(ctx, requisitionID)
	if err != nil {
		return nil, err
	}
	if err := checkViewPermission(req, callerID, callerRole); err != nil {
		return nil, err
	}
	return e.store.ListApprovalsByRequisition(ctx, req.ID)
}

// RequisitionHistory returns the full revision lineage of a requisition,
// ordered by revision number ascending. Any member of the chain resolves
// the same lineage.
func (e *Engine) RequisitionHistory(ctx context.Context, requisitionID, callerID string, callerRole domain.Role) ([]*domain.Requisition, error) {
	req, err := e.store.GetRequisition(ctx, requisitionID)
	if err != nil {
		return nil, err
	}
	if err := checkViewPermission(req, callerID, callerRole); err != nil {
		return nil, err
	}
	return e.store.ListLineage(ctx, req.LineageRootID())
}

func checkViewPermission(req *domain.Requisition, callerID string, callerRole domain.Role) error {
	if callerRole == domain.RoleRegularUser && req.RequestorID != callerID {
		return apperrors.Forbidden(apperrors.CodePermissionDenied,
			"you do not have permission to view this requisition")
	}
	return nil
}
