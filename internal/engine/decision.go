package engine

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// pendingNotice is a notification deferred until the decision
// transaction has committed.
type pendingNotice func(ctx context.Context)

// Decide records one approver's decision on a requisition at its current
// stage and advances the requisition when the stage is settled.
//
// Preconditions, each a distinct failure: the actor exists, the
// requisition exists, the requisition is pending approval, the actor's
// authority level equals the requisition's current level, and the actor
// holds an open approval record. Rejection additionally requires a
// non-empty comment. All checks run before any write.
//
// A single rejection at any level rejects the whole requisition. An
// approval by the holder of the chain's maximum authority level approves
// it outright, even with sibling records still pending at that level;
// those records stay open and undecided. Otherwise the level advances
// only once every record at it is approved.
func (e *Engine) Decide(ctx context.Context, requisitionID, actorID string, decision domain.Decision, comment string) (*domain.Requisition, error) {
	if !domain.ValidDecision(decision) {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField,
			fmt.Sprintf("unknown decision %q", decision))
	}

	actor, err := e.store.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	var (
		updated *domain.Requisition
		notices []pendingNotice
	)
	err = e.store.ForRequisition(ctx, requisitionID, func(ctx context.Context, tx Store) error {
		req, err := tx.GetRequisition(ctx, requisitionID)
		if err != nil {
			return err
		}
		if !req.IsPendingApproval() {
			return apperrors.InvalidState(apperrors.CodeRequisitionNotPending,
				"this requisition is not pending approval")
		}
		if req.CurrentApproverLevel != actor.AuthorityLevel || !actor.CanActAtLevel(req.CurrentApproverLevel) {
			return apperrors.Forbidden(apperrors.CodeWrongApprovalStage,
				"you are not authorized to act on this requisition at this stage")
		}

		approval, err := tx.GetOpenApproval(ctx, req.ID, actor.ID)
		if err != nil {
			return err
		}

		switch decision {
		case domain.DecisionReject:
			notices, err = e.reject(ctx, tx, req, approval, comment)
		default:
			notices, err = e.approve(ctx, tx, req, approval, comment)
		}
		if err != nil {
			return err
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("approval decision recorded",
		zap.String("requisition_id", updated.ID),
		zap.String("actor_id", actorID),
		zap.String("decision", string(decision)),
		zap.String("status", string(updated.Status)),
		zap.Int("level", updated.CurrentApproverLevel),
	)
	for _, notice := range notices {
		notice(ctx)
	}
	return updated, nil
}

// reject marks the record rejected and short-circuits the requisition:
// one rejecting approver kills the chain regardless of pending siblings.
func (e *Engine) reject(ctx context.Context, tx Store, req *domain.Requisition, approval *domain.Approval, comment string) ([]pendingNotice, error) {
	if strings.TrimSpace(comment) == "" {
		return nil, apperrors.BadRequest(apperrors.CodeRejectCommentRequired,
			"a rejection reason is required")
	}

	if err := tx.DecideApproval(ctx, approval.ID, domain.ApprovalRejected, comment); err != nil {
		return nil, fmt.Errorf("reject approval %s: %w", approval.ID, err)
	}
	if err := tx.SetRequisitionState(ctx, req.ID, domain.StatusRejected, req.CurrentApproverLevel); err != nil {
		return nil, fmt.Errorf("set requisition %s rejected: %w", req.ID, err)
	}
	req.Status = domain.StatusRejected

	snapshot := *req
	return []pendingNotice{func(ctx context.Context) {
		e.notifier.RequisitionRejected(ctx, snapshot.RequestorID, &snapshot, comment)
	}}, nil
}

// approve marks the record approved and evaluates the stage: maximum
// authority short-circuits, a complete level advances or finalizes, an
// incomplete level leaves the requisition waiting.
func (e *Engine) approve(ctx context.Context, tx Store, req *domain.Requisition, approval *domain.Approval, comment string) ([]pendingNotice, error) {
	wf, err := resolveWorkflow(ctx, tx, req)
	if err != nil {
		return nil, err
	}

	if err := tx.DecideApproval(ctx, approval.ID, domain.ApprovalApproved, comment); err != nil {
		return nil, fmt.Errorf("approve approval %s: %w", approval.ID, err)
	}

	// Maximum authority is final: sibling records at this level stay
	// pending forever, by product decision.
	if req.CurrentApproverLevel == wf.MaxLevel() {
		return e.finalize(ctx, tx, req)
	}

	records, err := tx.ListApprovalsAtLevel(ctx, req.ID, req.CurrentApproverLevel)
	if err != nil {
		return nil, fmt.Errorf("list approvals for requisition %s level %d: %w", req.ID, req.CurrentApproverLevel, err)
	}
	for _, rec := range records {
		if rec.ID == approval.ID {
			continue
		}
		if rec.Status != domain.ApprovalApproved {
			// Level incomplete; requisition keeps waiting at this stage.
			return nil, nil
		}
	}

	next, ok := wf.NextLevelAfter(req.CurrentApproverLevel)
	if !ok {
		return e.finalize(ctx, tx, req)
	}

	if err := tx.SetRequisitionState(ctx, req.ID, domain.StatusPartiallyApproved, next); err != nil {
		return nil, fmt.Errorf("advance requisition %s to level %d: %w", req.ID, next, err)
	}
	req.Status = domain.StatusPartiallyApproved
	req.CurrentApproverLevel = next

	approvers, err := openLevel(ctx, tx, req, next)
	if err != nil {
		return nil, err
	}

	snapshot := *req
	notices := make([]pendingNotice, 0, len(approvers))
	for _, approver := range approvers {
		approver := approver
		notices = append(notices, func(ctx context.Context) {
			e.notifier.ApprovalRequested(ctx, approver, &snapshot)
		})
	}
	return notices, nil
}

// finalize marks the requisition fully approved.
func (e *Engine) finalize(ctx context.Context, tx Store, req *domain.Requisition) ([]pendingNotice, error) {
	if err := tx.SetRequisitionState(ctx, req.ID, domain.StatusApproved, req.CurrentApproverLevel); err != nil {
		return nil, fmt.Errorf("set requisition %s approved: %w", req.ID, err)
	}
	req.Status = domain.StatusApproved

	snapshot := *req
	return []pendingNotice{func(ctx context.Context) {
		e.notifier.RequisitionApproved(ctx, snapshot.RequestorID, &snapshot)
	}}, nil
}
