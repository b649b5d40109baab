package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/pkg/logger"
)

// openLevel materializes one pending approval record per approver
// holding the given authority level. Called inside the submission or
// level-advance transaction so the records land atomically with the
// requisition's state change.
//
// The eligible pool is queried live; approvers added later never see
// this requisition at this level. An empty pool opens the level with
// zero records and the requisition waits there with no automatic
// escalation exists.
//
// Idempotent: re-opening a level creates no duplicate records.
// Returns the approvers to notify once the transaction commits.
func openLevel(ctx context.Context, tx Store, req *domain.Requisition, level int) ([]*domain.User, error) {
	approvers, err := tx.ListApproversAtLevel(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("list approvers at level %d: %w", level, err)
	}
	if len(approvers) == 0 {
		logger.Warn("approval level opened with empty approver pool",
			zap.String("requisition_id", req.ID),
			zap.Int("level", level),
		)
		return nil, nil
	}

	notify := make([]*domain.User, 0, len(approvers))
	for _, approver := range approvers {
		id, err := newID()
		if err != nil {
			return nil, err
		}
		created, err := tx.CreateApprovalIfAbsent(ctx, &domain.Approval{
			ID:            id,
			RequisitionID: req.ID,
			ApproverID:    approver.ID,
			Status:        domain.ApprovalPending,
			ApproverLevel: level,
		})
		if err != nil {
			return nil, fmt.Errorf("create approval for approver %s: %w", approver.ID, err)
		}
		if created {
			notify = append(notify, approver)
		}
	}
	return notify, nil
}
