package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

const approvalColumns = `
	id, requisition_id, approver_id, status, comment,
	approver_level, created_at, updated_at, decided_at`

func scanApproval(row pgx.Row) (*domain.Approval, error) {
	var a domain.Approval
	err := row.Scan(
		&a.ID, &a.RequisitionID, &a.ApproverID, &a.Status, &a.Comment,
		&a.ApproverLevel, &a.CreatedAt, &a.UpdatedAt, &a.DecidedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateApprovalIfAbsent inserts the record unless one already exists for
// the same (requisition, approver, level) triple. The unique constraint
// makes the guard race-free across concurrent fan-outs.
func (q queries) CreateApprovalIfAbsent(ctx context.Context, a *domain.Approval) (bool, error) {
	query := `
		INSERT INTO approvals
		    (id, requisition_id, approver_id, status, comment, approver_level)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (requisition_id, approver_id, approver_level) DO NOTHING
	`
	tag, err := q.db.Exec(ctx, query,
		a.ID, a.RequisitionID, a.ApproverID, a.Status, a.Comment, a.ApproverLevel,
	)
	if err != nil {
		return false, fmt.Errorf("create approval for %s/%s: %w", a.RequisitionID, a.ApproverID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// GetOpenApproval returns the pending record for (requisition, approver)
// or an APPROVAL_NOT_FOUND error.
func (q queries) GetOpenApproval(ctx context.Context, requisitionID, approverID string) (*domain.Approval, error) {
	query := `SELECT ` + approvalColumns + `
		FROM approvals
		WHERE requisition_id = $1 AND approver_id = $2 AND status = 'pending'`

	approval, err := scanApproval(q.db.QueryRow(ctx, query, requisitionID, approverID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodeApprovalNotFound, "approval record not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get open approval %s/%s: %w", requisitionID, approverID, err)
	}
	return approval, nil
}

// ListApprovalsAtLevel returns all records for a requisition at one
// authority level, any status.
func (q queries) ListApprovalsAtLevel(ctx context.Context, requisitionID string, level int) ([]*domain.Approval, error) {
	query := `SELECT ` + approvalColumns + `
		FROM approvals
		WHERE requisition_id = $1 AND approver_level = $2
		ORDER BY created_at ASC, id ASC`

	rows, err := q.db.Query(ctx, query, requisitionID, level)
	if err != nil {
		return nil, fmt.Errorf("list approvals for %s level %d: %w", requisitionID, level, err)
	}
	defer rows.Close()
	return collectApprovals(rows)
}

// ListApprovalsByRequisition returns all records for a requisition
// ordered by approver level, then creation time.
func (q queries) ListApprovalsByRequisition(ctx context.Context, requisitionID string) ([]*domain.Approval, error) {
	query := `SELECT ` + approvalColumns + `
		FROM approvals
		WHERE requisition_id = $1
		ORDER BY approver_level ASC, created_at ASC, id ASC`

	rows, err := q.db.Query(ctx, query, requisitionID)
	if err != nil {
		return nil, fmt.Errorf("list approvals for %s: %w", requisitionID, err)
	}
	defer rows.Close()
	return collectApprovals(rows)
}

// ListOpenApprovalsForUser returns the approver's pending records on
// requisitions currently sitting at the given level.
func (q queries) ListOpenApprovalsForUser(ctx context.Context, approverID string, level int) ([]*domain.Approval, error) {
	query := `SELECT ` + prefixColumns("a", approvalColumns) + `
		FROM approvals a
		JOIN requisitions r ON r.id = a.requisition_id
		WHERE a.approver_id = $1
		  AND a.status = 'pending'
		  AND r.status IN ('pending', 'partially_approved')
		  AND r.current_approver_level = $2
		ORDER BY a.created_at ASC, a.id ASC`

	rows, err := q.db.Query(ctx, query, approverID, level)
	if err != nil {
		return nil, fmt.Errorf("list open approvals for %s: %w", approverID, err)
	}
	defer rows.Close()
	return collectApprovals(rows)
}

// DecideApproval marks a pending record approved or rejected. Decided
// records never transition again; the status guard enforces that.
func (q queries) DecideApproval(ctx context.Context, approvalID string, status domain.ApprovalStatus, comment string) error {
	query := `
		UPDATE approvals
		SET status = $2, comment = $3, decided_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`
	tag, err := q.db.Exec(ctx, query, approvalID, status, comment)
	if err != nil {
		return fmt.Errorf("decide approval %s: %w", approvalID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeApprovalNotFound, "approval record not found")
	}
	return nil
}

func collectApprovals(rows pgx.Rows) ([]*domain.Approval, error) {
	var out []*domain.Approval
	for rows.Next() {
		approval, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		out = append(out, approval)
	}
	return out, rows.Err()
}
