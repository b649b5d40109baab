package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

const requisitionColumns = `
	id, title, description, requestor_id, department_id,
	amount, category, priority, due_date,
	status, current_approver_level,
	revision_number, COALESCE(original_requisition_id, ''),
	created_at, updated_at`

func scanRequisition(row pgx.Row) (*domain.Requisition, error) {
	var r domain.Requisition
	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.RequestorID, &r.DepartmentID,
		&r.Amount, &r.Category, &r.Priority, &r.DueDate,
		&r.Status, &r.CurrentApproverLevel,
		&r.RevisionNumber, &r.OriginalRequisitionID,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRequisition returns the requisition or a REQUISITION_NOT_FOUND error.
func (q queries) GetRequisition(ctx context.Context, id string) (*domain.Requisition, error) {
	query := `SELECT ` + requisitionColumns + ` FROM requisitions WHERE id = $1`

	req, err := scanRequisition(q.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodeRequisitionNotFound, "requisition not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get requisition %s: %w", id, err)
	}
	return req, nil
}

// CreateRequisition inserts a new requisition row.
func (q queries) CreateRequisition(ctx context.Context, r *domain.Requisition) error {
	query := `
		INSERT INTO requisitions
		    (id, title, description, requestor_id, department_id,
		     amount, category, priority, due_date,
		     status, current_approver_level,
		     revision_number, original_requisition_id)
		VALUES ($1, $2, $3, $4, $5,
		        $6, $7, $8, $9,
		        $10, $11,
		        $12, NULLIF($13, ''))
		RETURNING created_at, updated_at
	`
	err := q.db.QueryRow(ctx, query,
		r.ID, r.Title, r.Description, r.RequestorID, r.DepartmentID,
		r.Amount, r.Category, r.Priority, r.DueDate,
		r.Status, r.CurrentApproverLevel,
		r.RevisionNumber, r.OriginalRequisitionID,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create requisition %s: %w", r.ID, err)
	}
	return nil
}

// UpdateRequisition replaces a requisition's editable fields.
func (q queries) UpdateRequisition(ctx context.Context, r *domain.Requisition) error {
	query := `
		UPDATE requisitions
		SET title = $2, description = $3, amount = $4, category = $5,
		    priority = $6, due_date = $7, updated_at = now()
		WHERE id = $1
	`
	tag, err := q.db.Exec(ctx, query,
		r.ID, r.Title, r.Description, r.Amount, r.Category, r.Priority, r.DueDate,
	)
	if err != nil {
		return fmt.Errorf("update requisition %s: %w", r.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeRequisitionNotFound, "requisition not found")
	}
	return nil
}

// DeleteRequisition removes a requisition row.
func (q queries) DeleteRequisition(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM requisitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete requisition %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeRequisitionNotFound, "requisition not found")
	}
	return nil
}

// SetRequisitionState updates status and current approver level.
func (q queries) SetRequisitionState(ctx context.Context, id string, status domain.RequisitionStatus, level int) error {
	query := `
		UPDATE requisitions
		SET status = $2, current_approver_level = $3, updated_at = now()
		WHERE id = $1
	`
	tag, err := q.db.Exec(ctx, query, id, status, level)
	if err != nil {
		return fmt.Errorf("set requisition %s state: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeRequisitionNotFound, "requisition not found")
	}
	return nil
}

// ListLineage returns the revision chain rooted at rootID, including the
// root, ordered by revision number ascending.
func (q queries) ListLineage(ctx context.Context, rootID string) ([]*domain.Requisition, error) {
	query := `SELECT ` + requisitionColumns + `
		FROM requisitions
		WHERE id = $1 OR original_requisition_id = $1
		ORDER BY revision_number ASC`

	rows, err := q.db.Query(ctx, query, rootID)
	if err != nil {
		return nil, fmt.Errorf("list lineage of %s: %w", rootID, err)
	}
	defer rows.Close()
	return collectRequisitions(rows)
}

// ListRequisitions returns requisitions matching the filter, newest first.
func (q queries) ListRequisitions(ctx context.Context, f domain.RequisitionFilter) ([]*domain.Requisition, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		conds = append(conds, "status = ANY("+arg(statuses)+")")
	}
	if f.Priority != "" {
		conds = append(conds, "priority = "+arg(f.Priority))
	}
	if f.Category != "" {
		conds = append(conds, "category = "+arg(f.Category))
	}
	if f.DepartmentID != "" {
		conds = append(conds, "department_id = "+arg(f.DepartmentID))
	}
	if f.RequestorID != "" {
		conds = append(conds, "requestor_id = "+arg(f.RequestorID))
	}
	if f.CurrentApproverLevel != 0 {
		conds = append(conds, "current_approver_level = "+arg(f.CurrentApproverLevel))
	}

	query := `SELECT ` + requisitionColumns + ` FROM requisitions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requisitions: %w", err)
	}
	defer rows.Close()
	return collectRequisitions(rows)
}

func collectRequisitions(rows pgx.Rows) ([]*domain.Requisition, error) {
	var out []*domain.Requisition
	for rows.Next() {
		req, err := scanRequisition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan requisition: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}
