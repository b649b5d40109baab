package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

const workflowColumns = `
	id, department_id, category, amount_threshold, approver_sequence,
	created_at, updated_at`

func scanWorkflow(row pgx.Row) (*domain.WorkflowDefinition, error) {
	var w domain.WorkflowDefinition
	err := row.Scan(
		&w.ID, &w.DepartmentID, &w.Category, &w.AmountThreshold, &w.ApproverSequence,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWorkflowsByKey returns every definition for the (department,
// category) pair, ordered by amount threshold ascending.
func (q queries) ListWorkflowsByKey(ctx context.Context, departmentID, category string) ([]*domain.WorkflowDefinition, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflow_definitions
		WHERE department_id = $1 AND category = $2
		ORDER BY amount_threshold ASC`

	rows, err := q.db.Query(ctx, query, departmentID, category)
	if err != nil {
		return nil, fmt.Errorf("list workflows for %s/%s: %w", departmentID, category, err)
	}
	defer rows.Close()
	return collectWorkflows(rows)
}

// GetWorkflow returns the definition or a NO_WORKFLOW_FOUND error.
func (q queries) GetWorkflow(ctx context.Context, id string) (*domain.WorkflowDefinition, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflow_definitions WHERE id = $1`

	wf, err := scanWorkflow(q.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodeNoWorkflowFound, "workflow definition not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get workflow %s: %w", id, err)
	}
	return wf, nil
}

// CreateWorkflow inserts a definition. The unique constraint on
// (department, category, threshold) surfaces as WORKFLOW_EXISTS.
func (q queries) CreateWorkflow(ctx context.Context, w *domain.WorkflowDefinition) error {
	query := `
		INSERT INTO workflow_definitions
		    (id, department_id, category, amount_threshold, approver_sequence)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := q.db.QueryRow(ctx, query,
		w.ID, w.DepartmentID, w.Category, w.AmountThreshold, w.ApproverSequence,
	).Scan(&w.CreatedAt, &w.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.Conflict(apperrors.CodeWorkflowExists,
			"a workflow for this department, category and threshold already exists")
	}
	if err != nil {
		return fmt.Errorf("create workflow %s: %w", w.ID, err)
	}
	return nil
}

// UpdateWorkflow replaces a definition's policy fields.
func (q queries) UpdateWorkflow(ctx context.Context, w *domain.WorkflowDefinition) error {
	query := `
		UPDATE workflow_definitions
		SET department_id = $2, category = $3, amount_threshold = $4,
		    approver_sequence = $5, updated_at = now()
		WHERE id = $1
	`
	tag, err := q.db.Exec(ctx, query,
		w.ID, w.DepartmentID, w.Category, w.AmountThreshold, w.ApproverSequence,
	)
	if isUniqueViolation(err) {
		return apperrors.Conflict(apperrors.CodeWorkflowExists,
			"a workflow for this department, category and threshold already exists")
	}
	if err != nil {
		return fmt.Errorf("update workflow %s: %w", w.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeNoWorkflowFound, "workflow definition not found")
	}
	return nil
}

// DeleteWorkflow removes a definition.
func (q queries) DeleteWorkflow(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM workflow_definitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete workflow %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeNoWorkflowFound, "workflow definition not found")
	}
	return nil
}

// ListWorkflows returns all definitions ordered by department, category,
// threshold.
func (q queries) ListWorkflows(ctx context.Context) ([]*domain.WorkflowDefinition, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflow_definitions
		ORDER BY department_id ASC, category ASC, amount_threshold ASC`

	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}
	defer rows.Close()
	return collectWorkflows(rows)
}

func collectWorkflows(rows pgx.Rows) ([]*domain.WorkflowDefinition, error) {
	var out []*domain.WorkflowDefinition
	for rows.Next() {
		wf, err := scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workflow: %w", err)
		}
		out = append(out, wf)
	}
	return out, rows.Err()
}
