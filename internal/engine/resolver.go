package engine

import (
	"context"
	"fmt"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// ResolveWorkflow finds the single approval chain definition applying to
// a requisition. Resolution is a pure function of (department, category,
// amount) evaluated once per submission; the result is never stored, so
// a revised requisition may resolve a different chain.
//
// Among definitions for the pair whose threshold does not exceed the
// amount (absent amount counts as 0), the highest qualifying threshold
// wins: the nearest tier at or below. A threshold-0 definition therefore
// always qualifies and acts as the catch-all.
func (e *Engine) ResolveWorkflow(ctx context.Context, req *domain.Requisition) (*domain.WorkflowDefinition, error) {
	return resolveWorkflow(ctx, e.store, req)
}

func resolveWorkflow(ctx context.Context, store WorkflowStore, req *domain.Requisition) (*domain.WorkflowDefinition, error) {
	defs, err := store.ListWorkflowsByKey(ctx, req.DepartmentID, req.Category)
	if err != nil {
		return nil, fmt.Errorf("list workflows for department %s category %q: %w", req.DepartmentID, req.Category, err)
	}

	amount := req.AmountOrZero()

	var best *domain.WorkflowDefinition
	for _, def := range defs {
		if def.AmountThreshold > amount {
			continue
		}
		if best == nil || def.AmountThreshold > best.AmountThreshold {
			best = def
		}
	}
	if best == nil {
		return nil, apperrors.NoWorkflow(apperrors.CodeNoWorkflowFound,
			"no approval workflow found for this requisition")
	}
	return best, nil
}
