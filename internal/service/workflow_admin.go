package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// WorkflowAdminStore is the persistence surface of the workflow admin
// service.
type WorkflowAdminStore interface {
	GetDepartment(ctx context.Context, id string) (*domain.Department, error)
	GetWorkflow(ctx context.Context, id string) (*domain.WorkflowDefinition, error)
	CreateWorkflow(ctx context.Context, w *domain.WorkflowDefinition) error
	UpdateWorkflow(ctx context.Context, w *domain.WorkflowDefinition) error
	DeleteWorkflow(ctx context.Context, id string) error
	ListWorkflows(ctx context.Context) ([]*domain.WorkflowDefinition, error)
}

// WorkflowAdminService manages approval chain definitions. The engine
// reads definitions; only admins write them. Tier uniqueness per
// (department, category, threshold) is enforced by the store at write
// time and surfaces as a conflict.
type WorkflowAdminService struct {
	store WorkflowAdminStore
}

// NewWorkflowAdminService creates a WorkflowAdminService.
func NewWorkflowAdminService(store WorkflowAdminStore) *WorkflowAdminService {
	return &WorkflowAdminService{store: store}
}

// WorkflowInput carries the writable fields of a definition.
type WorkflowInput struct {
	DepartmentID     string
	Category         string
	AmountThreshold  float64
	ApproverSequence []int
}

// Create registers a new definition tier.
func (s *WorkflowAdminService) Create(ctx context.Context, in WorkflowInput) (*domain.WorkflowDefinition, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeValidationFailed, "failed to generate workflow id")
	}
	w := &domain.WorkflowDefinition{
		ID:               id.String(),
		DepartmentID:     strings.TrimSpace(in.DepartmentID),
		Category:         strings.TrimSpace(in.Category),
		AmountThreshold:  in.AmountThreshold,
		ApproverSequence: in.ApproverSequence,
	}
	if err := s.validate(ctx, w); err != nil {
		return nil, err
	}
	if err := s.store.CreateWorkflow(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Update replaces a definition's writable fields.
func (s *WorkflowAdminService) Update(ctx context.Context, id string, in WorkflowInput) (*domain.WorkflowDefinition, error) {
	w, err := s.store.GetWorkflow(ctx, id)
	if err != nil {
		return nil, err
	}
	w.DepartmentID = strings.TrimSpace(in.DepartmentID)
	w.Category = strings.TrimSpace(in.Category)
	w.AmountThreshold = in.AmountThreshold
	w.ApproverSequence = in.ApproverSequence
	if err := s.validate(ctx, w); err != nil {
		return nil, err
	}
	if err := s.store.UpdateWorkflow(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// Get returns a definition by id.
func (s *WorkflowAdminService) Get(ctx context.Context, id string) (*domain.WorkflowDefinition, error) {
	return s.store.GetWorkflow(ctx, id)
}

// List returns all definitions.
func (s *WorkflowAdminService) List(ctx context.Context) ([]*domain.WorkflowDefinition, error) {
	return s.store.ListWorkflows(ctx)
}

// Delete removes a definition. In-flight requisitions are unaffected:
// resolution happens at submission time, never retroactively.
func (s *WorkflowAdminService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteWorkflow(ctx, id)
}

func (s *WorkflowAdminService) validate(ctx context.Context, w *domain.WorkflowDefinition) error {
	if err := w.Validate(); err != nil {
		return apperrors.BadRequest(apperrors.CodeWorkflowInvalid, err.Error())
	}
	if _, err := s.store.GetDepartment(ctx, w.DepartmentID); err != nil {
		return err
	}
	return nil
}
