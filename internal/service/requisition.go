package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// RequisitionStore is the persistence surface of the requisition service.
// The workflow engine owns status and level mutations; this store only
// covers CRUD on rows the workflow does not yet (or no longer) own.
type RequisitionStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetDepartment(ctx context.Context, id string) (*domain.Department, error)
	GetRequisition(ctx context.Context, id string) (*domain.Requisition, error)
	CreateRequisition(ctx context.Context, r *domain.Requisition) error
	UpdateRequisition(ctx context.Context, r *domain.Requisition) error
	DeleteRequisition(ctx context.Context, id string) error
	ListRequisitions(ctx context.Context, f domain.RequisitionFilter) ([]*domain.Requisition, error)
}

// RequisitionService handles requisition CRUD outside the approval
// workflow. Submission, decisions and revisions go through the engine.
type RequisitionService struct {
	store RequisitionStore
}

// NewRequisitionService creates a RequisitionService.
func NewRequisitionService(store RequisitionStore) *RequisitionService {
	return &RequisitionService{store: store}
}

// CreateInput carries the fields of a new draft requisition.
type CreateInput struct {
	Title       string
	Description string
	Amount      *float64
	Category    string
	Priority    domain.Priority
	DueDate     *time.Time
}

// Create opens a new draft owned by the actor, in the actor's department.
func (s *RequisitionService) Create(ctx context.Context, actorID string, in CreateInput) (*domain.Requisition, error) {
	actor, err := s.store.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.DepartmentID == "" {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "actor has no department")
	}
	if _, err := s.store.GetDepartment(ctx, actor.DepartmentID); err != nil {
		return nil, err
	}
	if err := validateFields(in.Title, in.Category, in.Amount); err != nil {
		return nil, err
	}

	priority := in.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "unknown priority")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeValidationFailed, "failed to generate requisition id")
	}

	r := &domain.Requisition{
		ID:           id.String(),
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		RequestorID:  actor.ID,
		DepartmentID: actor.DepartmentID,
		Amount:       in.Amount,
		Category:     strings.TrimSpace(in.Category),
		Priority:     priority,
		DueDate:      in.DueDate,
		Status:       domain.StatusDraft,
	}
	if err := s.store.CreateRequisition(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Update patches an editable requisition. Only the owner may update, and
// only while the workflow does not own the row.
func (s *RequisitionService) Update(ctx context.Context, id, actorID string, patch domain.RequisitionPatch) (*domain.Requisition, error) {
	r, err := s.store.GetRequisition(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.RequestorID != actorID {
		return nil, apperrors.Forbidden(apperrors.CodeNotRequisitionOwner, "only the requestor may update a requisition")
	}
	if !r.IsEditable() {
		return nil, apperrors.InvalidState(apperrors.CodeRequisitionNotDraft, "requisition is no longer editable")
	}

	if patch.Title != nil {
		r.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		r.Description = *patch.Description
	}
	if patch.Amount != nil {
		r.Amount = patch.Amount
	}
	if patch.Category != nil {
		r.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Priority != nil {
		if !domain.ValidPriority(*patch.Priority) {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "unknown priority")
		}
		r.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		r.DueDate = patch.DueDate
	}
	if err := validateFields(r.Title, r.Category, r.Amount); err != nil {
		return nil, err
	}

	if err := s.store.UpdateRequisition(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Delete removes a draft. The owner or an admin may delete; anything past
// draft is part of the approval record and stays.
func (s *RequisitionService) Delete(ctx context.Context, id, actorID string) error {
	actor, err := s.store.GetUser(ctx, actorID)
	if err != nil {
		return err
	}
	r, err := s.store.GetRequisition(ctx, id)
	if err != nil {
		return err
	}
	if r.RequestorID != actorID && actor.Role != domain.RoleAdmin {
		return apperrors.Forbidden(apperrors.CodeNotRequisitionOwner, "only the requestor or an admin may delete a requisition")
	}
	if r.Status != domain.StatusDraft {
		return apperrors.InvalidState(apperrors.CodeRequisitionNotDraft, "only draft requisitions can be deleted")
	}
	return s.store.DeleteRequisition(ctx, id)
}

// Get returns a requisition the actor is allowed to see.
func (s *RequisitionService) Get(ctx context.Context, id, actorID string) (*domain.Requisition, error) {
	actor, err := s.store.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	r, err := s.store.GetRequisition(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canSee(actor, r) {
		return nil, apperrors.Forbidden(apperrors.CodePermissionDenied,
			"you do not have permission to view this requisition")
	}
	return r, nil
}

// List returns the requisitions visible to the actor, narrowed by the
// caller's filter. Visibility is layered on top of the filter:
// regular users see their own, approvers additionally see requisitions
// sitting at their stage, admins see everything.
func (s *RequisitionService) List(ctx context.Context, actorID string, f domain.RequisitionFilter) ([]*domain.Requisition, error) {
	actor, err := s.store.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	switch actor.Role {
	case domain.RoleAdmin:
		return s.store.ListRequisitions(ctx, f)
	case domain.RoleApprover:
		own := f
		own.RequestorID = actor.ID
		out, err := s.store.ListRequisitions(ctx, own)
		if err != nil {
			return nil, err
		}
		atStage := f
		atStage.RequestorID = ""
		atStage.Statuses = []domain.RequisitionStatus{domain.StatusPending, domain.StatusPartiallyApproved}
		atStage.CurrentApproverLevel = actor.AuthorityLevel
		queue, err := s.store.ListRequisitions(ctx, atStage)
		if err != nil {
			return nil, err
		}
		return mergeByID(out, queue), nil
	default:
		own := f
		own.RequestorID = actor.ID
		return s.store.ListRequisitions(ctx, own)
	}
}

func canSee(actor *domain.User, r *domain.Requisition) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	if r.RequestorID == actor.ID {
		return true
	}
	// Approvers see requisitions in their queue, current stage or past:
	// a decided record stays visible through the approval history.
	if actor.Role == domain.RoleApprover && r.Status != domain.StatusDraft {
		return true
	}
	return false
}

// mergeByID unions two listings, preserving order of first appearance.
func mergeByID(a, b []*domain.Requisition) []*domain.Requisition {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]*domain.Requisition, 0, len(a)+len(b))
	for _, list := range [][]*domain.Requisition{a, b} {
		for _, r := range list {
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	return out
}

func validateFields(title, category string, amount *float64) error {
	if strings.TrimSpace(title) == "" {
		return apperrors.BadRequest(apperrors.CodeInvalidRequestField, "title is required")
	}
	if strings.TrimSpace(category) == "" {
		return apperrors.BadRequest(apperrors.CodeInvalidRequestField, "category is required")
	}
	if amount != nil && *amount < 0 {
		return apperrors.BadRequest(apperrors.CodeInvalidRequestField, "amount must be non-negative")
	}
	return nil
}
