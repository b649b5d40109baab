package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// DepartmentStore is the persistence surface of the department registry.
type DepartmentStore interface {
	GetDepartment(ctx context.Context, id string) (*domain.Department, error)
	CreateDepartment(ctx context.Context, d *domain.Department) error
	UpdateDepartment(ctx context.Context, d *domain.Department) error
	DeleteDepartment(ctx context.Context, id string) error
	ListDepartments(ctx context.Context) ([]*domain.Department, error)
}

// DepartmentService manages the department registry. Names are unique;
// the store enforces it and reports a conflict.
type DepartmentService struct {
	store DepartmentStore
}

// NewDepartmentService creates a DepartmentService.
func NewDepartmentService(store DepartmentStore) *DepartmentService {
	return &DepartmentService{store: store}
}

// Create registers a new department.
func (s *DepartmentService) Create(ctx context.Context, name, description string) (*domain.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "department name is required")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeValidationFailed, "failed to generate department id")
	}
	d := &domain.Department{ID: id.String(), Name: name, Description: description}
	if err := s.store.CreateDepartment(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Get returns a department by id.
func (s *DepartmentService) Get(ctx context.Context, id string) (*domain.Department, error) {
	return s.store.GetDepartment(ctx, id)
}

// List returns all departments.
func (s *DepartmentService) List(ctx context.Context) ([]*domain.Department, error) {
	return s.store.ListDepartments(ctx)
}

// Update renames or re-describes a department.
func (s *DepartmentService) Update(ctx context.Context, id, name, description string) (*domain.Department, error) {
	d, err := s.store.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "department name is required")
	}
	d.Name = name
	d.Description = description
	if err := s.store.UpdateDepartment(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// Delete removes a department.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteDepartment(ctx, id)
}
