package service

import (
	"context"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// UserStore is the persistence surface of the user admin service.
type UserStore interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error
	ListUsers(ctx context.Context) ([]*domain.User, error)
	GetDepartment(ctx context.Context, id string) (*domain.Department, error)
}

// UserService is the admin surface for accounts: listing, role grants,
// department moves. Self-registration lives in AuthService.
type UserService struct {
	store UserStore
}

// NewUserService creates a UserService.
func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// Get returns a user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.store.GetUser(ctx, id)
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.store.ListUsers(ctx)
}

// SetRole grants a role and authority level. The pairing is invariant:
// regular users hold level 0, approvers hold level >= 1. Admins may hold
// any level; a level >= 1 lets them act as an approver at that stage.
func (s *UserService) SetRole(ctx context.Context, userID string, role domain.Role, authorityLevel int) (*domain.User, error) {
	if !domain.ValidRole(role) {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "unknown role")
	}
	if authorityLevel < 0 {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "authority level must be non-negative")
	}
	switch role {
	case domain.RoleRegularUser:
		if authorityLevel != 0 {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "regular users hold authority level 0")
		}
	case domain.RoleApprover:
		if authorityLevel < 1 {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "approvers need authority level >= 1")
		}
	}

	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Role = role
	u.AuthorityLevel = authorityLevel
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SetDepartment moves a user to another department.
func (s *UserService) SetDepartment(ctx context.Context, userID, departmentID string) (*domain.User, error) {
	if _, err := s.store.GetDepartment(ctx, departmentID); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.DepartmentID = departmentID
	if err := s.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}
