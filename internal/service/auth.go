// Package service implements the application services around the
// workflow engine: authentication, requisition CRUD, and the admin
// surfaces for users, departments and workflow definitions.
package service

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"reqflow.io/reqflow/internal/config"
	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// AuthStore is the persistence surface of the auth service.
type AuthStore interface {
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
}

// AuthService handles registration and credential verification. Token
// issuing lives in the API layer; the service only yields the verified
// user.
type AuthService struct {
	store  AuthStore
	policy config.PasswordPolicy
}

// NewAuthService creates an AuthService.
func NewAuthService(store AuthStore, policy config.PasswordPolicy) *AuthService {
	return &AuthService{store: store, policy: policy}
}

// RegisterInput carries a self-registration request. Accounts always
// start as regular users; role upgrades go through the admin surface.
type RegisterInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	DepartmentID string
}

// Register creates a new regular-user account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "a valid email is required")
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, apperrors.BadRequest(apperrors.CodeInvalidRequestField, "first and last name are required")
	}
	if err := s.checkPassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeAuthFailed, "failed to hash password")
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, apperrors.Internal(apperrors.CodeAuthFailed, "failed to generate user id")
	}

	u := &domain.User{
		ID:             id.String(),
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		Email:          in.Email,
		PasswordHash:   string(hash),
		Role:           domain.RoleRegularUser,
		AuthorityLevel: 0,
		DepartmentID:   in.DepartmentID,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies credentials and returns the account. The error is
// deliberately identical for unknown email and wrong password.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(apperrors.CodeAuthFailed, "invalid email or password")
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperrors.Unauthorized(apperrors.CodeAuthFailed, "invalid email or password")
	}
	return u, nil
}

// checkPassword enforces the configured password policy. The default
// "nist" mode checks length only; "legacy" mode adds character classes.
func (s *AuthService) checkPassword(password string) error {
	minLength := s.policy.MinLength
	if minLength <= 0 {
		minLength = 8
	}
	if len(password) < minLength {
		return apperrors.BadRequest(apperrors.CodePasswordTooWeak, "password is too short")
	}
	if s.policy.Mode != "legacy" {
		return nil
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	if s.policy.RequireUppercase && !upper {
		return apperrors.BadRequest(apperrors.CodePasswordTooWeak, "password must contain an uppercase letter")
	}
	if s.policy.RequireLowercase && !lower {
		return apperrors.BadRequest(apperrors.CodePasswordTooWeak, "password must contain a lowercase letter")
	}
	if s.policy.RequireDigit && !digit {
		return apperrors.BadRequest(apperrors.CodePasswordTooWeak, "password must contain a digit")
	}
	if s.policy.RequireSpecial && !special {
		return apperrors.BadRequest(apperrors.CodePasswordTooWeak, "password must contain a special character")
	}
	return nil
}
