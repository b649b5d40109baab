package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

const userColumns = `
	id, first_name, last_name, email, password_hash,
	role, authority_level, department_id, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Role, &u.AuthorityLevel, &u.DepartmentID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser returns the user or a USER_NOT_FOUND error.
func (q queries) GetUser(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(q.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail returns the user or a USER_NOT_FOUND error. Emails are
// matched case-insensitively.
func (q queries) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	u, err := scanUser(q.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// CreateUser inserts a user account.
func (q queries) CreateUser(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users
		    (id, first_name, last_name, email, password_hash,
		     role, authority_level, department_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	err := q.db.QueryRow(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash,
		u.Role, u.AuthorityLevel, u.DepartmentID,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.Conflict(apperrors.CodeUserExists, "a user with this email already exists")
	}
	if err != nil {
		return fmt.Errorf("create user %s: %w", u.ID, err)
	}
	return nil
}

// UpdateUser replaces a user's mutable fields.
func (q queries) UpdateUser(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, email = $4, password_hash = $5,
		    role = $6, authority_level = $7, department_id = $8, updated_at = now()
		WHERE id = $1
	`
	tag, err := q.db.Exec(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.PasswordHash,
		u.Role, u.AuthorityLevel, u.DepartmentID,
	)
	if isUniqueViolation(err) {
		return apperrors.Conflict(apperrors.CodeUserExists, "a user with this email already exists")
	}
	if err != nil {
		return fmt.Errorf("update user %s: %w", u.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
	}
	return nil
}

// ListUsers returns all user accounts.
func (q queries) ListUsers(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC, id ASC`

	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListApproversAtLevel returns every approver holding exactly the given
// authority level.
func (q queries) ListApproversAtLevel(ctx context.Context, level int) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + `
		FROM users
		WHERE role = $1 AND authority_level = $2
		ORDER BY id ASC`

	rows, err := q.db.Query(ctx, query, domain.RoleApprover, level)
	if err != nil {
		return nil, fmt.Errorf("list approvers at level %d: %w", level, err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]*domain.User, error) {
	var out []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
