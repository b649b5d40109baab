package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

const departmentColumns = `id, name, description, created_at, updated_at`

func scanDepartment(row pgx.Row) (*domain.Department, error) {
	var d domain.Department
	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetDepartment returns the department or a DEPARTMENT_NOT_FOUND error.
func (q queries) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id = $1`

	d, err := scanDepartment(q.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound(apperrors.CodeDepartmentNotFound, "department not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get department %s: %w", id, err)
	}
	return d, nil
}

// CreateDepartment inserts a department.
func (q queries) CreateDepartment(ctx context.Context, d *domain.Department) error {
	query := `
		INSERT INTO departments (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at
	`
	err := q.db.QueryRow(ctx, query, d.ID, d.Name, d.Description).Scan(&d.CreatedAt, &d.UpdatedAt)
	if isUniqueViolation(err) {
		return apperrors.Conflict(apperrors.CodeDepartmentExists, "a department with this name already exists")
	}
	if err != nil {
		return fmt.Errorf("create department %s: %w", d.ID, err)
	}
	return nil
}

// UpdateDepartment replaces a department's fields.
func (q queries) UpdateDepartment(ctx context.Context, d *domain.Department) error {
	query := `
		UPDATE departments
		SET name = $2, description = $3, updated_at = now()
		WHERE id = $1
	`
	tag, err := q.db.Exec(ctx, query, d.ID, d.Name, d.Description)
	if isUniqueViolation(err) {
		return apperrors.Conflict(apperrors.CodeDepartmentExists, "a department with this name already exists")
	}
	if err != nil {
		return fmt.Errorf("update department %s: %w", d.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeDepartmentNotFound, "department not found")
	}
	return nil
}

// DeleteDepartment removes a department.
func (q queries) DeleteDepartment(ctx context.Context, id string) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(apperrors.CodeDepartmentNotFound, "department not found")
	}
	return nil
}

// ListDepartments returns all departments ordered by name.
func (q queries) ListDepartments(ctx context.Context) ([]*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments ORDER BY name ASC`

	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
