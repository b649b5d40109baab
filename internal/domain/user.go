package domain

import "time"

// Role determines what a user may do in the system.
type Role string

// User roles.
const (
	RoleRegularUser Role = "regular_user"
	RoleApprover    Role = "approver"
	RoleAdmin       Role = "admin"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	switch r {
	case RoleRegularUser, RoleApprover, RoleAdmin:
		return true
	}
	return false
}

// User is a platform account. AuthorityLevel is a flat, global integer
// rank: 0 for regular users, >= 1 for approvers. It is deliberately not
// department-scoped.
type User struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	PasswordHash   string
	Role           Role
	AuthorityLevel int
	DepartmentID   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// CanActAtLevel reports whether the user may decide approval records at
// the given authority level.
func (u *User) CanActAtLevel(level int) bool {
	if u.Role != RoleApprover && u.Role != RoleAdmin {
		return false
	}
	return u.AuthorityLevel == level
}

// IsApprover reports whether the user holds approval authority.
func (u *User) IsApprover() bool {
	return (u.Role == RoleApprover || u.Role == RoleAdmin) && u.AuthorityLevel >= 1
}

// Department groups users and requisitions for policy resolution.
type Department struct {
	ID          string
	Name        string
	Description string

	CreatedAt time.Time
	UpdatedAt time.Time
}
