// Package testutil provides shared test fixtures.
//
// MemStore is an in-memory implementation of the engine and service
// store interfaces, with the same error contract as the pgx-backed
// repository. Engine and service tests run against it.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/engine"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

// MemStore is a map-backed store. The zero value is not usable; call
// NewMemStore.
type MemStore struct {
	mu sync.RWMutex

	users         map[string]*domain.User
	requisitions  map[string]*domain.Requisition
	approvals     map[string]*domain.Approval
	workflows     map[string]*domain.WorkflowDefinition
	departments   map[string]*domain.Department
	notifications map[string]*domain.Notification

	reqLocksMu sync.Mutex
	reqLocks   map[string]*sync.Mutex
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{
		users:         make(map[string]*domain.User),
		requisitions:  make(map[string]*domain.Requisition),
		approvals:     make(map[string]*domain.Approval),
		workflows:     make(map[string]*domain.WorkflowDefinition),
		departments:   make(map[string]*domain.Department),
		notifications: make(map[string]*domain.Notification),
		reqLocks:      make(map[string]*sync.Mutex),
	}
}

// ForRequisition serializes fn on the requisition id with a per-id
// mutex, mirroring the row lock the pgx store takes. Rollback is not
// emulated; tests exercising error paths fail before any write.
func (s *MemStore) ForRequisition(ctx context.Context, requisitionID string, fn func(ctx context.Context, tx engine.Store) error) error {
	lock := s.lockFor(requisitionID)
	lock.Lock()
	defer lock.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, s)
}

func (s *MemStore) lockFor(requisitionID string) *sync.Mutex {
	s.reqLocksMu.Lock()
	defer s.reqLocksMu.Unlock()
	lock, ok := s.reqLocks[requisitionID]
	if !ok {
		lock = &sync.Mutex{}
		s.reqLocks[requisitionID] = lock
	}
	return lock
}

var _ engine.TxStore = (*MemStore)(nil)

// --- users ---

// AddUser seeds a user.
func (s *MemStore) AddUser(u *domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// GetUser returns the user or USER_NOT_FOUND.
func (s *MemStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
	}
	cp := *u
	return &cp, nil
}

// GetUserByEmail returns the user with the given email or USER_NOT_FOUND.
func (s *MemStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
}

// CreateUser inserts a user; duplicate emails conflict.
func (s *MemStore) CreateUser(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperrors.Conflict(apperrors.CodeUserExists, "a user with this email already exists")
		}
	}
	cp := *u
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.users[u.ID] = &cp
	return nil
}

// UpdateUser replaces a user's mutable fields.
func (s *MemStore) UpdateUser(ctx context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; !ok {
		return apperrors.NotFound(apperrors.CodeUserNotFound, "user not found")
	}
	cp := *u
	cp.UpdatedAt = time.Now()
	s.users[u.ID] = &cp
	return nil
}

// ListUsers returns all users ordered by id.
func (s *MemStore) ListUsers(ctx context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListApproversAtLevel returns users with role approver at the level.
func (s *MemStore) ListApproversAtLevel(ctx context.Context, level int) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.User
	for _, u := range s.users {
		if u.Role == domain.RoleApprover && u.AuthorityLevel == level {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- requisitions ---

// GetRequisition returns the requisition or REQUISITION_NOT_FOUND.
func (s *MemStore) GetRequisition(ctx context.Context, id string) (*domain.Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requisitions[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeRequisitionNotFound, "requisition not found")
	}
	cp := *r
	return &cp, nil
}

// CreateRequisition inserts a requisition.
func (s *MemStore) CreateRequisition(ctx context.Context, r *domain.Requisition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.requisitions[r.ID] = &cp
	return nil
}

// UpdateRequisition replaces a requisition's fields.
func (s *MemStore) UpdateRequisition(ctx context.Context, r *domain.Requisition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requisitions[r.ID]; !ok {
		return apperrors.NotFound(apperrors.CodeRequisitionNotFound, "requisition not found")
	}
	cp := *r
	cp.UpdatedAt = time.Now()
	s.requisitions[r.ID] = &cp
	return nil
}

// DeleteRequisition removes a requisition.
func (s *MemStore) DeleteRequisition(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requisitions[id]; !ok {
		return apperrors.NotFound(apperrors.CodeRequisitionNotFound, "requisition not found")
	}
	delete(s.requisitions, id)
	return nil
}

// SetRequisitionState updates status and current approver level.
func (s *MemStore) SetRequisitionState(ctx context.Context, id string, status domain.RequisitionStatus, level int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requisitions[id]
	if !ok {
		return apperrors.NotFound(apperrors.CodeRequisitionNotFound, "requisition not found")
	}
	r.Status = status
	r.CurrentApproverLevel = level
	r.UpdatedAt = time.Now()
	return nil
}

// ListLineage returns the revision chain rooted at rootID.
func (s *MemStore) ListLineage(ctx context.Context, rootID string) ([]*domain.Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Requisition
	for _, r := range s.requisitions {
		if r.ID == rootID || r.OriginalRequisitionID == rootID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RevisionNumber < out[j].RevisionNumber })
	return out, nil
}

// ListRequisitions returns requisitions matching the filter, newest first.
func (s *MemStore) ListRequisitions(ctx context.Context, f domain.RequisitionFilter) ([]*domain.Requisition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Requisition
	for _, r := range s.requisitions {
		if !matchesFilter(r, f) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func matchesFilter(r *domain.Requisition, f domain.RequisitionFilter) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, st := range f.Statuses {
			if r.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Priority != "" && r.Priority != f.Priority {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.DepartmentID != "" && r.DepartmentID != f.DepartmentID {
		return false
	}
	if f.RequestorID != "" && r.RequestorID != f.RequestorID {
		return false
	}
	if f.CurrentApproverLevel != 0 && r.CurrentApproverLevel != f.CurrentApproverLevel {
		return false
	}
	return true
}

// --- approvals ---

// CreateApprovalIfAbsent inserts unless a record already exists for the
// same (requisition, approver, level) triple.
func (s *MemStore) CreateApprovalIfAbsent(ctx context.Context, a *domain.Approval) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.approvals {
		if existing.RequisitionID == a.RequisitionID &&
			existing.ApproverID == a.ApproverID &&
			existing.ApproverLevel == a.ApproverLevel {
			return false, nil
		}
	}
	cp := *a
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.approvals[a.ID] = &cp
	return true, nil
}

// GetOpenApproval returns the pending record for (requisition, approver).
func (s *MemStore) GetOpenApproval(ctx context.Context, requisitionID, approverID string) (*domain.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.approvals {
		if a.RequisitionID == requisitionID && a.ApproverID == approverID && a.Status == domain.ApprovalPending {
			cp := *a
			return &cp, nil
		}
	}
	return nil, apperrors.NotFound(apperrors.CodeApprovalNotFound, "approval record not found")
}

// ListApprovalsAtLevel returns all records at a level, any status.
func (s *MemStore) ListApprovalsAtLevel(ctx context.Context, requisitionID string, level int) ([]*domain.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Approval
	for _, a := range s.approvals {
		if a.RequisitionID == requisitionID && a.ApproverLevel == level {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ListApprovalsByRequisition returns all records ordered by level, then id.
func (s *MemStore) ListApprovalsByRequisition(ctx context.Context, requisitionID string) ([]*domain.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Approval
	for _, a := range s.approvals {
		if a.RequisitionID == requisitionID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ApproverLevel != out[j].ApproverLevel {
			return out[i].ApproverLevel < out[j].ApproverLevel
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListOpenApprovalsForUser returns pending records for the approver on
// requisitions currently awaiting the given level.
func (s *MemStore) ListOpenApprovalsForUser(ctx context.Context, approverID string, level int) ([]*domain.Approval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Approval
	for _, a := range s.approvals {
		if a.ApproverID != approverID || a.Status != domain.ApprovalPending {
			continue
		}
		req, ok := s.requisitions[a.RequisitionID]
		if !ok || !req.IsPendingApproval() || req.CurrentApproverLevel != level {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// DecideApproval marks a pending record decided.
func (s *MemStore) DecideApproval(ctx context.Context, approvalID string, status domain.ApprovalStatus, comment string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.approvals[approvalID]
	if !ok || a.Status != domain.ApprovalPending {
		return apperrors.NotFound(apperrors.CodeApprovalNotFound, "approval record not found")
	}
	now := time.Now()
	a.Status = status
	a.Comment = comment
	a.DecidedAt = &now
	a.UpdatedAt = now
	return nil
}

// --- workflows ---

// AddWorkflow seeds a workflow definition.
func (s *MemStore) AddWorkflow(w *domain.WorkflowDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *w
	s.workflows[w.ID] = &cp
}

// ListWorkflowsByKey returns definitions for (department, category)
// ordered by threshold ascending.
func (s *MemStore) ListWorkflowsByKey(ctx context.Context, departmentID, category string) ([]*domain.WorkflowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.WorkflowDefinition
	for _, w := range s.workflows {
		if w.DepartmentID == departmentID && w.Category == category {
			cp := *w
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AmountThreshold < out[j].AmountThreshold })
	return out, nil
}

// GetWorkflow returns the definition or NO_WORKFLOW_FOUND.
func (s *MemStore) GetWorkflow(ctx context.Context, id string) (*domain.WorkflowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeNoWorkflowFound, "workflow definition not found")
	}
	cp := *w
	return &cp, nil
}

// CreateWorkflow inserts a definition; duplicate tiers conflict.
func (s *MemStore) CreateWorkflow(ctx context.Context, w *domain.WorkflowDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workflowTierTaken(w) {
		return apperrors.Conflict(apperrors.CodeWorkflowExists, "a workflow definition for this tier already exists")
	}
	cp := *w
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.workflows[w.ID] = &cp
	return nil
}

// UpdateWorkflow replaces a definition; duplicate tiers conflict.
func (s *MemStore) UpdateWorkflow(ctx context.Context, w *domain.WorkflowDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[w.ID]; !ok {
		return apperrors.NotFound(apperrors.CodeNoWorkflowFound, "workflow definition not found")
	}
	if s.workflowTierTaken(w) {
		return apperrors.Conflict(apperrors.CodeWorkflowExists, "a workflow definition for this tier already exists")
	}
	cp := *w
	cp.UpdatedAt = time.Now()
	s.workflows[w.ID] = &cp
	return nil
}

// workflowTierTaken reports whether another definition occupies the same
// (department, category, threshold) tier. Callers hold the lock.
func (s *MemStore) workflowTierTaken(w *domain.WorkflowDefinition) bool {
	for _, existing := range s.workflows {
		if existing.ID != w.ID &&
			existing.DepartmentID == w.DepartmentID &&
			existing.Category == w.Category &&
			existing.AmountThreshold == w.AmountThreshold {
			return true
		}
	}
	return false
}

// DeleteWorkflow removes a definition.
func (s *MemStore) DeleteWorkflow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return apperrors.NotFound(apperrors.CodeNoWorkflowFound, "workflow definition not found")
	}
	delete(s.workflows, id)
	return nil
}

// ListWorkflows returns all definitions ordered by department, category,
// threshold.
func (s *MemStore) ListWorkflows(ctx context.Context) ([]*domain.WorkflowDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.WorkflowDefinition, 0, len(s.workflows))
	for _, w := range s.workflows {
		cp := *w
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DepartmentID != out[j].DepartmentID {
			return out[i].DepartmentID < out[j].DepartmentID
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].AmountThreshold < out[j].AmountThreshold
	})
	return out, nil
}

// --- departments ---

// GetDepartment returns the department or DEPARTMENT_NOT_FOUND.
func (s *MemStore) GetDepartment(ctx context.Context, id string) (*domain.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.departments[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeDepartmentNotFound, "department not found")
	}
	cp := *d
	return &cp, nil
}

// CreateDepartment inserts a department; duplicate names conflict.
func (s *MemStore) CreateDepartment(ctx context.Context, d *domain.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.departments {
		if strings.EqualFold(existing.Name, d.Name) {
			return apperrors.Conflict(apperrors.CodeDepartmentExists, "a department with this name already exists")
		}
	}
	cp := *d
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	s.departments[d.ID] = &cp
	return nil
}

// UpdateDepartment replaces a department.
func (s *MemStore) UpdateDepartment(ctx context.Context, d *domain.Department) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[d.ID]; !ok {
		return apperrors.NotFound(apperrors.CodeDepartmentNotFound, "department not found")
	}
	cp := *d
	cp.UpdatedAt = time.Now()
	s.departments[d.ID] = &cp
	return nil
}

// DeleteDepartment removes a department.
func (s *MemStore) DeleteDepartment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.departments[id]; !ok {
		return apperrors.NotFound(apperrors.CodeDepartmentNotFound, "department not found")
	}
	delete(s.departments, id)
	return nil
}

// ListDepartments returns all departments ordered by name.
func (s *MemStore) ListDepartments(ctx context.Context) ([]*domain.Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Department, 0, len(s.departments))
	for _, d := range s.departments {
		cp := *d
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- notifications ---

// CreateNotification inserts an inbox row.
func (s *MemStore) CreateNotification(ctx context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	cp.CreatedAt = time.Now()
	s.notifications[n.ID] = &cp
	return nil
}

// GetNotification returns an inbox row by id.
func (s *MemStore) GetNotification(ctx context.Context, id string) (*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.notifications[id]
	if !ok {
		return nil, apperrors.NotFound(apperrors.CodeNotificationNotFound, "notification not found")
	}
	cp := *n
	return &cp, nil
}

// ListNotificationsForUser returns a user's inbox, newest first.
func (s *MemStore) ListNotificationsForUser(ctx context.Context, userID string) ([]*domain.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			cp := *n
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// MarkNotificationRead flags an inbox row as read.
func (s *MemStore) MarkNotificationRead(ctx context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return apperrors.NotFound(apperrors.CodeNotificationNotFound, "notification not found")
	}
	n.Read = true
	return nil
}
