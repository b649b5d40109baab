// Package engine implements the requisition approval workflow: workflow
// resolution, level fan-out, decision processing, the requisition state
// machine, and revision lineage.
//
// The engine owns all status/level mutations. Persistence and
// notification delivery are collaborators consumed through interfaces.
package engine

import (
	"context"

	"reqflow.io/reqflow/internal/domain"
)

// UserStore reads user accounts.
type UserStore interface {
	// GetUser returns the user or a USER_NOT_FOUND error.
	GetUser(ctx context.Context, id string) (*domain.User, error)

	// ListApproversAtLevel returns every user with role approver holding
	// exactly the given authority level. The pool is re-queried at
	// fan-out time; there is no per-requisition snapshot.
	ListApproversAtLevel(ctx context.Context, level int) ([]*domain.User, error)
}

// RequisitionStore reads and mutates requisitions.
type RequisitionStore interface {
	// GetRequisition returns the requisition or a REQUISITION_NOT_FOUND error.
	GetRequisition(ctx context.Context, id string) (*domain.Requisition, error)

	// CreateRequisition inserts a new requisition row.
	CreateRequisition(ctx context.Context, r *domain.Requisition) error

	// SetRequisitionState updates status and current approver level.
	SetRequisitionState(ctx context.Context, id string, status domain.RequisitionStatus, level int) error

	// ListLineage returns every requisition whose lineage root is rootID
	// (including the root itself), ordered by revision number ascending.
	ListLineage(ctx context.Context, rootID string) ([]*domain.Requisition, error)
}

// ApprovalStore reads and mutates approval decision records.
type ApprovalStore interface {
	// CreateApprovalIfAbsent inserts the record unless one already exists
	// for the same (requisition, approver, level) triple. Reports whether
	// a row was created. This is the fan-out idempotency guard.
	CreateApprovalIfAbsent(ctx context.Context, a *domain.Approval) (bool, error)

	// GetOpenApproval returns the pending record for (requisition,
	// approver) or an APPROVAL_NOT_FOUND error.
	GetOpenApproval(ctx context.Context, requisitionID, approverID string) (*domain.Approval, error)

	// ListApprovalsAtLevel returns all records for a requisition at one
	// authority level, any status.
	ListApprovalsAtLevel(ctx context.Context, requisitionID string, level int) ([]*domain.Approval, error)

	// ListApprovalsByRequisition returns all records for a requisition
	// ordered by approver level, then creation time.
	ListApprovalsByRequisition(ctx context.Context, requisitionID string) ([]*domain.Approval, error)

	// ListOpenApprovalsForUser returns the user's pending records on
	// requisitions currently sitting at the given level.
	ListOpenApprovalsForUser(ctx context.Context, approverID string, level int) ([]*domain.Approval, error)

	// DecideApproval marks a pending record approved or rejected with an
	// optional comment. Decided records are immutable.
	DecideApproval(ctx context.Context, approvalID string, status domain.ApprovalStatus, comment string) error
}

// WorkflowStore reads approval chain definitions.
type WorkflowStore interface {
	// ListWorkflowsByKey returns every definition for the (department,
	// category) pair, ordered by amount threshold ascending.
	ListWorkflowsByKey(ctx context.Context, departmentID, category string) ([]*domain.WorkflowDefinition, error)
}

// Store aggregates the persistence operations the engine consumes.
type Store interface {
	UserStore
	RequisitionStore
	ApprovalStore
	WorkflowStore
}

// TxStore adds the per-requisition mutual-exclusion scope. All decision
// and submission writes run inside ForRequisition so concurrent
// decisions on one requisition observe a consistent level snapshot.
type TxStore interface {
	Store

	// ForRequisition runs fn inside a transaction serialized on the
	// given requisition id. fn's writes become visible atomically; on
	// error nothing is applied.
	ForRequisition(ctx context.Context, requisitionID string, fn func(ctx context.Context, tx Store) error) error
}

// Notifier receives workflow events for best-effort delivery. Calls must
// never block on or fail the triggering state transition; the engine
// invokes them only after the transaction has committed.
type Notifier interface {
	ApprovalRequested(ctx context.Context, approver *domain.User, req *domain.Requisition)
	RequisitionApproved(ctx context.Context, requestorID string, req *domain.Requisition)
	RequisitionRejected(ctx context.Context, requestorID string, req *domain.Requisition, comment string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) ApprovalRequested(context.Context, *domain.User, *domain.Requisition) {}
func (NopNotifier) RequisitionApproved(context.Context, string, *domain.Requisition)     {}
func (NopNotifier) RequisitionRejected(context.Context, string, *domain.Requisition, string) {
}

var _ Notifier = NopNotifier{}
