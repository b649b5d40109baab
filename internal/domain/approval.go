package domain

import "time"

// ApprovalStatus is the status of an individual approval record.
type ApprovalStatus string

// Approval record statuses. A record is decided exactly once:
// pending → approved or pending → rejected, never reversed.
const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Decision is the action an approver takes on an open approval record.
type Decision string

// Approver decisions.
const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ValidDecision reports whether d is a known decision.
func ValidDecision(d Decision) bool {
	return d == DecisionApprove || d == DecisionReject
}

// Approval is one approver's decision record for one requisition.
// Records are created in bulk when a level opens (one per eligible
// approver) and never deleted.
type Approval struct {
	ID            string
	RequisitionID string
	ApproverID    string
	Status        ApprovalStatus
	Comment       string

	// ApproverLevel is the authority level this record belongs to,
	// fixed at creation.
	ApproverLevel int

	CreatedAt time.Time
	UpdatedAt time.Time
	DecidedAt *time.Time
}

// IsOpen reports whether the record still awaits a decision.
func (a *Approval) IsOpen() bool {
	return a.Status == ApprovalPending
}
