// Package domain holds the core entities of the requisition approval
// workflow. Entities are plain structs; all persistence goes through the
// store interfaces consumed by the engine.
package domain

import "time"

// RequisitionStatus is the lifecycle status of a requisition.
type RequisitionStatus string

// Requisition lifecycle statuses. Values are the wire/storage tokens and
// part of the API contract; do not rename.
const (
	StatusDraft             RequisitionStatus = "draft"
	StatusPending           RequisitionStatus = "pending"
	StatusPartiallyApproved RequisitionStatus = "partially_approved"
	StatusApproved          RequisitionStatus = "approved"
	StatusRejected          RequisitionStatus = "rejected"
	StatusRevised           RequisitionStatus = "revised"
)

// Priority ranks a requisition's urgency.
type Priority string

// Requisition priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Requisition is a procurement request moving through the approval chain.
//
// CurrentApproverLevel is only meaningful while the status is pending or
// partially_approved; it then always equals one of the levels of the
// workflow resolved at submission time.
type Requisition struct {
	ID           string
	Title        string
	Description  string
	RequestorID  string
	DepartmentID string

	// Amount is nullable; nil is treated as 0 for workflow resolution.
	Amount   *float64
	Category string
	Priority Priority
	DueDate  *time.Time

	Status               RequisitionStatus
	CurrentApproverLevel int

	// RevisionNumber is 0 for an original requisition and increments per
	// revision. OriginalRequisitionID points at the lineage root and is
	// empty on the root itself.
	RevisionNumber        int
	OriginalRequisitionID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AmountOrZero returns the monetary amount, treating absent as 0.
func (r *Requisition) AmountOrZero() float64 {
	if r.Amount == nil {
		return 0
	}
	return *r.Amount
}

// IsSubmittable reports whether the requisition may enter the approval
// chain. Only draft and revised requisitions can be submitted.
func (r *Requisition) IsSubmittable() bool {
	return r.Status == StatusDraft || r.Status == StatusRevised
}

// IsPendingApproval reports whether the requisition currently awaits
// approver decisions.
func (r *Requisition) IsPendingApproval() bool {
	return r.Status == StatusPending || r.Status == StatusPartiallyApproved
}

// IsEditable reports whether the requestor may still mutate the
// requisition's fields directly. Once submitted the workflow owns it.
// Rejected requisitions are not edited in place; they go through the
// revision path.
func (r *Requisition) IsEditable() bool {
	return r.Status == StatusDraft || r.Status == StatusRevised
}

// LineageRootID returns the id of the first requisition in this revision
// chain. A requisition without a back-reference is its own root.
func (r *Requisition) LineageRootID() string {
	if r.OriginalRequisitionID != "" {
		return r.OriginalRequisitionID
	}
	return r.ID
}

// RequisitionPatch carries optional field overrides for a revision.
// Nil fields fall back to the original requisition's values.
type RequisitionPatch struct {
	Title       *string
	Description *string
	Amount      *float64
	Category    *string
	Priority    *Priority
	DueDate     *time.Time
}

// RequisitionFilter narrows requisition listings.
type RequisitionFilter struct {
	Statuses     []RequisitionStatus
	Priority     Priority
	Category     string
	DepartmentID string
	RequestorID  string

	// CurrentApproverLevel filters requisitions sitting at a given stage;
	// 0 means no level filter.
	CurrentApproverLevel int
}
