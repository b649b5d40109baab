package domain

import (
	"encoding/json"
	"time"
)

// EventType defines the type of domain event.
type EventType string

const (
	// Requisition lifecycle
	EventRequisitionSubmitted EventType = "REQUISITION_SUBMITTED"
	EventRequisitionApproved  EventType = "REQUISITION_APPROVED"
	EventRequisitionRejected  EventType = "REQUISITION_REJECTED"
	EventRequisitionRevised   EventType = "REQUISITION_REVISED"

	// Approval stage
	EventApprovalRequested EventType = "APPROVAL_REQUESTED"
	EventLevelAdvanced     EventType = "LEVEL_ADVANCED"
)

// DomainEvent is an immutable record of something that happened to a
// requisition. The payload carries identifiers, not snapshots; handlers
// re-read current state when they need it.
type DomainEvent struct {
	EventID       string    `json:"event_id"`
	EventType     EventType `json:"event_type"`
	AggregateType string    `json:"aggregate_type"`
	AggregateID   string    `json:"aggregate_id"`
	Payload       []byte    `json:"payload"`
	CreatedBy     string    `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// ApprovalRequestedPayload is the payload for APPROVAL_REQUESTED events.
type ApprovalRequestedPayload struct {
	RequisitionID    string `json:"requisition_id"`
	RequisitionTitle string `json:"requisition_title"`
	ApproverID       string `json:"approver_id"`
	ApproverLevel    int    `json:"approver_level"`
}

// ToJSON converts payload to JSON bytes.
func (p ApprovalRequestedPayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// RequisitionOutcomePayload is the payload for REQUISITION_APPROVED and
// REQUISITION_REJECTED events.
type RequisitionOutcomePayload struct {
	RequisitionID    string `json:"requisition_id"`
	RequisitionTitle string `json:"requisition_title"`
	RequestorID      string `json:"requestor_id"`
	Comment          string `json:"comment,omitempty"`
}

// ToJSON converts payload to JSON bytes.
func (p RequisitionOutcomePayload) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}
