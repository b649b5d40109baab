package domain

import (
	"fmt"
	"time"
)

// WorkflowDefinition is an administrator-managed approval chain
// definition keyed by (department, category), optionally tiered by
// amount threshold. The engine treats definitions as read-only policy.
type WorkflowDefinition struct {
	ID           string
	DepartmentID string
	Category     string

	// AmountThreshold is the minimal amount this definition applies to.
	// A threshold of 0 acts as a catch-all tier.
	AmountThreshold float64

	// ApproverSequence is the ordered, non-empty chain of authority
	// levels, evaluated first to last. Levels need not be contiguous.
	ApproverSequence []int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the structural invariants of a definition.
func (w *WorkflowDefinition) Validate() error {
	if w.DepartmentID == "" {
		return fmt.Errorf("department id is required")
	}
	if w.Category == "" {
		return fmt.Errorf("category is required")
	}
	if w.AmountThreshold < 0 {
		return fmt.Errorf("amount threshold must be non-negative")
	}
	if len(w.ApproverSequence) == 0 {
		return fmt.Errorf("approver sequence must not be empty")
	}
	for i, level := range w.ApproverSequence {
		if level < 1 {
			return fmt.Errorf("approver sequence[%d]: level %d must be >= 1", i, level)
		}
	}
	return nil
}

// FirstLevel returns the first authority level of the chain.
func (w *WorkflowDefinition) FirstLevel() int {
	return w.ApproverSequence[0]
}

// MaxLevel returns the highest authority level appearing anywhere in the
// sequence. An approval by a user holding this level short-circuits the
// whole chain.
func (w *WorkflowDefinition) MaxLevel() int {
	max := w.ApproverSequence[0]
	for _, level := range w.ApproverSequence[1:] {
		if level > max {
			max = level
		}
	}
	return max
}

// NextLevelAfter returns the level following the given one in sequence
// order, or false when the given level is last (or absent).
func (w *WorkflowDefinition) NextLevelAfter(level int) (int, bool) {
	for i, l := range w.ApproverSequence {
		if l == level {
			if i+1 < len(w.ApproverSequence) {
				return w.ApproverSequence[i+1], true
			}
			return 0, false
		}
	}
	return 0, false
}

// ContainsLevel reports whether the sequence includes the given level.
func (w *WorkflowDefinition) ContainsLevel(level int) bool {
	for _, l := range w.ApproverSequence {
		if l == level {
			return true
		}
	}
	return false
}
