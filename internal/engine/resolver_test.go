package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

func TestResolveWorkflow_PicksNearestTierAtOrBelow(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf-base", 0, 1)
	f.addWorkflow("wf-mid", 1000, 1, 2)
	f.addWorkflow("wf-high", 10000, 1, 2, 3)

	cases := []struct {
		name   string
		amount float64
		wantID string
	}{
		{"below first tier", 500, "wf-base"},
		{"exactly on tier", 1000, "wf-mid"},
		{"between tiers", 9999.99, "wf-mid"},
		{"top tier", 250000, "wf-high"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.addRequisition("req-"+tc.name, tc.amount, domain.StatusDraft)
			wf, err := f.engine.ResolveWorkflow(context.Background(), req)
			require.NoError(t, err)
			require.Equal(t, tc.wantID, wf.ID)
		})
	}
}

func TestResolveWorkflow_AbsentAmountUsesCatchAll(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf-base", 0, 1)
	f.addWorkflow("wf-mid", 1000, 1, 2)

	req := &domain.Requisition{
		ID:           "req-noamount",
		RequestorID:  "requestor",
		DepartmentID: "dept-eng",
		Category:     "it_equipment",
		Status:       domain.StatusDraft,
	}
	require.NoError(t, f.store.CreateRequisition(context.Background(), req))

	wf, err := f.engine.ResolveWorkflow(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "wf-base", wf.ID)
}

func TestResolveWorkflow_NoQualifyingDefinition(t *testing.T) {
	f := newFixture()
	// Only a 1000+ tier exists, so a small amount has no workflow.
	f.addWorkflow("wf-mid", 1000, 1, 2)

	req := f.addRequisition("req-small", 200, domain.StatusDraft)
	_, err := f.engine.ResolveWorkflow(context.Background(), req)
	require.ErrorIs(t, err, apperrors.ErrNoWorkflowFound)

	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeNoWorkflowFound, appErr.Code)
}

func TestResolveWorkflow_OtherDepartmentDefinitionsIgnored(t *testing.T) {
	f := newFixture()
	f.store.AddWorkflow(&domain.WorkflowDefinition{
		ID:               "wf-finance",
		DepartmentID:     "dept-finance",
		Category:         "it_equipment",
		AmountThreshold:  0,
		ApproverSequence: []int{1},
	})

	req := f.addRequisition("req-eng", 300, domain.StatusDraft)
	_, err := f.engine.ResolveWorkflow(context.Background(), req)
	require.ErrorIs(t, err, apperrors.ErrNoWorkflowFound)
}
