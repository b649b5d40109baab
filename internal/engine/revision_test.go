package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestRevise_CreatesNewVersionWithPatch(t *testing.T) {
	f := newFixture()
	f.addRequisition("req-1", 500, domain.StatusRejected)

	newAmount := 300.0
	revised, err := f.engine.Revise(context.Background(), "req-1", "requestor", domain.RequisitionPatch{
		Title:  strPtr("cheaper laptops"),
		Amount: &newAmount,
	})
	require.NoError(t, err)

	require.NotEqual(t, "req-1", revised.ID)
	require.Equal(t, domain.StatusRevised, revised.Status)
	require.Equal(t, 1, revised.RevisionNumber)
	require.Equal(t, "req-1", revised.OriginalRequisitionID)
	require.Equal(t, "cheaper laptops", revised.Title)
	require.Equal(t, 300.0, *revised.Amount)
	// Unpatched fields carry over.
	require.Equal(t, "it_equipment", revised.Category)
	require.Equal(t, domain.PriorityMedium, revised.Priority)

	// The rejected original is untouched.
	original, err := f.store.GetRequisition(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, original.Status)
}

func TestRevise_LineagePointsToRoot(t *testing.T) {
	f := newFixture()
	f.addRequisition("req-1", 500, domain.StatusRejected)
	ctx := context.Background()

	first, err := f.engine.Revise(ctx, "req-1", "requestor", domain.RequisitionPatch{})
	require.NoError(t, err)

	// Reject the first revision and revise again; the chain root stays
	// the original requisition, not the intermediate revision.
	require.NoError(t, f.store.SetRequisitionState(ctx, first.ID, domain.StatusRejected, 1))

	second, err := f.engine.Revise(ctx, first.ID, "requestor", domain.RequisitionPatch{})
	require.NoError(t, err)
	require.Equal(t, "req-1", second.OriginalRequisitionID)
	require.Equal(t, 2, second.RevisionNumber)
}

func TestRevise_OnlyRejectedRequisitions(t *testing.T) {
	f := newFixture()

	for _, status := range []domain.RequisitionStatus{
		domain.StatusDraft,
		domain.StatusPending,
		domain.StatusApproved,
		domain.StatusRevised,
	} {
		id := "req-" + string(status)
		f.addRequisition(id, 500, status)
		_, err := f.engine.Revise(context.Background(), id, "requestor", domain.RequisitionPatch{})
		require.ErrorIs(t, err, apperrors.ErrInvalidState, "status %s", status)
	}
}

func TestRevise_OnlyOwner(t *testing.T) {
	f := newFixture()
	f.addRequisition("req-1", 500, domain.StatusRejected)

	_, err := f.engine.Revise(context.Background(), "req-1", "lvl1a", domain.RequisitionPatch{})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRequisitionHistory_AnyChainMemberResolvesFullLineage(t *testing.T) {
	f := newFixture()
	f.addRequisition("req-1", 500, domain.StatusRejected)
	ctx := context.Background()

	first, err := f.engine.Revise(ctx, "req-1", "requestor", domain.RequisitionPatch{})
	require.NoError(t, err)
	require.NoError(t, f.store.SetRequisitionState(ctx, first.ID, domain.StatusRejected, 1))
	second, err := f.engine.Revise(ctx, first.ID, "requestor", domain.RequisitionPatch{})
	require.NoError(t, err)

	for _, member := range []string{"req-1", first.ID, second.ID} {
		chain, err := f.engine.RequisitionHistory(ctx, member, "requestor", domain.RoleRegularUser)
		require.NoError(t, err)
		require.Len(t, chain, 3)
		require.Equal(t, "req-1", chain[0].ID)
		require.Equal(t, first.ID, chain[1].ID)
		require.Equal(t, second.ID, chain[2].ID)
	}
}

func TestRequisitionHistory_RegularUserSeesOnlyOwn(t *testing.T) {
	f := newFixture()
	f.store.AddUser(&domain.User{ID: "other", Email: "other@reqflow.io", Role: domain.RoleRegularUser, DepartmentID: "dept-eng"})
	f.addRequisition("req-1", 500, domain.StatusDraft)
	ctx := context.Background()

	_, err := f.engine.RequisitionHistory(ctx, "req-1", "other", domain.RoleRegularUser)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	// Approvers and admins may inspect anyone's chain.
	_, err = f.engine.RequisitionHistory(ctx, "req-1", "lvl1a", domain.RoleApprover)
	require.NoError(t, err)
}

func TestApprovalHistory_OrderedByLevel(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 1, 2)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, "req-1", "requestor")
	require.NoError(t, err)
	_, err = f.engine.Decide(ctx, "req-1", "lvl1a", domain.DecisionApprove, "")
	require.NoError(t, err)
	_, err = f.engine.Decide(ctx, "req-1", "lvl1b", domain.DecisionApprove, "")
	require.NoError(t, err)

	history, err := f.engine.ApprovalHistory(ctx, "req-1", "requestor", domain.RoleRegularUser)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, 1, history[0].ApproverLevel)
	require.Equal(t, 1, history[1].ApproverLevel)
	require.Equal(t, 2, history[2].ApproverLevel)
}

func TestListPendingApprovals_OnlyCurrentStage(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 1, 2)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	f.addRequisition("req-2", 800, domain.StatusDraft)
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, "req-1", "requestor")
	require.NoError(t, err)
	_, err = f.engine.Submit(ctx, "req-2", "requestor")
	require.NoError(t, err)

	// lvl2 sees nothing while both requisitions sit at level 1.
	pending, err := f.engine.ListPendingApprovals(ctx, "lvl2")
	require.NoError(t, err)
	require.Empty(t, pending)

	pending, err = f.engine.ListPendingApprovals(ctx, "lvl1a")
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// Advance req-1 past level 1; lvl1a's queue shrinks, lvl2's grows.
	_, err = f.engine.Decide(ctx, "req-1", "lvl1a", domain.DecisionApprove, "")
	require.NoError(t, err)
	_, err = f.engine.Decide(ctx, "req-1", "lvl1b", domain.DecisionApprove, "")
	require.NoError(t, err)

	pending, err = f.engine.ListPendingApprovals(ctx, "lvl1a")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "req-2", pending[0].RequisitionID)

	pending, err = f.engine.ListPendingApprovals(ctx, "lvl2")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "req-1", pending[0].RequisitionID)
}

func TestResubmittedRevisionResolvesFreshWorkflow(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf-low", 0, 1)
	f.addWorkflow("wf-high", 1000, 1, 2)
	f.addRequisition("req-1", 5000, domain.StatusRejected)
	ctx := context.Background()

	// Revision drops the amount below the high tier; resubmission
	// resolves the short chain, not the one the original would have had.
	newAmount := 400.0
	revised, err := f.engine.Revise(ctx, "req-1", "requestor", domain.RequisitionPatch{Amount: &newAmount})
	require.NoError(t, err)

	updated, err := f.engine.Submit(ctx, revised.ID, "requestor")
	require.NoError(t, err)
	require.Equal(t, 1, updated.CurrentApproverLevel)

	_, err = f.engine.Decide(ctx, revised.ID, "lvl1a", domain.DecisionApprove, "")
	require.NoError(t, err)
	updated2, err := f.engine.Decide(ctx, revised.ID, "lvl1b", domain.DecisionApprove, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, updated2.Status)
}
