package engine_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
)

func TestDecide_SingleApproverChain(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 2)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	_, err := f.engine.Submit(context.Background(), "req-1", "requestor")
	require.NoError(t, err)

	updated, err := f.engine.Decide(context.Background(), "req-1", "lvl2", domain.DecisionApprove, "fine by me")
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, updated.Status)
	require.Equal(t, []string{"requestor"}, f.notifier.approved)
}

func TestDecide_MultiLevelChainAdvances(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 1, 2, 3)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, "req-1", "requestor")
	require.NoError(t, err)

	// First level-1 approval alone does not advance the stage.
	updated, err := f.engine.Decide(ctx, "req-1", "lvl1a", domain.DecisionApprove, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, updated.Status)
	require.Equal(t, 1, updated.CurrentApproverLevel)

	// Second level-1 approval completes the stage and opens level 2.
	updated, err = f.engine.Decide(ctx, "req-1", "lvl1b", domain.DecisionApprove, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPartiallyApproved, updated.Status)
	require.Equal(t, 2, updated.CurrentApproverLevel)

	records, err := f.store.ListApprovalsAtLevel(ctx, "req-1", 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "lvl2", records[0].ApproverID)

	updated, err = f.engine.Decide(ctx, "req-1", "lvl2", domain.DecisionApprove, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPartiallyApproved, updated.Status)
	require.Equal(t, 3, updated.CurrentApproverLevel)

	updated, err = f.engine.Decide(ctx, "req-1", "lvl3", domain.DecisionApprove, "ship it")
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, updated.Status)

	// Level-1 approvers at submit, lvl2 and lvl3 on advancement.
	require.ElementsMatch(t, []string{"lvl1a", "lvl1b", "lvl2", "lvl3"}, f.notifier.requestedIDs())
	require.Equal(t, []string{"requestor"}, f.notifier.approved)
}

func TestDecide_RejectShortCircuits(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 1, 2)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, "req-1", "requestor")
	require.NoError(t, err)

	// One rejection kills the chain even with a sibling still pending.
	updated, err := f.engine.Decide(ctx, "req-1", "lvl1a", domain.DecisionReject, "budget exceeded")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, updated.Status)

	records, err := f.store.ListApprovalsAtLevel(ctx, "req-1", 1)
	require.NoError(t, err)
	byApprover := map[string]domain.ApprovalStatus{}
	for _, rec := range records {
		byApprover[rec.ApproverID] = rec.Status
	}
	require.Equal(t, domain.ApprovalRejected, byApprover["lvl1a"])
	require.Equal(t, domain.ApprovalPending, byApprover["lvl1b"])

	require.Equal(t, []string{"requestor"}, f.notifier.rejected)
	require.Equal(t, []string{"budget exceeded"}, f.notifier.comments)

	// The sibling can no longer act on a dead requisition.
	_, err = f.engine.Decide(ctx, "req-1", "lvl1b", domain.DecisionApprove, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestDecide_RejectRequiresComment(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 2)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, "req-1", "requestor")
	require.NoError(t, err)

	for _, comment := range []string{"", "   ", "\t\n"} {
		_, err = f.engine.Decide(ctx, "req-1", "lvl2", domain.DecisionReject, comment)
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
		appErr, ok := apperrors.IsAppError(err)
		require.True(t, ok)
		require.Equal(t, apperrors.CodeRejectCommentRequired, appErr.Code)
	}

	// Nothing was written; the approval record is still open.
	req, err := f.store.GetRequisition(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, req.Status)

	approval, err := f.store.GetOpenApproval(ctx, "req-1", "lvl2")
	require.NoError(t, err)
	require.True(t, approval.IsOpen())
}

func TestDecide_MaxAuthorityShortCircuit(t *testing.T) {
	f := newFixture()
	f.store.AddUser(&domain.User{ID: "lvl3b", FirstName: "Olga", LastName: "Three", Email: "olga@reqflow.io", Role: domain.RoleApprover, AuthorityLevel: 3, DepartmentID: "dept-eng"})
	f.addWorkflow("wf", 0, 3)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, "req-1", "requestor")
	require.NoError(t, err)

	// One max-level approval finalizes; the sibling record stays pending
	// and undecided forever.
	updated, err := f.engine.Decide(ctx, "req-1", "lvl3", domain.DecisionApprove, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusApproved, updated.Status)

	records, err := f.store.ListApprovalsAtLevel(ctx, "req-1", 3)
	require.NoError(t, err)
	require.Len(t, records, 2)
	statuses := map[string]domain.ApprovalStatus{}
	for _, rec := range records {
		statuses[rec.ApproverID] = rec.Status
	}
	require.Equal(t, domain.ApprovalApproved, statuses["lvl3"])
	require.Equal(t, domain.ApprovalPending, statuses["lvl3b"])
}

func TestDecide_WrongStage(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 1, 2)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, "req-1", "requestor")
	require.NoError(t, err)

	// Level-2 approver cannot act while the requisition sits at level 1.
	_, err = f.engine.Decide(ctx, "req-1", "lvl2", domain.DecisionApprove, "")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeWrongApprovalStage, appErr.Code)

	// Neither can a regular user, whatever the level.
	_, err = f.engine.Decide(ctx, "req-1", "requestor", domain.DecisionApprove, "")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestDecide_RequisitionNotPending(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 2)
	f.addRequisition("req-draft", 500, domain.StatusDraft)

	_, err := f.engine.Decide(context.Background(), "req-draft", "lvl2", domain.DecisionApprove, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeRequisitionNotPending, appErr.Code)
}

func TestDecide_AlreadyFinalizedRequisition(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 2)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, "req-1", "requestor")
	require.NoError(t, err)
	_, err = f.engine.Decide(ctx, "req-1", "lvl2", domain.DecisionApprove, "")
	require.NoError(t, err)

	_, err = f.engine.Decide(ctx, "req-1", "lvl2", domain.DecisionApprove, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestDecide_NoOpenApprovalRecord(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 1)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, "req-1", "requestor")
	require.NoError(t, err)

	// Approver hired after fan-out holds the right level but no record.
	f.store.AddUser(&domain.User{ID: "lvl1c", Email: "late@reqflow.io", Role: domain.RoleApprover, AuthorityLevel: 1, DepartmentID: "dept-eng"})

	_, err = f.engine.Decide(ctx, "req-1", "lvl1c", domain.DecisionApprove, "")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	require.Equal(t, apperrors.CodeApprovalNotFound, appErr.Code)
}

func TestDecide_UnknownDecisionToken(t *testing.T) {
	f := newFixture()
	_, err := f.engine.Decide(context.Background(), "req-1", "lvl2", domain.Decision("maybe"), "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDecide_ConcurrentApprovalsAdvanceOnce(t *testing.T) {
	f := newFixture()
	f.addWorkflow("wf", 0, 1, 2)
	f.addRequisition("req-1", 500, domain.StatusDraft)
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, "req-1", "requestor")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, approver := range []string{"lvl1a", "lvl1b"} {
		wg.Add(1)
		go func(approver string) {
			defer wg.Done()
			_, err := f.engine.Decide(ctx, "req-1", approver, domain.DecisionApprove, "")
			errs <- err
		}(approver)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	req, err := f.store.GetRequisition(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPartiallyApproved, req.Status)
	require.Equal(t, 2, req.CurrentApproverLevel)

	// The level-2 record was materialized exactly once.
	records, err := f.store.ListApprovalsAtLevel(ctx, "req-1", 2)
	require.NoError(t, err)
	require.Len(t, records, 1)
}
