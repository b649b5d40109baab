package repository_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/engine"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/repository"
	"reqflow.io/reqflow/internal/testutil"
)

func newTestStore(t *testing.T) *repository.Store {
	t.Helper()
	pool := testutil.OpenMigratedPool(t, t.Name())
	return repository.NewStore(pool)
}

func seedBase(t *testing.T, store *repository.Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.CreateDepartment(ctx, &domain.Department{ID: "dept-1", Name: "Engineering"}))
	require.NoError(t, store.CreateUser(ctx, &domain.User{
		ID: "user-1", Email: "rita@reqflow.io", PasswordHash: "x",
		Role: domain.RoleRegularUser, DepartmentID: "dept-1",
	}))
	require.NoError(t, store.CreateUser(ctx, &domain.User{
		ID: "appr-1", Email: "lena@reqflow.io", PasswordHash: "x",
		Role: domain.RoleApprover, AuthorityLevel: 1, DepartmentID: "dept-1",
	}))
}

func TestStore_RequisitionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedBase(t, store)
	ctx := context.Background()

	amount := 1234.56
	req := &domain.Requisition{
		ID: "req-1", Title: "laptops", RequestorID: "user-1", DepartmentID: "dept-1",
		Amount: &amount, Category: "it_equipment", Priority: domain.PriorityHigh,
		Status: domain.StatusDraft,
	}
	require.NoError(t, store.CreateRequisition(ctx, req))
	require.False(t, req.CreatedAt.IsZero())

	got, err := store.GetRequisition(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, "laptops", got.Title)
	require.NotNil(t, got.Amount)
	require.InDelta(t, 1234.56, *got.Amount, 0.001)
	require.Empty(t, got.OriginalRequisitionID)

	require.NoError(t, store.SetRequisitionState(ctx, "req-1", domain.StatusPending, 1))
	got, err = store.GetRequisition(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status)
	require.Equal(t, 1, got.CurrentApproverLevel)

	_, err = store.GetRequisition(ctx, "missing")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_ApprovalFanOutIdempotency(t *testing.T) {
	store := newTestStore(t)
	seedBase(t, store)
	ctx := context.Background()

	require.NoError(t, store.CreateRequisition(ctx, &domain.Requisition{
		ID: "req-1", Title: "t", RequestorID: "user-1", DepartmentID: "dept-1",
		Priority: domain.PriorityLow, Status: domain.StatusPending,
	}))

	created, err := store.CreateApprovalIfAbsent(ctx, &domain.Approval{
		ID: "a-1", RequisitionID: "req-1", ApproverID: "appr-1",
		Status: domain.ApprovalPending, ApproverLevel: 1,
	})
	require.NoError(t, err)
	require.True(t, created)

	created, err = store.CreateApprovalIfAbsent(ctx, &domain.Approval{
		ID: "a-2", RequisitionID: "req-1", ApproverID: "appr-1",
		Status: domain.ApprovalPending, ApproverLevel: 1,
	})
	require.NoError(t, err)
	require.False(t, created)

	records, err := store.ListApprovalsByRequisition(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, records, 1)

	// Deciding closes the record; a second decision finds nothing open.
	require.NoError(t, store.DecideApproval(ctx, "a-1", domain.ApprovalApproved, "ok"))
	err = store.DecideApproval(ctx, "a-1", domain.ApprovalRejected, "no")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = store.GetOpenApproval(ctx, "req-1", "appr-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestStore_WorkflowSequenceRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedBase(t, store)
	ctx := context.Background()

	wf := &domain.WorkflowDefinition{
		ID: "wf-1", DepartmentID: "dept-1", Category: "it_equipment",
		AmountThreshold: 1000, ApproverSequence: []int{1, 2, 4},
	}
	require.NoError(t, store.CreateWorkflow(ctx, wf))

	err := store.CreateWorkflow(ctx, &domain.WorkflowDefinition{
		ID: "wf-dup", DepartmentID: "dept-1", Category: "it_equipment",
		AmountThreshold: 1000, ApproverSequence: []int{1},
	})
	require.ErrorIs(t, err, apperrors.ErrAlreadyExists)

	defs, err := store.ListWorkflowsByKey(ctx, "dept-1", "it_equipment")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	require.Equal(t, []int{1, 2, 4}, defs[0].ApproverSequence)
}

func TestStore_ForRequisitionSerializesWriters(t *testing.T) {
	store := newTestStore(t)
	seedBase(t, store)
	ctx := context.Background()

	require.NoError(t, store.CreateRequisition(ctx, &domain.Requisition{
		ID: "req-1", Title: "t", RequestorID: "user-1", DepartmentID: "dept-1",
		Priority: domain.PriorityLow, Status: domain.StatusDraft,
	}))

	// Both writers bump the level by one; with the row lock held for the
	// whole callback the increments cannot interleave.
	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.ForRequisition(ctx, "req-1", func(ctx context.Context, tx engine.Store) error {
				req, err := tx.GetRequisition(ctx, "req-1")
				if err != nil {
					return err
				}
				return tx.SetRequisitionState(ctx, req.ID, domain.StatusPending, req.CurrentApproverLevel+1)
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	req, err := store.GetRequisition(ctx, "req-1")
	require.NoError(t, err)
	require.Equal(t, 2, req.CurrentApproverLevel)
}

func TestStore_NotificationInbox(t *testing.T) {
	store := newTestStore(t)
	seedBase(t, store)
	ctx := context.Background()

	require.NoError(t, store.CreateNotification(ctx, &domain.Notification{
		ID: "n-1", UserID: "user-1", Type: domain.NotifyApprovalGranted,
		Title: "approved", Message: "your requisition was approved",
		ResourceType: "requisition", ResourceID: "req-1",
	}))

	inbox, err := store.ListNotificationsForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.False(t, inbox[0].Read)

	require.NoError(t, store.MarkNotificationRead(ctx, "n-1", "user-1"))
	err = store.MarkNotificationRead(ctx, "n-1", "appr-1")
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	inbox, err = store.ListNotificationsForUser(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, inbox[0].Read)
}
