package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"reqflow.io/reqflow/internal/domain"
	apperrors "reqflow.io/reqflow/internal/pkg/errors"
	"reqflow.io/reqflow/internal/testutil"
)

func seedReqStore(t *testing.T) *testutil.MemStore {
	t.Helper()
	store := testutil.NewMemStore()
	require.NoError(t, store.CreateDepartment(context.Background(), &domain.Department{ID: "dept-1", Name: "Engineering"}))
	store.AddUser(&domain.User{ID: "owner", Role: domain.RoleRegularUser, DepartmentID: "dept-1"})
	store.AddUser(&domain.User{ID: "other", Role: domain.RoleRegularUser, DepartmentID: "dept-1"})
	store.AddUser(&domain.User{ID: "admin", Role: domain.RoleAdmin, DepartmentID: "dept-1"})
	store.AddUser(&domain.User{ID: "appr-2", Role: domain.RoleApprover, AuthorityLevel: 2, DepartmentID: "dept-1"})
	return store
}

func amount(v float64) *float64 { return &v }

func TestCreate_Draft(t *testing.T) {
	store := seedReqStore(t)
	svc := NewRequisitionService(store)

	r, err := svc.Create(context.Background(), "owner", CreateInput{
		Title:    "Laptops",
		Amount:   amount(1500),
		Category: "it_equipment",
	})
	require.NoError(t, err)
	require.Equal(t, domain.StatusDraft, r.Status)
	require.Equal(t, domain.PriorityMedium, r.Priority)
	require.Equal(t, "dept-1", r.DepartmentID)
	require.Equal(t, "owner", r.RequestorID)
	require.Zero(t, r.RevisionNumber)
	require.NotEmpty(t, r.ID)
}

func TestCreate_Validation(t *testing.T) {
	store := seedReqStore(t)
	svc := NewRequisitionService(store)
	ctx := context.Background()

	_, err := svc.Create(ctx, "owner", CreateInput{Category: "it_equipment"})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Create(ctx, "owner", CreateInput{Title: "Laptops"})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Create(ctx, "owner", CreateInput{Title: "Laptops", Category: "it_equipment", Amount: amount(-5)})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Create(ctx, "owner", CreateInput{Title: "Laptops", Category: "it_equipment", Priority: "urgent"})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.Create(ctx, "ghost", CreateInput{Title: "Laptops", Category: "it_equipment"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCreate_RequiresDepartment(t *testing.T) {
	store := seedReqStore(t)
	store.AddUser(&domain.User{ID: "floating", Role: domain.RoleRegularUser})
	svc := NewRequisitionService(store)

	_, err := svc.Create(context.Background(), "floating", CreateInput{Title: "Laptops", Category: "it_equipment"})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestUpdate_OwnerAndStateGuards(t *testing.T) {
	store := seedReqStore(t)
	svc := NewRequisitionService(store)
	ctx := context.Background()

	r, err := svc.Create(ctx, "owner", CreateInput{Title: "Laptops", Category: "it_equipment"})
	require.NoError(t, err)

	title := "Laptops (refresh)"
	got, err := svc.Update(ctx, r.ID, "owner", domain.RequisitionPatch{Title: &title})
	require.NoError(t, err)
	require.Equal(t, title, got.Title)

	_, err = svc.Update(ctx, r.ID, "other", domain.RequisitionPatch{Title: &title})
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	// Once the workflow owns the row, updates are refused.
	require.NoError(t, store.SetRequisitionState(ctx, r.ID, domain.StatusPending, 1))
	_, err = svc.Update(ctx, r.ID, "owner", domain.RequisitionPatch{Title: &title})
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}

func TestDelete_DraftOnly(t *testing.T) {
	store := seedReqStore(t)
	svc := NewRequisitionService(store)
	ctx := context.Background()

	r, err := svc.Create(ctx, "owner", CreateInput{Title: "Laptops", Category: "it_equipment"})
	require.NoError(t, err)

	require.ErrorIs(t, svc.Delete(ctx, r.ID, "other"), apperrors.ErrForbidden)

	admin, err := svc.Create(ctx, "owner", CreateInput{Title: "Chairs", Category: "furniture"})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, admin.ID, "admin"))

	require.NoError(t, store.SetRequisitionState(ctx, r.ID, domain.StatusPending, 1))
	require.ErrorIs(t, svc.Delete(ctx, r.ID, "owner"), apperrors.ErrInvalidState)
}

func TestGet_Visibility(t *testing.T) {
	store := seedReqStore(t)
	svc := NewRequisitionService(store)
	ctx := context.Background()

	r, err := svc.Create(ctx, "owner", CreateInput{Title: "Laptops", Category: "it_equipment"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, r.ID, "owner")
	require.NoError(t, err)
	_, err = svc.Get(ctx, r.ID, "admin")
	require.NoError(t, err)

	_, err = svc.Get(ctx, r.ID, "other")
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	// Approvers do not see foreign drafts, only submitted work.
	_, err = svc.Get(ctx, r.ID, "appr-2")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
	require.NoError(t, store.SetRequisitionState(ctx, r.ID, domain.StatusPending, 1))
	_, err = svc.Get(ctx, r.ID, "appr-2")
	require.NoError(t, err)
}

func TestList_RoleScoped(t *testing.T) {
	store := seedReqStore(t)
	svc := NewRequisitionService(store)
	ctx := context.Background()

	mine, err := svc.Create(ctx, "owner", CreateInput{Title: "Laptops", Category: "it_equipment"})
	require.NoError(t, err)
	theirs, err := svc.Create(ctx, "other", CreateInput{Title: "Chairs", Category: "furniture"})
	require.NoError(t, err)
	require.NoError(t, store.SetRequisitionState(ctx, theirs.ID, domain.StatusPending, 2))

	// Regular user: own rows only.
	list, err := svc.List(ctx, "owner", domain.RequisitionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, mine.ID, list[0].ID)

	// Admin: everything.
	list, err = svc.List(ctx, "admin", domain.RequisitionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 2)

	// Approver at level 2: own rows plus the queue at their stage.
	list, err = svc.List(ctx, "appr-2", domain.RequisitionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, theirs.ID, list[0].ID)
}
