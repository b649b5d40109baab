package engine_test

import (
	"context"
	"sync"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/engine"
	"reqflow.io/reqflow/internal/pkg/logger"
	"reqflow.io/reqflow/internal/testutil"
)

func init() {
	_ = logger.Init("error", "json")
}

// recordingNotifier captures every event the engine emits so tests can
// assert that notifications fire after commit and reach the right users.
type recordingNotifier struct {
	mu sync.Mutex

	requested []string // approver ids
	approved  []string // requestor ids
	rejected  []string // requestor ids
	comments  []string
}

func (n *recordingNotifier) ApprovalRequested(_ context.Context, approver *domain.User, _ *domain.Requisition) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.requested = append(n.requested, approver.ID)
}

func (n *recordingNotifier) RequisitionApproved(_ context.Context, requestorID string, _ *domain.Requisition) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approved = append(n.approved, requestorID)
}

func (n *recordingNotifier) RequisitionRejected(_ context.Context, requestorID string, _ *domain.Requisition, comment string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.rejected = append(n.rejected, requestorID)
	n.comments = append(n.comments, comment)
}

func (n *recordingNotifier) requestedIDs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.requested...)
}

// fixture wires an engine over the in-memory store with a department,
// a requestor, and approvers lvl1a, lvl1b (level 1), lvl2 (level 2),
// lvl3 (level 3).
type fixture struct {
	store    *testutil.MemStore
	engine   *engine.Engine
	notifier *recordingNotifier
}

func newFixture() *fixture {
	store := testutil.NewMemStore()
	notifier := &recordingNotifier{}

	store.AddUser(&domain.User{ID: "requestor", FirstName: "Rita", LastName: "Ops", Email: "rita@reqflow.io", Role: domain.RoleRegularUser, DepartmentID: "dept-eng"})
	store.AddUser(&domain.User{ID: "lvl1a", FirstName: "Lena", LastName: "One", Email: "lena@reqflow.io", Role: domain.RoleApprover, AuthorityLevel: 1, DepartmentID: "dept-eng"})
	store.AddUser(&domain.User{ID: "lvl1b", FirstName: "Luis", LastName: "One", Email: "luis@reqflow.io", Role: domain.RoleApprover, AuthorityLevel: 1, DepartmentID: "dept-eng"})
	store.AddUser(&domain.User{ID: "lvl2", FirstName: "Mara", LastName: "Two", Email: "mara@reqflow.io", Role: domain.RoleApprover, AuthorityLevel: 2, DepartmentID: "dept-eng"})
	store.AddUser(&domain.User{ID: "lvl3", FirstName: "Nils", LastName: "Three", Email: "nils@reqflow.io", Role: domain.RoleApprover, AuthorityLevel: 3, DepartmentID: "dept-eng"})

	return &fixture{
		store:    store,
		engine:   engine.New(store, notifier),
		notifier: notifier,
	}
}

// addWorkflow seeds a definition for dept-eng / it_equipment.
func (f *fixture) addWorkflow(id string, threshold float64, levels ...int) {
	f.store.AddWorkflow(&domain.WorkflowDefinition{
		ID:               id,
		DepartmentID:     "dept-eng",
		Category:         "it_equipment",
		AmountThreshold:  threshold,
		ApproverSequence: levels,
	})
}

// addRequisition seeds a requisition owned by "requestor".
func (f *fixture) addRequisition(id string, amount float64, status domain.RequisitionStatus) *domain.Requisition {
	req := &domain.Requisition{
		ID:           id,
		Title:        "laptops",
		RequestorID:  "requestor",
		DepartmentID: "dept-eng",
		Category:     "it_equipment",
		Amount:       &amount,
		Priority:     domain.PriorityMedium,
		Status:       status,
	}
	if err := f.store.CreateRequisition(context.Background(), req); err != nil {
		panic(err)
	}
	return req
}
