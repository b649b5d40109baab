package notification

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reqflow.io/reqflow/internal/domain"
	"reqflow.io/reqflow/internal/pkg/logger"
	"reqflow.io/reqflow/internal/pkg/worker"
)

func init() {
	_ = logger.Init("error", "json")
}

type fakeInbox struct {
	mu   sync.Mutex
	rows []*domain.Notification
}

func (f *fakeInbox) CreateNotification(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, n)
	return nil
}

func (f *fakeInbox) snapshot() []*domain.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Notification, len(f.rows))
	copy(out, f.rows)
	return out
}

func TestInboxSender_Send(t *testing.T) {
	inbox := &fakeInbox{}
	sender := NewInboxSender(inbox)

	n, err := sender.Send(context.Background(), Params{
		RecipientID:  "user-1",
		Type:         domain.NotifyApprovalRequested,
		Title:        "Requisition pending your approval",
		Message:      "Requisition \"Laptops\" is waiting for your level 1 decision",
		ResourceType: "requisition",
		ResourceID:   "req-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, n.ID)
	require.Equal(t, "user-1", n.UserID)
	require.Equal(t, domain.NotifyApprovalRequested, n.Type)

	rows := inbox.snapshot()
	require.Len(t, rows, 1)
	require.Equal(t, n.ID, rows[0].ID)
}

func TestInboxSender_SendRejectsIncompleteParams(t *testing.T) {
	sender := NewInboxSender(&fakeInbox{})

	cases := []Params{
		{Type: domain.NotifyApprovalGranted, Title: "t", Message: "m"},
		{RecipientID: "u", Title: "t", Message: "m"},
		{RecipientID: "u", Type: domain.NotifyApprovalGranted, Message: "m"},
		{RecipientID: "u", Type: domain.NotifyApprovalGranted, Title: "t"},
	}
	for _, p := range cases {
		_, err := sender.Send(context.Background(), p)
		require.Error(t, err)
	}
}

type recordingEnqueuer struct {
	mu  sync.Mutex
	ids []string
}

func (e *recordingEnqueuer) EnqueueDispatch(_ context.Context, notificationID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = append(e.ids, notificationID)
	return nil
}

func (e *recordingEnqueuer) snapshot() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, len(e.ids))
	copy(out, e.ids)
	return out
}

func newTestPools(t *testing.T) *worker.Pools {
	t.Helper()
	pools, err := worker.NewPools(context.Background(), worker.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(pools.Shutdown)
	return pools
}

func TestTriggers_ApprovalRequestedWritesInboxAndEnqueues(t *testing.T) {
	inbox := &fakeInbox{}
	enqueuer := &recordingEnqueuer{}
	pools := newTestPools(t)
	triggers := NewTriggers(NewInboxSender(inbox), pools, domain.NewEventDispatcher(), enqueuer)

	approver := &domain.User{ID: "appr-1", Role: domain.RoleApprover, AuthorityLevel: 2}
	req := &domain.Requisition{ID: "req-1", Title: "Monitors", RequestorID: "user-1"}

	triggers.ApprovalRequested(context.Background(), approver, req)

	require.Eventually(t, func() bool {
		return len(inbox.snapshot()) == 1 && len(enqueuer.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rows := inbox.snapshot()
	require.Equal(t, "appr-1", rows[0].UserID)
	require.Equal(t, domain.NotifyApprovalRequested, rows[0].Type)
	require.Equal(t, "req-1", rows[0].ResourceID)
	require.Equal(t, rows[0].ID, enqueuer.snapshot()[0])
}

func TestTriggers_RejectionCarriesComment(t *testing.T) {
	inbox := &fakeInbox{}
	pools := newTestPools(t)
	triggers := NewTriggers(NewInboxSender(inbox), pools, nil, nil)

	req := &domain.Requisition{ID: "req-2", Title: "Chairs", RequestorID: "user-1"}
	triggers.RequisitionRejected(context.Background(), "user-1", req, "over budget")

	require.Eventually(t, func() bool {
		return len(inbox.snapshot()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	rows := inbox.snapshot()
	require.Equal(t, "user-1", rows[0].UserID)
	require.Equal(t, domain.NotifyApprovalRejected, rows[0].Type)
	require.Contains(t, rows[0].Message, "over budget")
}

func TestTriggers_EventDispatched(t *testing.T) {
	inbox := &fakeInbox{}
	pools := newTestPools(t)
	dispatcher := domain.NewEventDispatcher()

	var mu sync.Mutex
	var seen []*domain.DomainEvent
	dispatcher.Register(domain.EventRequisitionApproved, func(_ context.Context, e *domain.DomainEvent) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, e)
		return nil
	})

	triggers := NewTriggers(NewInboxSender(inbox), pools, dispatcher, nil)
	req := &domain.Requisition{ID: "req-3", Title: "Desks", RequestorID: "user-1"}
	triggers.RequisitionApproved(context.Background(), "user-1", req)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	require.Equal(t, "req-3", seen[0].AggregateID)
	require.Equal(t, "requisition", seen[0].AggregateType)
}
