package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var kdsNow = time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)

func kdsOrders() []domain.KDSOrder {
	return []domain.KDSOrder{
		{ID: "o1", OrderNumber: "101", Status: domain.OrderStatusPending, Total: 42, Items: []domain.KDSItem{{Name: "Żurek", Quantity: 1, Station: "kuchnia"}}},
		{ID: "o2", OrderNumber: "102", Status: domain.OrderStatusPreparing, Total: 18, Items: []domain.KDSItem{{Name: "Kawa", Quantity: 2, Station: "bar"}}},
	}
}

func newTestPoller(gateway *fakeOrderGateway, interval time.Duration) *KDSPoller {
	return NewKDSPoller(gateway, KDSPollerConfig{
		PollInterval: interval,
		Enabled:      true,
		Logger:       discardLogger(),
		Clock:        fixedClock{now: kdsNow},
	})
}

func TestKDSPollerStartFetchesImmediately(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, time.Hour)
	t.Cleanup(poller.Stop)

	poller.Start(context.Background())

	require.Eventually(t, func() bool { return poller.Snapshot().Version == 1 }, time.Second, 5*time.Millisecond)
	snapshot := poller.Snapshot()
	assert.Len(t, snapshot.Orders, 2)
	assert.Equal(t, 2, snapshot.Stats.Total)
	assert.Equal(t, kdsNow, snapshot.LastUpdated)
	assert.True(t, snapshot.Polling)
	assert.Empty(t, snapshot.Error)
}

func TestKDSPollerDisabledNeverFetches(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := NewKDSPoller(gateway, KDSPollerConfig{PollInterval: 5 * time.Millisecond, Logger: discardLogger()})
	t.Cleanup(poller.Stop)

	poller.Start(context.Background())
	time.Sleep(30 * time.Millisecond)

	assert.Zero(t, gateway.ListCalls())
	assert.False(t, poller.Polling())

	poller.SetEnabled(true)
	require.Eventually(t, func() bool { return gateway.ListCalls() >= 1 }, time.Second, 5*time.Millisecond)
}

func TestKDSPollerHiddenStopsFetching(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, 5*time.Millisecond)
	t.Cleanup(poller.Stop)

	poller.Start(context.Background())
	require.Eventually(t, func() bool { return gateway.ListCalls() >= 3 }, time.Second, time.Millisecond)

	poller.SetVisible(false)
	assert.False(t, poller.Polling())

	time.Sleep(20 * time.Millisecond)
	settled := gateway.ListCalls()
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, settled, gateway.ListCalls())
}

func TestKDSPollerFocusFetchesImmediatelyAndResumes(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, time.Hour)
	t.Cleanup(poller.Stop)

	poller.Start(context.Background())
	require.Eventually(t, func() bool { return gateway.ListCalls() == 1 }, time.Second, time.Millisecond)

	poller.Blur()
	assert.False(t, poller.Polling())

	poller.Focus()
	assert.True(t, poller.Polling())
	require.Eventually(t, func() bool { return gateway.ListCalls() == 2 }, time.Second, time.Millisecond)
}

func TestKDSPollerIntervalKeepsPolling(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, 5*time.Millisecond)
	t.Cleanup(poller.Stop)

	poller.Start(context.Background())
	require.Eventually(t, func() bool { return gateway.ListCalls() >= 4 }, time.Second, time.Millisecond)
}

func TestKDSPollerFetchFailureKeepsLastOrders(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, time.Hour)

	require.NoError(t, poller.Refresh(context.Background()))
	before := poller.Snapshot()

	gateway.set(func(f *fakeOrderGateway) { f.listErr = errors.New("status 502") })
	err := poller.Refresh(context.Background())
	require.Error(t, err)

	after := poller.Snapshot()
	assert.Equal(t, before.Orders, after.Orders)
	assert.Equal(t, before.Stats, after.Stats)
	assert.Equal(t, before.LastUpdated, after.LastUpdated)
	assert.Contains(t, after.Error, "status 502")

	gateway.set(func(f *fakeOrderGateway) { f.listErr = nil })
	require.NoError(t, poller.Refresh(context.Background()))
	assert.Empty(t, poller.Snapshot().Error)
}

func TestKDSPollerSupersededFetchIsSwallowed(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	gateway := &fakeOrderGateway{orders: kdsOrders()}
	gateway.listHook = func(ctx context.Context, call int) error {
		if call != 1 {
			return nil
		}
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}
	poller := newTestPoller(gateway, time.Hour)

	firstErr := make(chan error, 1)
	go func() { firstErr <- poller.Refresh(context.Background()) }()
	<-started

	require.NoError(t, poller.Refresh(context.Background()))
	require.NoError(t, <-firstErr)

	snapshot := poller.Snapshot()
	assert.Empty(t, snapshot.Error)
	assert.Len(t, snapshot.Orders, 2)
	assert.Equal(t, uint64(1), snapshot.Version)
}

func TestKDSPollerActionSuccessRefreshes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		run    func(p *KDSPoller) bool
		status domain.OrderStatus
	}{
		{name: "start", run: func(p *KDSPoller) bool { return p.StartOrder(context.Background(), "o1") }, status: domain.OrderStatusPreparing},
		{name: "ready", run: func(p *KDSPoller) bool { return p.MarkOrderReady(context.Background(), "o1") }, status: domain.OrderStatusReady},
		{name: "bump", run: func(p *KDSPoller) bool { return p.BumpOrder(context.Background(), "o1") }, status: domain.OrderStatusReady},
		{name: "complete", run: func(p *KDSPoller) bool { return p.CompleteOrder(context.Background(), "o1") }, status: domain.OrderStatusCompleted},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gateway := &fakeOrderGateway{orders: kdsOrders()}
			poller := newTestPoller(gateway, time.Hour)
			require.NoError(t, poller.Refresh(context.Background()))

			require.True(t, tt.run(poller))

			assert.Equal(t, []statusUpdate{{ID: "o1", Status: tt.status}}, gateway.Updates())
			assert.Equal(t, 2, gateway.ListCalls())
			order, ok := domain.FindOrder(poller.Snapshot().Orders, "o1")
			require.True(t, ok)
			assert.Equal(t, tt.status, order.Status)
		})
	}
}

func TestKDSPollerActionFailureLeavesOrdersUnchanged(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, time.Hour)
	require.NoError(t, poller.Refresh(context.Background()))
	before := poller.Snapshot()

	gateway.set(func(f *fakeOrderGateway) { f.updateErr = errors.New("backend rejected the request: invalid transition") })

	assert.False(t, poller.StartOrder(context.Background(), "o1"))
	assert.False(t, poller.CompleteOrder(context.Background(), "o2"))

	after := poller.Snapshot()
	assert.Equal(t, before, after)
	assert.Equal(t, 1, gateway.ListCalls())
	assert.False(t, poller.RecallLastOrder(context.Background()))
}

func TestKDSPollerToggleItemIsNotPersisted(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, time.Hour)
	require.NoError(t, poller.Refresh(context.Background()))
	before := poller.Snapshot()

	assert.False(t, poller.ToggleItem(context.Background(), "o1", 0))

	assert.Empty(t, gateway.Updates())
	assert.Equal(t, before, poller.Snapshot())
}

func TestKDSPollerRecallRestoresPreviousStatus(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, time.Hour)
	require.NoError(t, poller.Refresh(context.Background()))

	require.True(t, poller.BumpOrder(context.Background(), "o2"))
	require.True(t, poller.CompleteOrder(context.Background(), "o1"))

	require.True(t, poller.RecallLastOrder(context.Background()))
	require.True(t, poller.RecallLastOrder(context.Background()))
	assert.False(t, poller.RecallLastOrder(context.Background()))

	updates := gateway.Updates()
	require.Len(t, updates, 4)
	assert.Equal(t, statusUpdate{ID: "o1", Status: domain.OrderStatusPending}, updates[2])
	assert.Equal(t, statusUpdate{ID: "o2", Status: domain.OrderStatusPreparing}, updates[3])
}

func TestKDSPollerRecallSkipsUncachedOrders(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, time.Hour)

	require.True(t, poller.CompleteOrder(context.Background(), "o1"))
	require.True(t, poller.BumpOrder(context.Background(), "unknown-order"))
	assert.False(t, poller.RecallLastOrder(context.Background()))

	for _, update := range gateway.Updates() {
		assert.NotEqual(t, domain.OrderStatusPreparing, update.Status)
	}
	assert.Len(t, gateway.Updates(), 2)
}

func TestKDSPollerRecallFailureKeepsEntry(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, time.Hour)
	require.NoError(t, poller.Refresh(context.Background()))
	require.True(t, poller.BumpOrder(context.Background(), "o1"))

	gateway.set(func(f *fakeOrderGateway) { f.updateErr = errors.New("status 500") })
	assert.False(t, poller.RecallLastOrder(context.Background()))

	gateway.set(func(f *fakeOrderGateway) { f.updateErr = nil })
	assert.True(t, poller.RecallLastOrder(context.Background()))
}

func TestKDSPollerRecallOrderTargetsOpenStatus(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, time.Hour)

	assert.False(t, poller.RecallOrder(context.Background(), "o1", domain.OrderStatusCompleted))
	require.True(t, poller.RecallOrder(context.Background(), "o1", domain.OrderStatusPreparing))

	assert.Equal(t, []statusUpdate{{ID: "o1", Status: domain.OrderStatusPreparing}}, gateway.Updates())
	assert.False(t, poller.RecallLastOrder(context.Background()))
}

func TestKDSPollerOnUpdateReceivesSnapshots(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, time.Hour)

	var mu sync.Mutex
	var versions []uint64
	poller.OnUpdate(func(snapshot KDSSnapshot) {
		mu.Lock()
		versions = append(versions, snapshot.Version)
		mu.Unlock()
	})

	require.NoError(t, poller.Refresh(context.Background()))
	gateway.set(func(f *fakeOrderGateway) { f.listErr = errors.New("timeout") })
	require.Error(t, poller.Refresh(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1, 2}, versions)
}

func TestKDSPollerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	gateway := &fakeOrderGateway{orders: kdsOrders()}
	poller := newTestPoller(gateway, 5*time.Millisecond)

	poller.Start(context.Background())
	require.Eventually(t, func() bool { return gateway.ListCalls() >= 1 }, time.Second, time.Millisecond)

	poller.Stop()
	poller.Stop()
	assert.False(t, poller.Polling())

	settled := gateway.ListCalls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, settled, gateway.ListCalls())
}
