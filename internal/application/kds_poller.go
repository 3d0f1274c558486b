package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

const (
	DefaultPollInterval = 5 * time.Second
	DefaultOrderLimit   = 50
)

type KDSPollerConfig struct {
	PollInterval time.Duration
	Limit        int
	Enabled      bool
	Logger       *slog.Logger
	Clock        ports.Clock
}

type KDSSnapshot struct {
	Orders      []domain.KDSOrder
	Stats       domain.KDSStats
	LastUpdated time.Time
	Error       string
	Loading     bool
	Polling     bool
	Version     uint64
}

type recallEntry struct {
	orderID  string
	previous domain.OrderStatus
}

// KDSPoller keeps a read-only copy of the kitchen orders. The cached orders change only
// when a fetch succeeds; actions never touch them directly.
type KDSPoller struct {
	gateway  ports.OrderGateway
	logger   *slog.Logger
	clock    ports.Clock
	interval time.Duration
	limit    int

	mu          sync.Mutex
	baseCtx     context.Context
	enabled     bool
	mounted     bool
	focused     bool
	visible     bool
	generation  uint64
	loopCancel  context.CancelFunc
	loopDone    chan struct{}
	fetchCancel context.CancelFunc
	fetchSeq    uint64
	loading     bool
	orders      []domain.KDSOrder
	stats       domain.KDSStats
	lastUpdated time.Time
	errMessage  string
	version     uint64
	listeners   []func(KDSSnapshot)
	recall      []recallEntry
}

func NewKDSPoller(gateway ports.OrderGateway, cfg KDSPollerConfig) *KDSPoller {
	interval := cfg.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultOrderLimit
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &KDSPoller{
		gateway:  gateway,
		logger:   logger,
		clock:    clock,
		interval: interval,
		limit:    limit,
		enabled:  cfg.Enabled,
		focused:  true,
		visible:  true,
		baseCtx:  context.Background(),
	}
}

// Start mounts the poller. Polling runs while mounted, enabled, focused and visible.
func (p *KDSPoller) Start(ctx context.Context) {
	p.mu.Lock()
	p.baseCtx = ctx
	p.mounted = true
	p.reconcileLocked()
	p.mu.Unlock()
}

func (p *KDSPoller) Focus() {
	p.setFlag(func() { p.focused = true })
}

func (p *KDSPoller) Blur() {
	p.setFlag(func() { p.focused = false })
}

func (p *KDSPoller) SetVisible(visible bool) {
	p.setFlag(func() { p.visible = visible })
}

func (p *KDSPoller) SetEnabled(enabled bool) {
	p.setFlag(func() { p.enabled = enabled })
}

// Stop unmounts the poller, aborts any in-flight fetch and waits for the loop to exit.
func (p *KDSPoller) Stop() {
	p.mu.Lock()
	p.mounted = false
	done := p.reconcileLocked()
	if p.fetchCancel != nil {
		p.fetchCancel()
		p.fetchCancel = nil
		p.fetchSeq++
		p.loading = false
	}
	p.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (p *KDSPoller) Polling() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loopCancel != nil
}

func (p *KDSPoller) setFlag(apply func()) {
	p.mu.Lock()
	apply()
	p.reconcileLocked()
	p.mu.Unlock()
}

// reconcileLocked starts or pauses the loop to match the lifecycle flags. It returns the
// done channel of a loop it just paused.
func (p *KDSPoller) reconcileLocked() chan struct{} {
	should := p.mounted && p.enabled && p.focused && p.visible
	running := p.loopCancel != nil

	switch {
	case should && !running:
		p.generation++
		ctx, cancel := context.WithCancel(p.baseCtx)
		p.loopCancel = cancel
		p.loopDone = make(chan struct{})
		go p.loop(ctx, p.generation, p.loopDone)
		p.logger.Debug("kds polling resumed", "interval", p.interval)
		return nil
	case !should && running:
		p.generation++
		p.loopCancel()
		p.loopCancel = nil
		done := p.loopDone
		p.loopDone = nil
		p.logger.Debug("kds polling paused")
		return done
	default:
		return nil
	}
}

func (p *KDSPoller) loop(ctx context.Context, generation uint64, done chan struct{}) {
	defer close(done)

	_ = p.fetch(ctx, generation)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = p.fetch(ctx, generation)
		}
	}
}

// Refresh fetches immediately, superseding any fetch in flight. Aborted fetches return nil.
func (p *KDSPoller) Refresh(ctx context.Context) error {
	return p.fetch(ctx, 0)
}

// fetch with a non-zero generation belongs to a loop and is skipped once that loop was paused.
func (p *KDSPoller) fetch(ctx context.Context, generation uint64) error {
	p.mu.Lock()
	if generation != 0 && generation != p.generation {
		p.mu.Unlock()
		return nil
	}
	if p.fetchCancel != nil {
		p.fetchCancel()
	}
	p.fetchSeq++
	seq := p.fetchSeq
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.fetchCancel = cancel
	p.loading = true
	p.mu.Unlock()

	orders, err := p.gateway.ListOrders(fetchCtx, p.limit)

	p.mu.Lock()
	if seq != p.fetchSeq {
		p.mu.Unlock()
		p.logger.Debug("superseded kds fetch discarded")
		return nil
	}
	p.fetchCancel = nil
	p.loading = false

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(fetchCtx.Err(), context.Canceled) {
			p.mu.Unlock()
			p.logger.Debug("kds fetch aborted", "error", err)
			return nil
		}
		p.errMessage = err.Error()
		p.logger.Warn("kds fetch failed, keeping last known orders", "error", err)
	} else {
		p.orders = orders
		p.stats = domain.ComputeStats(orders)
		p.lastUpdated = p.clock.Now()
		p.errMessage = ""
	}
	p.version++
	snapshot := p.snapshotLocked()
	listeners := append([]func(KDSSnapshot){}, p.listeners...)
	p.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}

	if err != nil {
		return fmt.Errorf("fetch kds orders: %w", err)
	}
	return nil
}

func (p *KDSPoller) Snapshot() KDSSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// OnUpdate registers fn to receive a snapshot after every completed fetch. fn runs on the
// fetching goroutine and must not block.
func (p *KDSPoller) OnUpdate(fn func(KDSSnapshot)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

func (p *KDSPoller) snapshotLocked() KDSSnapshot {
	return KDSSnapshot{
		Orders:      cloneOrders(p.orders),
		Stats:       p.stats,
		LastUpdated: p.lastUpdated,
		Error:       p.errMessage,
		Loading:     p.loading,
		Polling:     p.loopCancel != nil,
		Version:     p.version,
	}
}

func cloneOrders(orders []domain.KDSOrder) []domain.KDSOrder {
	if orders == nil {
		return nil
	}
	clone := make([]domain.KDSOrder, len(orders))
	for i, order := range orders {
		order.Items = append([]domain.KDSItem(nil), order.Items...)
		clone[i] = order
	}
	return clone
}

func (p *KDSPoller) StartOrder(ctx context.Context, orderID string) bool {
	return p.transition(ctx, "start", orderID, domain.OrderStatusPreparing, false)
}

func (p *KDSPoller) MarkOrderReady(ctx context.Context, orderID string) bool {
	return p.transition(ctx, "ready", orderID, domain.OrderStatusReady, false)
}

// BumpOrder clears the order from the line. The backend has no separate bump status.
func (p *KDSPoller) BumpOrder(ctx context.Context, orderID string) bool {
	return p.transition(ctx, "bump", orderID, domain.OrderStatusReady, true)
}

func (p *KDSPoller) CompleteOrder(ctx context.Context, orderID string) bool {
	return p.transition(ctx, "complete", orderID, domain.OrderStatusCompleted, true)
}

// ToggleItem always fails: the orders backend does not store item progress and the cached
// item state is never flipped locally.
func (p *KDSPoller) ToggleItem(_ context.Context, orderID string, itemIndex int) bool {
	p.logger.Info("item toggle not sent", "order_id", orderID, "item", itemIndex, "error", domain.ErrItemTrackingDisabled)
	return false
}

// RecallLastOrder puts the most recently bumped or completed order back into the status it
// had before.
func (p *KDSPoller) RecallLastOrder(ctx context.Context) bool {
	p.mu.Lock()
	if len(p.recall) == 0 {
		p.mu.Unlock()
		p.logger.Info("nothing to recall")
		return false
	}
	entry := p.recall[len(p.recall)-1]
	p.recall = p.recall[:len(p.recall)-1]
	p.mu.Unlock()

	if err := p.gateway.UpdateOrderStatus(ctx, entry.orderID, entry.previous); err != nil {
		p.logger.Warn("kds action failed", "action", "recall", "order_id", entry.orderID, "error", err)
		p.mu.Lock()
		p.recall = append(p.recall, entry)
		p.mu.Unlock()
		return false
	}

	p.refreshAfterAction(ctx)
	return true
}

// RecallOrder moves a single order back to status. It serves callers that do not share the
// in-process recall history, such as one-shot commands.
func (p *KDSPoller) RecallOrder(ctx context.Context, orderID string, status domain.OrderStatus) bool {
	if !status.IsOpen() {
		p.logger.Info("recall target is not an open status", "order_id", orderID, "status", status)
		return false
	}
	return p.transition(ctx, "recall", orderID, status, false)
}

func (p *KDSPoller) transition(ctx context.Context, action string, orderID string, status domain.OrderStatus, recallable bool) bool {
	p.mu.Lock()
	order, known := domain.FindOrder(p.orders, orderID)
	p.mu.Unlock()

	if err := p.gateway.UpdateOrderStatus(ctx, orderID, status); err != nil {
		p.logger.Warn("kds action failed", "action", action, "order_id", orderID, "error", err)
		return false
	}

	// Only a status we actually saw can be restored.
	if recallable && known {
		p.mu.Lock()
		p.recall = append(p.recall, recallEntry{orderID: orderID, previous: order.Status})
		p.mu.Unlock()
	} else if recallable {
		p.logger.Debug("order not cached, recall skipped", "action", action, "order_id", orderID)
	}

	p.refreshAfterAction(ctx)
	return true
}

func (p *KDSPoller) refreshAfterAction(ctx context.Context) {
	if err := p.Refresh(ctx); err != nil {
		p.logger.Warn("refresh after kds action failed", "error", err)
	}
}
