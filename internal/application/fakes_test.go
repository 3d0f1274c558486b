package application

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeBrain struct {
	mu       sync.Mutex
	requests []domain.BrainRequest
	respond  func(req domain.BrainRequest) (domain.BrainResponse, error)
}

func (f *fakeBrain) Send(_ context.Context, req domain.BrainRequest) (domain.BrainResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return domain.BrainResponse{OK: true, SessionID: req.SessionID, Reply: "ok: " + req.Text}, nil
	}
	return respond(req)
}

func (f *fakeBrain) Requests() []domain.BrainRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.BrainRequest(nil), f.requests...)
}

type memorySessionRepo struct {
	mu      sync.Mutex
	session *domain.Session
	saves   int
	loadErr error
	saveErr error
}

func (r *memorySessionRepo) Load(context.Context) (domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return domain.Session{}, r.loadErr
	}
	if r.session == nil {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return r.session.Clone(), nil
}

func (r *memorySessionRepo) Save(_ context.Context, session domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	clone := session.Clone()
	r.session = &clone
	r.saves++
	return nil
}

func (r *memorySessionRepo) Stored() (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return domain.Session{}, false
	}
	return r.session.Clone(), true
}

type memoryCartRepo struct {
	mu    sync.Mutex
	cart  *domain.Cart
	saves int
}

func (r *memoryCartRepo) Load(context.Context) (domain.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cart == nil {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	return r.cart.Clone(), nil
}

func (r *memoryCartRepo) Save(_ context.Context, cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := cart.Clone()
	r.cart = &clone
	r.saves++
	return nil
}

func (r *memoryCartRepo) Stored() domain.Cart {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cart == nil {
		return domain.Cart{}
	}
	return r.cart.Clone()
}

type memorySecretStore struct {
	mu     sync.Mutex
	values map[string]string
}

func newMemorySecretStore() *memorySecretStore {
	return &memorySecretStore{values: map[string]string{}}
}

func (s *memorySecretStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", domain.ErrSecretNotFound
	}
	return value, nil
}

func (s *memorySecretStore) Put(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memorySecretStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

type statusUpdate struct {
	ID     string
	Status domain.OrderStatus
}

type fakeOrderGateway struct {
	mu           sync.Mutex
	listCalls    int
	orders       []domain.KDSOrder
	listErr      error
	listHook     func(ctx context.Context, call int) error
	updates      []statusUpdate
	updateErr    error
	drafts       []domain.OrderDraft
	tokens       []string
	createErr    error
	createResult domain.CreatedOrder
}

func (f *fakeOrderGateway) ListOrders(ctx context.Context, limit int) ([]domain.KDSOrder, error) {
	f.mu.Lock()
	f.listCalls++
	call := f.listCalls
	hook := f.listHook
	err := f.listErr
	orders := cloneOrders(f.orders)
	f.mu.Unlock()

	if hook != nil {
		if hookErr := hook(ctx, call); hookErr != nil {
			return nil, hookErr
		}
	}
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (f *fakeOrderGateway) UpdateOrderStatus(_ context.Context, id string, status domain.OrderStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, statusUpdate{ID: id, Status: status})
	if f.updateErr != nil {
		return f.updateErr
	}
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Status = status
		}
	}
	return nil
}

func (f *fakeOrderGateway) CreateOrder(_ context.Context, token string, draft domain.OrderDraft) (domain.CreatedOrder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	f.drafts = append(f.drafts, draft)
	if f.createErr != nil {
		return domain.CreatedOrder{}, f.createErr
	}
	return f.createResult, nil
}

func (f *fakeOrderGateway) ListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeOrderGateway) Updates() []statusUpdate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]statusUpdate(nil), f.updates...)
}

func (f *fakeOrderGateway) set(apply func(f *fakeOrderGateway)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apply(f)
}
