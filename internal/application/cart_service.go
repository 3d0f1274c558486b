package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

type CartDeps struct {
	Repo        ports.CartRepository
	Orders      ports.OrderGateway
	Restaurants ports.RestaurantResolver
	Identity    ports.Identity
	Confirmer   ports.Confirmer
	Logger      *slog.Logger
}

// CartService owns the pending order. Every mutation is written through to the repository.
type CartService struct {
	repo        ports.CartRepository
	orders      ports.OrderGateway
	restaurants ports.RestaurantResolver
	identity    ports.Identity
	confirmer   ports.Confirmer
	logger      *slog.Logger

	mu   sync.Mutex
	cart domain.Cart
	open bool
}

func NewCartService(ctx context.Context, deps CartDeps) *CartService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &CartService{
		repo:        deps.Repo,
		orders:      deps.Orders,
		restaurants: deps.Restaurants,
		identity:    deps.Identity,
		confirmer:   deps.Confirmer,
		logger:      logger,
	}

	cart, err := deps.Repo.Load(ctx)
	switch {
	case err == nil:
		s.cart = cart
	case errors.Is(err, domain.ErrCartNotFound):
	default:
		logger.Warn("load cart failed, starting empty", "error", err)
	}

	return s
}

func (s *CartService) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *CartService) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Total()
}

func (s *CartService) Open() {
	s.mu.Lock()
	s.open = true
	s.mu.Unlock()
}

func (s *CartService) Close() {
	s.mu.Lock()
	s.open = false
	s.mu.Unlock()
}

func (s *CartService) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// AddToCart reports false without changes when the user declines switching restaurants.
func (s *CartService) AddToCart(ctx context.Context, item domain.CartEntry, restaurant domain.RestaurantRef) (bool, error) {
	if strings.TrimSpace(item.ID) == "" {
		return false, errors.New("cart item id is required")
	}

	if s.needsSwitch(restaurant) {
		current := s.Cart()
		prompt := fmt.Sprintf("Koszyk zawiera pozycje z %s. Wyczyścić go i zamawiać z %s?",
			restaurantLabel(current.Restaurant), restaurantLabel(&restaurant))
		if s.confirmer == nil || !s.confirmer.Confirm(ctx, prompt) {
			s.logger.Info("restaurant switch declined", "restaurant", restaurantLabel(&restaurant))
			return false, nil
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cart.Restaurant != nil && !s.cart.Restaurant.SameAs(restaurant) {
		s.cart.Clear()
	}
	if s.cart.IsEmpty() || s.cart.Restaurant == nil {
		ref := restaurant
		s.cart.Restaurant = &ref
	}
	s.cart.Add(item)

	return true, s.persistLocked(ctx)
}

func (s *CartService) needsSwitch(restaurant domain.RestaurantRef) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.cart.IsEmpty() && s.cart.Restaurant != nil && !s.cart.Restaurant.SameAs(restaurant)
}

func (s *CartService) RemoveFromCart(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cart.Remove(id) {
		return nil
	}
	return s.persistLocked(ctx)
}

// UpdateQuantity removes the entry when quantity is zero or negative.
func (s *CartService) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cart.SetQuantity(id, quantity) {
		return nil
	}
	return s.persistLocked(ctx)
}

func (s *CartService) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cart.Clear()
	return s.persistLocked(ctx)
}

// SyncCart replaces the entries with the backend-confirmed items. A restaurant matching the
// current one by name keeps the known id, and a missing restaurant keeps the current one.
func (s *CartService) SyncCart(ctx context.Context, items []domain.BackendCartItem, restaurant domain.RestaurantRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := domain.Cart{}
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			id = strings.TrimSpace(item.Name)
		}
		if id == "" {
			continue
		}
		next.Add(domain.CartEntry{ID: id, Name: item.Name, Price: item.Price, Quantity: item.Quantity})
	}

	switch {
	case next.IsEmpty():
	case restaurant.IsZero():
		// The backend omitted the restaurant; keep the current binding, if any.
		if current := s.cart.Restaurant; current != nil && !current.IsZero() {
			ref := *current
			next.Restaurant = &ref
		}
	default:
		ref := restaurant
		if current := s.cart.Restaurant; current != nil && current.ID != "" && namesMatch(*current, restaurant) && !isRestaurantID(restaurant.ID) {
			ref.ID = current.ID
		}
		if ref.Name == "" && s.cart.Restaurant != nil && s.cart.Restaurant.ID == ref.ID {
			ref.Name = s.cart.Restaurant.Name
		}
		next.Restaurant = &ref
	}

	s.cart = next
	return s.persistLocked(ctx)
}

// SubmitOrder sends the cart once. The cart is cleared and closed only after the backend
// accepted the order.
func (s *CartService) SubmitOrder(ctx context.Context, delivery domain.DeliveryInfo) (domain.CreatedOrder, error) {
	token, err := s.identity.Token(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) || errors.Is(err, domain.ErrSecretNotFound) {
			return domain.CreatedOrder{}, domain.ErrNotAuthenticated
		}
		return domain.CreatedOrder{}, fmt.Errorf("read user token: %w", err)
	}

	cart := s.Cart()
	if cart.IsEmpty() {
		return domain.CreatedOrder{}, domain.ErrCartEmpty
	}
	if cart.Restaurant == nil || cart.Restaurant.IsZero() {
		return domain.CreatedOrder{}, domain.ErrNoRestaurant
	}

	restaurantID, err := s.resolveRestaurantID(ctx, *cart.Restaurant)
	if err != nil {
		return domain.CreatedOrder{}, err
	}

	draft := domain.NewOrderDraft(restaurantID, cart, delivery)
	created, err := s.orders.CreateOrder(ctx, token, draft)
	if err != nil {
		s.logger.Warn("order submission failed, cart kept", "restaurant_id", restaurantID, "error", err)
		return domain.CreatedOrder{}, fmt.Errorf("create order: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	s.open = false
	if err := s.persistLocked(ctx); err != nil {
		s.logger.Warn("persist cleared cart failed", "order_id", created.ID, "error", err)
	}

	return created, nil
}

func (s *CartService) resolveRestaurantID(ctx context.Context, ref domain.RestaurantRef) (string, error) {
	if isRestaurantID(ref.ID) {
		return ref.ID, nil
	}
	if strings.TrimSpace(ref.Name) == "" || s.restaurants == nil {
		return "", domain.ErrRestaurantUnresolved
	}

	resolved, err := s.restaurants.ResolveByName(ctx, ref.Name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrRestaurantUnresolved, err)
	}
	if !isRestaurantID(resolved.ID) {
		return "", domain.ErrRestaurantUnresolved
	}
	return resolved.ID, nil
}

func (s *CartService) persistLocked(ctx context.Context) error {
	if err := s.repo.Save(ctx, s.cart.Clone()); err != nil {
		s.logger.Warn("persist cart failed", "error", err)
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func isRestaurantID(id string) bool {
	_, err := uuid.Parse(strings.TrimSpace(id))
	return err == nil
}

func namesMatch(a, b domain.RestaurantRef) bool {
	return a.Name != "" && b.Name != "" && strings.EqualFold(strings.TrimSpace(a.Name), strings.TrimSpace(b.Name))
}

func restaurantLabel(ref *domain.RestaurantRef) string {
	if ref == nil {
		return "innej restauracji"
	}
	if ref.Name != "" {
		return ref.Name
	}
	return ref.ID
}
