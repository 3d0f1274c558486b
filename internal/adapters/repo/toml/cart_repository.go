package toml

import (
	"context"
	"sync"
	"time"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
	"github.com/spf13/viper"
)

type CartRepository struct {
	path  string
	mu    *sync.RWMutex
	clock ports.Clock
}

var _ ports.CartRepository = (*CartRepository)(nil)

func NewCartRepository(cfg *viper.Viper) (*CartRepository, error) {
	path, err := resolveStatePath(cfg, CartPathKey, cartFile)
	if err != nil {
		return nil, err
	}
	return &CartRepository{path: path, mu: lockForPath(path), clock: ports.SystemClock{}}, nil
}

func (r *CartRepository) Load(ctx context.Context) (domain.Cart, error) {
	if err := ctx.Err(); err != nil {
		return domain.Cart{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var file cartFileSchema
	found, err := readTOML(r.path, "cart", &file)
	if err != nil {
		return domain.Cart{}, err
	}
	if !found {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err := file.validateVersion(); err != nil {
		return domain.Cart{}, err
	}

	cart := domain.Cart{}
	for _, entry := range file.Entries {
		cart.Entries = append(cart.Entries, domain.CartEntry{
			ID:       entry.ID,
			Name:     entry.Name,
			Price:    entry.Price,
			Quantity: entry.Quantity,
		})
	}
	if file.Restaurant != nil && len(cart.Entries) > 0 {
		cart.Restaurant = &domain.RestaurantRef{ID: file.Restaurant.ID, Name: file.Restaurant.Name}
	}
	return cart, nil
}

func (r *CartRepository) Save(ctx context.Context, cart domain.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file := cartFileSchema{UpdatedAt: r.clock.Now().Format(time.RFC3339)}
	if cart.Restaurant != nil {
		file.Restaurant = &restaurantSchema{ID: cart.Restaurant.ID, Name: cart.Restaurant.Name}
	}
	for _, entry := range cart.Entries {
		file.Entries = append(file.Entries, cartEntrySchema{
			ID:       entry.ID,
			Name:     entry.Name,
			Price:    entry.Price,
			Quantity: entry.Quantity,
		})
	}
	file.applyDefaults()

	return writeTOML(r.path, "cart", file)
}
