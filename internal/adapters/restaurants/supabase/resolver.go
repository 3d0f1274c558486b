// Package supabase resolves restaurant names to ids against the Supabase restaurants table.
package supabase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/supabase-community/supabase-go"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

const defaultCacheTTL = 5 * time.Minute

type Config struct {
	URL      string
	APIKey   string
	CacheTTL time.Duration
}

type Resolver struct {
	client   *supabase.Client
	cacheTTL time.Duration
	clock    ports.Clock

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	ref       domain.RestaurantRef
	expiresAt time.Time
}

type restaurantRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var _ ports.RestaurantResolver = (*Resolver)(nil)

func New(cfg Config) (*Resolver, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase url is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("supabase api key is required")
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	client, err := supabase.NewClient(strings.TrimRight(cfg.URL, "/"), cfg.APIKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create supabase client: %w", err)
	}

	return &Resolver{
		client:   client,
		cacheTTL: cfg.CacheTTL,
		clock:    ports.SystemClock{},
		cache:    make(map[string]cacheEntry),
	}, nil
}

// ResolveByName matches the restaurant name case-insensitively. Hits are cached.
func (r *Resolver) ResolveByName(ctx context.Context, name string) (domain.RestaurantRef, error) {
	if err := ctx.Err(); err != nil {
		return domain.RestaurantRef{}, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return domain.RestaurantRef{}, domain.ErrRestaurantNotFound
	}
	key := strings.ToLower(name)
	if ref, ok := r.cached(key); ok {
		return ref, nil
	}

	var rows []restaurantRow
	_, err := r.client.From("restaurants").
		Select("id,name", "", false).
		Ilike("name", escapeLike(name)).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return domain.RestaurantRef{}, fmt.Errorf("query restaurants: %w", err)
	}
	if len(rows) == 0 || rows[0].ID == "" {
		return domain.RestaurantRef{}, fmt.Errorf("%q: %w", name, domain.ErrRestaurantNotFound)
	}

	ref := domain.RestaurantRef{ID: rows[0].ID, Name: rows[0].Name}
	r.store(key, ref)
	return ref, nil
}

func (r *Resolver) cached(key string) (domain.RestaurantRef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.cache[key]
	if !ok || !r.clock.Now().Before(entry.expiresAt) {
		return domain.RestaurantRef{}, false
	}
	return entry.ref, true
}

func (r *Resolver) store(key string, ref domain.RestaurantRef) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache[key] = cacheEntry{ref: ref, expiresAt: r.clock.Now().Add(r.cacheTTL)}
}

// escapeLike keeps user input from acting as ILIKE wildcards.
func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
