package credentials

import (
	"context"
	"errors"
	"fmt"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

// Chain tries each store in order. Writes land in the first store that accepts them,
// reads return the first hit, and deletes clear every store so no stale copy survives.
type Chain struct {
	stores []ports.SecretStore
}

var _ ports.SecretStore = (*Chain)(nil)

func NewChain(stores ...ports.SecretStore) (*Chain, error) {
	if len(stores) == 0 {
		return nil, errors.New("credential chain needs at least one store")
	}
	for i, store := range stores {
		if store == nil {
			return nil, fmt.Errorf("credential store %d is nil", i)
		}
	}
	return &Chain{stores: stores}, nil
}

// NewDefaultChain prefers pass and falls back to the given file store.
func NewDefaultChain(fallback ports.SecretStore) (*Chain, error) {
	return NewChain(NewPassStore(), fallback)
}

func (c *Chain) Get(ctx context.Context, key string) (string, error) {
	var errs error
	for _, store := range c.stores {
		value, err := store.Get(ctx, key)
		if err == nil {
			return value, nil
		}
		if interrupted(err) {
			return "", err
		}
		errs = errors.Join(errs, err)
	}
	return "", fmt.Errorf("get %s: %w", key, errs)
}

func (c *Chain) Put(ctx context.Context, key string, value string) error {
	var errs error
	for _, store := range c.stores {
		err := store.Put(ctx, key, value)
		if err == nil {
			return nil
		}
		if interrupted(err) {
			return err
		}
		errs = errors.Join(errs, err)
	}
	return fmt.Errorf("put %s: %w", key, errs)
}

func (c *Chain) Delete(ctx context.Context, key string) error {
	var errs error
	for _, store := range c.stores {
		err := store.Delete(ctx, key)
		if err == nil || errors.Is(err, domain.ErrSecretNotFound) || errors.Is(err, ErrPassUnavailable) {
			continue
		}
		if interrupted(err) {
			return err
		}
		errs = errors.Join(errs, err)
	}
	if errs != nil {
		return fmt.Errorf("delete %s: %w", key, errs)
	}
	return nil
}

func interrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
