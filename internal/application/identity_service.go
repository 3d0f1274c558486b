package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

const (
	UserTokenKey  = "freeflow/user/token"
	AdminTokenKey = "freeflow/admin/token"
)

// TokenService keeps the user and admin tokens in the secret store.
type TokenService struct {
	store ports.SecretStore
}

func NewTokenService(store ports.SecretStore) *TokenService {
	return &TokenService{store: store}
}

func (s *TokenService) SetUserToken(ctx context.Context, token string) error {
	return s.put(ctx, UserTokenKey, token)
}

func (s *TokenService) SetAdminToken(ctx context.Context, token string) error {
	return s.put(ctx, AdminTokenKey, token)
}

// Token implements ports.Identity for the signed-in user.
func (s *TokenService) Token(ctx context.Context) (string, error) {
	return s.get(ctx, UserTokenKey)
}

func (s *TokenService) AdminToken(ctx context.Context) (string, error) {
	return s.get(ctx, AdminTokenKey)
}

// Logout removes both tokens. A missing token is not an error.
func (s *TokenService) Logout(ctx context.Context) error {
	var errs error
	for _, key := range []string{UserTokenKey, AdminTokenKey} {
		if err := s.store.Delete(ctx, key); err != nil && !errors.Is(err, domain.ErrSecretNotFound) {
			errs = errors.Join(errs, fmt.Errorf("delete %s: %w", key, err))
		}
	}
	return errs
}

func (s *TokenService) put(ctx context.Context, key string, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token is required")
	}
	if err := s.store.Put(ctx, key, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

func (s *TokenService) get(ctx context.Context, key string) (string, error) {
	token, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrSecretNotFound) {
			return "", domain.ErrNotAuthenticated
		}
		return "", fmt.Errorf("read token: %w", err)
	}
	if strings.TrimSpace(token) == "" {
		return "", domain.ErrNotAuthenticated
	}
	return token, nil
}
