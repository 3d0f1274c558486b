package toml

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
	"github.com/spf13/viper"
)

// CredentialStore keeps API tokens in credentials.toml next to the other state files.
// It is the fallback when pass is not installed.
type CredentialStore struct {
	path  string
	mu    *sync.RWMutex
	clock ports.Clock
}

var _ ports.SecretStore = (*CredentialStore)(nil)

func NewCredentialStore(cfg *viper.Viper) (*CredentialStore, error) {
	path, err := resolveStatePath(cfg, CredentialsKey, credentialsFile)
	if err != nil {
		return nil, err
	}
	return &CredentialStore{path: path, mu: lockForPath(path), clock: ports.SystemClock{}}, nil
}

func (s *CredentialStore) Path() string {
	return s.path
}

func (s *CredentialStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key, err := credentialKey(key)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := s.read()
	if err != nil {
		return "", err
	}
	value, ok := file.Tokens[key]
	if !ok {
		return "", fmt.Errorf("credential %q: %w", key, domain.ErrSecretNotFound)
	}
	return value, nil
}

func (s *CredentialStore) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := credentialKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}
	file.Tokens[key] = value
	return s.write(file)
}

func (s *CredentialStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := credentialKey(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := file.Tokens[key]; !ok {
		return nil
	}
	delete(file.Tokens, key)
	return s.write(file)
}

func (s *CredentialStore) read() (credentialsFileSchema, error) {
	var file credentialsFileSchema
	if _, err := readTOML(s.path, "credentials", &file); err != nil {
		return credentialsFileSchema{}, err
	}
	if err := file.validateVersion(); err != nil {
		return credentialsFileSchema{}, err
	}
	file.applyDefaults()
	return file, nil
}

func (s *CredentialStore) write(file credentialsFileSchema) error {
	file.UpdatedAt = s.clock.Now().Format(time.RFC3339)
	return writeTOML(s.path, "credentials", file)
}

func credentialKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", errors.New("credential key is empty")
	}
	return trimmed, nil
}
