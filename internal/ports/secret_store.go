package ports

import "context"

// SecretStore holds the API tokens. Get wraps domain.ErrSecretNotFound for a missing key.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// Identity answers who the current user is. Token returns domain.ErrNotAuthenticated when
// nobody is signed in.
type Identity interface {
	Token(ctx context.Context) (string, error)
}
