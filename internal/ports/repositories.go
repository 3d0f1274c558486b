package ports

import (
	"context"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

// SessionRepository returns domain.ErrSessionNotFound when nothing is persisted yet.
type SessionRepository interface {
	Load(ctx context.Context) (domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
}

// CartRepository returns domain.ErrCartNotFound when nothing is persisted yet.
type CartRepository interface {
	Load(ctx context.Context) (domain.Cart, error)
	Save(ctx context.Context, cart domain.Cart) error
}
