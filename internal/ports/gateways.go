package ports

import (
	"context"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

type BrainGateway interface {
	Send(ctx context.Context, req domain.BrainRequest) (domain.BrainResponse, error)
}

type OrderGateway interface {
	ListOrders(ctx context.Context, limit int) ([]domain.KDSOrder, error)
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
	CreateOrder(ctx context.Context, token string, draft domain.OrderDraft) (domain.CreatedOrder, error)
}

// RestaurantResolver returns domain.ErrRestaurantNotFound when no restaurant matches.
type RestaurantResolver interface {
	ResolveByName(ctx context.Context, name string) (domain.RestaurantRef, error)
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}
