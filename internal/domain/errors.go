package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrCartNotFound         = errors.New("cart not found")
	ErrSecretNotFound       = errors.New("secret not found")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrCartEmpty            = errors.New("cart is empty")
	ErrNoRestaurant         = errors.New("no restaurant selected")
	ErrRestaurantNotFound   = errors.New("restaurant not found")
	ErrRestaurantUnresolved = errors.New("restaurant could not be resolved")
	ErrOrderNotFound        = errors.New("order not found")
	ErrItemTrackingDisabled = errors.New("item-level tracking is not persisted by the orders backend")
	ErrSpeechInterrupted    = errors.New("speech interrupted")
	ErrEngineUnavailable    = errors.New("speech engine unavailable")
)

// BackendError is a business error reported by the backend with ok=false.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	if e.Message == "" {
		return "backend rejected the request"
	}
	return fmt.Sprintf("backend rejected the request: %s", e.Message)
}
