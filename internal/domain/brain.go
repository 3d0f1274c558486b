package domain

type BrainRequest struct {
	SessionID  SessionID
	Text       string
	IncludeTTS bool
	Meta       map[string]any
}

type BrainResponse struct {
	OK            bool
	Error         string
	SessionID     SessionID
	Reply         string
	Intent        string
	TTS           *TTSPayload
	Restaurants   []Restaurant
	MenuItems     []MenuItem
	BusinessStats map[string]any
	Orders        []map[string]any
	Context       BrainContext
	Cart          *BrainCart
	Lifecycle     *SessionLifecycle
}

type TTSPayload struct {
	Audio    []byte
	MimeType string
	Text     string
}

type Restaurant struct {
	ID      string
	Name    string
	City    string
	Address string
}

type MenuItem struct {
	ID           string
	RestaurantID string
	Name         string
	Price        float64
	Category     string
}

type BrainContext struct {
	CurrentRestaurant *RestaurantRef
}

// BrainCart is the cart state the brain confirmed during the exchange.
type BrainCart struct {
	Items      []BackendCartItem
	Restaurant RestaurantRef
}

type SessionLifecycle struct {
	Closed       bool
	NewSessionID SessionID
	Reason       string
}

func (r BrainResponse) ConversationClosed() bool {
	return r.Lifecycle != nil && r.Lifecycle.Closed
}
