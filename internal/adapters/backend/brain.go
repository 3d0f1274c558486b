package backend

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

var _ ports.BrainGateway = Client{}

type brainRequest struct {
	SessionID  string         `json:"session_id"`
	Input      string         `json:"input"`
	Text       string         `json:"text"`
	IncludeTTS bool           `json:"includeTTS"`
	Meta       map[string]any `json:"meta,omitempty"`
}

type brainResponse struct {
	OK                 bool              `json:"ok"`
	Error              string            `json:"error"`
	SessionID          flexString        `json:"session_id"`
	Text               string            `json:"text"`
	Reply              string            `json:"reply"`
	Intent             string            `json:"intent"`
	TTS                json.RawMessage   `json:"tts"`
	AudioContent       string            `json:"audioContent"`
	Restaurants        []restaurantWire  `json:"restaurants"`
	MenuItems          []menuItemWire    `json:"menuItems"`
	Menu               []menuItemWire    `json:"menu"`
	BusinessStats      map[string]any    `json:"businessStats"`
	Orders             []map[string]any  `json:"orders"`
	ConversationClosed bool              `json:"conversationClosed"`
	NewSessionID       flexString        `json:"newSessionId"`
	ClosedReason       string            `json:"closedReason"`
	Context            *brainContextWire `json:"context"`
	Cart               *brainCartWire    `json:"cart"`
}

type restaurantWire struct {
	ID      flexString `json:"id"`
	Name    string     `json:"name"`
	City    string     `json:"city"`
	Address string     `json:"address"`
}

type menuItemWire struct {
	ID              flexString `json:"id"`
	RestaurantID    flexString `json:"restaurant_id"`
	RestaurantIDAlt flexString `json:"restaurantId"`
	Name            string     `json:"name"`
	Price           flexFloat  `json:"price"`
	PricePLN        flexFloat  `json:"price_pln"`
	Category        string     `json:"category"`
}

type restaurantRefWire struct {
	ID   flexString `json:"id"`
	Name string     `json:"name"`
}

type brainContextWire struct {
	CurrentRestaurant *restaurantRefWire `json:"currentRestaurant"`
}

type brainCartWire struct {
	Items      []cartItemWire     `json:"items"`
	Restaurant *restaurantRefWire `json:"restaurant"`
}

type cartItemWire struct {
	ID         flexString `json:"id"`
	MenuItemID flexString `json:"menu_item_id"`
	ItemID     flexString `json:"item_id"`
	Name       string     `json:"name"`
	Price      flexFloat  `json:"price"`
	PricePLN   flexFloat  `json:"price_pln"`
	UnitPrice  flexFloat  `json:"unit_price"`
	Quantity   flexFloat  `json:"quantity"`
	Qty        flexFloat  `json:"qty"`
}

type ttsWire struct {
	AudioContent string `json:"audioContent"`
	Audio        string `json:"audio"`
	MimeType     string `json:"mimeType"`
	Text         string `json:"text"`
}

// Send posts one utterance to the brain. An ok=false payload is returned as is; callers
// decide how to treat it.
func (c Client) Send(ctx context.Context, req domain.BrainRequest) (domain.BrainResponse, error) {
	payload := brainRequest{
		SessionID:  string(req.SessionID),
		Input:      req.Text,
		Text:       req.Text,
		IncludeTTS: req.IncludeTTS,
		Meta:       req.Meta,
	}

	var wire brainResponse
	if err := c.do(ctx, "brain request", request{
		method: http.MethodPost,
		path:   c.API.BrainPath,
		body:   payload,
	}, &wire); err != nil {
		return domain.BrainResponse{}, err
	}

	resp, ttsErr := wire.toDomain()
	if ttsErr != nil {
		c.logger().Warn("brain reply audio dropped", "error", ttsErr)
	}
	if resp.SessionID.IsZero() {
		resp.SessionID = req.SessionID
	}
	return resp, nil
}

// toDomain maps the reply. Audio is optional, so a tts decode error leaves TTS nil and is
// returned next to the otherwise complete response.
func (w brainResponse) toDomain() (domain.BrainResponse, error) {
	reply := w.Reply
	if reply == "" {
		reply = w.Text
	}

	resp := domain.BrainResponse{
		OK:            w.OK,
		Error:         w.Error,
		SessionID:     domain.SessionID(w.SessionID),
		Reply:         reply,
		Intent:        w.Intent,
		BusinessStats: w.BusinessStats,
		Orders:        w.Orders,
	}

	tts, ttsErr := decodeTTS(w.TTS, w.AudioContent)
	if ttsErr == nil {
		resp.TTS = tts
	}

	for _, restaurant := range w.Restaurants {
		resp.Restaurants = append(resp.Restaurants, domain.Restaurant{
			ID:      string(restaurant.ID),
			Name:    restaurant.Name,
			City:    restaurant.City,
			Address: restaurant.Address,
		})
	}

	items := w.MenuItems
	if len(items) == 0 {
		items = w.Menu
	}
	for _, item := range items {
		resp.MenuItems = append(resp.MenuItems, domain.MenuItem{
			ID:           string(item.ID),
			RestaurantID: firstString(item.RestaurantID, item.RestaurantIDAlt),
			Name:         item.Name,
			Price:        firstFloat(item.Price, item.PricePLN),
			Category:     item.Category,
		})
	}

	if w.Context != nil && w.Context.CurrentRestaurant != nil {
		ref := w.Context.CurrentRestaurant.toDomain()
		resp.Context.CurrentRestaurant = &ref
	}

	if w.Cart != nil {
		cart := &domain.BrainCart{}
		if w.Cart.Restaurant != nil {
			cart.Restaurant = w.Cart.Restaurant.toDomain()
		}
		for _, item := range w.Cart.Items {
			cart.Items = append(cart.Items, item.toDomain())
		}
		resp.Cart = cart
	}

	if w.ConversationClosed {
		resp.Lifecycle = &domain.SessionLifecycle{
			Closed:       true,
			NewSessionID: domain.SessionID(w.NewSessionID),
			Reason:       w.ClosedReason,
		}
	}

	return resp, ttsErr
}

func (w restaurantRefWire) toDomain() domain.RestaurantRef {
	return domain.RestaurantRef{ID: string(w.ID), Name: w.Name}
}

func (w cartItemWire) toDomain() domain.BackendCartItem {
	return domain.BackendCartItem{
		ID:       firstString(w.ID, w.MenuItemID, w.ItemID),
		Name:     w.Name,
		Price:    firstFloat(w.Price, w.PricePLN, w.UnitPrice),
		Quantity: firstInt(1, w.Quantity, w.Qty),
	}
}

// decodeTTS accepts either a tts object or a bare base64 string, plus the top-level
// audioContent some brain versions send.
func decodeTTS(raw json.RawMessage, topLevel string) (*domain.TTSPayload, error) {
	var wire ttsWire
	raw = bytes.TrimSpace(raw)
	switch {
	case len(raw) == 0 || bytes.Equal(raw, []byte("null")):
	case raw[0] == '"':
		if err := json.Unmarshal(raw, &wire.AudioContent); err != nil {
			return nil, fmt.Errorf("decode tts payload: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &wire); err != nil {
			return nil, fmt.Errorf("decode tts payload: %w", err)
		}
	}

	encoded := firstString(flexString(wire.AudioContent), flexString(wire.Audio), flexString(topLevel))
	if encoded == "" {
		return nil, nil
	}

	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode tts audio: %w", err)
	}

	mimeType := wire.MimeType
	if mimeType == "" {
		mimeType = "audio/mpeg"
	}
	return &domain.TTSPayload{Audio: audio, MimeType: mimeType, Text: wire.Text}, nil
}
