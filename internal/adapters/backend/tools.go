package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

// StockLevel is one row of the tools stock feed.
type StockLevel struct {
	ItemID    string
	Name      string
	Available bool
	Quantity  int
}

type AgentReply struct {
	SessionID string
	Reply     string
	Intent    string
	Actions   []map[string]any
}

type toolListEnvelope struct {
	OK        *bool           `json:"ok"`
	Error     string          `json:"error"`
	Menu      json.RawMessage `json:"menu"`
	Items     json.RawMessage `json:"items"`
	MenuItems json.RawMessage `json:"menuItems"`
	Stock     json.RawMessage `json:"stock"`
}

type stockWire struct {
	ID         flexString `json:"id"`
	MenuItemID flexString `json:"menu_item_id"`
	Name       string     `json:"name"`
	Available  *bool      `json:"available"`
	InStock    *bool      `json:"in_stock"`
	Quantity   flexFloat  `json:"quantity"`
	Stock      flexFloat  `json:"stock"`
}

type agentRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
	Text      string `json:"text"`
}

type agentResponse struct {
	OK        *bool            `json:"ok"`
	Error     string           `json:"error"`
	SessionID flexString       `json:"session_id"`
	Reply     string           `json:"reply"`
	Text      string           `json:"text"`
	Intent    string           `json:"intent"`
	Actions   []map[string]any `json:"actions"`
}

// ToolMenu lists the menu of a restaurant through the direct-agent tools endpoint.
func (c Client) ToolMenu(ctx context.Context, restaurantID string) ([]domain.MenuItem, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "tools menu", request{
		method: http.MethodGet,
		path:   joinPath(c.API.ToolsPath, "menu"),
		query:  restaurantQuery(restaurantID),
	}, &raw); err != nil {
		return nil, err
	}

	list, err := unwrapToolList(raw, func(e toolListEnvelope) json.RawMessage {
		return firstRaw(e.MenuItems, e.Menu, e.Items)
	})
	if err != nil {
		return nil, fmt.Errorf("tools menu: %w", err)
	}

	var wire []menuItemWire
	if err := decodeList(list, &wire); err != nil {
		return nil, fmt.Errorf("decode tools menu: %w", err)
	}
	items := make([]domain.MenuItem, 0, len(wire))
	for _, item := range wire {
		mapped := domain.MenuItem{
			ID:           string(item.ID),
			RestaurantID: firstString(item.RestaurantID, item.RestaurantIDAlt),
			Name:         item.Name,
			Price:        firstFloat(item.Price, item.PricePLN),
			Category:     item.Category,
		}
		if mapped.RestaurantID == "" {
			mapped.RestaurantID = restaurantID
		}
		items = append(items, mapped)
	}
	return items, nil
}

func (c Client) ToolStock(ctx context.Context, restaurantID string) ([]StockLevel, error) {
	var raw json.RawMessage
	if err := c.do(ctx, "tools stock", request{
		method: http.MethodGet,
		path:   joinPath(c.API.ToolsPath, "stock"),
		query:  restaurantQuery(restaurantID),
	}, &raw); err != nil {
		return nil, err
	}

	list, err := unwrapToolList(raw, func(e toolListEnvelope) json.RawMessage {
		return firstRaw(e.Stock, e.Items)
	})
	if err != nil {
		return nil, fmt.Errorf("tools stock: %w", err)
	}

	var wire []stockWire
	if err := decodeList(list, &wire); err != nil {
		return nil, fmt.Errorf("decode tools stock: %w", err)
	}
	levels := make([]StockLevel, 0, len(wire))
	for _, row := range wire {
		level := StockLevel{
			ItemID:   firstString(row.MenuItemID, row.ID),
			Name:     row.Name,
			Quantity: firstInt(0, row.Quantity, row.Stock),
		}
		switch {
		case row.Available != nil:
			level.Available = *row.Available
		case row.InStock != nil:
			level.Available = *row.InStock
		default:
			level.Available = level.Quantity > 0
		}
		levels = append(levels, level)
	}
	return levels, nil
}

// ToolOrder places an order through the tools endpoint. It takes the same draft as
// CreateOrder.
func (c Client) ToolOrder(ctx context.Context, token string, draft domain.OrderDraft) (domain.CreatedOrder, error) {
	tools := c
	tools.API.OrdersPath = joinPath(c.API.ToolsPath, "order")
	order, err := tools.CreateOrder(ctx, token, draft)
	if err != nil {
		return domain.CreatedOrder{}, fmt.Errorf("tools order: %w", err)
	}
	return order, nil
}

// Agent sends one message to the direct agent, bypassing the brain state machine.
func (c Client) Agent(ctx context.Context, sessionID domain.SessionID, message string) (AgentReply, error) {
	var resp agentResponse
	if err := c.do(ctx, "agent request", request{
		method: http.MethodPost,
		path:   c.API.AgentPath,
		body: agentRequest{
			SessionID: string(sessionID),
			Message:   message,
			Text:      message,
		},
	}, &resp); err != nil {
		return AgentReply{}, err
	}
	if resp.OK != nil && !*resp.OK {
		return AgentReply{}, &domain.BackendError{Message: resp.Error}
	}

	reply := resp.Reply
	if reply == "" {
		reply = resp.Text
	}
	out := AgentReply{
		SessionID: string(resp.SessionID),
		Reply:     reply,
		Intent:    resp.Intent,
		Actions:   resp.Actions,
	}
	if out.SessionID == "" {
		out.SessionID = string(sessionID)
	}
	return out, nil
}

func restaurantQuery(restaurantID string) url.Values {
	query := url.Values{}
	if id := strings.TrimSpace(restaurantID); id != "" {
		query.Set("restaurant_id", id)
	}
	return query
}

func unwrapToolList(raw json.RawMessage, pick func(toolListEnvelope) json.RawMessage) (json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '[' {
		return raw, nil
	}

	var envelope toolListEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	if envelope.OK != nil && !*envelope.OK {
		return nil, &domain.BackendError{Message: envelope.Error}
	}
	return pick(envelope), nil
}

func firstRaw(values ...json.RawMessage) json.RawMessage {
	for _, value := range values {
		trimmed := bytes.TrimSpace(value)
		if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			return trimmed
		}
	}
	return nil
}

func decodeList(raw json.RawMessage, out any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}
