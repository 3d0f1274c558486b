package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
	"github.com/ndoemo02/Freeflow-Final/internal/ports"
)

const adminTokenHeader = "x-admin-token"

var _ ports.OrderGateway = Client{}

type adminOrderWire struct {
	ID              flexString      `json:"id"`
	OrderNumber     flexString      `json:"order_number"`
	Channel         string          `json:"channel"`
	Status          string          `json:"status"`
	Items           json.RawMessage `json:"items"`
	TotalPrice      flexFloat       `json:"total_price"`
	Total           flexFloat       `json:"total"`
	Amount          flexFloat       `json:"amount"`
	Location        flexString      `json:"location"`
	TableNumber     flexString      `json:"table_number"`
	DeliveryAddress flexString      `json:"delivery_address"`
	Priority        flexFloat       `json:"priority"`
	CreatedAt       string          `json:"created_at"`
	Notes           string          `json:"notes"`
	Comment         string          `json:"comment"`
}

type adminItemWire struct {
	Name     string     `json:"name"`
	ItemName string     `json:"item_name"`
	Quantity flexFloat  `json:"quantity"`
	Qty      flexFloat  `json:"qty"`
	Station  flexString `json:"station"`
	Done     bool       `json:"done"`
	PrepTime flexFloat  `json:"prep_time"`
}

type ordersEnvelope struct {
	OK     *bool            `json:"ok"`
	Error  string           `json:"error"`
	Orders []adminOrderWire `json:"orders"`
}

type statusUpdateBody struct {
	Status domain.OrderStatus `json:"status"`
}

type createOrderBody struct {
	RestaurantID string            `json:"restaurant_id"`
	Items        []createOrderItem `json:"items"`
	TotalCents   int64             `json:"total_cents"`
	Delivery     *deliveryWire     `json:"delivery,omitempty"`
}

type createOrderItem struct {
	MenuItemID     string `json:"menu_item_id"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

type deliveryWire struct {
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type createdOrderWire struct {
	ID         flexString `json:"id"`
	Status     string     `json:"status"`
	TotalPrice flexFloat  `json:"total_price"`
	Total      flexFloat  `json:"total"`
}

type createOrderResponse struct {
	OK    *bool             `json:"ok"`
	Error string            `json:"error"`
	Order *createdOrderWire `json:"order"`
	createdOrderWire
}

// ListOrders fetches the admin order feed and maps it into kitchen display orders.
func (c Client) ListOrders(ctx context.Context, limit int) ([]domain.KDSOrder, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	var raw json.RawMessage
	if err := c.do(ctx, "list orders", request{
		method:  http.MethodGet,
		path:    c.API.AdminOrdersPath,
		query:   query,
		headers: map[string]string{adminTokenHeader: c.AdminToken},
	}, &raw); err != nil {
		return nil, err
	}

	records, err := decodeOrderFeed(raw)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.KDSOrder, 0, len(records))
	for _, record := range records {
		order, err := record.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, nil
}

// UpdateOrderStatus asks the backend to move an order. The backend owns the transition
// rules; a rejected transition comes back as a *domain.BackendError.
func (c Client) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("update order status: %w", domain.ErrOrderNotFound)
	}

	var payload errorPayload
	if err := c.do(ctx, "update order status", request{
		method:  http.MethodPatch,
		path:    joinPath(c.API.OrdersPath, id),
		headers: map[string]string{adminTokenHeader: c.AdminToken},
		body:    statusUpdateBody{Status: status},
	}, &payload); err != nil {
		return err
	}
	if payload.OK != nil && !*payload.OK {
		return &domain.BackendError{Message: payload.text()}
	}
	return nil
}

// CreateOrder submits a cart draft on behalf of the signed-in user.
func (c Client) CreateOrder(ctx context.Context, token string, draft domain.OrderDraft) (domain.CreatedOrder, error) {
	body := createOrderBody{
		RestaurantID: draft.RestaurantID,
		Items:        make([]createOrderItem, 0, len(draft.Lines)),
		TotalCents:   draft.Total,
	}
	for _, line := range draft.Lines {
		body.Items = append(body.Items, createOrderItem{
			MenuItemID:     line.MenuItemID,
			Name:           line.Name,
			Quantity:       line.Quantity,
			UnitPriceCents: line.UnitPrice,
		})
	}
	if draft.Delivery != (domain.DeliveryInfo{}) {
		body.Delivery = &deliveryWire{
			Name:    draft.Delivery.Name,
			Phone:   draft.Delivery.Phone,
			Address: draft.Delivery.Address,
			Notes:   draft.Delivery.Notes,
		}
	}

	var resp createOrderResponse
	if err := c.do(ctx, "create order", request{
		method:  http.MethodPost,
		path:    c.API.OrdersPath,
		headers: map[string]string{"Authorization": bearer(token)},
		body:    body,
	}, &resp); err != nil {
		return domain.CreatedOrder{}, err
	}
	if resp.OK != nil && !*resp.OK {
		return domain.CreatedOrder{}, &domain.BackendError{Message: resp.Error}
	}

	created := resp.createdOrderWire
	if resp.Order != nil {
		created = *resp.Order
	}
	order := domain.CreatedOrder{
		ID:     string(created.ID),
		Status: domain.OrderStatus(strings.ToLower(created.Status)),
		Total:  firstFloat(created.TotalPrice, created.Total),
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	if order.Total == 0 {
		order.Total = float64(draft.Total) / 100
	}
	return order, nil
}

func bearer(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return "Bearer " + token
}

func decodeOrderFeed(raw json.RawMessage) ([]adminOrderWire, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var records []adminOrderWire
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("decode order feed: %w", err)
		}
		return records, nil
	}

	var envelope ordersEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode order feed: %w", err)
	}
	if envelope.OK != nil && !*envelope.OK {
		return nil, &domain.BackendError{Message: envelope.Error}
	}
	return envelope.Orders, nil
}

func (w adminOrderWire) toDomain() (domain.KDSOrder, error) {
	items, err := decodeOrderItems(w.Items)
	if err != nil {
		return domain.KDSOrder{}, fmt.Errorf("order %s: %w", w.ID, err)
	}

	order := domain.KDSOrder{
		ID:          string(w.ID),
		OrderNumber: firstString(w.OrderNumber),
		Channel:     strings.TrimSpace(w.Channel),
		Status:      domain.OrderStatus(strings.ToLower(strings.TrimSpace(w.Status))),
		Items:       items,
		Total:       firstFloat(w.TotalPrice, w.Total, w.Amount),
		Location:    firstString(w.Location, w.TableNumber, w.DeliveryAddress),
		Priority:    firstInt(0, w.Priority),
		CreatedAt:   parseTimestamp(w.CreatedAt),
		Notes:       w.Notes,
	}
	if order.Notes == "" {
		order.Notes = w.Comment
	}
	if order.OrderNumber == "" {
		order.OrderNumber = shortOrderNumber(order.ID)
	}
	if order.Channel == "" {
		order.Channel = domain.DefaultChannel
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusPending
	}
	return order, nil
}

// decodeOrderItems accepts an items array or the same array serialized into a string.
func decodeOrderItems(raw json.RawMessage) ([]domain.KDSItem, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return nil, fmt.Errorf("decode items: %w", err)
		}
		raw = []byte(strings.TrimSpace(encoded))
		if len(raw) == 0 {
			return nil, nil
		}
	}

	var wire []adminItemWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	items := make([]domain.KDSItem, 0, len(wire))
	for _, item := range wire {
		name := item.Name
		if name == "" {
			name = item.ItemName
		}
		station := firstString(item.Station)
		if station == "" {
			station = domain.DefaultStation
		}
		items = append(items, domain.KDSItem{
			Name:     name,
			Quantity: firstInt(1, item.Quantity, item.Qty),
			Station:  station,
			Done:     item.Done,
			PrepTime: time.Duration(firstFloat(item.PrepTime) * float64(time.Minute)),
		})
	}
	return items, nil
}

func shortOrderNumber(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 6 {
		id = id[:6]
	}
	return strings.ToUpper(id)
}
