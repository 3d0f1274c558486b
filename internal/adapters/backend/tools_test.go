package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

func TestToolMenu(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "envelope", body: `{"ok":true,"menu":[{"id":"m-1","name":"Pierogi","price":"24.50"}]}`},
		{name: "menu items key", body: `{"menuItems":[{"id":"m-1","name":"Pierogi","price":24.5}]}`},
		{name: "bare array", body: `[{"id":"m-1","name":"Pierogi","price_pln":24.5}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/ai/tools/menu", r.URL.Path)
				assert.Equal(t, "r-1", r.URL.Query().Get("restaurant_id"))
				writeJSON(w, http.StatusOK, tt.body)
			})

			items, err := client.ToolMenu(context.Background(), "r-1")
			require.NoError(t, err)
			assert.Equal(t, []domain.MenuItem{{ID: "m-1", RestaurantID: "r-1", Name: "Pierogi", Price: 24.5}}, items)
		})
	}
}

func TestToolMenuReportsBackendRejection(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":false,"error":"unknown restaurant"}`)
	})

	_, err := client.ToolMenu(context.Background(), "r-404")
	var backendErr *domain.BackendError
	require.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "unknown restaurant", backendErr.Message)
}

func TestToolStock(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/ai/tools/stock", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(w, http.StatusOK, `{"stock":[
			{"menu_item_id":"m-1","name":"Pierogi","available":false,"quantity":3},
			{"id":"m-2","name":"Żurek","in_stock":true},
			{"id":"m-3","name":"Bigos","stock":"0"}
		]}`)
	})

	levels, err := client.ToolStock(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []StockLevel{
		{ItemID: "m-1", Name: "Pierogi", Available: false, Quantity: 3},
		{ItemID: "m-2", Name: "Żurek", Available: true},
		{ItemID: "m-3", Name: "Bigos", Available: false},
	}, levels)
}

func TestToolOrderUsesToolsEndpoint(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/ai/tools/order", r.URL.Path)
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"id":"o-5","status":"pending","total":30}`)
	})

	order, err := client.ToolOrder(context.Background(), "user-token", domain.OrderDraft{RestaurantID: "r-1", Total: 3000})
	require.NoError(t, err)
	assert.Equal(t, domain.CreatedOrder{ID: "o-5", Status: domain.OrderStatusPending, Total: 30}, order)
	assert.Equal(t, DefaultOrdersPath, client.API.OrdersPath)
}

func TestAgent(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, DefaultAgentPath, r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"session_id": "sess-1", "message": "co polecasz?", "text": "co polecasz?"}, body)

		writeJSON(w, http.StatusOK, `{"ok":true,"text":"Polecam pierogi.","intent":"recommend","actions":[{"type":"show_menu"}]}`)
	})

	reply, err := client.Agent(context.Background(), "sess-1", "co polecasz?")
	require.NoError(t, err)
	assert.Equal(t, AgentReply{
		SessionID: "sess-1",
		Reply:     "Polecam pierogi.",
		Intent:    "recommend",
		Actions:   []map[string]any{{"type": "show_menu"}},
	}, reply)
}

func TestAgentReportsBackendRejection(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":false,"error":"agent disabled"}`)
	})

	_, err := client.Agent(context.Background(), "", "hej")
	var backendErr *domain.BackendError
	require.ErrorAs(t, err, &backendErr)
}
