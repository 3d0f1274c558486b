package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndoemo02/Freeflow-Final/internal/domain"
)

func TestSendPostsBrainRequest(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, DefaultBrainPath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "sess-1", body["session_id"])
		assert.Equal(t, "pokaż menu", body["input"])
		assert.Equal(t, "pokaż menu", body["text"])
		assert.Equal(t, true, body["includeTTS"])
		assert.Equal(t, map[string]any{"channel": "cli"}, body["meta"])

		writeJSON(w, http.StatusOK, `{
			"ok": true,
			"session_id": "sess-1",
			"reply": "Oto menu.",
			"intent": "menu_request",
			"tts": {"audioContent": "aGVsbG8=", "mimeType": "audio/wav"},
			"menuItems": [
				{"id": 7, "restaurantId": "r-1", "name": "Pierogi", "price_pln": "24,50", "category": "main"}
			],
			"context": {"currentRestaurant": {"id": "r-1", "name": "Stara Kamienica"}},
			"cart": {
				"items": [{"menu_item_id": "m-9", "name": "Żurek", "unit_price": 18, "qty": 2}],
				"restaurant": {"id": "r-1", "name": "Stara Kamienica"}
			}
		}`)
	})

	resp, err := client.Send(context.Background(), domain.BrainRequest{
		SessionID:  "sess-1",
		Text:       "pokaż menu",
		IncludeTTS: true,
		Meta:       map[string]any{"channel": "cli"},
	})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, domain.SessionID("sess-1"), resp.SessionID)
	assert.Equal(t, "Oto menu.", resp.Reply)
	assert.Equal(t, "menu_request", resp.Intent)
	require.NotNil(t, resp.TTS)
	assert.Equal(t, []byte("hello"), resp.TTS.Audio)
	assert.Equal(t, "audio/wav", resp.TTS.MimeType)
	assert.Equal(t, []domain.MenuItem{{ID: "7", RestaurantID: "r-1", Name: "Pierogi", Price: 24.5, Category: "main"}}, resp.MenuItems)
	require.NotNil(t, resp.Context.CurrentRestaurant)
	assert.Equal(t, "Stara Kamienica", resp.Context.CurrentRestaurant.Name)
	require.NotNil(t, resp.Cart)
	assert.Equal(t, []domain.BackendCartItem{{ID: "m-9", Name: "Żurek", Price: 18, Quantity: 2}}, resp.Cart.Items)
	assert.Equal(t, domain.RestaurantRef{ID: "r-1", Name: "Stara Kamienica"}, resp.Cart.Restaurant)
	assert.Nil(t, resp.Lifecycle)
}

func TestSendMapsConversationClosure(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":true,"text":"Dziękujemy!","conversationClosed":true,"newSessionId":"sess-2","closedReason":"order_confirmed"}`)
	})

	resp, err := client.Send(context.Background(), domain.BrainRequest{SessionID: "sess-1", Text: "tak"})
	require.NoError(t, err)

	assert.Equal(t, "Dziękujemy!", resp.Reply)
	assert.Equal(t, domain.SessionID("sess-1"), resp.SessionID)
	assert.True(t, resp.ConversationClosed())
	assert.Equal(t, domain.SessionID("sess-2"), resp.Lifecycle.NewSessionID)
	assert.Equal(t, "order_confirmed", resp.Lifecycle.Reason)
}

func TestSendKeepsReplyWhenAudioIsUndecodable(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":true,"reply":"Dzień dobry","tts":{"audioContent":"not base64!!"},"conversationClosed":true,"newSessionId":"sess-2"}`)
	})
	var logs bytes.Buffer
	client.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	resp, err := client.Send(context.Background(), domain.BrainRequest{SessionID: "sess-1", Text: "cześć"})
	require.NoError(t, err)

	assert.Equal(t, "Dzień dobry", resp.Reply)
	assert.Nil(t, resp.TTS)
	assert.True(t, resp.ConversationClosed())
	assert.Equal(t, domain.SessionID("sess-2"), resp.Lifecycle.NewSessionID)
	assert.Contains(t, logs.String(), "brain reply audio dropped")
}

func TestSendReturnsBusinessErrorsAsPayload(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"ok":false,"error":"brain_unavailable"}`)
	})

	resp, err := client.Send(context.Background(), domain.BrainRequest{SessionID: "sess-1", Text: "hej"})
	require.NoError(t, err)
	assert.False(t, resp.OK)
	assert.Equal(t, "brain_unavailable", resp.Error)
}

func TestSendSurfacesTransportErrors(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, `{"error":"upstream down"}`)
	})

	_, err := client.Send(context.Background(), domain.BrainRequest{SessionID: "sess-1", Text: "hej"})
	require.Error(t, err)
	assert.Equal(t, "brain request: status 502: upstream down", err.Error())
}

func TestDecodeTTS(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		topLevel string
		want     *domain.TTSPayload
		wantErr  bool
	}{
		{name: "absent", raw: ``, want: nil},
		{name: "null", raw: `null`, want: nil},
		{name: "bare string", raw: `"aGk="`, want: &domain.TTSPayload{Audio: []byte("hi"), MimeType: "audio/mpeg"}},
		{name: "object with text", raw: `{"audio":"aGk=","text":"hi"}`, want: &domain.TTSPayload{Audio: []byte("hi"), MimeType: "audio/mpeg", Text: "hi"}},
		{name: "top level audio", raw: ``, topLevel: "aGk=", want: &domain.TTSPayload{Audio: []byte("hi"), MimeType: "audio/mpeg"}},
		{name: "invalid base64", raw: `"***"`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := decodeTTS(json.RawMessage(tt.raw), tt.topLevel)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
