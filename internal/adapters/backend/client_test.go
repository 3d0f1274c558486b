package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return Client{
		API:        DefaultAPI(server.URL),
		HTTPClient: server.Client(),
		AdminToken: "admin-secret",
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestBuildAPIURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		path    string
		want    string
		wantErr string
	}{
		{name: "joins path", baseURL: "https://freeflow.example", path: "/api/brain/v2", want: "https://freeflow.example/api/brain/v2"},
		{name: "keeps port", baseURL: "http://localhost:3000/", path: "/api/orders", want: "http://localhost:3000/api/orders"},
		{name: "missing base", baseURL: "", path: "/api/orders", wantErr: "api base url is required"},
		{name: "missing path", baseURL: "https://freeflow.example", path: "", wantErr: "api path is required"},
		{name: "bad scheme", baseURL: "ftp://freeflow.example", path: "/api", wantErr: "must use http or https"},
		{name: "missing host", baseURL: "https://", path: "/api", wantErr: "host is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := buildAPIURL(tt.baseURL, tt.path)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDoFormatsStatusErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "error field", body: `{"ok":false,"error":"invalid transition"}`, want: "update order status: status 409: invalid transition"},
		{name: "message field", body: `{"message":"conflict"}`, want: "update order status: status 409: conflict"},
		{name: "not json", body: `<html>nope</html>`, want: "update order status: status 409"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusConflict, tt.body)
			})

			err := client.do(context.Background(), "update order status", request{method: http.MethodGet, path: "/x"}, nil)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestDoTimesOutWithoutCallerDeadline(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
		writeJSON(w, http.StatusOK, `{}`)
	})
	client.RequestTimeout = 20 * time.Millisecond

	err := client.do(context.Background(), "list orders", request{method: http.MethodGet, path: "/x"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list orders")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDoSkipsEmptyHeaders(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["Authorization"]
		assert.False(t, present)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.WriteHeader(http.StatusNoContent)
	})

	var out map[string]any
	err := client.do(context.Background(), "probe", request{
		method:  http.MethodGet,
		path:    "/x",
		headers: map[string]string{"Authorization": ""},
	}, &out)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestJoinPathEscapesSegments(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/api/orders/abc%2F1", joinPath("/api/orders/", "abc/1"))
	assert.Equal(t, "/api/ai/tools/menu", joinPath("/api/ai/tools", "menu"))
}

func TestFlexDecoding(t *testing.T) {
	t.Parallel()

	var payload struct {
		ID    flexString `json:"id"`
		Price flexFloat  `json:"price"`
		Comma flexFloat  `json:"comma"`
		Empty flexFloat  `json:"empty"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":42,"price":"12.50","comma":"7,5","empty":null}`), &payload))

	assert.Equal(t, flexString("42"), payload.ID)
	assert.Equal(t, flexFloat{Value: 12.5, Set: true}, payload.Price)
	assert.Equal(t, flexFloat{Value: 7.5, Set: true}, payload.Comma)
	assert.False(t, payload.Empty.Set)
	assert.Equal(t, 3, firstInt(3, payload.Empty))
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, want, parseTimestamp("2026-03-01T13:30:00+01:00"))
	assert.Equal(t, want, parseTimestamp("2026-03-01 12:30:00"))
	assert.True(t, parseTimestamp("yesterday").IsZero())
}
