package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 4 << 20

const (
	DefaultBrainPath       = "/api/brain/v2"
	DefaultAdminOrdersPath = "/api/admin/orders"
	DefaultOrdersPath      = "/api/orders"
	DefaultToolsPath       = "/api/ai/tools"
	DefaultAgentPath       = "/api/ai/agent"
)

type API struct {
	BaseURL         string
	BrainPath       string
	AdminOrdersPath string
	OrdersPath      string
	ToolsPath       string
	AgentPath       string
}

func DefaultAPI(baseURL string) API {
	return API{
		BaseURL:         baseURL,
		BrainPath:       DefaultBrainPath,
		AdminOrdersPath: DefaultAdminOrdersPath,
		OrdersPath:      DefaultOrdersPath,
		ToolsPath:       DefaultToolsPath,
		AgentPath:       DefaultAgentPath,
	}
}

// Client talks to the FreeFlow backend. The zero HTTPClient uses http.DefaultClient and a
// nil Logger uses slog.Default().
type Client struct {
	API            API
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	AdminToken     string
	Logger         *slog.Logger
}

type request struct {
	method  string
	path    string
	query   url.Values
	headers map[string]string
	body    any
}

type errorPayload struct {
	OK      *bool  `json:"ok"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (p errorPayload) text() string {
	if p.Error != "" {
		return p.Error
	}
	return p.Message
}

// do sends req and decodes a 2xx JSON body into out when out is not nil.
func (c Client) do(ctx context.Context, op string, req request, out any) error {
	endpoint, err := buildAPIURL(c.API.BaseURL, req.path)
	if err != nil {
		return err
	}
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		encoded, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(encoded)
	}

	requestCtx, cancel := c.requestContext(ctx)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(requestCtx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for key, value := range req.headers {
		if value != "" {
			httpReq.Header.Set(key, value)
		}
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s response: %w", op, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s: %s", op, formatStatusError(resp.StatusCode, data))
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}

	requestTimeout := c.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	return context.WithTimeout(ctx, requestTimeout)
}

func formatStatusError(statusCode int, data []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.text() == "" {
		return fmt.Sprintf("status %d", statusCode)
	}
	return fmt.Sprintf("status %d: %s", statusCode, payload.text())
}

func buildAPIURL(baseURL string, path string) (string, error) {
	if baseURL == "" {
		return "", errors.New("api base url is required")
	}
	if path == "" {
		return "", errors.New("api path is required")
	}

	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse api base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", errors.New("api base url must use http or https")
	}
	if parsed.Host == "" {
		return "", errors.New("api base url host is required")
	}

	endpoint, err := parsed.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse api path: %w", err)
	}
	return endpoint.String(), nil
}

func joinPath(base string, parts ...string) string {
	path := strings.TrimRight(base, "/")
	for _, part := range parts {
		path += "/" + url.PathEscape(part)
	}
	return path
}
