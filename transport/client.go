package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xiaot623/gogo/sdk/domain"
)

// Client is the HTTP client of the session service.
type Client struct {
	baseURL      string
	apiKey       string
	httpClient   *http.Client
	streamClient *http.Client
	dialer       *websocket.Dialer
	useWebSocket bool
	logger       *slog.Logger
}

var _ Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for unary calls. Streams share
// its transport but are bounded only by their context.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.streamClient = &http.Client{Transport: hc.Transport}
	}
}

// WithWebSocketStreaming streams chat replies over a WebSocket instead of SSE.
func WithWebSocketStreaming() Option {
	return func(c *Client) {
		c.useWebSocket = true
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a new session service client.
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		streamClient: &http.Client{},
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession sends POST /sessions.
func (c *Client) CreateSession(ctx context.Context, req *domain.CreateSessionRequest) (*domain.ResourceCreatedResponse, error) {
	var result domain.ResourceCreatedResponse
	if err := c.doJSON(ctx, http.MethodPost, "/sessions", nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetSession sends GET /sessions/{id}.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var result domain.Session
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(sessionID), nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListSessions sends GET /sessions. An empty metadata filter is not sent.
func (c *Client) ListSessions(ctx context.Context, params domain.ListSessionsParams) ([]domain.Session, error) {
	query := pageQuery(params.Limit, params.Offset)
	if len(params.MetadataFilter) > 0 {
		filter, err := json.Marshal(params.MetadataFilter)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal metadata_filter: %w", ErrTransport, err)
		}
		query.Set("metadata_filter", string(filter))
	}

	var result domain.ListResponse[domain.Session]
	if err := c.doJSON(ctx, http.MethodGet, "/sessions", query, nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// ReplaceSession sends PUT /sessions/{id}.
func (c *Client) ReplaceSession(ctx context.Context, sessionID string, req *domain.ReplaceSessionRequest) (*domain.ResourceUpdatedResponse, error) {
	var result domain.ResourceUpdatedResponse
	if err := c.doJSON(ctx, http.MethodPut, sessionPath(sessionID), nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PatchSession sends PATCH /sessions/{id}.
func (c *Client) PatchSession(ctx context.Context, sessionID string, req *domain.PatchSessionRequest) (*domain.ResourceUpdatedResponse, error) {
	var result domain.ResourceUpdatedResponse
	if err := c.doJSON(ctx, http.MethodPatch, sessionPath(sessionID), nil, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DeleteSession sends DELETE /sessions/{id}.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) (*domain.ResourceDeletedResponse, error) {
	var result domain.ResourceDeletedResponse
	if err := c.doJSON(ctx, http.MethodDelete, sessionPath(sessionID), nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Chat sends a non-streaming chat request.
func (c *Client) Chat(ctx context.Context, sessionID string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	body := *req
	body.Stream = false

	var result domain.ChatResponse
	if err := c.doJSON(ctx, http.MethodPost, sessionPath(sessionID)+"/chat", nil, &body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ChatStream starts a streaming chat over SSE, or over a WebSocket when
// configured with WithWebSocketStreaming.
func (c *Client) ChatStream(ctx context.Context, sessionID string, req *domain.ChatRequest) (Stream, error) {
	body := *req
	body.Stream = true

	if c.useWebSocket {
		return c.dialChat(ctx, sessionID, &body)
	}
	return c.postChatStream(ctx, sessionID, &body)
}

// ListSuggestions sends GET /sessions/{id}/suggestions.
func (c *Client) ListSuggestions(ctx context.Context, sessionID string, params domain.PageParams) ([]domain.Suggestion, error) {
	var result domain.ListResponse[domain.Suggestion]
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(sessionID)+"/suggestions", pageQuery(params.Limit, params.Offset), nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// GetHistory sends GET /sessions/{id}/history.
func (c *Client) GetHistory(ctx context.Context, sessionID string, params domain.PageParams) ([]domain.ChatMLMessage, error) {
	var result domain.ListResponse[domain.ChatMLMessage]
	if err := c.doJSON(ctx, http.MethodGet, sessionPath(sessionID)+"/history", pageQuery(params.Limit, params.Offset), nil, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// DeleteHistory sends DELETE /sessions/{id}/history.
func (c *Client) DeleteHistory(ctx context.Context, sessionID string) (*domain.ResourceDeletedResponse, error) {
	var result domain.ResourceDeletedResponse
	if err := c.doJSON(ctx, http.MethodDelete, sessionPath(sessionID)+"/history", nil, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// doJSON performs a unary call. Any 2xx status is success; out may be nil.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	resp, err := c.send(ctx, c.httpClient, method, path, query, in, "application/json")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp.StatusCode, respBody)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: failed to unmarshal response: %w", ErrTransport, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, hc *http.Client, method, path string, query url.Values, in any, accept string) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal request: %w", ErrTransport, err)
		}
		body = bytes.NewReader(data)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrTransport, err)
	}
	c.setHeaders(httpReq.Header)
	httpReq.Header.Set("Accept", accept)
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(httpReq)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%w: failed to send request: %w", ErrTransport, err)
	}
	c.logger.DebugContext(ctx, "request", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))
	return resp, nil
}

func (c *Client) setHeaders(h http.Header) {
	if c.apiKey != "" {
		h.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func sessionPath(sessionID string) string {
	return "/sessions/" + url.PathEscape(sessionID)
}

// pageQuery encodes limit and offset, omitting unset values.
func pageQuery(limit, offset *int) url.Values {
	query := url.Values{}
	if limit != nil {
		query.Set("limit", strconv.Itoa(*limit))
	}
	if offset != nil {
		query.Set("offset", strconv.Itoa(*offset))
	}
	return query
}
