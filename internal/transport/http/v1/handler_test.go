package v1

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/internal/adapter/llm"
	"github.com/xiaot623/gogo/sdk/internal/logger"
	"github.com/xiaot623/gogo/sdk/internal/policy"
	"github.com/xiaot623/gogo/sdk/internal/service"
	"github.com/xiaot623/gogo/sdk/tests/helpers"
)

func newTestHandler(t *testing.T, apiKeys map[string]string) (*Handler, *service.Service) {
	t.Helper()
	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	svc := service.New(helpers.NewTestSQLiteStore(t), llm.NewMockClient(), policyEngine, nil)
	return NewHandler(svc, nil, apiKeys, nil), svc
}

func newTestEcho(t *testing.T, apiKeys map[string]string) (*echo.Echo, *service.Service) {
	t.Helper()
	e := echo.New()
	h, svc := newTestHandler(t, apiKeys)
	h.RegisterRoutes(e)
	return e, svc
}

func seedSession(t *testing.T, svc *service.Service) string {
	t.Helper()
	created, err := svc.CreateSession(context.Background(), &domain.CreateSessionRequest{
		UserID:   uuid.NewString(),
		AgentID:  uuid.NewString(),
		Metadata: map[string]any{"team": "red"},
	})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return created.ID
}

func TestCreateSessionValidation(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(`{"situation":"demo"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateSessionSuccess(t *testing.T) {
	e := echo.New()
	h, svc := newTestHandler(t, nil)

	body := `{"user_id":"` + uuid.NewString() + `","agent_id":"` + uuid.NewString() + `","metadata":{"a":1}}`
	req := httptest.NewRequest(http.MethodPost, "/sessions", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.CreateSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.ResourceCreatedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if _, err := svc.GetSession(context.Background(), resp.ID); err != nil {
		t.Fatalf("created session not found: %v", err)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	e := echo.New()
	h, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/sessions/x", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("session_id")
	c.SetParamValues(uuid.NewString())

	if err := h.GetSession(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	var resp domain.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error == nil || resp.Error.Type != "not_found" {
		t.Fatalf("unexpected error body: %s", rec.Body.String())
	}
}

func TestListSessionsQuery(t *testing.T) {
	e, svc := newTestEcho(t, nil)
	seedSession(t, svc)
	seedSession(t, svc)

	req := httptest.NewRequest(http.MethodGet, `/sessions?limit=1&metadata_filter=%7B%22team%22%3A%22red%22%7D`, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp domain.ListResponse[domain.Session]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 1)

	for _, q := range []string{"limit=-1", "offset=abc", "metadata_filter=nope"} {
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	e, svc := newTestEcho(t, nil)
	id := seedSession(t, svc)

	req := httptest.NewRequest(http.MethodPatch, "/sessions/"+id, strings.NewReader(`{"metadata":{"extra":true}}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	got, err := svc.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"team": "red", "extra": true}, got.Metadata)

	req = httptest.NewRequest(http.MethodPut, "/sessions/"+id, strings.NewReader(`{"situation":"s","metadata":{}}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	got, _ = svc.GetSession(context.Background(), id)
	assert.Equal(t, "s", got.Situation)
	assert.Empty(t, got.Metadata)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatSSE(t *testing.T) {
	e, svc := newTestEcho(t, nil)
	id := seedSession(t, svc)

	body := `{"messages":[{"role":"user","content":"hello there"}],"stream":true}`
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var content strings.Builder
	var sawDone bool
	scanner := bufio.NewScanner(rec.Body)
	for scanner.Scan() {
		data, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			continue
		}
		if data == domain.SSEDone {
			sawDone = true
			break
		}
		var chunk domain.ChatChunk
		require.NoError(t, json.Unmarshal([]byte(data), &chunk))
		content.WriteString(chunk.Delta.Content)
	}
	assert.True(t, sawDone)
	assert.Contains(t, content.String(), "hello there")
}

func TestChatSSENotFound(t *testing.T) {
	e, _ := newTestEcho(t, nil)

	body := `{"messages":[{"role":"user","content":"hi"}],"stream":true}`
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+uuid.NewString()+"/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistoryAndSuggestions(t *testing.T) {
	e, svc := newTestEcho(t, nil)
	id := seedSession(t, svc)

	body := `{"messages":[{"role":"user","content":"remember this"}],"remember":true}`
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+id+"/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/history?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var history domain.ListResponse[domain.ChatMLMessage]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history.Items, 1)
	assert.Equal(t, domain.RoleUser, history.Items[0].Role)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/suggestions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var suggestions domain.ListResponse[domain.Suggestion]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suggestions))
	assert.Len(t, suggestions.Items, 1)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/"+id+"/history", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestAccessControl(t *testing.T) {
	e, _ := newTestEcho(t, map[string]string{"admin-key": "admin", "read-key": "reader"})

	cases := []struct {
		method string
		token  string
		want   int
	}{
		{http.MethodGet, "", http.StatusUnauthorized},
		{http.MethodGet, "wrong", http.StatusUnauthorized},
		{http.MethodGet, "read-key", http.StatusOK},
		{http.MethodPost, "read-key", http.StatusForbidden},
		{http.MethodPost, "admin-key", http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, "/sessions", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		if tc.token != "" {
			req.Header.Set("Authorization", "Bearer "+tc.token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tc.want, rec.Code, "%s with %q", tc.method, tc.token)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestLoggerCarriesSession(t *testing.T) {
	var buf bytes.Buffer
	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	require.NoError(t, err)
	svc := service.New(helpers.NewTestSQLiteStore(t), llm.NewMockClient(), policyEngine, nil)
	h := NewHandler(svc, nil, map[string]string{"read-key": "reader"}, logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatJSON)))

	e := echo.New()
	e.Group("/sessions", h.AccessControl).GET("/:session_id/trace", func(c echo.Context) error {
		logger.FromContext(c.Request().Context()).Info("handled")
		return c.NoContent(http.StatusNoContent)
	})

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+id+"/trace", nil)
	req.Header.Set("Authorization", "Bearer read-key")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "handled", entry["msg"])
	assert.Equal(t, id, entry["session_id"])
	assert.Equal(t, "reader", entry["role"])
	assert.Equal(t, "/sessions/:session_id/trace", entry["route"])
}

func TestReaderCannotChatOverWebSocket(t *testing.T) {
	e, svc := newTestEcho(t, map[string]string{"admin-key": "admin", "read-key": "reader"})
	id := seedSession(t, svc)
	srv := httptest.NewServer(e)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + id + "/chat/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer read-key"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	history, err := svc.GetHistory(context.Background(), id, domain.PageParams{})
	require.NoError(t, err)
	assert.Empty(t, history)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer admin-key"}})
	require.NoError(t, err)
	conn.Close()
}

func TestChatWebSocket(t *testing.T) {
	e, svc := newTestEcho(t, nil)
	id := seedSession(t, svc)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + id + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(domain.ChatRequest{
		Messages: []domain.ChatMLMessage{{Role: domain.RoleUser, Content: "over websocket"}},
	}))

	var content strings.Builder
	for {
		var frame domain.StreamFrame
		require.NoError(t, conn.ReadJSON(&frame))
		if frame.Type == domain.FrameTypeDone {
			break
		}
		require.Equal(t, domain.FrameTypeChunk, frame.Type, "unexpected frame %+v", frame)
		content.WriteString(frame.Chunk.Delta.Content)
	}
	assert.Contains(t, content.String(), "over websocket")

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/sessions/"+uuid.NewString()+"/chat/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// stallingGenerator sends one fragment and then waits for cancellation.
type stallingGenerator struct {
	llm.MockClient
}

func (*stallingGenerator) CreateChatCompletionStream(ctx context.Context, req *domain.ChatRequest, callback llm.StreamCallback) (*domain.CompletionUsage, error) {
	if err := callback("first", ""); err != nil {
		return nil, err
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestDeleteSessionClosesLiveStreams(t *testing.T) {
	svc := service.New(helpers.NewTestSQLiteStore(t), &stallingGenerator{}, nil, nil)
	h := NewHandler(svc, nil, nil, nil)
	e := echo.New()
	h.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()
	id := seedSession(t, svc)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/sessions/"+id+"/chat/ws", nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(domain.ChatRequest{
		Messages: []domain.ChatMLMessage{{Role: domain.RoleUser, Content: "hold on"}},
	}))

	var frame domain.StreamFrame
	require.NoError(t, conn.ReadJSON(&frame))
	require.Equal(t, domain.FrameTypeChunk, frame.Type)
	assert.True(t, h.hub.HasActiveConnections(id))

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, _, err = conn.ReadMessage()
		if err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Eventually(t, func() bool { return h.hub.GetConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
