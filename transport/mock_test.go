package transport

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/sdk/config"
	"github.com/xiaot623/gogo/sdk/domain"
)

func newMock(t *testing.T) *MockTransport {
	t.Helper()
	m, err := NewMock(nil)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func TestMockSessionLifecycle(t *testing.T) {
	m := newMock(t)
	ctx := context.Background()

	created, err := m.CreateSession(ctx, &domain.CreateSessionRequest{AgentID: uuid.NewString(), Metadata: map[string]any{"k": "v"}})
	require.NoError(t, err)

	_, err = m.PatchSession(ctx, created.ID, &domain.PatchSessionRequest{Metadata: map[string]any{"x": 1}})
	require.NoError(t, err)

	got, err := m.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, got.Metadata, 2)

	sessions, err := m.ListSessions(ctx, domain.ListSessionsParams{MetadataFilter: map[string]any{"x": 1}})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)

	_, err = m.DeleteSession(ctx, created.ID)
	require.NoError(t, err)
	_, err = m.GetSession(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrTransport)

	_, err = m.CreateSession(ctx, &domain.CreateSessionRequest{AgentID: "bad"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.StatusCode)
}

func TestMockChatStream(t *testing.T) {
	m := newMock(t)
	ctx := context.Background()

	created, err := m.CreateSession(ctx, &domain.CreateSessionRequest{AgentID: uuid.NewString()})
	require.NoError(t, err)

	req := &domain.ChatRequest{Messages: []domain.ChatMLMessage{{Role: domain.RoleUser, Content: "stream in memory please"}}}
	full, err := m.Chat(ctx, created.ID, req)
	require.NoError(t, err)

	stream, err := m.ChatStream(ctx, created.ID, req)
	require.NoError(t, err)
	content, err := drain(t, stream)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, full.Content(), content)
	require.NoError(t, stream.Close())

	_, err = m.ChatStream(ctx, uuid.NewString(), req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMockChatStreamClose(t *testing.T) {
	m := newMock(t)
	ctx := context.Background()

	created, err := m.CreateSession(ctx, &domain.CreateSessionRequest{AgentID: uuid.NewString()})
	require.NoError(t, err)

	stream, err := m.ChatStream(ctx, created.ID, &domain.ChatRequest{
		Messages: []domain.ChatMLMessage{{Role: domain.RoleUser, Content: "a long enough message to produce several fragments"}},
	})
	require.NoError(t, err)

	_, err = stream.Recv()
	require.NoError(t, err)
	require.NoError(t, stream.Close())

	_, err = stream.Recv()
	assert.ErrorIs(t, err, ErrStreamInterrupted)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Mode = config.ModeMock
	tr, err := New(cfg, nil)
	require.NoError(t, err)
	mock, ok := tr.(*MockTransport)
	require.True(t, ok)
	mock.Close()

	cfg = config.Default()
	cfg.Streaming = config.StreamingWebSocket
	tr, err = New(cfg, nil)
	require.NoError(t, err)
	client, ok := tr.(*Client)
	require.True(t, ok)
	assert.True(t, client.useWebSocket)
	assert.Equal(t, cfg.BaseURL, client.baseURL)
}
