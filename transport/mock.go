package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/internal/adapter/llm"
	"github.com/xiaot623/gogo/sdk/internal/logger"
	store "github.com/xiaot623/gogo/sdk/internal/repository"
	"github.com/xiaot623/gogo/sdk/internal/service"
)

// MockTransport serves the session API in memory. Replies come from a
// deterministic generator, so equal chat requests get equal answers.
type MockTransport struct {
	svc   *service.Service
	store *store.SQLiteStore
}

var _ Transport = (*MockTransport)(nil)

// NewMock creates an empty in-memory transport. Close releases it.
func NewMock(log *slog.Logger) (*MockTransport, error) {
	db, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create mock store: %w", err)
	}
	return &MockTransport{
		svc:   service.New(db, llm.NewMockClient(), nil, logger.Wrap(log)),
		store: db,
	}, nil
}

// Close releases the in-memory database.
func (m *MockTransport) Close() error {
	return m.store.Close()
}

func (m *MockTransport) CreateSession(ctx context.Context, req *domain.CreateSessionRequest) (*domain.ResourceCreatedResponse, error) {
	resp, err := m.svc.CreateSession(ctx, req)
	return resp, mapServiceError(err)
}

func (m *MockTransport) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := m.svc.GetSession(ctx, sessionID)
	return session, mapServiceError(err)
}

func (m *MockTransport) ListSessions(ctx context.Context, params domain.ListSessionsParams) ([]domain.Session, error) {
	sessions, err := m.svc.ListSessions(ctx, params)
	return sessions, mapServiceError(err)
}

func (m *MockTransport) ReplaceSession(ctx context.Context, sessionID string, req *domain.ReplaceSessionRequest) (*domain.ResourceUpdatedResponse, error) {
	resp, err := m.svc.ReplaceSession(ctx, sessionID, req)
	return resp, mapServiceError(err)
}

func (m *MockTransport) PatchSession(ctx context.Context, sessionID string, req *domain.PatchSessionRequest) (*domain.ResourceUpdatedResponse, error) {
	resp, err := m.svc.PatchSession(ctx, sessionID, req)
	return resp, mapServiceError(err)
}

func (m *MockTransport) DeleteSession(ctx context.Context, sessionID string) (*domain.ResourceDeletedResponse, error) {
	resp, err := m.svc.DeleteSession(ctx, sessionID)
	return resp, mapServiceError(err)
}

func (m *MockTransport) Chat(ctx context.Context, sessionID string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	resp, err := m.svc.Chat(ctx, sessionID, req)
	return resp, mapServiceError(err)
}

// ChatStream produces fragments on a goroutine as the receiver pulls them.
func (m *MockTransport) ChatStream(ctx context.Context, sessionID string, req *domain.ChatRequest) (Stream, error) {
	if _, err := m.svc.GetSession(ctx, sessionID); err != nil {
		return nil, mapServiceError(err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &pipeStream{
		ctx:    ctx,
		cancel: cancel,
		chunks: make(chan *domain.ChatChunk),
		done:   make(chan struct{}),
	}
	go func() {
		defer close(s.done)
		defer close(s.chunks)
		s.result = m.svc.ChatStream(ctx, sessionID, req, func(chunk *domain.ChatChunk) error {
			select {
			case s.chunks <- chunk:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()
	return s, nil
}

func (m *MockTransport) ListSuggestions(ctx context.Context, sessionID string, params domain.PageParams) ([]domain.Suggestion, error) {
	suggestions, err := m.svc.ListSuggestions(ctx, sessionID, params)
	return suggestions, mapServiceError(err)
}

func (m *MockTransport) GetHistory(ctx context.Context, sessionID string, params domain.PageParams) ([]domain.ChatMLMessage, error) {
	messages, err := m.svc.GetHistory(ctx, sessionID, params)
	return messages, mapServiceError(err)
}

func (m *MockTransport) DeleteHistory(ctx context.Context, sessionID string) (*domain.ResourceDeletedResponse, error) {
	resp, err := m.svc.DeleteHistory(ctx, sessionID)
	return resp, mapServiceError(err)
}

// pipeStream hands fragments from the producing goroutine to Recv.
type pipeStream struct {
	ctx    context.Context
	cancel context.CancelFunc
	chunks chan *domain.ChatChunk
	done   chan struct{}
	result error
	err    error
}

func (s *pipeStream) Recv() (*domain.ChatChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	chunk, ok := <-s.chunks
	if ok {
		return chunk, nil
	}

	<-s.done
	switch {
	case s.result == nil:
		s.err = io.EOF
	case s.ctx.Err() != nil:
		s.err = fmt.Errorf("%w: %w", ErrStreamInterrupted, s.ctx.Err())
	default:
		s.err = fmt.Errorf("%w: %w", ErrStreamInterrupted, s.result)
	}
	s.cancel()
	return nil, s.err
}

func (s *pipeStream) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// mapServiceError gives service failures the same shape the HTTP client produces.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, service.ErrNotFound):
		return &APIError{StatusCode: http.StatusNotFound, Type: "not_found", Message: err.Error()}
	case errors.Is(err, service.ErrInvalidRequest):
		return &APIError{StatusCode: http.StatusBadRequest, Type: "invalid_request", Message: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrTransport, err)
	default:
		return &APIError{StatusCode: http.StatusInternalServerError, Type: "internal_error", Message: err.Error()}
	}
}
