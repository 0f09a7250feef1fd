package sessions

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/transport"
)

// fakeTransport records every call and answers from its fields.
type fakeTransport struct {
	mu    sync.Mutex
	calls []string

	sessions   []domain.Session
	history    []domain.ChatMLMessage
	stream     *fakeStream
	err        error
	lastList   domain.ListSessionsParams
	lastPatch  *domain.PatchSessionRequest
	lastPut    *domain.ReplaceSessionRequest
	lastCreate *domain.CreateSessionRequest
	lastChat   *domain.ChatRequest
}

var _ transport.Transport = (*fakeTransport)(nil)

func (f *fakeTransport) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeTransport) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeTransport) CreateSession(ctx context.Context, req *domain.CreateSessionRequest) (*domain.ResourceCreatedResponse, error) {
	f.record("create")
	f.lastCreate = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ResourceCreatedResponse{ID: "0b8f5f7e-4f5e-4c1a-9d3b-6d1f2e3a4b5c", CreatedAt: time.Unix(100, 0).UTC()}, nil
}

func (f *fakeTransport) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	f.record("get")
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Session{ID: sessionID}, nil
}

func (f *fakeTransport) ListSessions(ctx context.Context, params domain.ListSessionsParams) ([]domain.Session, error) {
	f.record("list")
	f.lastList = params
	return f.sessions, f.err
}

func (f *fakeTransport) ReplaceSession(ctx context.Context, sessionID string, req *domain.ReplaceSessionRequest) (*domain.ResourceUpdatedResponse, error) {
	f.record("replace")
	f.lastPut = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ResourceUpdatedResponse{ID: sessionID, UpdatedAt: time.Unix(200, 0).UTC()}, nil
}

func (f *fakeTransport) PatchSession(ctx context.Context, sessionID string, req *domain.PatchSessionRequest) (*domain.ResourceUpdatedResponse, error) {
	f.record("patch")
	f.lastPatch = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ResourceUpdatedResponse{ID: sessionID, UpdatedAt: time.Unix(200, 0).UTC()}, nil
}

func (f *fakeTransport) DeleteSession(ctx context.Context, sessionID string) (*domain.ResourceDeletedResponse, error) {
	f.record("delete")
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ResourceDeletedResponse{ID: sessionID}, nil
}

func (f *fakeTransport) Chat(ctx context.Context, sessionID string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	f.record("chat")
	f.lastChat = req
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ChatResponse{ID: "r1"}, nil
}

func (f *fakeTransport) ChatStream(ctx context.Context, sessionID string, req *domain.ChatRequest) (transport.Stream, error) {
	f.record("chat_stream")
	f.lastChat = req
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func (f *fakeTransport) ListSuggestions(ctx context.Context, sessionID string, params domain.PageParams) ([]domain.Suggestion, error) {
	f.record("suggestions")
	return []domain.Suggestion{{SessionID: sessionID}, {SessionID: sessionID}, {SessionID: sessionID}}, f.err
}

func (f *fakeTransport) GetHistory(ctx context.Context, sessionID string, params domain.PageParams) ([]domain.ChatMLMessage, error) {
	f.record("history")
	return f.history, f.err
}

func (f *fakeTransport) DeleteHistory(ctx context.Context, sessionID string) (*domain.ResourceDeletedResponse, error) {
	f.record("delete_history")
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ResourceDeletedResponse{ID: sessionID}, nil
}

// fakeStream yields its fragments, then end (io.EOF when nil). With block set
// it waits after the fragments until closed.
type fakeStream struct {
	fragments []string
	end       error
	block     bool

	next   int
	closed atomic.Bool
	done   chan struct{}
	once   sync.Once
}

func newFakeStream(end error, fragments ...string) *fakeStream {
	return &fakeStream{fragments: fragments, end: end, done: make(chan struct{})}
}

func (s *fakeStream) Recv() (*domain.ChatChunk, error) {
	if s.next < len(s.fragments) {
		i := s.next
		s.next++
		return &domain.ChatChunk{Index: i, Delta: domain.ChatMLMessage{Role: domain.RoleAssistant, Content: s.fragments[i]}}, nil
	}
	if s.block {
		<-s.done
		return nil, io.ErrClosedPipe
	}
	if s.end == nil {
		return nil, io.EOF
	}
	return nil, s.end
}

func (s *fakeStream) Close() error {
	s.closed.Store(true)
	s.once.Do(func() { close(s.done) })
	return nil
}
