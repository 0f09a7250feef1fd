// Package transport carries session requests to the remote session service.
//
// Client speaks HTTP/JSON and streams chat replies over server-sent events or a
// WebSocket. MockTransport serves the same contract in memory.
package transport

import (
	"context"

	"github.com/xiaot623/gogo/sdk/domain"
)

// Transport is the set of remote calls the session facade relies on.
type Transport interface {
	CreateSession(ctx context.Context, req *domain.CreateSessionRequest) (*domain.ResourceCreatedResponse, error)
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListSessions(ctx context.Context, params domain.ListSessionsParams) ([]domain.Session, error)
	ReplaceSession(ctx context.Context, sessionID string, req *domain.ReplaceSessionRequest) (*domain.ResourceUpdatedResponse, error)
	PatchSession(ctx context.Context, sessionID string, req *domain.PatchSessionRequest) (*domain.ResourceUpdatedResponse, error)
	DeleteSession(ctx context.Context, sessionID string) (*domain.ResourceDeletedResponse, error)

	Chat(ctx context.Context, sessionID string, req *domain.ChatRequest) (*domain.ChatResponse, error)
	// ChatStream starts a streaming chat. The stream is released when ctx is
	// done or Close is called.
	ChatStream(ctx context.Context, sessionID string, req *domain.ChatRequest) (Stream, error)

	ListSuggestions(ctx context.Context, sessionID string, params domain.PageParams) ([]domain.Suggestion, error)
	GetHistory(ctx context.Context, sessionID string, params domain.PageParams) ([]domain.ChatMLMessage, error)
	DeleteHistory(ctx context.Context, sessionID string) (*domain.ResourceDeletedResponse, error)
}

// Stream yields the fragments of a streaming chat reply.
type Stream interface {
	// Recv returns the next fragment, io.EOF after the terminal marker, or an
	// error wrapping ErrStreamInterrupted when the stream ended abnormally.
	Recv() (*domain.ChatChunk, error)
	Close() error
}
