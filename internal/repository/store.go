// Package store defines the storage interface of the dev server and its SQLite implementation.
package store

import (
	"context"

	"github.com/xiaot623/gogo/sdk/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListSessions(ctx context.Context, limit, offset int) ([]domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) (bool, error)
	DeleteSession(ctx context.Context, sessionID string) (bool, error)

	// Message operations
	CreateMessage(ctx context.Context, sessionID string, message *domain.ChatMLMessage) error
	GetMessages(ctx context.Context, sessionID string, limit, offset int) ([]domain.ChatMLMessage, error)
	DeleteMessages(ctx context.Context, sessionID string) (int64, error)

	// Suggestion operations
	CreateSuggestion(ctx context.Context, suggestion *domain.Suggestion) error
	ListSuggestions(ctx context.Context, sessionID string, limit, offset int) ([]domain.Suggestion, error)

	// Lifecycle
	Close() error
}
