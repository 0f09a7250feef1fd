package service

import (
	"context"
	"fmt"

	"github.com/xiaot623/gogo/sdk/domain"
)

func (s *Service) GetHistory(ctx context.Context, sessionID string, params domain.PageParams) ([]domain.ChatMLMessage, error) {
	limit, offset, err := page(params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []domain.ChatMLMessage{}, nil
	}
	messages, err := s.store.GetMessages(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}
	return messages, nil
}

func (s *Service) DeleteHistory(ctx context.Context, sessionID string) (*domain.ResourceDeletedResponse, error) {
	if _, err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	n, err := s.store.DeleteMessages(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete messages: %w", err)
	}
	s.log.Info("history deleted", "session_id", sessionID, "messages", n)
	return &domain.ResourceDeletedResponse{ID: sessionID, DeletedAt: s.now()}, nil
}

func (s *Service) ListSuggestions(ctx context.Context, sessionID string, params domain.PageParams) ([]domain.Suggestion, error) {
	limit, offset, err := page(params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}
	if limit == 0 {
		return []domain.Suggestion{}, nil
	}
	suggestions, err := s.store.ListSuggestions(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return suggestions, nil
}
