package service

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/xiaot623/gogo/sdk/domain"
)

func (s *Service) CreateSession(ctx context.Context, req *domain.CreateSessionRequest) (*domain.ResourceCreatedResponse, error) {
	if err := validateUUID("agent_id", req.AgentID); err != nil {
		return nil, err
	}
	if req.UserID != "" {
		if err := validateUUID("user_id", req.UserID); err != nil {
			return nil, err
		}
	}
	if err := validateOverflow(req.ContextOverflow); err != nil {
		return nil, err
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	now := s.now()
	session := &domain.Session{
		ID:              uuid.NewString(),
		UserID:          req.UserID,
		AgentID:         req.AgentID,
		Situation:       req.Situation,
		Metadata:        metadata,
		RenderTemplates: req.RenderTemplates,
		TokenBudget:     req.TokenBudget,
		ContextOverflow: req.ContextOverflow,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.Info("session created", "session_id", session.ID, "agent_id", session.AgentID)
	return &domain.ResourceCreatedResponse{ID: session.ID, CreatedAt: now}, nil
}

func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.requireSession(ctx, sessionID)
}

// ListSessions returns sessions newest first. A metadata filter keeps sessions
// whose metadata contains every filter key with an equal value.
func (s *Service) ListSessions(ctx context.Context, params domain.ListSessionsParams) ([]domain.Session, error) {
	limit, offset, err := page(params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return []domain.Session{}, nil
	}

	if len(params.MetadataFilter) == 0 {
		sessions, err := s.store.ListSessions(ctx, limit, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		return sessions, nil
	}

	filter, err := normalize(params.MetadataFilter)
	if err != nil {
		return nil, fmt.Errorf("%w: metadata_filter: %v", ErrInvalidRequest, err)
	}

	all, err := s.store.ListSessions(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	matched := []domain.Session{}
	for _, session := range all {
		if matchesMetadata(session.Metadata, filter) {
			matched = append(matched, session)
		}
	}
	if offset >= len(matched) {
		return []domain.Session{}, nil
	}
	matched = matched[offset:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// ReplaceSession overwrites the mutable fields of a session.
func (s *Service) ReplaceSession(ctx context.Context, sessionID string, req *domain.ReplaceSessionRequest) (*domain.ResourceUpdatedResponse, error) {
	if err := validateOverflow(req.ContextOverflow); err != nil {
		return nil, err
	}
	session, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	session.Situation = req.Situation
	session.Metadata = req.Metadata
	if session.Metadata == nil {
		session.Metadata = map[string]any{}
	}
	session.TokenBudget = req.TokenBudget
	session.ContextOverflow = req.ContextOverflow

	return s.saveSession(ctx, session)
}

// PatchSession updates the fields set in req. Metadata keys are merged.
func (s *Service) PatchSession(ctx context.Context, sessionID string, req *domain.PatchSessionRequest) (*domain.ResourceUpdatedResponse, error) {
	if req.ContextOverflow != nil {
		if err := validateOverflow(*req.ContextOverflow); err != nil {
			return nil, err
		}
	}
	session, err := s.requireSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if req.Situation != nil {
		session.Situation = *req.Situation
	}
	if session.Metadata == nil {
		session.Metadata = map[string]any{}
	}
	for k, v := range req.Metadata {
		session.Metadata[k] = v
	}
	if req.TokenBudget != nil {
		session.TokenBudget = req.TokenBudget
	}
	if req.ContextOverflow != nil {
		session.ContextOverflow = *req.ContextOverflow
	}

	return s.saveSession(ctx, session)
}

func (s *Service) saveSession(ctx context.Context, session *domain.Session) (*domain.ResourceUpdatedResponse, error) {
	session.UpdatedAt = s.now()
	ok, err := s.store.UpdateSession(ctx, session)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, session.ID)
	}
	return &domain.ResourceUpdatedResponse{ID: session.ID, UpdatedAt: session.UpdatedAt}, nil
}

// DeleteSession removes a session, its history and its suggestions.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) (*domain.ResourceDeletedResponse, error) {
	ok, err := s.store.DeleteSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	s.log.Info("session deleted", "session_id", sessionID)
	return &domain.ResourceDeletedResponse{ID: sessionID, DeletedAt: s.now()}, nil
}

func validateOverflow(v domain.ContextOverflow) error {
	switch v {
	case "", domain.ContextOverflowTruncate, domain.ContextOverflowAdaptive:
		return nil
	}
	return fmt.Errorf("%w: context_overflow must be %q or %q, got %q", ErrInvalidRequest,
		domain.ContextOverflowTruncate, domain.ContextOverflowAdaptive, v)
}

// normalize round-trips a value through JSON so Go values compare equal to decoded ones.
func normalize(m map[string]any) (map[string]any, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func matchesMetadata(metadata, filter map[string]any) bool {
	for k, want := range filter {
		got, ok := metadata[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}
