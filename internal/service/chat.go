package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/internal/adapter/llm"
)

// Chat generates a reply and records the exchange in the session history.
func (s *Service) Chat(ctx context.Context, sessionID string, req *domain.ChatRequest) (*domain.ChatResponse, error) {
	if err := validateChat(req); err != nil {
		return nil, err
	}
	if _, err := s.requireSession(ctx, sessionID); err != nil {
		return nil, err
	}

	completion, err := s.generator.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}

	reply, err := s.recordExchange(ctx, sessionID, req, completion.Content)
	if err != nil {
		return nil, err
	}

	usage := completion.Usage
	return &domain.ChatResponse{
		ID:           uuid.NewString(),
		CreatedAt:    reply.CreatedAt,
		FinishReason: completion.FinishReason,
		Response:     [][]domain.ChatMLMessage{{*reply}},
		Usage:        &usage,
		Jobs:         []string{},
		DocIDs:       &domain.DocIDs{AgentDocs: []string{}, UserDocs: []string{}},
	}, nil
}

// ChatStream generates a reply fragment by fragment. emit is not called when the
// session does not exist, so callers can still report the error normally.
func (s *Service) ChatStream(ctx context.Context, sessionID string, req *domain.ChatRequest, emit func(*domain.ChatChunk) error) error {
	if err := validateChat(req); err != nil {
		return err
	}
	if _, err := s.requireSession(ctx, sessionID); err != nil {
		return err
	}

	id := uuid.NewString()
	index := 0
	var content strings.Builder
	_, err := s.generator.CreateChatCompletionStream(ctx, req, func(fragment string, finish domain.FinishReason) error {
		content.WriteString(fragment)
		chunk := &domain.ChatChunk{
			ID:           id,
			Index:        index,
			Delta:        domain.ChatMLMessage{Role: domain.RoleAssistant, Content: fragment},
			FinishReason: finish,
		}
		index++
		return emit(chunk)
	})
	if err != nil {
		return fmt.Errorf("failed to stream reply: %w", err)
	}

	_, err = s.recordExchange(ctx, sessionID, req, content.String())
	return err
}

// recordExchange appends the request messages and the reply to the history.
func (s *Service) recordExchange(ctx context.Context, sessionID string, req *domain.ChatRequest, content string) (*domain.ChatMLMessage, error) {
	for _, msg := range req.Messages {
		msg.ID = uuid.NewString()
		msg.CreatedAt = s.now()
		if err := s.store.CreateMessage(ctx, sessionID, &msg); err != nil {
			return nil, fmt.Errorf("failed to save message: %w", err)
		}
	}

	reply := &domain.ChatMLMessage{
		ID:        uuid.NewString(),
		Role:      domain.RoleAssistant,
		Content:   content,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateMessage(ctx, sessionID, reply); err != nil {
		return nil, fmt.Errorf("failed to save reply: %w", err)
	}

	if req.Remember != nil && *req.Remember {
		if err := s.remember(ctx, sessionID, req, reply); err != nil {
			return nil, err
		}
	}
	return reply, nil
}

func (s *Service) remember(ctx context.Context, sessionID string, req *domain.ChatRequest, reply *domain.ChatMLMessage) error {
	var topic string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == domain.RoleUser {
			topic = req.Messages[i].Content
			break
		}
	}
	if topic == "" {
		return nil
	}
	chunks := llm.SplitIntoChunks(topic, 80)
	suggestion := &domain.Suggestion{
		SessionID: sessionID,
		Target:    domain.SuggestionTargetAgent,
		Content:   "Follow up on: " + chunks[0],
		MessageID: reply.ID,
		CreatedAt: s.now(),
	}
	if err := s.store.CreateSuggestion(ctx, suggestion); err != nil {
		return fmt.Errorf("failed to save suggestion: %w", err)
	}
	return nil
}

func validateChat(req *domain.ChatRequest) error {
	if len(req.Messages) == 0 {
		return fmt.Errorf("%w: messages must not be empty", ErrInvalidRequest)
	}
	for i, msg := range req.Messages {
		if msg.Role == "" {
			return fmt.Errorf("%w: messages[%d].role is required", ErrInvalidRequest, i)
		}
	}
	return nil
}
