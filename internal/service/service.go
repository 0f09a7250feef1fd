// Package service implements the session logic of the dev server.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/internal/adapter/llm"
	"github.com/xiaot623/gogo/sdk/internal/logger"
	"github.com/xiaot623/gogo/sdk/internal/policy"
	store "github.com/xiaot623/gogo/sdk/internal/repository"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrForbidden      = errors.New("forbidden")
)

const (
	defaultPageSize = 100
	maxPageSize     = 1000
)

type Service struct {
	store        store.Store
	generator    llm.Generator
	policyEngine *policy.Engine
	log          logger.Logger
	now          func() time.Time
}

func New(store store.Store, generator llm.Generator, policyEngine *policy.Engine, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:        store,
		generator:    generator,
		policyEngine: policyEngine,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Authorize evaluates the access policy. A nil policy engine allows everything.
func (s *Service) Authorize(ctx context.Context, input policy.Input) error {
	if s.policyEngine == nil {
		return nil
	}
	decision, reason, err := s.policyEngine.Evaluate(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if decision != policy.DecisionAllow {
		s.log.Warn("request denied by policy", "method", input.Method, "path", input.Path, "role", input.Role, "reason", reason)
		if reason == "" {
			reason = decision
		}
		return fmt.Errorf("%w: %s", ErrForbidden, reason)
	}
	return nil
}

func (s *Service) requireSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	return session, nil
}

func validateUUID(name, value string) error {
	if _, err := uuid.Parse(value); err != nil {
		return fmt.Errorf("%w: %s must be a UUID, got %q", ErrInvalidRequest, name, value)
	}
	return nil
}

// page resolves optional pagination to store arguments. An explicit zero limit
// yields limit 0, which callers answer with an empty page.
func page(limit, offset *int) (int, int, error) {
	l, o := defaultPageSize, 0
	if limit != nil {
		if *limit < 0 {
			return 0, 0, fmt.Errorf("%w: limit must not be negative", ErrInvalidRequest)
		}
		l = min(*limit, maxPageSize)
	}
	if offset != nil {
		if *offset < 0 {
			return 0, 0, fmt.Errorf("%w: offset must not be negative", ErrInvalidRequest)
		}
		o = *offset
	}
	return l, o, nil
}
