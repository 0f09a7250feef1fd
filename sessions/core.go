package sessions

import (
	"context"
	"log/slog"
	"maps"
	"time"

	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/transport"
)

// core holds the validation and argument shaping of every operation. Client
// and AsyncClient differ only in the Executor they run it on.
type core struct {
	transport transport.Transport
	logger    *slog.Logger
}

func (c *core) trace(ctx context.Context, op string, start time.Time, err error, args ...any) {
	args = append(args, "op", op, "duration", time.Since(start))
	if err != nil {
		c.logger.DebugContext(ctx, "session call failed", append(args, "error", err)...)
		return
	}
	c.logger.DebugContext(ctx, "session call", args...)
}

func (c *core) get(ctx context.Context, id string) (session *domain.Session, err error) {
	defer func(start time.Time) { c.trace(ctx, "get", start, err, "session_id", id) }(time.Now())

	id, err = ValidateUUID("session_id", id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.transport.GetSession(ctx, id)
}

func (c *core) create(ctx context.Context, p CreateParams) (session *domain.Session, err error) {
	defer func(start time.Time) { c.trace(ctx, "create", start, err) }(time.Now())

	userID, err := ValidateUUID("user_id", p.UserID)
	if err != nil {
		return nil, err
	}
	agentID, err := ValidateUUID("agent_id", p.AgentID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	metadata := p.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	created, err := c.transport.CreateSession(ctx, &domain.CreateSessionRequest{
		UserID:          userID,
		AgentID:         agentID,
		Situation:       p.Situation,
		Metadata:        metadata,
		RenderTemplates: p.RenderTemplates,
		TokenBudget:     p.TokenBudget,
		ContextOverflow: p.ContextOverflow,
	})
	if err != nil {
		return nil, err
	}

	return &domain.Session{
		ID:              created.ID,
		UserID:          userID,
		AgentID:         agentID,
		Situation:       p.Situation,
		Metadata:        maps.Clone(metadata),
		RenderTemplates: p.RenderTemplates,
		TokenBudget:     p.TokenBudget,
		ContextOverflow: p.ContextOverflow,
		CreatedAt:       created.CreatedAt,
	}, nil
}

func (c *core) list(ctx context.Context, p ListParams) (sessions []domain.Session, err error) {
	defer func(start time.Time) { c.trace(ctx, "list", start, err) }(time.Now())

	if err := validateNonNegative("limit", p.Limit); err != nil {
		return nil, err
	}
	if err := validateNonNegative("offset", p.Offset); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessions, err = c.transport.ListSessions(ctx, domain.ListSessionsParams{
		Limit:          p.Limit,
		Offset:         p.Offset,
		MetadataFilter: p.MetadataFilter,
	})
	if err != nil {
		return nil, err
	}
	return capped(sessions, p.Limit), nil
}

// update returns the session as far as this call knows it: the identifier, the
// update time and the supplied fields. Call Get for the full record.
func (c *core) update(ctx context.Context, id string, p UpdateParams) (session *domain.Session, err error) {
	defer func(start time.Time) { c.trace(ctx, "update", start, err, "overwrite", p.Overwrite) }(time.Now())

	id, err = ValidateUUID("session_id", id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var updated *domain.ResourceUpdatedResponse
	if p.Overwrite {
		req := &domain.ReplaceSessionRequest{
			Metadata:    p.Metadata,
			TokenBudget: p.TokenBudget,
		}
		if p.Situation != nil {
			req.Situation = *p.Situation
		}
		if req.Metadata == nil {
			req.Metadata = map[string]any{}
		}
		if p.ContextOverflow != nil {
			req.ContextOverflow = *p.ContextOverflow
		}
		updated, err = c.transport.ReplaceSession(ctx, id, req)
	} else {
		updated, err = c.transport.PatchSession(ctx, id, &domain.PatchSessionRequest{
			Situation:       p.Situation,
			Metadata:        p.Metadata,
			TokenBudget:     p.TokenBudget,
			ContextOverflow: p.ContextOverflow,
		})
	}
	if err != nil {
		return nil, err
	}

	session = &domain.Session{
		ID:          updated.ID,
		Metadata:    maps.Clone(p.Metadata),
		TokenBudget: p.TokenBudget,
		UpdatedAt:   updated.UpdatedAt,
	}
	if p.Situation != nil {
		session.Situation = *p.Situation
	}
	if p.ContextOverflow != nil {
		session.ContextOverflow = *p.ContextOverflow
	}
	if session.Metadata == nil {
		session.Metadata = map[string]any{}
	}
	return session, nil
}

func (c *core) delete(ctx context.Context, id string) (_ struct{}, err error) {
	defer func(start time.Time) { c.trace(ctx, "delete", start, err, "session_id", id) }(time.Now())

	id, err = ValidateUUID("session_id", id)
	if err != nil {
		return struct{}{}, err
	}
	if err := ctx.Err(); err != nil {
		return struct{}{}, err
	}
	_, err = c.transport.DeleteSession(ctx, id)
	return struct{}{}, err
}

func (c *core) chat(ctx context.Context, id string, p ChatParams) (result *ChatResult, err error) {
	defer func(start time.Time) { c.trace(ctx, "chat", start, err, "stream", p.Stream) }(time.Now())

	id, err = ValidateUUID("session_id", id)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := p.request()
	if p.Stream {
		stream, err := c.transport.ChatStream(ctx, id, req)
		if err != nil {
			return nil, err
		}
		return &ChatResult{Stream: newChatStream(ctx, stream)}, nil
	}

	resp, err := c.transport.Chat(ctx, id, req)
	if err != nil {
		return nil, err
	}
	return &ChatResult{Response: resp}, nil
}

func (c *core) suggestions(ctx context.Context, id string, p PageParams) (suggestions []domain.Suggestion, err error) {
	defer func(start time.Time) { c.trace(ctx, "suggestions", start, err) }(time.Now())

	id, page, err := validatePage(ctx, id, p)
	if err != nil {
		return nil, err
	}
	suggestions, err = c.transport.ListSuggestions(ctx, id, page)
	if err != nil {
		return nil, err
	}
	return capped(suggestions, p.Limit), nil
}

func (c *core) history(ctx context.Context, id string, p PageParams) (messages []domain.ChatMLMessage, err error) {
	defer func(start time.Time) { c.trace(ctx, "history", start, err) }(time.Now())

	id, page, err := validatePage(ctx, id, p)
	if err != nil {
		return nil, err
	}
	messages, err = c.transport.GetHistory(ctx, id, page)
	if err != nil {
		return nil, err
	}
	return capped(messages, p.Limit), nil
}

func (c *core) deleteHistory(ctx context.Context, id string) (_ struct{}, err error) {
	defer func(start time.Time) { c.trace(ctx, "delete_history", start, err) }(time.Now())

	id, err = ValidateUUID("session_id", id)
	if err != nil {
		return struct{}{}, err
	}
	if err := ctx.Err(); err != nil {
		return struct{}{}, err
	}
	_, err = c.transport.DeleteHistory(ctx, id)
	return struct{}{}, err
}

// validatePage checks the page arguments, then ctx.
func validatePage(ctx context.Context, id string, p PageParams) (string, domain.PageParams, error) {
	id, err := ValidateUUID("session_id", id)
	if err != nil {
		return "", domain.PageParams{}, err
	}
	if err := validateNonNegative("limit", p.Limit); err != nil {
		return "", domain.PageParams{}, err
	}
	if err := validateNonNegative("offset", p.Offset); err != nil {
		return "", domain.PageParams{}, err
	}
	if err := ctx.Err(); err != nil {
		return "", domain.PageParams{}, err
	}
	return id, domain.PageParams{Limit: p.Limit, Offset: p.Offset}, nil
}

// capped truncates items to limit when the service returned more.
func capped[T any](items []T, limit *int) []T {
	if limit != nil && len(items) > *limit {
		return items[:*limit]
	}
	return items
}
