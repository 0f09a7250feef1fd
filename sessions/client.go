// Package sessions is a typed client for the remote session service.
//
// Client blocks until each call completes. AsyncClient starts the same calls
// on an Executor and returns a Future. Both validate identifiers locally and
// return ErrInvalidArgument before anything is sent.
package sessions

import (
	"context"
	"log/slog"

	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/transport"
)

type options struct {
	logger   *slog.Logger
	executor Executor
}

// Option configures a Client or AsyncClient.
type Option func(*options)

// WithLogger sets the logger for call tracing, written at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithExecutor sets the executor of an AsyncClient. Client ignores it.
func WithExecutor(e Executor) Option {
	return func(o *options) {
		if e != nil {
			o.executor = e
		}
	}
}

// WithMaxConcurrency runs AsyncClient calls on a Pool of n.
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		o.executor = NewPool(n)
	}
}

func newCore(t transport.Transport, opts []Option) (*core, *options) {
	o := &options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(o)
	}
	return &core{transport: t, logger: o.logger}, o
}

// Client is the blocking session client.
type Client struct {
	core *core
	exec Executor
}

// NewClient creates a blocking client over t.
func NewClient(t transport.Transport, opts ...Option) *Client {
	c, _ := newCore(t, opts)
	return &Client{core: c, exec: Blocking{}}
}

// Get returns the session with the given identifier.
func (c *Client) Get(ctx context.Context, id string) (*domain.Session, error) {
	return submit(ctx, c.exec, func(ctx context.Context) (*domain.Session, error) {
		return c.core.get(ctx, id)
	}).Result()
}

// Create creates a session and returns it as created from p.
func (c *Client) Create(ctx context.Context, p CreateParams) (*domain.Session, error) {
	return submit(ctx, c.exec, func(ctx context.Context) (*domain.Session, error) {
		return c.core.create(ctx, p)
	}).Result()
}

// List returns sessions, never more than p.Limit.
func (c *Client) List(ctx context.Context, p ListParams) ([]domain.Session, error) {
	return submit(ctx, c.exec, func(ctx context.Context) ([]domain.Session, error) {
		return c.core.list(ctx, p)
	}).Result()
}

// Update replaces (p.Overwrite) or merges the session fields in p.
func (c *Client) Update(ctx context.Context, id string, p UpdateParams) (*domain.Session, error) {
	return submit(ctx, c.exec, func(ctx context.Context) (*domain.Session, error) {
		return c.core.update(ctx, id, p)
	}).Result()
}

// Delete deletes a session.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := submit(ctx, c.exec, func(ctx context.Context) (struct{}, error) {
		return c.core.delete(ctx, id)
	}).Result()
	return err
}

// Chat sends messages to the session's agent. With p.Stream the result holds
// a ChatStream bound to ctx.
func (c *Client) Chat(ctx context.Context, id string, p ChatParams) (*ChatResult, error) {
	return submit(ctx, c.exec, func(ctx context.Context) (*ChatResult, error) {
		return c.core.chat(ctx, id, p)
	}).Result()
}

// Suggestions lists the session's suggestions.
func (c *Client) Suggestions(ctx context.Context, id string, p PageParams) ([]domain.Suggestion, error) {
	return submit(ctx, c.exec, func(ctx context.Context) ([]domain.Suggestion, error) {
		return c.core.suggestions(ctx, id, p)
	}).Result()
}

// History lists the session's messages in chronological order.
func (c *Client) History(ctx context.Context, id string, p PageParams) ([]domain.ChatMLMessage, error) {
	return submit(ctx, c.exec, func(ctx context.Context) ([]domain.ChatMLMessage, error) {
		return c.core.history(ctx, id, p)
	}).Result()
}

// DeleteHistory deletes the session's messages, keeping the session.
func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	_, err := submit(ctx, c.exec, func(ctx context.Context) (struct{}, error) {
		return c.core.deleteHistory(ctx, id)
	}).Result()
	return err
}
