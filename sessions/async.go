package sessions

import (
	"context"

	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/transport"
)

const defaultMaxConcurrency = 8

// AsyncClient starts session calls without blocking the caller. Each method
// behaves exactly like its Client counterpart; ctx bounds the call itself.
type AsyncClient struct {
	core *core
	exec Executor
}

// NewAsyncClient creates an asynchronous client over t.
func NewAsyncClient(t transport.Transport, opts ...Option) *AsyncClient {
	c, o := newCore(t, opts)
	exec := o.executor
	if exec == nil {
		exec = NewPool(defaultMaxConcurrency)
	}
	return &AsyncClient{core: c, exec: exec}
}

func (c *AsyncClient) Get(ctx context.Context, id string) *Future[*domain.Session] {
	return submit(ctx, c.exec, func(ctx context.Context) (*domain.Session, error) {
		return c.core.get(ctx, id)
	})
}

func (c *AsyncClient) Create(ctx context.Context, p CreateParams) *Future[*domain.Session] {
	return submit(ctx, c.exec, func(ctx context.Context) (*domain.Session, error) {
		return c.core.create(ctx, p)
	})
}

func (c *AsyncClient) List(ctx context.Context, p ListParams) *Future[[]domain.Session] {
	return submit(ctx, c.exec, func(ctx context.Context) ([]domain.Session, error) {
		return c.core.list(ctx, p)
	})
}

func (c *AsyncClient) Update(ctx context.Context, id string, p UpdateParams) *Future[*domain.Session] {
	return submit(ctx, c.exec, func(ctx context.Context) (*domain.Session, error) {
		return c.core.update(ctx, id, p)
	})
}

func (c *AsyncClient) Delete(ctx context.Context, id string) *Future[struct{}] {
	return submit(ctx, c.exec, func(ctx context.Context) (struct{}, error) {
		return c.core.delete(ctx, id)
	})
}

// Chat resolves once the reply, or the start of the stream, is available.
func (c *AsyncClient) Chat(ctx context.Context, id string, p ChatParams) *Future[*ChatResult] {
	return submit(ctx, c.exec, func(ctx context.Context) (*ChatResult, error) {
		return c.core.chat(ctx, id, p)
	})
}

func (c *AsyncClient) Suggestions(ctx context.Context, id string, p PageParams) *Future[[]domain.Suggestion] {
	return submit(ctx, c.exec, func(ctx context.Context) ([]domain.Suggestion, error) {
		return c.core.suggestions(ctx, id, p)
	})
}

func (c *AsyncClient) History(ctx context.Context, id string, p PageParams) *Future[[]domain.ChatMLMessage] {
	return submit(ctx, c.exec, func(ctx context.Context) ([]domain.ChatMLMessage, error) {
		return c.core.history(ctx, id, p)
	})
}

func (c *AsyncClient) DeleteHistory(ctx context.Context, id string) *Future[struct{}] {
	return submit(ctx, c.exec, func(ctx context.Context) (struct{}, error) {
		return c.core.deleteHistory(ctx, id)
	})
}
