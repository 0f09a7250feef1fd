package sessions

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Executor decides where a facade call runs. Client uses Blocking; AsyncClient
// defaults to a Pool.
type Executor interface {
	// Execute runs task with ctx, inline or on another goroutine. A task that
	// could not be admitted is still run, with a ctx that is already done.
	Execute(ctx context.Context, task func(context.Context))
}

// Blocking runs every task on the calling goroutine.
type Blocking struct{}

func (Blocking) Execute(ctx context.Context, task func(context.Context)) {
	task(ctx)
}

// Pool runs each task on its own goroutine, with at most n running at once.
type Pool struct {
	sem *semaphore.Weighted
}

// NewPool creates a Pool admitting n concurrent tasks. n < 1 is treated as 1.
func NewPool(n int) *Pool {
	if n < 1 {
		n = 1
	}
	return &Pool{sem: semaphore.NewWeighted(int64(n))}
}

func (p *Pool) Execute(ctx context.Context, task func(context.Context)) {
	go func() {
		if err := p.sem.Acquire(ctx, 1); err != nil {
			task(ctx)
			return
		}
		defer p.sem.Release(1)
		task(ctx)
	}()
}

// Future is the pending result of an AsyncClient call.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) resolve(value T, err error) {
	f.value = value
	f.err = err
	close(f.done)
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await waits for the result or for ctx to end, whichever comes first.
// Abandoning the wait does not cancel the call; cancel the context the call
// was started with for that.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result waits for the result.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

// submit runs fn through exec and returns its future. fn validates its
// arguments before looking at ctx, so a done ctx never masks ErrInvalidArgument.
func submit[T any](ctx context.Context, exec Executor, fn func(context.Context) (T, error)) *Future[T] {
	f := newFuture[T]()
	exec.Execute(ctx, func(ctx context.Context) {
		f.resolve(fn(ctx))
	})
	return f
}
