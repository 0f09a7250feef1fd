package sessions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/transport"
)

// ChatStream is a one-shot sequence of reply fragments. Recv and All must not
// be used from several goroutines at once; Close may be called from any.
type ChatStream struct {
	ctx       context.Context
	src       transport.Stream
	stop      func() bool
	closeOnce sync.Once
	closed    atomic.Bool
	iterated  atomic.Bool

	err error
}

func newChatStream(ctx context.Context, src transport.Stream) *ChatStream {
	s := &ChatStream{ctx: ctx, src: src}
	s.stop = context.AfterFunc(ctx, s.release)
	return s
}

// Recv returns the next fragment. It returns io.EOF after the last one,
// ctx.Err() once the stream's context ends, and an error matching
// ErrStreamInterrupted when the stream broke off. Terminal errors repeat.
func (s *ChatStream) Recv() (*domain.ChatChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.closed.Load() {
		return nil, ErrStreamClosed
	}
	if err := s.ctx.Err(); err != nil {
		return nil, s.fail(err)
	}

	chunk, err := s.src.Recv()
	if err == nil {
		return chunk, nil
	}

	switch {
	case errors.Is(err, io.EOF):
		err = io.EOF
	case s.ctx.Err() != nil:
		err = s.ctx.Err()
	case s.closed.Load():
		err = ErrStreamClosed
	case !errors.Is(err, ErrStreamInterrupted):
		err = fmt.Errorf("%w: %w", ErrStreamInterrupted, err)
	}
	return nil, s.fail(err)
}

func (s *ChatStream) fail(err error) error {
	s.err = err
	s.stop()
	s.release()
	return err
}

// All returns the fragments as an iterator. Iteration ends quietly after the
// last fragment; a failure is yielded once as the final pair. Breaking out of
// the loop closes the stream. A second iteration yields ErrStreamConsumed.
func (s *ChatStream) All() iter.Seq2[*domain.ChatChunk, error] {
	return func(yield func(*domain.ChatChunk, error) bool) {
		if !s.iterated.CompareAndSwap(false, true) {
			yield(nil, ErrStreamConsumed)
			return
		}
		defer s.Close()

		for {
			chunk, err := s.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}

// Collect drains the stream and concatenates the fragment contents. On
// failure it returns what arrived before it.
func (s *ChatStream) Collect() (string, error) {
	var b strings.Builder
	for chunk, err := range s.All() {
		if err != nil {
			return b.String(), err
		}
		b.WriteString(chunk.Delta.Content)
	}
	return b.String(), nil
}

// Close releases the underlying connection. Fragments not yet received are dropped.
func (s *ChatStream) Close() error {
	s.closed.Store(true)
	s.stop()
	s.release()
	return nil
}

// release closes the source once. It also runs from the context's AfterFunc.
func (s *ChatStream) release() {
	s.closeOnce.Do(func() {
		s.src.Close()
	})
}
