package sessions

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xiaot623/gogo/sdk/domain"
)

func openStream(t *testing.T, ctx context.Context, src *fakeStream) *ChatStream {
	t.Helper()
	c := NewClient(&fakeTransport{stream: src})
	result, err := c.Chat(ctx, uuid.NewString(), ChatParams{
		Messages: []domain.ChatMLMessage{{Role: domain.RoleUser, Content: "hi"}},
		Stream:   true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Stream)
	return result.Stream
}

func TestStreamCollect(t *testing.T) {
	src := newFakeStream(nil, "Hel", "lo ", "world")
	stream := openStream(t, context.Background(), src)

	content, err := stream.Collect()
	require.NoError(t, err)
	assert.Equal(t, "Hello world", content)
	assert.True(t, src.closed.Load())
}

func TestStreamRecvUntilEOF(t *testing.T) {
	stream := openStream(t, context.Background(), newFakeStream(nil, "a", "b"))
	defer stream.Close()

	var got []string
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, chunk.Delta.Content)
	}
	assert.Equal(t, []string{"a", "b"}, got)

	_, err := stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamSecondIterationIsConsumed(t *testing.T) {
	stream := openStream(t, context.Background(), newFakeStream(nil, "x"))

	_, err := stream.Collect()
	require.NoError(t, err)

	_, err = stream.Collect()
	assert.ErrorIs(t, err, ErrStreamConsumed)
}

func TestStreamInterruptionKeepsFragments(t *testing.T) {
	boom := errors.New("connection reset")
	stream := openStream(t, context.Background(), newFakeStream(boom, "partial ", "reply"))

	content, err := stream.Collect()
	assert.Equal(t, "partial reply", content)
	assert.ErrorIs(t, err, ErrStreamInterrupted)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrInvalidArgument)
}

func TestStreamInterruptedErrorNotWrappedTwice(t *testing.T) {
	stream := openStream(t, context.Background(), newFakeStream(ErrStreamInterrupted))

	_, err := stream.Recv()
	assert.Same(t, ErrStreamInterrupted, err)

	_, again := stream.Recv()
	assert.Same(t, err, again)
}

func TestStreamCancelClosesSource(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := newFakeStream(nil, "first")
	src.block = true
	stream := openStream(t, ctx, src)

	chunk, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "first", chunk.Delta.Content)

	errCh := make(chan error, 1)
	go func() {
		_, err := stream.Recv()
		errCh <- err
	}()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Recv did not return after cancellation")
	}
	assert.True(t, src.closed.Load())
}

func TestStreamBreakCloses(t *testing.T) {
	src := newFakeStream(nil, "a", "b", "c")
	stream := openStream(t, context.Background(), src)

	for chunk, err := range stream.All() {
		require.NoError(t, err)
		assert.Equal(t, "a", chunk.Delta.Content)
		break
	}
	assert.True(t, src.closed.Load())

	_, err := stream.Recv()
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestStreamCloseIsIdempotent(t *testing.T) {
	src := newFakeStream(nil, "a")
	stream := openStream(t, context.Background(), src)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())
	assert.True(t, src.closed.Load())

	_, err := stream.Recv()
	assert.ErrorIs(t, err, ErrStreamClosed)
}

func TestChatOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ft := &fakeTransport{}
	_, err := NewClient(ft).Chat(ctx, uuid.NewString(), ChatParams{Stream: true})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, ft.callCount())
}

func TestInvalidArgumentWinsOverCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ft := &fakeTransport{}
	blocking := NewClient(ft)
	async := NewAsyncClient(ft)

	_, err := blocking.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.NotErrorIs(t, err, context.Canceled)

	_, err = async.Get(ctx, "not-a-uuid").Result()
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = blocking.History(ctx, uuid.NewString(), PageParams{Limit: intPtr(-1)})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = async.Delete(ctx, "3fa85f64-5717-1562-b3fc-2c963f66afa6").Await(context.Background())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = blocking.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, ft.callCount())
}
