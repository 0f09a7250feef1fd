package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/xiaot623/gogo/sdk/domain"
)

func (c *Client) postChatStream(ctx context.Context, sessionID string, req *domain.ChatRequest) (Stream, error) {
	resp, err := c.send(ctx, c.streamClient, http.MethodPost, sessionPath(sessionID)+"/chat", nil, req, "text/event-stream")
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return nil, parseAPIError(resp.StatusCode, body)
	}

	return newSSEStream(ctx, resp.Body, c.logger), nil
}

// sseStream reads ChatChunk events until "data: [DONE]".
type sseStream struct {
	ctx       context.Context
	body      io.ReadCloser
	reader    *bufio.Reader
	logger    *slog.Logger
	stop      func() bool
	closeOnce sync.Once

	// err is the terminal result, returned by every Recv once set.
	err error
}

func newSSEStream(ctx context.Context, body io.ReadCloser, logger *slog.Logger) *sseStream {
	s := &sseStream{
		ctx:    ctx,
		body:   body,
		reader: bufio.NewReader(body),
		logger: logger,
	}
	s.stop = context.AfterFunc(ctx, func() { s.body.Close() })
	return s
}

func (s *sseStream) Recv() (*domain.ChatChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	chunk, err := s.next()
	if err != nil {
		s.err = err
		s.Close()
		return nil, err
	}
	return chunk, nil
}

func (s *sseStream) Close() error {
	s.closeOnce.Do(func() {
		s.stop()
		s.body.Close()
	})
	return nil
}

func (s *sseStream) next() (*domain.ChatChunk, error) {
	var event string
	var data strings.Builder
	hasData := false

	for {
		line, readErr := s.reader.ReadString('\n')
		if readErr != nil && !(errors.Is(readErr, io.EOF) && line != "") {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrStreamInterrupted, ctxErr)
			}
			if errors.Is(readErr, io.EOF) {
				if hasData {
					if chunk, ok, err := s.dispatch(event, data.String()); ok {
						return chunk, err
					}
				}
				return nil, fmt.Errorf("%w: connection closed before %s", ErrStreamInterrupted, domain.SSEDone)
			}
			return nil, fmt.Errorf("%w: %w", ErrStreamInterrupted, readErr)
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if hasData {
				if chunk, ok, err := s.dispatch(event, data.String()); ok {
					return chunk, err
				}
			}
			event = ""
			data.Reset()
			hasData = false
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			event = value
		case "data":
			if hasData {
				data.WriteByte('\n')
			}
			data.WriteString(value)
			hasData = true
		}
	}
}

// dispatch interprets one complete event. ok is false for events to skip.
func (s *sseStream) dispatch(event, payload string) (*domain.ChatChunk, bool, error) {
	if event == domain.SSEEventError {
		var streamErr domain.StreamErrorData
		if err := json.Unmarshal([]byte(payload), &streamErr); err != nil {
			return nil, true, fmt.Errorf("%w: server error: %s", ErrStreamInterrupted, payload)
		}
		return nil, true, fmt.Errorf("%w: server error %s: %s", ErrStreamInterrupted, streamErr.Code, streamErr.Message)
	}

	if payload == domain.SSEDone {
		return nil, true, io.EOF
	}

	var chunk domain.ChatChunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		// Skip malformed chunks
		s.logger.Debug("skipping malformed chunk", "error", err)
		return nil, false, nil
	}
	return &chunk, true, nil
}
