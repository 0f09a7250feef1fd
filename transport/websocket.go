package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/xiaot623/gogo/sdk/domain"
)

func (c *Client) dialChat(ctx context.Context, sessionID string, req *domain.ChatRequest) (Stream, error) {
	u, err := url.Parse(c.baseURL + sessionPath(sessionID) + "/chat/ws")
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base url: %w", ErrTransport, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}

	header := http.Header{}
	c.setHeaders(header)

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			defer resp.Body.Close()
			body, _ := io.ReadAll(resp.Body)
			return nil, parseAPIError(resp.StatusCode, body)
		}
		c.logger.DebugContext(ctx, "websocket dial failed", "url", u.Redacted(), "error", err)
		return nil, fmt.Errorf("%w: failed to dial: %w", ErrTransport, err)
	}
	c.logger.DebugContext(ctx, "websocket connected", "path", u.Path)

	if err := conn.WriteJSON(req); err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: failed to send chat request: %w", ErrTransport, err)
	}

	return newWSStream(ctx, conn), nil
}

// wsStream reads StreamFrames until a done frame.
type wsStream struct {
	ctx       context.Context
	conn      *websocket.Conn
	stop      func() bool
	closeOnce sync.Once

	err error
}

func newWSStream(ctx context.Context, conn *websocket.Conn) *wsStream {
	s := &wsStream{ctx: ctx, conn: conn}
	s.stop = context.AfterFunc(ctx, func() { s.conn.Close() })
	return s
}

func (s *wsStream) Recv() (*domain.ChatChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	chunk, err := s.next()
	if err != nil {
		s.err = err
		if err == io.EOF {
			s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		}
		s.Close()
		return nil, err
	}
	return chunk, nil
}

func (s *wsStream) Close() error {
	s.closeOnce.Do(func() {
		s.stop()
		s.conn.Close()
	})
	return nil
}

func (s *wsStream) next() (*domain.ChatChunk, error) {
	for {
		var frame domain.StreamFrame
		if err := s.conn.ReadJSON(&frame); err != nil {
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %w", ErrStreamInterrupted, ctxErr)
			}
			return nil, fmt.Errorf("%w: %w", ErrStreamInterrupted, err)
		}

		switch frame.Type {
		case domain.FrameTypeChunk:
			if frame.Chunk == nil {
				continue
			}
			return frame.Chunk, nil
		case domain.FrameTypeDone:
			return nil, io.EOF
		case domain.FrameTypeError:
			return nil, fmt.Errorf("%w: server error %s: %s", ErrStreamInterrupted, frame.Code, frame.Message)
		}
	}
}
