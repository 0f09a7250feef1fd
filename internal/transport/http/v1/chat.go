package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/internal/logger"
	"github.com/xiaot623/gogo/sdk/internal/transport/http/hub"
)

const (
	maxMessageSize = 1 << 20
	wsReadTimeout  = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// Chat handles POST /sessions/:session_id/chat. With stream=true the reply is
// sent as server-sent events terminated by "data: [DONE]".
func (h *Handler) Chat(c echo.Context) error {
	var req domain.ChatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	sessionID := c.Param("session_id")

	if req.Stream {
		return h.streamChat(c, sessionID, &req)
	}

	resp, err := h.service.Chat(c.Request().Context(), sessionID, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) streamChat(c echo.Context, sessionID string, req *domain.ChatRequest) error {
	w := c.Response()
	started := false
	start := func() {
		w.Header().Set(echo.HeaderContentType, "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		started = true
	}

	err := h.service.ChatStream(c.Request().Context(), sessionID, req, func(chunk *domain.ChatChunk) error {
		if !started {
			start()
		}
		data, err := json.Marshal(chunk)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		w.Flush()
		return nil
	})
	if err != nil {
		if !started {
			return respondError(c, err)
		}
		// Status is already sent; report the failure in-band.
		_, errType := classify(err)
		data, _ := json.Marshal(domain.StreamErrorData{Code: errType, Message: err.Error()})
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", domain.SSEEventError, data)
		w.Flush()
		return nil
	}

	if !started {
		start()
	}
	fmt.Fprintf(w, "data: %s\n\n", domain.SSEDone)
	w.Flush()
	return nil
}

// ChatWebSocket handles GET /sessions/:session_id/chat/ws. The first client
// frame is the ChatRequest; the server answers with chunk frames followed by a
// done or error frame.
func (h *Handler) ChatWebSocket(c echo.Context) error {
	sessionID := c.Param("session_id")
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	// Fail before the upgrade so the client sees a plain HTTP status.
	session, err := h.service.GetSession(ctx, sessionID)
	if err != nil {
		return respondError(c, err)
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Warn("failed to upgrade websocket", "error", err)
		return nil
	}
	conn := h.hub.Register(session.ID, ws)
	defer func() {
		h.hub.Unregister(conn)
		conn.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	ws.SetReadDeadline(time.Now().Add(wsReadTimeout))

	var req domain.ChatRequest
	if err := ws.ReadJSON(&req); err != nil {
		writeFrame(log, conn, domain.StreamFrame{Type: domain.FrameTypeError, Code: "invalid_request", Message: "invalid chat request"})
		return nil
	}
	ws.SetReadDeadline(time.Time{})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The client sends nothing after the request; a read error means it went
	// away or the hub closed the connection.
	go func() {
		for {
			if _, _, err := ws.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	err = h.service.ChatStream(ctx, sessionID, &req, func(chunk *domain.ChatChunk) error {
		return writeFrame(log, conn, domain.StreamFrame{Type: domain.FrameTypeChunk, Chunk: chunk})
	})
	if err != nil {
		_, errType := classify(err)
		writeFrame(log, conn, domain.StreamFrame{Type: domain.FrameTypeError, Code: errType, Message: err.Error()})
		return nil
	}

	if err := writeFrame(log, conn, domain.StreamFrame{Type: domain.FrameTypeDone}); err != nil {
		return nil
	}
	conn.CloseNormal()
	return nil
}

func writeFrame(log logger.Logger, conn *hub.Connection, frame domain.StreamFrame) error {
	if err := conn.WriteJSON(frame, wsWriteTimeout); err != nil {
		log.Debug("failed to write frame", "type", frame.Type, "error", err)
		return err
	}
	return nil
}
