package v1

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/internal/logger"
)

// CreateSession handles POST /sessions.
func (h *Handler) CreateSession(c echo.Context) error {
	var req domain.CreateSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.AgentID == "" {
		return badRequest(c, "agent_id is required")
	}

	resp, err := h.service.CreateSession(c.Request().Context(), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// GetSession handles GET /sessions/:session_id.
func (h *Handler) GetSession(c echo.Context) error {
	session, err := h.service.GetSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, session)
}

// ListSessions handles GET /sessions. metadata_filter is a JSON object.
func (h *Handler) ListSessions(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}
	params := domain.ListSessionsParams{Limit: page.Limit, Offset: page.Offset}

	if raw := c.QueryParam("metadata_filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params.MetadataFilter); err != nil {
			return badRequest(c, "metadata_filter must be a JSON object")
		}
	}

	sessions, err := h.service.ListSessions(c.Request().Context(), params)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, domain.ListResponse[domain.Session]{Items: sessions})
}

// ReplaceSession handles PUT /sessions/:session_id.
func (h *Handler) ReplaceSession(c echo.Context) error {
	var req domain.ReplaceSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.ReplaceSession(c.Request().Context(), c.Param("session_id"), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// PatchSession handles PATCH /sessions/:session_id.
func (h *Handler) PatchSession(c echo.Context) error {
	var req domain.PatchSessionRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	resp, err := h.service.PatchSession(c.Request().Context(), c.Param("session_id"), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// DeleteSession handles DELETE /sessions/:session_id. Chats still streaming
// over WebSocket in the session are closed.
func (h *Handler) DeleteSession(c echo.Context) error {
	resp, err := h.service.DeleteSession(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return respondError(c, err)
	}
	if n := h.hub.CloseSession(resp.ID, "session deleted"); n > 0 {
		logger.FromContext(c.Request().Context()).Info("closed live chat streams", "count", n)
	}
	return c.JSON(http.StatusAccepted, resp)
}
