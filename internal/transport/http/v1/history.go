package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/sdk/domain"
)

// GetHistory handles GET /sessions/:session_id/history.
func (h *Handler) GetHistory(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	messages, err := h.service.GetHistory(c.Request().Context(), c.Param("session_id"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, domain.ListResponse[domain.ChatMLMessage]{Items: messages})
}

// DeleteHistory handles DELETE /sessions/:session_id/history.
func (h *Handler) DeleteHistory(c echo.Context) error {
	resp, err := h.service.DeleteHistory(c.Request().Context(), c.Param("session_id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusAccepted, resp)
}

// ListSuggestions handles GET /sessions/:session_id/suggestions.
func (h *Handler) ListSuggestions(c echo.Context) error {
	page, err := pageParams(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	suggestions, err := h.service.ListSuggestions(c.Request().Context(), c.Param("session_id"), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, domain.ListResponse[domain.Suggestion]{Items: suggestions})
}
