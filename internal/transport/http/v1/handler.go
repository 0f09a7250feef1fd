// Package v1 provides the HTTP handlers of the dev server session API.
package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/xiaot623/gogo/sdk/domain"
	"github.com/xiaot623/gogo/sdk/internal/logger"
	"github.com/xiaot623/gogo/sdk/internal/policy"
	"github.com/xiaot623/gogo/sdk/internal/service"
	"github.com/xiaot623/gogo/sdk/internal/transport/http/hub"
)

// Handler handles HTTP requests.
type Handler struct {
	service  *service.Service
	hub      *hub.Hub
	apiKeys  map[string]string
	log      logger.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a new handler. apiKeys maps bearer tokens to roles; an
// empty map disables authentication. A nil hub gets a private one.
func NewHandler(service *service.Service, connections *hub.Hub, apiKeys map[string]string, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	if connections == nil {
		connections = hub.New(log)
	}
	return &Handler{
		service: service,
		hub:     connections,
		apiKeys: apiKeys,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// RegisterRoutes registers the session routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/sessions", h.AccessControl)

	g.POST("", h.CreateSession)
	g.GET("", h.ListSessions)
	g.GET("/:session_id", h.GetSession)
	g.PUT("/:session_id", h.ReplaceSession)
	g.PATCH("/:session_id", h.PatchSession)
	g.DELETE("/:session_id", h.DeleteSession)

	g.POST("/:session_id/chat", h.Chat)
	g.GET("/:session_id/chat/ws", h.ChatWebSocket)

	g.GET("/:session_id/history", h.GetHistory)
	g.DELETE("/:session_id/history", h.DeleteHistory)
	g.GET("/:session_id/suggestions", h.ListSuggestions)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        "0.1.0",
		"active_streams": h.hub.GetConnectionCount(),
	})
}

// AccessControl resolves the caller's role from its bearer token and asks the
// policy engine whether the request may proceed. Allowed requests carry a
// logger scoped to the route and session in their context.
func (h *Handler) AccessControl(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		input := policy.Input{
			Method:   c.Request().Method,
			Path:     c.Request().URL.Path,
			Role:     "admin",
			Mutating: c.Request().Method != http.MethodGet || strings.HasSuffix(c.Path(), "/chat/ws"),
		}
		if len(h.apiKeys) > 0 {
			token := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			input.AuthRequired = true
			input.Role = h.apiKeys[token]
		}

		if err := h.service.Authorize(c.Request().Context(), input); err != nil {
			if input.AuthRequired && input.Role == "" && errors.Is(err, service.ErrForbidden) {
				return c.JSON(http.StatusUnauthorized, domain.ErrorResponse{
					Error: &domain.APIErrorBody{Message: err.Error(), Type: "unauthorized"},
				})
			}
			return respondError(c, err)
		}

		log := h.log.With("method", input.Method, "route", c.Path(), "role", input.Role)
		if id := c.Param("session_id"); id != "" {
			log = log.With("session_id", id)
		}
		c.SetRequest(c.Request().WithContext(logger.WithContext(c.Request().Context(), log)))
		return next(c)
	}
}

func respondError(c echo.Context, err error) error {
	status, errType := classify(err)
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("request failed: %v", err)
	}
	return c.JSON(status, domain.ErrorResponse{
		Error: &domain.APIErrorBody{Message: err.Error(), Type: errType},
	})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, domain.ErrorResponse{
		Error: &domain.APIErrorBody{Message: message, Type: "invalid_request"},
	})
}

// intParam parses an optional non-negative integer query parameter.
func intParam(c echo.Context, name string) (*int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return nil, errors.New(name + " must be a non-negative integer")
	}
	return &v, nil
}

func pageParams(c echo.Context) (domain.PageParams, error) {
	limit, err := intParam(c, "limit")
	if err != nil {
		return domain.PageParams{}, err
	}
	offset, err := intParam(c, "offset")
	if err != nil {
		return domain.PageParams{}, err
	}
	return domain.PageParams{Limit: limit, Offset: offset}, nil
}
