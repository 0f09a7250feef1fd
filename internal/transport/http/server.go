// Package http provides the HTTP server implementation for the dev server.
package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/xiaot623/gogo/sdk/internal/logger"
	"github.com/xiaot623/gogo/sdk/internal/service"
	"github.com/xiaot623/gogo/sdk/internal/transport/http/hub"
	v1 "github.com/xiaot623/gogo/sdk/internal/transport/http/v1"
)

// NewServer creates and configures the session API server.
func NewServer(svc *service.Service, apiKeys map[string]string, log logger.Logger) *echo.Echo {
	if log == nil {
		log = logger.Nop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Error("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			log.Info("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	// Hijacked WebSocket connections are not closed by Shutdown.
	connections := hub.New(log)
	e.Server.RegisterOnShutdown(func() { connections.CloseAll("server shutting down") })

	// Handlers
	v1.NewHandler(svc, connections, apiKeys, log).RegisterRoutes(e)

	return e
}
