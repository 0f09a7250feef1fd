package transport

import (
	"log/slog"

	"github.com/xiaot623/gogo/sdk/config"
)

// New creates a Transport from cfg. With Mode MOCK (GOGO_MODE=MOCK) it returns
// an in-memory MockTransport; otherwise an HTTP Client.
func New(cfg *config.Config, log *slog.Logger) (Transport, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	if cfg.Mode == config.ModeMock {
		log.Info("GOGO_MODE=MOCK detected, using in-memory transport")
		return NewMock(log)
	}

	opts := []Option{WithLogger(log)}
	if cfg.Streaming == config.StreamingWebSocket {
		opts = append(opts, WithWebSocketStreaming())
	}
	return NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout, opts...), nil
}
