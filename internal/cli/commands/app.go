package commands

import (
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/xiaot623/gogo/sdk/config"
	"github.com/xiaot623/gogo/sdk/internal/cli/ui"
	"github.com/xiaot623/gogo/sdk/internal/logger"
	"github.com/xiaot623/gogo/sdk/sessions"
	"github.com/xiaot623/gogo/sdk/transport"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer

	cfg       *config.Config
	log       logger.Logger
	transport transport.Transport
	client    *sessions.Client
	async     *sessions.AsyncClient
	formatter ui.Formatter
}

// setup loads configuration and builds the session clients. config.Load
// supplies defaults, the YAML file, .env and the environment; viper then
// layers each flag, or its GOGO_<FLAG> variable, on top.
func (a *app) setup() error {
	cfg, err := config.Load(a.v.GetString("config"))
	if err != nil {
		return err
	}

	overrides := []struct {
		key   string
		apply func()
	}{
		{"base-url", func() { cfg.BaseURL = a.v.GetString("base-url") }},
		{"api-key", func() { cfg.APIKey = a.v.GetString("api-key") }},
		{"mode", func() { cfg.Mode = a.v.GetString("mode") }},
		{"streaming", func() { cfg.Streaming = a.v.GetString("streaming") }},
		{"timeout", func() { cfg.Timeout = a.v.GetDuration("timeout") }},
		{"max-concurrency", func() { cfg.MaxConcurrency = a.v.GetInt("max-concurrency") }},
		{"log-level", func() { cfg.LogLevel = a.v.GetString("log-level") }},
	}
	for _, o := range overrides {
		// IsSet ignores flag defaults: only a changed flag or a set variable counts.
		if a.v.IsSet(o.key) {
			o.apply()
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	format, err := ui.ParseFormat(a.v.GetString("format"))
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.formatter = ui.NewFormatter(format, a.out)
	a.log = logger.New(
		logger.WithOutput(a.errOut),
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
	)

	t, err := transport.New(cfg, a.log.Slog())
	if err != nil {
		return fmt.Errorf("failed to create transport: %w", err)
	}
	a.transport = t
	a.client = sessions.NewClient(t, sessions.WithLogger(a.log.Slog()))
	a.async = sessions.NewAsyncClient(t,
		sessions.WithLogger(a.log.Slog()),
		sessions.WithMaxConcurrency(cfg.MaxConcurrency),
	)
	return nil
}

func (a *app) close() {
	if c, ok := a.transport.(io.Closer); ok {
		if err := c.Close(); err != nil && a.log != nil {
			a.log.Warn("failed to close transport", "error", err)
		}
	}
}
