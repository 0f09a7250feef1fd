// Command devserver runs a local session service backed by SQLite. Replies come
// from an OpenAI-compatible endpoint (LLM_BASE_URL) or a deterministic mock.
// It serves the same API the SDK talks to.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sdkconfig "github.com/xiaot623/gogo/sdk/config"
	"github.com/xiaot623/gogo/sdk/internal/adapter/llm"
	"github.com/xiaot623/gogo/sdk/internal/config"
	"github.com/xiaot623/gogo/sdk/internal/logger"
	"github.com/xiaot623/gogo/sdk/internal/policy"
	store "github.com/xiaot623/gogo/sdk/internal/repository"
	"github.com/xiaot623/gogo/sdk/internal/service"
	httpserver "github.com/xiaot623/gogo/sdk/internal/transport/http"
)

func main() {
	if err := sdkconfig.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	// Load configuration
	cfg := config.Load()

	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
	)

	log.Info("Starting session dev server...",
		"port", cfg.HTTPPort,
		"database", cfg.DatabaseURL,
		"api_keys", len(cfg.APIKeys),
	)

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to initialize store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize policy engine
	ctx := context.Background()
	policyContent := policy.DefaultPolicy
	if cfg.PolicyPath != "" {
		data, err := os.ReadFile(cfg.PolicyPath)
		if err != nil {
			log.Error("Failed to read policy", "path", cfg.PolicyPath, "error", err)
			os.Exit(1)
		}
		policyContent = string(data)
	}
	policyEngine, err := policy.NewEngine(ctx, policyContent)
	if err != nil {
		log.Error("Failed to initialize policy engine", "error", err)
		os.Exit(1)
	}

	// Initialize service
	generator := llm.NewGenerator(cfg.Mode, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout, log)
	svc := service.New(db, generator, policyEngine, log)

	server := httpserver.NewServer(svc, cfg.APIKeys, log)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("Session API started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down dev server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shutdown server gracefully", "error", err)
	}

	log.Info("Dev server stopped")
}
