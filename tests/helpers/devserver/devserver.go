// Package devserver starts an in-process session API server for tests.
package devserver

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/xiaot623/gogo/sdk/internal/adapter/llm"
	"github.com/xiaot623/gogo/sdk/internal/logger"
	"github.com/xiaot623/gogo/sdk/internal/policy"
	"github.com/xiaot623/gogo/sdk/internal/service"
	httpserver "github.com/xiaot623/gogo/sdk/internal/transport/http"
	"github.com/xiaot623/gogo/sdk/tests/helpers"
)

// New starts a server without authentication.
func New(t *testing.T) *httptest.Server {
	return NewWithKeys(t, nil)
}

// NewWithKeys starts a server that accepts the given bearer tokens, mapped to roles.
func NewWithKeys(t *testing.T, apiKeys map[string]string) *httptest.Server {
	t.Helper()

	policyEngine, err := policy.NewEngine(context.Background(), policy.DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	svc := service.New(helpers.NewTestSQLiteStore(t), llm.NewMockClient(), policyEngine, logger.Nop())

	srv := httptest.NewServer(httpserver.NewServer(svc, apiKeys, logger.Nop()))
	t.Cleanup(srv.Close)
	return srv
}
