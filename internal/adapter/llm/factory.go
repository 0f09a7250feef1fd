package llm

import (
	"strings"
	"time"

	"github.com/xiaot623/gogo/sdk/internal/logger"
)

// ModeMock forces the mock generator, like GOGO_MODE=MOCK does for the SDK transport.
const ModeMock = "MOCK"

// NewGenerator returns a MockClient in mock mode or when no endpoint is
// configured, and a Client for baseURL otherwise.
func NewGenerator(mode, baseURL, apiKey, model string, timeout time.Duration, log logger.Logger) Generator {
	if strings.EqualFold(mode, ModeMock) {
		log.Info("GOGO_MODE=MOCK detected, using mock LLM client")
		return NewMockClient()
	}
	if baseURL == "" {
		log.Info("LLM_BASE_URL not set, using mock LLM client")
		return NewMockClient()
	}
	log.Info("using OpenAI-compatible LLM endpoint", "base_url", baseURL, "model", model)
	return NewClient(baseURL, apiKey, model, timeout)
}
