// Package config provides configuration for the dev server.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the dev server configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// APIKeys maps a bearer token to a role. Empty means authentication is off.
	APIKeys map[string]string

	// PolicyPath points to a rego file replacing the built-in access policy.
	PolicyPath string

	ShutdownTimeout time.Duration

	// Reply generation. Without LLMBaseURL, or with Mode MOCK, replies come from
	// the deterministic mock generator.
	Mode       string
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	LLMTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:     getEnv("DATABASE_URL", "file:gogo.db?cache=shared&mode=rwc"),
		APIKeys:         parseAPIKeys(getEnv("API_KEYS", "")),
		PolicyPath:      getEnv("POLICY_PATH", ""),
		ShutdownTimeout: time.Duration(getEnvInt("SHUTDOWN_TIMEOUT_MS", 10000)) * time.Millisecond,
		Mode:            getEnv("GOGO_MODE", ""),
		LLMBaseURL:      getEnv("LLM_BASE_URL", ""),
		LLMAPIKey:       getEnv("LLM_API_KEY", ""),
		LLMModel:        getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMTimeout:      time.Duration(getEnvInt("LLM_TIMEOUT_MS", 60000)) * time.Millisecond,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
	}
}

// parseAPIKeys parses "key:role,key2:role2". A key without a role gets "admin".
func parseAPIKeys(raw string) map[string]string {
	keys := map[string]string{}
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, role, ok := strings.Cut(entry, ":")
		if !ok || role == "" {
			role = "admin"
		}
		keys[strings.TrimSpace(key)] = strings.TrimSpace(role)
	}
	return keys
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
