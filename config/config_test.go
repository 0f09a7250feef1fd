package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"GOGO_BASE_URL", "GOGO_API_KEY", "GOGO_MODE", "GOGO_STREAMING", "GOGO_MAX_CONCURRENCY", "GOGO_TIMEOUT_MS", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.Equal(t, ModeHTTP, cfg.Mode)
	assert.Equal(t, StreamingSSE, cfg.Streaming)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, 8, cfg.MaxConcurrency)
}

func TestLoadFileThenEnv(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "base_url: https://sessions.example.com\napi_key: from-file\ntimeout: 5s\nstreaming: websocket\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("GOGO_API_KEY", "from-env")
	t.Setenv("GOGO_TIMEOUT_MS", "1500")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://sessions.example.com", cfg.BaseURL)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Equal(t, StreamingWebSocket, cfg.Streaming)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: [unclosed"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "GOGO_CONFIG_TEST_DOTENV"
	t.Cleanup(func() { os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=loaded\n"), 0o600))

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env"), path))
	assert.Equal(t, "loaded", os.Getenv(key))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "lowercase mock mode", mutate: func(c *Config) { c.Mode = "mock"; c.BaseURL = "" }},
		{name: "unknown mode", mutate: func(c *Config) { c.Mode = "grpc" }, wantErr: true},
		{name: "unknown streaming", mutate: func(c *Config) { c.Streaming = "poll" }, wantErr: true},
		{name: "zero concurrency", mutate: func(c *Config) { c.MaxConcurrency = 0 }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: true},
		{name: "missing scheme", mutate: func(c *Config) { c.BaseURL = "localhost:8080" }, wantErr: true},
		{name: "ftp scheme", mutate: func(c *Config) { c.BaseURL = "ftp://example.com" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
