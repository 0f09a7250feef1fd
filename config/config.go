// Package config loads client configuration for the sessions SDK.
//
// Sources, lowest to highest precedence:
//  1. built-in defaults
//  2. a YAML file (--config, or ~/.config/gogo/config.yaml when present)
//  3. a .env file in the working directory
//  4. environment variables (GOGO_BASE_URL, GOGO_API_KEY, ...)
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// ModeHTTP talks to a remote service over HTTP.
	ModeHTTP = "HTTP"
	// ModeMock uses the in-memory transport.
	ModeMock = "MOCK"

	StreamingSSE       = "sse"
	StreamingWebSocket = "websocket"
)

// Config holds the SDK client configuration.
type Config struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`

	// Timeout bounds non-streaming requests. Streams are bounded by the caller's context.
	Timeout time.Duration `yaml:"timeout"`

	Mode      string `yaml:"mode"`
	Streaming string `yaml:"streaming"`

	// MaxConcurrency caps in-flight calls of the async client.
	MaxConcurrency int `yaml:"max_concurrency"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseURL:        "http://localhost:8080",
		Timeout:        60 * time.Second,
		Mode:           ModeHTTP,
		Streaming:      StreamingSSE,
		MaxConcurrency: 8,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// DefaultPath returns ~/.config/gogo/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gogo", "config.yaml")
}

// Load builds a Config from defaults, the YAML file at path, .env and the environment.
// An empty path means DefaultPath, which may be absent.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads variables from the given files into the process environment.
// Missing files are ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnv("GOGO_BASE_URL", c.BaseURL)
	c.APIKey = getEnv("GOGO_API_KEY", c.APIKey)
	c.Mode = strings.ToUpper(getEnv("GOGO_MODE", c.Mode))
	c.Streaming = strings.ToLower(getEnv("GOGO_STREAMING", c.Streaming))
	c.MaxConcurrency = getEnvInt("GOGO_MAX_CONCURRENCY", c.MaxConcurrency)
	if ms := getEnvInt("GOGO_TIMEOUT_MS", 0); ms > 0 {
		c.Timeout = time.Duration(ms) * time.Millisecond
	}
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

// Validate checks the configuration for values the transport cannot work with.
func (c *Config) Validate() error {
	c.Mode = strings.ToUpper(c.Mode)
	if c.Mode == "" {
		c.Mode = ModeHTTP
	}
	switch c.Mode {
	case ModeHTTP, ModeMock:
	default:
		return fmt.Errorf("unknown mode %q (want %s or %s)", c.Mode, ModeHTTP, ModeMock)
	}

	c.Streaming = strings.ToLower(c.Streaming)
	if c.Streaming == "" {
		c.Streaming = StreamingSSE
	}
	switch c.Streaming {
	case StreamingSSE, StreamingWebSocket:
	default:
		return fmt.Errorf("unknown streaming mode %q (want %s or %s)", c.Streaming, StreamingSSE, StreamingWebSocket)
	}

	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive, got %d", c.MaxConcurrency)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}

	if c.Mode == ModeMock {
		return nil
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid base_url %q", c.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must use http or https, got %q", u.Scheme)
	}
	return nil
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
