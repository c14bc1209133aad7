/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, port, allowed origins, and WebSocket connection tuning.
*/
package configs

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/tealtint-nt/WebRTCSample/internal/pkg/logx"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`

	// Logging Settings
	LogLevel string `env:"LOG_LEVEL"`

	// Security Settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	// WebSocket Settings
	SendBuffer int     `env:"WS_SEND_BUFFER" envDefault:"256"`
	JoinRate   float64 `env:"WS_JOIN_RATE" envDefault:"0.5"`
	JoinBurst  int     `env:"WS_JOIN_BURST" envDefault:"10"`
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and parses the application configuration from environment variables.
// It applies defaults for each configuration item and performs validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// normalize trims list values and validates numeric ranges.
func (c *AppConfig) normalize() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	origins := make([]string, 0, len(c.AllowedOrigins))
	for _, origin := range c.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.AllowedOrigins = origins

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if _, err := logx.ParseLevel(c.LogLevel, c.IsDevelopment()); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}

	if c.SendBuffer <= 0 {
		return fmt.Errorf("WS_SEND_BUFFER must be positive, got %d", c.SendBuffer)
	}

	if c.JoinRate <= 0 || c.JoinBurst <= 0 {
		return fmt.Errorf("WS_JOIN_RATE and WS_JOIN_BURST must be positive")
	}

	return nil
}
