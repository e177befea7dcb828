// Package config provides configuration management for the screening servers.
// This file contains the environment-only configuration used by the stdio
// MCP server, which must start without a config file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/osa-screening-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation.
// It uses an in-memory cache only.
type LiteConfig struct {
	// Cache settings
	CacheEnabled  bool
	CacheMaxItems int
	CacheTTL      time.Duration

	// Maximum recommendations shown per response
	DisplayLimit int

	// MCP identity
	ServerName    string
	ServerVersion string

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	return &LiteConfig{
		CacheEnabled:  true,
		CacheMaxItems: 500,
		CacheTTL:      15 * time.Minute,
		DisplayLimit:  domain.DefaultDisplayLimit,
		ServerName:    "osa-screening-server",
		ServerVersion: "1.0.0",
		LogLevel:      "info",
		LogFormat:     "json",
	}
}

// LoadLiteConfig loads configuration from environment variables.
// Unset or malformed values keep their defaults.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("OSA_CACHE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.CacheEnabled = b
		}
	}
	if v := os.Getenv("OSA_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("OSA_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.CacheTTL = d
		}
	}

	if v := os.Getenv("OSA_ENGINE_DISPLAY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DisplayLimit = n
		}
	}

	if v := os.Getenv("OSA_MCP_SERVER_NAME"); v != "" {
		cfg.ServerName = v
	}
	if v := os.Getenv("OSA_MCP_SERVER_VERSION"); v != "" {
		cfg.ServerVersion = v
	}

	if v := os.Getenv("OSA_LOGGING_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OSA_LOGGING_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// CacheConfig converts the lite settings to a memory-only cache config.
func (c *LiteConfig) CacheConfig() domain.CacheConfig {
	return domain.CacheConfig{
		Enabled:  c.CacheEnabled,
		MaxItems: c.CacheMaxItems,
		TTL:      c.CacheTTL,
	}
}

// LoggingConfig converts the lite settings to a logging config.
func (c *LiteConfig) LoggingConfig() domain.LoggingConfig {
	return domain.LoggingConfig{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: "stderr",
	}
}
