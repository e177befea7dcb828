// Package mcp provides the MCP server implementation.
// This file contains the lightweight server that needs no config file and no
// Redis; results are cached in memory only.
package mcp

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/osa-screening-server/internal/cache"
	litecfg "github.com/osa-screening-server/internal/config"
	"github.com/osa-screening-server/internal/domain"
	"github.com/osa-screening-server/internal/logging"
	"github.com/osa-screening-server/internal/service"
)

// LiteServer is a lightweight MCP server configured from the environment.
type LiteServer struct {
	*Server
	config *litecfg.LiteConfig
	cache  domain.ResultCache
	logger *logrus.Logger

	cacheOverride bool
	ownsLogger    bool
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// WithResultCache replaces the in-memory result cache. A nil cache disables
// caching.
func WithResultCache(resultCache domain.ResultCache) LiteServerOption {
	return func(s *LiteServer) error {
		s.cache = resultCache
		s.cacheOverride = true
		return nil
	}
}

// NewLiteServer creates a new lightweight MCP server instance.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	server := &LiteServer{config: cfg}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.logger == nil {
		logger, err := logging.NewLogger(cfg.LoggingConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		server.logger = logger
		server.ownsLogger = true
	}

	if cc := cfg.CacheConfig(); !server.cacheOverride && cc.Enabled {
		memCache, err := cache.NewMemoryCache(cc.MaxItems, cc.TTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create memory cache: %w", err)
		}
		server.cache = memCache
	}

	evaluator := service.NewEvaluationService(server.logger, nil, server.cache)

	mcpServer, err := NewServer(domain.MCPConfig{
		ServerName:    cfg.ServerName,
		ServerVersion: cfg.ServerVersion,
		TransportType: TransportStdio,
	}, cfg.DisplayLimit, evaluator, server.logger)
	if err != nil {
		return nil, err
	}
	server.Server = mcpServer

	server.logger.WithFields(logrus.Fields{
		"cache_enabled": server.cache != nil,
		"display_limit": cfg.DisplayLimit,
	}).Info("Lite server initialized successfully")
	return server, nil
}

// Close cleans up server resources. A logger built by NewLiteServer is
// closed last; one passed in with WithLogger is left to the caller.
func (s *LiteServer) Close() error {
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close result cache")
			return err
		}
	}
	if s.ownsLogger {
		return logging.Close(s.logger)
	}
	return nil
}

// GetCache returns the result cache for external access.
func (s *LiteServer) GetCache() domain.ResultCache {
	return s.cache
}
