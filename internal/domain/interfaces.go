package domain

import (
	"context"
)

// SurveyEvaluator runs the full scoring and recommendation pipeline
type SurveyEvaluator interface {
	Evaluate(input SurveyInput) (*SurveyResult, error)
}

// ResultCache memoizes evaluation results by input fingerprint. Evaluation is
// deterministic, so a cached result is always identical to a fresh one.
type ResultCache interface {
	Get(ctx context.Context, key string) (*SurveyResult, bool)
	Set(ctx context.Context, key string, result *SurveyResult) error
	Close() error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetCacheConfig() *CacheConfig
	GetRateLimitConfig() *RateLimitConfig
	GetLoggingConfig() *LoggingConfig
	Reload() error
	Validate() error
	IsProduction() bool
	IsDevelopment() bool
}
