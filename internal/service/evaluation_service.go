package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/osa-screening-server/internal/domain"
)

const cacheKeyVersion = "v1"

// EvaluationService fronts the survey aggregator for the transports. It adds
// result caching and request-scoped logging; evaluation itself stays pure.
type EvaluationService struct {
	logger     *logrus.Logger
	aggregator *SurveyAggregator
	cache      domain.ResultCache
}

// NewEvaluationService creates a new evaluation service. cache may be nil.
func NewEvaluationService(logger *logrus.Logger, aggregator *SurveyAggregator, cache domain.ResultCache) *EvaluationService {
	if aggregator == nil {
		aggregator = NewSurveyAggregator(logger, nil)
	}
	return &EvaluationService{
		logger:     logger,
		aggregator: aggregator,
		cache:      cache,
	}
}

// Evaluate scores a survey, serving repeated inputs from the cache
func (s *EvaluationService) Evaluate(ctx context.Context, input domain.SurveyInput) (*domain.SurveyResult, error) {
	startTime := time.Now()

	var key string
	if s.cache != nil {
		k, err := CacheKey(input)
		if err != nil {
			s.logger.WithError(err).Warn("Failed to derive cache key, evaluating without cache")
		} else {
			key = k
			if cached, ok := s.cache.Get(ctx, key); ok {
				s.logger.WithFields(logrus.Fields{
					"cache_key": shortKey(key),
					"duration":  time.Since(startTime),
				}).Debug("Served survey evaluation from cache")
				return cached, nil
			}
		}
	}

	result, err := s.aggregator.Evaluate(input)
	if err != nil {
		return nil, err
	}

	if key != "" {
		if err := s.cache.Set(ctx, key, result); err != nil {
			s.logger.WithError(err).WithField("cache_key", shortKey(key)).Warn("Failed to cache survey evaluation")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"risk_tier": result.RiskTier,
		"duration":  time.Since(startTime),
	}).Debug("Survey evaluation completed")

	return result, nil
}

// ExplainRule evaluates a single recommendation rule against a survey
func (s *EvaluationService) ExplainRule(ctx context.Context, ruleID string, input domain.SurveyInput) (*RuleOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.aggregator.ExplainRule(ruleID, input)
}

// Rules lists the recommendation catalogue
func (s *EvaluationService) Rules() []RuleInfo {
	return s.aggregator.Engine().Rules()
}

// CacheKey fingerprints a survey input. Struct fields marshal in declaration
// order, so equal inputs always produce equal keys.
func CacheKey(input domain.SurveyInput) (string, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to marshal survey input: %w", err)
	}
	hash := sha256.Sum256(append([]byte(cacheKeyVersion+"::"), data...))
	return hex.EncodeToString(hash[:]), nil
}

func shortKey(key string) string {
	if len(key) > 12 {
		return key[:12]
	}
	return key
}
