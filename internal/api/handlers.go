package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/osa-screening-server/internal/domain"
	"github.com/osa-screening-server/internal/middleware"
	"github.com/osa-screening-server/internal/service"
)

// EvaluateResponse is a SurveyResult whose recommendation list is capped for
// display. RecommendationString always carries the full list.
type EvaluateResponse struct {
	*domain.SurveyResult
	TotalRecommendations int `json:"totalRecommendations"`
}

// BMIRequest is the body of POST /api/v1/bmi
type BMIRequest struct {
	HeightCm float64 `json:"heightCm"`
	WeightKg float64 `json:"weightKg"`
}

// BMIResponse reports a BMI or its unavailability
type BMIResponse struct {
	BMI       float64 `json:"bmi"`
	Available bool    `json:"available"`
	Category  string  `json:"category,omitempty"`
}

// ESSRequest is the body of POST /api/v1/scores/ess
type ESSRequest struct {
	Responses domain.EssResponses `json:"responses"`
}

// BerlinRequest is the body of POST /api/v1/scores/berlin
type BerlinRequest struct {
	domain.BerlinResponses
	HeightCm float64 `json:"heightCm"`
	WeightKg float64 `json:"weightKg"`
}

// StopBangRequest is the body of POST /api/v1/scores/stopbang
type StopBangRequest struct {
	domain.StopBangFactors
	Demographics domain.Demographics `json:"demographics"`
}

// ValidationResponse lists every invalid field of a request
type ValidationResponse struct {
	*domain.APIError
	Fields domain.ValidationErrors `json:"fields"`
}

func (s *Server) handleEvaluate(c *gin.Context) {
	limit, ok := s.displayLimit(c)
	if !ok {
		return
	}

	var input domain.SurveyInput
	if !s.bind(c, &input) {
		return
	}

	ctx := c.Request.Context()
	result, err := s.evaluator.Evaluate(ctx, input)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if ctx.Err() != nil {
		s.respondError(c, ctx.Err())
		return
	}

	display := *result
	display.Recommendations = result.Recommendations.Top(limit)

	c.JSON(http.StatusOK, EvaluateResponse{
		SurveyResult:         &display,
		TotalRecommendations: len(result.Recommendations),
	})
}

func (s *Server) handleBMI(c *gin.Context) {
	var req BMIRequest
	if !s.bind(c, &req) {
		return
	}
	if err := domain.ValidateMeasurements("", req.HeightCm, req.WeightKg); err != nil {
		s.respondError(c, err)
		return
	}

	bmi := service.ComputeBMI(req.HeightCm, req.WeightKg)
	c.JSON(http.StatusOK, BMIResponse{
		BMI:       bmi.Value,
		Available: bmi.Available,
		Category:  service.BMICategory(bmi),
	})
}

func (s *Server) handleESS(c *gin.Context) {
	var req ESSRequest
	if !s.bind(c, &req) {
		return
	}

	result, err := service.ScoreESS(req.Responses)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleBerlin(c *gin.Context) {
	var req BerlinRequest
	if !s.bind(c, &req) {
		return
	}
	if err := domain.ValidateMeasurements("", req.HeightCm, req.WeightKg); err != nil {
		s.respondError(c, err)
		return
	}

	bmi := service.ComputeBMI(req.HeightCm, req.WeightKg)
	result := service.ScoreBerlin(req.Category1, req.Category2, req.Category3Sleepy, bmi)
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleStopBang(c *gin.Context) {
	var req StopBangRequest
	if !s.bind(c, &req) {
		return
	}

	d := req.Demographics
	if err := d.Validate("demographics."); err != nil {
		s.respondError(c, err)
		return
	}

	bmi := service.ComputeBMI(d.HeightCm, d.WeightKg)
	result := service.ScoreStopBang(req.StopBangFactors, bmi, d.Age, d.NeckCircumferenceCm, d.IsMale())
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListRules(c *gin.Context) {
	rules := s.evaluator.Rules()
	c.JSON(http.StatusOK, gin.H{
		"rules": rules,
		"count": len(rules),
	})
}

func (s *Server) handleExplainRule(c *gin.Context) {
	var input domain.SurveyInput
	if !s.bind(c, &input) {
		return
	}

	outcome, err := s.evaluator.ExplainRule(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// displayLimit reads the optional ?limit= query parameter
func (s *Server) displayLimit(c *gin.Context) (int, bool) {
	limit := s.configManager.GetConfig().Engine.DisplayLimit
	raw := c.Query("limit")
	if raw == "" {
		return limit, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrInvalidInput,
			"Invalid limit",
			"limit must be a positive integer",
			requestID(c),
		))
		return 0, false
	}
	return n, true
}

func (s *Server) bind(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		s.logger.WithError(err).WithField("correlation_id", requestID(c)).Debug("Malformed request body")
		c.AbortWithStatusJSON(http.StatusBadRequest, domain.NewAPIError(
			domain.ErrInvalidInput,
			"Malformed request body",
			err.Error(),
			requestID(c),
		))
		return false
	}
	return true
}

// respondError maps service errors to HTTP responses
func (s *Server) respondError(c *gin.Context, err error) {
	id := requestID(c)

	var verrs domain.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		c.AbortWithStatusJSON(http.StatusBadRequest, ValidationResponse{
			APIError: domain.NewAPIError(domain.ErrValidation, "Request validation failed", err.Error(), id),
			Fields:   verrs,
		})
	case errors.Is(err, domain.ErrUnknownRule):
		c.AbortWithStatusJSON(http.StatusNotFound, domain.NewAPIError(
			domain.ErrNotFound, "Recommendation rule not found", err.Error(), id))
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		c.AbortWithStatusJSON(http.StatusRequestTimeout, domain.NewAPIError(
			domain.ErrInternalServer, "Request timeout", err.Error(), id))
	default:
		s.logger.WithError(err).WithField("correlation_id", id).Error("Request failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, domain.NewAPIError(
			domain.ErrInternalServer, "Internal server error", "", id))
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(middleware.CorrelationIDKey)
}
