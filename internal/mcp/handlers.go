package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/osa-screening-server/internal/domain"
	"github.com/osa-screening-server/internal/service"
)

// Tool names
const (
	toolEvaluate      = "evaluate_osa_risk"
	toolComputeBMI    = "compute_bmi"
	toolScoreESS      = "score_ess"
	toolScoreBerlin   = "score_berlin"
	toolScoreStopBang = "score_stopbang"
	toolListRules     = "list_recommendation_rules"
	toolExplainRule   = "explain_rule"
)

var toolDefinitions = map[string]*mcp.Tool{
	toolEvaluate: {
		Name: toolEvaluate,
		Description: "Evaluate a complete OSA screening survey: BMI, Epworth, Berlin and STOP-BANG scores, " +
			"activity and sleep, and a priority-ordered list of evidence-based recommendations.",
	},
	toolComputeBMI: {
		Name:        toolComputeBMI,
		Description: "Compute body-mass index from height in centimetres and weight in kilograms.",
	},
	toolScoreESS: {
		Name:        toolScoreESS,
		Description: "Score the eight Epworth Sleepiness Scale responses (each 0-3).",
	},
	toolScoreBerlin: {
		Name:        toolScoreBerlin,
		Description: "Score the Berlin Questionnaire. Height and weight are optional and feed category 3.",
	},
	toolScoreStopBang: {
		Name:        toolScoreStopBang,
		Description: "Score the STOP-BANG questionnaire from the STOP answers and demographics.",
	},
	toolListRules: {
		Name:        toolListRules,
		Description: "List the recommendation rules with their priority, arity and evidence source.",
	},
	toolExplainRule: {
		Name:        toolExplainRule,
		Description: "Evaluate one recommendation rule against a survey and report whether it fired.",
	},
}

// BerlinAnswers holds Berlin items keyed "item2".."item9". The categories are
// open maps so unrecognised keys are ignored instead of failing the call.
type BerlinAnswers struct {
	Category1       map[string]bool `json:"category1,omitempty"`
	Category2       map[string]bool `json:"category2,omitempty"`
	Category3Sleepy bool            `json:"category3Sleepy,omitempty"`
}

// Responses converts the answers to the scored record
func (a BerlinAnswers) Responses() domain.BerlinResponses {
	return domain.BerlinResponses{
		Category1:       domain.NewBerlinCategory1(a.Category1),
		Category2:       domain.NewBerlinCategory2(a.Category2),
		Category3Sleepy: a.Category3Sleepy,
	}
}

// SurveyParams is the tool-facing form of domain.SurveyInput
type SurveyParams struct {
	Demographics    domain.Demographics    `json:"demographics"`
	MedicalHistory  domain.MedicalHistory  `json:"medicalHistory,omitempty"`
	ESSResponses    []int                  `json:"essResponses"`
	BerlinResponses BerlinAnswers          `json:"berlinResponses,omitempty"`
	StopBangFactors domain.StopBangFactors `json:"stopbangFactors,omitempty"`
	ActivitySample  *domain.ActivitySample `json:"activitySample,omitempty"`
}

// Input converts the parameters to the engine input
func (p SurveyParams) Input() domain.SurveyInput {
	return domain.SurveyInput{
		Demographics:    p.Demographics,
		MedicalHistory:  p.MedicalHistory,
		ESSResponses:    domain.EssResponses(p.ESSResponses),
		BerlinResponses: p.BerlinResponses.Responses(),
		StopBangFactors: p.StopBangFactors,
		ActivitySample:  p.ActivitySample,
	}
}

// EvaluateParams defines parameters for evaluate_osa_risk tool
type EvaluateParams struct {
	Survey SurveyParams `json:"survey"`
	Limit  int          `json:"limit,omitempty"`
}

// EvaluateResult defines the result structure for evaluate_osa_risk tool
type EvaluateResult struct {
	*domain.SurveyResult
	TotalRecommendations int `json:"totalRecommendations"`
}

// BMIParams defines parameters for compute_bmi tool
type BMIParams struct {
	HeightCm float64 `json:"height_cm"`
	WeightKg float64 `json:"weight_kg"`
}

// BMIResult defines the result structure for compute_bmi tool
type BMIResult struct {
	BMI       float64 `json:"bmi"`
	Available bool    `json:"available"`
	Category  string  `json:"category,omitempty"`
}

// ESSParams defines parameters for score_ess tool
type ESSParams struct {
	Responses []int `json:"responses"`
}

// BerlinParams defines parameters for score_berlin tool
type BerlinParams struct {
	Responses BerlinAnswers `json:"responses"`
	HeightCm  float64       `json:"height_cm,omitempty"`
	WeightKg  float64       `json:"weight_kg,omitempty"`
}

// StopBangParams defines parameters for score_stopbang tool
type StopBangParams struct {
	Factors      domain.StopBangFactors `json:"factors"`
	Demographics domain.Demographics    `json:"demographics"`
}

// ListRulesParams defines parameters for list_recommendation_rules tool
type ListRulesParams struct{}

// ListRulesResult defines the result structure for list_recommendation_rules tool
type ListRulesResult struct {
	Rules []service.RuleInfo `json:"rules"`
	Count int                `json:"count"`
}

// ExplainRuleParams defines parameters for explain_rule tool
type ExplainRuleParams struct {
	RuleID string       `json:"rule_id"`
	Survey SurveyParams `json:"survey"`
}

// handleEvaluate handles the evaluate_osa_risk tool invocation
func (s *Server) handleEvaluate(ctx context.Context, req *mcp.CallToolRequest, params EvaluateParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", toolEvaluate).Info("Tool invoked")

	if params.Limit < 0 {
		return s.createErrorResult("Invalid parameter", fmt.Errorf("limit must not be negative")), nil, nil
	}
	limit := params.Limit
	if limit == 0 {
		limit = s.displayLimit
	}

	result, err := s.evaluator.Evaluate(ctx, params.Survey.Input())
	if err != nil {
		return s.createErrorResult("Survey evaluation failed", err), nil, nil
	}

	display := *result
	display.Recommendations = result.Recommendations.Top(limit)

	out := EvaluateResult{
		SurveyResult:         &display,
		TotalRecommendations: len(result.Recommendations),
	}

	summary := fmt.Sprintf("Risk tier: %s (STOP-BANG %d, Berlin %s, ESS %d). %d recommendation(s): %s",
		result.RiskTier,
		result.Scores.StopBang.Score,
		result.Scores.Berlin.Category,
		result.Scores.ESS.Score,
		len(result.Recommendations),
		result.RecommendationString,
	)
	return s.jsonResult(summary, out)
}

// handleComputeBMI handles the compute_bmi tool invocation
func (s *Server) handleComputeBMI(ctx context.Context, req *mcp.CallToolRequest, params BMIParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", toolComputeBMI).Debug("Tool invoked")

	if err := domain.ValidateMeasurements("", params.HeightCm, params.WeightKg); err != nil {
		return s.createErrorResult("Invalid parameter", err), nil, nil
	}

	bmi := service.ComputeBMI(params.HeightCm, params.WeightKg)
	out := BMIResult{
		BMI:       bmi.Value,
		Available: bmi.Available,
		Category:  service.BMICategory(bmi),
	}
	if !bmi.Available {
		return s.jsonResult("BMI unavailable: height and weight are required", out)
	}
	return s.jsonResult(fmt.Sprintf("BMI %s (%s)", bmi, out.Category), out)
}

// handleScoreESS handles the score_ess tool invocation
func (s *Server) handleScoreESS(ctx context.Context, req *mcp.CallToolRequest, params ESSParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", toolScoreESS).Debug("Tool invoked")

	result, err := service.ScoreESS(domain.EssResponses(params.Responses))
	if err != nil {
		return s.createErrorResult("Invalid Epworth responses", err), nil, nil
	}
	return s.jsonResult(fmt.Sprintf("ESS %d: %s", result.Score, result.Category), result)
}

// handleScoreBerlin handles the score_berlin tool invocation
func (s *Server) handleScoreBerlin(ctx context.Context, req *mcp.CallToolRequest, params BerlinParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", toolScoreBerlin).Debug("Tool invoked")

	if err := domain.ValidateMeasurements("", params.HeightCm, params.WeightKg); err != nil {
		return s.createErrorResult("Invalid parameter", err), nil, nil
	}

	bmi := service.ComputeBMI(params.HeightCm, params.WeightKg)
	r := params.Responses.Responses()
	result := service.ScoreBerlin(r.Category1, r.Category2, r.Category3Sleepy, bmi)
	return s.jsonResult(fmt.Sprintf("Berlin %d positive categories: %s", result.Score, result.Category), result)
}

// handleScoreStopBang handles the score_stopbang tool invocation
func (s *Server) handleScoreStopBang(ctx context.Context, req *mcp.CallToolRequest, params StopBangParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", toolScoreStopBang).Debug("Tool invoked")

	d := params.Demographics
	if err := d.Validate("demographics."); err != nil {
		return s.createErrorResult("Invalid parameter", err), nil, nil
	}

	bmi := service.ComputeBMI(d.HeightCm, d.WeightKg)
	result := service.ScoreStopBang(params.Factors, bmi, d.Age, d.NeckCircumferenceCm, d.IsMale())
	return s.jsonResult(fmt.Sprintf("STOP-BANG %d: %s", result.Score, result.Category), result)
}

// handleListRules handles the list_recommendation_rules tool invocation
func (s *Server) handleListRules(ctx context.Context, req *mcp.CallToolRequest, params ListRulesParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", toolListRules).Debug("Tool invoked")

	rules := s.evaluator.Rules()
	out := ListRulesResult{Rules: rules, Count: len(rules)}
	return s.jsonResult(fmt.Sprintf("%d recommendation rules", len(rules)), out)
}

// handleExplainRule handles the explain_rule tool invocation
func (s *Server) handleExplainRule(ctx context.Context, req *mcp.CallToolRequest, params ExplainRuleParams) (*mcp.CallToolResult, any, error) {
	s.logger.WithField("tool", toolExplainRule).Info("Tool invoked")

	if params.RuleID == "" {
		return s.createErrorResult("Missing required parameter", fmt.Errorf("rule_id is required")), nil, nil
	}

	outcome, err := s.evaluator.ExplainRule(ctx, params.RuleID, params.Survey.Input())
	if err != nil {
		if errors.Is(err, domain.ErrUnknownRule) {
			return s.createErrorResult("Unknown rule", err), nil, nil
		}
		return s.createErrorResult("Rule evaluation failed", err), nil, nil
	}

	var text string
	switch {
	case outcome.Matched:
		text = fmt.Sprintf("Rule %s fired: %s", params.RuleID, outcome.Recommendation)
	case len(outcome.Missing) > 0:
		missing := make([]string, 0, len(outcome.Missing))
		for _, dep := range outcome.Missing {
			missing = append(missing, string(dep))
		}
		text = fmt.Sprintf("Rule %s skipped: missing %s", params.RuleID, strings.Join(missing, ", "))
	default:
		text = fmt.Sprintf("Rule %s did not fire", params.RuleID)
	}
	return s.jsonResult(text, outcome)
}

// jsonResult returns a summary line followed by the JSON payload
func (s *Server) jsonResult(summary string, payload any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: summary},
			&mcp.TextContent{Text: string(data)},
		},
	}, payload, nil
}

// createErrorResult creates a standardized error result for tool calls
func (s *Server) createErrorResult(message string, err error) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s", message)
	if err != nil {
		errorText += fmt.Sprintf(" - %v", err)
	}

	s.logger.WithError(err).Warn(message)

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: errorText},
		},
		IsError: true,
	}
}
