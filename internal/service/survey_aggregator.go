package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/osa-screening-server/internal/domain"
)

var _ domain.SurveyEvaluator = (*SurveyAggregator)(nil)

// SurveyAggregator runs the full screening pipeline for one survey:
// metrics, questionnaire scores, activity resolution and recommendations.
// It holds no per-call state.
type SurveyAggregator struct {
	logger *logrus.Logger
	engine *RecommendationEngine
}

// NewSurveyAggregator creates a new survey aggregator
func NewSurveyAggregator(logger *logrus.Logger, engine *RecommendationEngine) *SurveyAggregator {
	if engine == nil {
		engine = NewRecommendationEngine(logger)
	}
	return &SurveyAggregator{
		logger: logger,
		engine: engine,
	}
}

// Engine returns the recommendation engine used by the aggregator
func (a *SurveyAggregator) Engine() *RecommendationEngine {
	return a.engine
}

// Evaluate scores one survey. Validation failures abort the call and are
// returned as domain.ValidationErrors; an unavailable BMI or missing activity
// data only narrows the set of rules that can fire.
func (a *SurveyAggregator) Evaluate(input domain.SurveyInput) (*domain.SurveyResult, error) {
	if err := input.Validate(); err != nil {
		a.logger.WithError(err).Debug("Rejected survey input")
		return nil, err
	}

	facts, err := a.BuildFacts(input)
	if err != nil {
		return nil, err
	}

	evaluation := a.engine.Evaluate(facts)

	recommendations := evaluation.Recommendations
	if recommendations == nil {
		recommendations = domain.Recommendations{}
	}

	result := &domain.SurveyResult{
		BMI:          facts.BMI.Value,
		BMIAvailable: facts.BMI.Available,
		BMICategory:  BMICategory(facts.BMI),
		Scores: domain.Scores{
			ESS:      *facts.ESS,
			Berlin:   *facts.Berlin,
			StopBang: *facts.StopBang,
		},
		RiskTier:             riskTier(facts, evaluation.HighRisk),
		HighRisk:             evaluation.HighRisk,
		Activity:             *facts.Activity,
		Recommendations:      recommendations,
		RecommendationString: recommendations.Format(),
		Warnings:             evaluation.Warnings,
	}

	a.logger.WithFields(logrus.Fields(result.RiskTier.LogFields())).WithFields(logrus.Fields{
		"bmi_available":   result.BMIAvailable,
		"ess_score":       result.Scores.ESS.Score,
		"berlin_category": result.Scores.Berlin.Category,
		"stopbang_score":  result.Scores.StopBang.Score,
		"recommendations": len(result.Recommendations),
		"warnings":        len(result.Warnings),
	}).Info("Completed OSA survey evaluation")

	return result, nil
}

// BuildFacts computes every derived value for a survey without running the
// recommendation catalogue. Input is assumed to have passed Validate.
func (a *SurveyAggregator) BuildFacts(input domain.SurveyInput) (Facts, error) {
	d := input.Demographics

	bmi := ComputeBMI(d.HeightCm, d.WeightKg)
	if !bmi.Available {
		a.logger.WithFields(logrus.Fields{
			"height_cm": d.HeightCm,
			"weight_kg": d.WeightKg,
		}).Warn("BMI unavailable, BMI-dependent criteria will not match")
	}

	ess, err := ScoreESS(input.ESSResponses)
	if err != nil {
		return Facts{}, fmt.Errorf("failed to score ESS: %w", err)
	}

	berlin := ScoreBerlin(
		input.BerlinResponses.Category1,
		input.BerlinResponses.Category2,
		input.BerlinResponses.Category3Sleepy,
		bmi,
	)

	stopBang := ScoreStopBang(input.StopBangFactors, bmi, d.Age, d.NeckCircumferenceCm, d.IsMale())

	activity := ResolveActivity(input.ActivitySample, &ess, &berlin)

	return Facts{
		Demographics:    d,
		MedicalHistory:  input.MedicalHistory,
		StopBangFactors: input.StopBangFactors,
		BMI:             bmi,
		ESS:             &ess,
		Berlin:          &berlin,
		StopBang:        &stopBang,
		Activity:        &activity,
	}, nil
}

// ExplainRule evaluates a single catalogue rule against a survey
func (a *SurveyAggregator) ExplainRule(ruleID string, input domain.SurveyInput) (*RuleOutcome, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	facts, err := a.BuildFacts(input)
	if err != nil {
		return nil, err
	}
	return a.engine.EvaluateRule(ruleID, facts)
}

// riskTier is high when the gate fires or STOP-BANG classifies high risk
// (including the low-score escalation); intermediate STOP-BANG maps to
// intermediate, everything else is low.
func riskTier(facts Facts, gateFired bool) domain.RiskLabel {
	if gateFired {
		return domain.HIGH_RISK
	}
	if facts.StopBang == nil {
		return domain.LOW_RISK
	}
	switch facts.StopBang.Category {
	case domain.HIGH_RISK.String():
		return domain.HIGH_RISK
	case domain.INTERMEDIATE_RISK.String():
		return domain.INTERMEDIATE_RISK
	default:
		return domain.LOW_RISK
	}
}
