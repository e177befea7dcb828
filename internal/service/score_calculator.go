package service

import (
	"fmt"

	"github.com/osa-screening-server/internal/domain"
)

// Clinical cut-points
const (
	// Berlin category 3 BMI threshold (strictly greater)
	berlinBMIThreshold = 30.0
	// a Berlin category is positive with at least this many true items
	berlinCategoryPositive = 2
	// Berlin risk is high with at least this many positive categories
	berlinHighRiskCategories = 2

	stopBangBMIThreshold  = 35.0 // strictly greater
	stopBangAgeThreshold  = 50   // strictly greater
	stopBangNeckThreshold = 40.0 // greater or equal

	stopBangHighRiskScore         = 5
	stopBangIntermediateRiskScore = 3
	stopBangEscalationSubscore    = 2
)

// ScoreESS sums the eight Epworth ratings and assigns the sleepiness band.
// Malformed responses are a validation error and are never corrected.
func ScoreESS(responses domain.EssResponses) (domain.ScoreResult, error) {
	if err := responses.Validate(); err != nil {
		return domain.ScoreResult{}, fmt.Errorf("invalid ESS responses: %w", err)
	}

	score := 0
	for _, v := range responses {
		score += v
	}

	return domain.ScoreResult{
		Score:    score,
		Category: essCategory(score),
	}, nil
}

func essCategory(score int) string {
	switch {
	case score <= 5:
		return domain.ESSLowNormal
	case score <= 10:
		return domain.ESSHighNormal
	case score <= 12:
		return domain.ESSMildExcessive
	case score <= 15:
		return domain.ESSModerateExcessive
	default:
		return domain.ESSSevereExcessive
	}
}

// ScoreBerlin counts positive Berlin categories. Categories 1 and 2 count raw
// true flags; category 3 is positive when the respondent reports sleepiness
// or the BMI is above 30. An unavailable BMI never makes category 3 positive.
func ScoreBerlin(cat1 domain.BerlinCategory1, cat2 domain.BerlinCategory2, cat3Sleepy bool, bmi domain.BMI) domain.ScoreResult {
	positive := 0
	if cat1.PositiveCount() >= berlinCategoryPositive {
		positive++
	}
	if cat2.PositiveCount() >= berlinCategoryPositive {
		positive++
	}
	if cat3Sleepy || bmi.Above(berlinBMIThreshold) {
		positive++
	}

	label := domain.LOW_RISK
	if positive >= berlinHighRiskCategories {
		label = domain.HIGH_RISK
	}

	return domain.ScoreResult{
		Score:    positive,
		Category: label.String(),
	}
}

// ScoreStopBang scores the eight STOP-BANG factors.
//
// A raw score of 0-2 is escalated to high risk when at least two STOP items
// are positive together with male sex, BMI > 35 or neck >= 40 cm.
func ScoreStopBang(factors domain.StopBangFactors, bmi domain.BMI, age int, neckCm float64, isMale bool) domain.StopBangResult {
	stop := 0
	for _, f := range []bool{factors.Snoring, factors.Tired, factors.ObservedApnea, factors.Hypertension} {
		if f {
			stop++
		}
	}

	score := stop
	bmiHigh := bmi.Above(stopBangBMIThreshold)
	neckLarge := neckCm >= stopBangNeckThreshold
	for _, f := range []bool{bmiHigh, age > stopBangAgeThreshold, neckLarge, isMale} {
		if f {
			score++
		}
	}

	label := ClassifyStopBang(score, stop, isMale, bmiHigh, neckLarge)

	return domain.StopBangResult{
		ScoreResult: domain.ScoreResult{
			Score:    score,
			Category: label.String(),
		},
		StopSubscore: stop,
	}
}

// ClassifyStopBang maps a STOP-BANG total and STOP subscore to a risk label.
// Low totals are escalated to high risk when stopSubscore >= 2 together with
// male sex, BMI > 35 or a large neck.
func ClassifyStopBang(score, stopSubscore int, isMale, bmiHigh, neckLarge bool) domain.RiskLabel {
	switch {
	case score >= stopBangHighRiskScore:
		return domain.HIGH_RISK
	case score >= stopBangIntermediateRiskScore:
		return domain.INTERMEDIATE_RISK
	case stopSubscore >= stopBangEscalationSubscore && (isMale || bmiHigh || neckLarge):
		return domain.HIGH_RISK
	default:
		return domain.LOW_RISK
	}
}
