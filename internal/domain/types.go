// Package domain contains the core value objects for obstructive sleep apnea (OSA)
// screening: questionnaire responses, biometric inputs, validated clinical scores
// and the evidence-tagged recommendations derived from them.
//
// References:
//   - Johns MW (1991). A new method for measuring daytime sleepiness: the Epworth
//     sleepiness scale. Sleep 14(6):540-5.
//   - Netzer NC et al. (1999). Using the Berlin Questionnaire to identify patients
//     at risk for the sleep apnea syndrome. Ann Intern Med 131(7):485-91.
//   - Chung F et al. (2016). STOP-Bang Questionnaire: a practical approach to
//     screen for obstructive sleep apnea. Chest 149(3):631-8.
package domain

import (
	"errors"
)

// Sex represents the biological sex used by the STOP-BANG gender factor.
type Sex string

const (
	MALE   Sex = "male"
	FEMALE Sex = "female"
)

// RiskLabel is the categorical risk tier derived from a questionnaire score
// through fixed cut-points.
type RiskLabel string

const (
	HIGH_RISK         RiskLabel = "High Risk"
	INTERMEDIATE_RISK RiskLabel = "Intermediate Risk"
	LOW_RISK          RiskLabel = "Low Risk"
)

// ESS category labels, one per inclusive score band.
const (
	ESSLowNormal         = "Low daytime sleepiness (normal)"
	ESSHighNormal        = "High daytime sleepiness (normal)"
	ESSMildExcessive     = "Mild excessive daytime sleepiness"
	ESSModerateExcessive = "Moderate excessive daytime sleepiness"
	ESSSevereExcessive   = "Severe excessive daytime sleepiness"
)

// ActivityType is the intensity class derived from daily activity minutes.
type ActivityType string

const (
	LIGHT    ActivityType = "light"
	MODERATE ActivityType = "moderate"
	VIGOROUS ActivityType = "vigorous"
)

// SleepSource records where a sleep duration figure came from.
type SleepSource string

const (
	SLEEP_FROM_SAMPLE   SleepSource = "sample"
	SLEEP_ESTIMATED     SleepSource = "estimated"
	SLEEP_NOT_AVAILABLE SleepSource = "unavailable"
)

// RuleArity groups catalogue rules by how many predicates they combine.
type RuleArity string

const (
	SINGLE_FACTOR  RuleArity = "single_factor"
	TWO_FACTOR     RuleArity = "two_factor"
	MULTI_FACTOR   RuleArity = "multi_factor"
	HIGH_RISK_GATE RuleArity = "high_risk_gate"
)

// Dependency names an upstream value a recommendation rule needs before it
// can be evaluated.
type Dependency string

const (
	DEP_ESS      Dependency = "ess"
	DEP_BERLIN   Dependency = "berlin"
	DEP_STOPBANG Dependency = "stopbang"
	DEP_ACTIVITY Dependency = "activity"
	DEP_SLEEP    Dependency = "sleep_duration"
)

var (
	ErrInvalidSex     = errors.New("invalid sex")
	ErrBMIUnavailable = errors.New("bmi unavailable: height and weight must be positive")
	ErrUnknownRule    = errors.New("unknown recommendation rule")
)

// IsValid reports whether the sex is one of the supported values.
func (s Sex) IsValid() bool {
	switch s {
	case MALE, FEMALE:
		return true
	default:
		return false
	}
}

func (s Sex) String() string {
	return string(s)
}

// IsValid reports whether the label is a known risk tier.
func (r RiskLabel) IsValid() bool {
	switch r {
	case HIGH_RISK, INTERMEDIATE_RISK, LOW_RISK:
		return true
	default:
		return false
	}
}

func (r RiskLabel) String() string {
	return string(r)
}

// IsValid reports whether the activity type is a known intensity class.
func (a ActivityType) IsValid() bool {
	switch a {
	case LIGHT, MODERATE, VIGOROUS:
		return true
	default:
		return false
	}
}

func (a ActivityType) String() string {
	return string(a)
}

func (d Dependency) String() string {
	return string(d)
}

func (a RuleArity) String() string {
	return string(a)
}

// LogFields returns structured logging fields describing the risk tier.
func (r RiskLabel) LogFields() map[string]any {
	return map[string]any{
		"risk_tier":           string(r),
		"is_valid":            r.IsValid(),
		"requires_evaluation": r.RequiresClinicalEvaluation(),
	}
}

// RequiresClinicalEvaluation reports whether the tier warrants referral to a
// sleep specialist. Unknown tiers are treated conservatively.
func (r RiskLabel) RequiresClinicalEvaluation() bool {
	switch r {
	case LOW_RISK, INTERMEDIATE_RISK:
		return false
	default:
		return true
	}
}
