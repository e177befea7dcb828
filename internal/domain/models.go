package domain

import (
	"fmt"
	"strings"
)

// ESSItemCount is the number of situations rated by the Epworth Sleepiness Scale.
const ESSItemCount = 8

// ESS item bounds (inclusive).
const (
	ESSMinItemValue = 0
	ESSMaxItemValue = 3
)

// DefaultDisplayLimit caps the recommendation list shown to a user.
const DefaultDisplayLimit = 10

// SurveyInput is the complete input contract for a single screening evaluation.
// It is assembled once by the collection layer and never mutated afterwards.
type SurveyInput struct {
	Demographics    Demographics    `json:"demographics"`
	MedicalHistory  MedicalHistory  `json:"medicalHistory"`
	ESSResponses    EssResponses    `json:"essResponses"`
	BerlinResponses BerlinResponses `json:"berlinResponses"`
	StopBangFactors StopBangFactors `json:"stopbangFactors"`
	ActivitySample  *ActivitySample `json:"activitySample,omitempty"`
}

// Validate checks every field of the input and reports all violations at
// once. A zero height or weight is accepted (BMI becomes unavailable);
// negative measurements are rejected.
func (in *SurveyInput) Validate() error {
	var errs ValidationErrors

	if err := in.Demographics.Validate("demographics."); err != nil {
		errs = append(errs, err.(ValidationErrors)...)
	}

	if err := in.ESSResponses.Validate(); err != nil {
		errs = append(errs, err.(ValidationErrors)...)
	}

	if s := in.ActivitySample; s != nil {
		if s.DailySteps < 0 {
			errs = append(errs, NewValidationError("activitySample.dailySteps", "must not be negative", s.DailySteps))
		}
		if s.WeeklySleepHours != nil && *s.WeeklySleepHours < 0 {
			errs = append(errs, NewValidationError("activitySample.weeklySleepHours", "must not be negative", *s.WeeklySleepHours))
		}
	}

	return errs.OrNil()
}

// Demographics holds the biometric data shared by BMI, Berlin and STOP-BANG.
// A zero height or weight means "not measured" and yields an unavailable BMI.
type Demographics struct {
	Age                 int     `json:"age"`
	Sex                 Sex     `json:"sex"`
	HeightCm            float64 `json:"heightCm"`
	WeightKg            float64 `json:"weightKg"`
	NeckCircumferenceCm float64 `json:"neckCircumferenceCm"`
}

// Validate checks the sex and rejects negative measurements. Field names in
// the returned ValidationErrors carry the given prefix.
func (d Demographics) Validate(prefix string) error {
	var errs ValidationErrors
	if d.Age < 0 {
		errs = append(errs, NewValidationError(prefix+"age", "must not be negative", d.Age))
	}
	if !d.Sex.IsValid() {
		errs = append(errs, NewValidationError(prefix+"sex", ErrInvalidSex.Error()+": expected male or female", string(d.Sex)))
	}
	errs = append(errs, measurementErrors(prefix, d.HeightCm, d.WeightKg)...)
	if d.NeckCircumferenceCm < 0 {
		errs = append(errs, NewValidationError(prefix+"neckCircumferenceCm", "must not be negative", d.NeckCircumferenceCm))
	}
	return errs.OrNil()
}

// ValidateMeasurements rejects a negative height or weight. Zero stays valid
// and means "not measured".
func ValidateMeasurements(prefix string, heightCm, weightKg float64) error {
	return measurementErrors(prefix, heightCm, weightKg).OrNil()
}

func measurementErrors(prefix string, heightCm, weightKg float64) ValidationErrors {
	var errs ValidationErrors
	if heightCm < 0 {
		errs = append(errs, NewValidationError(prefix+"heightCm", "must not be negative", heightCm))
	}
	if weightKg < 0 {
		errs = append(errs, NewValidationError(prefix+"weightKg", "must not be negative", weightKg))
	}
	return errs
}

// IsMale reports whether the STOP-BANG gender factor applies.
func (d Demographics) IsMale() bool {
	return d.Sex == MALE
}

// MedicalHistory holds self-reported comorbidities and habits.
type MedicalHistory struct {
	Hypertension bool `json:"hypertension"`
	Diabetes     bool `json:"diabetes"`
	Smokes       bool `json:"smokes"`
	Alcohol      bool `json:"alcohol"`
}

// EssResponses are the eight Epworth item ratings, in questionnaire order.
type EssResponses []int

// Validate checks the item count and the range of every rating. Values are
// never clamped; every violation is reported.
func (r EssResponses) Validate() error {
	var errs ValidationErrors
	if len(r) != ESSItemCount {
		errs = append(errs, NewValidationError("essResponses",
			fmt.Sprintf("expected exactly %d responses, got %d", ESSItemCount, len(r)), len(r)))
	}
	for i, v := range r {
		if v < ESSMinItemValue || v > ESSMaxItemValue {
			errs = append(errs, NewValidationError(fmt.Sprintf("essResponses[%d]", i),
				fmt.Sprintf("must be between %d and %d", ESSMinItemValue, ESSMaxItemValue), v))
		}
	}
	return errs.OrNil()
}

// BerlinCategory1 holds the snoring items of the Berlin Questionnaire.
type BerlinCategory1 struct {
	Item2 bool `json:"item2"`
	Item3 bool `json:"item3"`
	Item4 bool `json:"item4"`
	Item5 bool `json:"item5"`
	Item6 bool `json:"item6"`
}

// PositiveCount counts raw true flags. Item 6 is deliberately not weighted.
func (c BerlinCategory1) PositiveCount() int {
	return countTrue(c.Item2, c.Item3, c.Item4, c.Item5, c.Item6)
}

// BerlinCategory2 holds the daytime fatigue items of the Berlin Questionnaire.
type BerlinCategory2 struct {
	Item7 bool `json:"item7"`
	Item8 bool `json:"item8"`
	Item9 bool `json:"item9"`
}

// PositiveCount counts raw true flags.
func (c BerlinCategory2) PositiveCount() int {
	return countTrue(c.Item7, c.Item8, c.Item9)
}

// BerlinResponses groups the three Berlin categories. Category 3 combines the
// sleepiness flag with BMI at scoring time.
type BerlinResponses struct {
	Category1       BerlinCategory1 `json:"category1"`
	Category2       BerlinCategory2 `json:"category2"`
	Category3Sleepy bool            `json:"category3Sleepy"`
}

// NewBerlinCategory1 builds category 1 from an item-id keyed map.
// Keys outside item2..item6 are ignored.
func NewBerlinCategory1(items map[string]bool) BerlinCategory1 {
	return BerlinCategory1{
		Item2: items["item2"],
		Item3: items["item3"],
		Item4: items["item4"],
		Item5: items["item5"],
		Item6: items["item6"],
	}
}

// NewBerlinCategory2 builds category 2 from an item-id keyed map.
// Keys outside item7..item9 are ignored.
func NewBerlinCategory2(items map[string]bool) BerlinCategory2 {
	return BerlinCategory2{
		Item7: items["item7"],
		Item8: items["item8"],
		Item9: items["item9"],
	}
}

// StopBangFactors are the self-reported STOP items. The BANG items are derived
// from Demographics and BMI.
type StopBangFactors struct {
	Snoring       bool `json:"snoring"`
	Tired         bool `json:"tired"`
	ObservedApnea bool `json:"observedApnea"`
	Hypertension  bool `json:"hypertension"`
}

// ActivitySample is optional data from a fitness provider.
type ActivitySample struct {
	DailySteps int `json:"dailySteps"`
	// WeeklySleepHours is the average nightly sleep over the past week.
	WeeklySleepHours *float64 `json:"weeklySleepHours,omitempty"`
}

// BMI is a body-mass index reading. Available is false when height or weight
// was missing; Value is then meaningless and must not be compared.
type BMI struct {
	Value     float64
	Available bool
}

// AtLeast reports whether the BMI is available and >= threshold.
func (b BMI) AtLeast(threshold float64) bool {
	return b.Available && b.Value >= threshold
}

// Above reports whether the BMI is available and > threshold.
func (b BMI) Above(threshold float64) bool {
	return b.Available && b.Value > threshold
}

func (b BMI) String() string {
	if !b.Available {
		return "unavailable"
	}
	return fmt.Sprintf("%.1f", b.Value)
}

// ScoreResult is a questionnaire score with its categorical label.
type ScoreResult struct {
	Score    int    `json:"score"`
	Category string `json:"category"`
}

// StopBangResult extends ScoreResult with the STOP sub-score that drives the
// low-score escalation.
type StopBangResult struct {
	ScoreResult
	StopSubscore int `json:"stopSubscore"`
}

// Scores groups the three questionnaire results.
type Scores struct {
	ESS      ScoreResult    `json:"ess"`
	Berlin   ScoreResult    `json:"berlin"`
	StopBang StopBangResult `json:"stopbang"`
}

// ActivitySummary is the resolved activity and sleep picture for one evaluation.
type ActivitySummary struct {
	Available   bool         `json:"available"`
	DailySteps  int          `json:"dailySteps,omitempty"`
	Minutes     int          `json:"activityMinutes"`
	Type        ActivityType `json:"activityType,omitempty"`
	SleepHours  float64      `json:"sleepHours"`
	SleepSource SleepSource  `json:"sleepSource"`
}

// HasSleep reports whether a sleep duration could be resolved.
func (a ActivitySummary) HasSleep() bool {
	return a.SleepSource == SLEEP_FROM_SAMPLE || a.SleepSource == SLEEP_ESTIMATED
}

// Recommendation is a single evidence-tagged piece of guidance.
type Recommendation struct {
	RuleID      string `json:"ruleId,omitempty"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Priority    int    `json:"priority"`
}

// String renders the recommendation in transport form.
func (r Recommendation) String() string {
	return fmt.Sprintf("%s: %s [%s]", r.Title, r.Description, r.Source)
}

// Recommendations is a priority-ordered recommendation list.
type Recommendations []Recommendation

// Format flattens the list into "Title: Description [Source] | ...".
func (rs Recommendations) Format() string {
	parts := make([]string, 0, len(rs))
	for _, r := range rs {
		parts = append(parts, r.String())
	}
	return strings.Join(parts, " | ")
}

// Top returns at most n recommendations. A non-positive n applies
// DefaultDisplayLimit.
func (rs Recommendations) Top(n int) Recommendations {
	if n <= 0 {
		n = DefaultDisplayLimit
	}
	if len(rs) <= n {
		return rs
	}
	return rs[:n]
}

// Contains reports whether a recommendation produced by ruleID is present.
func (rs Recommendations) Contains(ruleID string) bool {
	for _, r := range rs {
		if r.RuleID == ruleID {
			return true
		}
	}
	return false
}

// SurveyResult is the output contract of one evaluation.
type SurveyResult struct {
	BMI                  float64                    `json:"bmi"`
	BMIAvailable         bool                       `json:"bmiAvailable"`
	BMICategory          string                     `json:"bmiCategory,omitempty"`
	Scores               Scores                     `json:"scores"`
	RiskTier             RiskLabel                  `json:"riskTier"`
	HighRisk             bool                       `json:"highRisk"`
	Activity             ActivitySummary            `json:"activity"`
	Recommendations      Recommendations            `json:"recommendations"`
	RecommendationString string                     `json:"recommendationString"`
	Warnings             []MissingDependencyWarning `json:"warnings,omitempty"`
}

func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
