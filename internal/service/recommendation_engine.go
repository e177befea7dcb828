package service

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/osa-screening-server/internal/domain"
)

// Facts is the union of everything computed for one evaluation. Optional
// values are nil when they could not be computed; rules that need them are
// skipped rather than guessed.
type Facts struct {
	Demographics    domain.Demographics
	MedicalHistory  domain.MedicalHistory
	StopBangFactors domain.StopBangFactors
	BMI             domain.BMI
	ESS             *domain.ScoreResult
	Berlin          *domain.ScoreResult
	StopBang        *domain.StopBangResult
	Activity        *domain.ActivitySummary
}

// Has reports whether the dependency is present.
func (f Facts) Has(dep domain.Dependency) bool {
	switch dep {
	case domain.DEP_ESS:
		return f.ESS != nil
	case domain.DEP_BERLIN:
		return f.Berlin != nil
	case domain.DEP_STOPBANG:
		return f.StopBang != nil
	case domain.DEP_ACTIVITY:
		return f.Activity != nil && f.Activity.Available
	case domain.DEP_SLEEP:
		return f.Activity != nil && f.Activity.HasSleep()
	default:
		return false
	}
}

func (f Facts) essAtLeast(score int) bool {
	return f.ESS != nil && f.ESS.Score >= score
}

func (f Facts) stopBangAtLeast(score int) bool {
	return f.StopBang != nil && f.StopBang.Score >= score
}

func (f Facts) berlinHigh() bool {
	return f.Berlin != nil && f.Berlin.Category == domain.HIGH_RISK.String()
}

func (f Facts) sleepBelow(hours float64) bool {
	return f.Has(domain.DEP_SLEEP) && f.Activity.SleepHours < hours
}

func (f Facts) sleepAbove(hours float64) bool {
	return f.Has(domain.DEP_SLEEP) && f.Activity.SleepHours > hours
}

func (f Facts) activityIs(t domain.ActivityType) bool {
	return f.Has(domain.DEP_ACTIVITY) && f.Activity.Type == t
}

func (f Facts) activityMinutesBelow(minutes int) bool {
	return f.Has(domain.DEP_ACTIVITY) && f.Activity.Minutes < minutes
}

// hypertensive is true when hypertension is reported in either the medical
// history or the STOP-BANG pressure item.
func (f Facts) hypertensive() bool {
	return f.MedicalHistory.Hypertension || f.StopBangFactors.Hypertension
}

func (f Facts) neckAtLeast(cm float64) bool {
	return f.Demographics.NeckCircumferenceCm >= cm
}

// Rule is one catalogue entry: a predicate over Facts and the recommendation
// it emits. Requires lists the optional facts the predicate reads.
type Rule struct {
	ID             string
	Arity          domain.RuleArity
	Requires       []domain.Dependency
	Matches        func(f Facts) bool
	Recommendation domain.Recommendation
}

// RuleInfo describes a catalogue rule without its predicate.
type RuleInfo struct {
	ID       string              `json:"id"`
	Arity    domain.RuleArity    `json:"arity"`
	Requires []domain.Dependency `json:"requires,omitempty"`
	Title    string              `json:"title"`
	Source   string              `json:"source"`
	Priority int                 `json:"priority"`
}

// RuleOutcome is the result of evaluating a single rule.
type RuleOutcome struct {
	Rule           RuleInfo               `json:"rule"`
	Matched        bool                   `json:"matched"`
	Missing        []domain.Dependency    `json:"missing,omitempty"`
	Recommendation *domain.Recommendation `json:"recommendation,omitempty"`
}

// Evaluation is the output of one engine run.
type Evaluation struct {
	Recommendations domain.Recommendations
	Warnings        []domain.MissingDependencyWarning
	HighRisk        bool
}

// RecommendationEngine evaluates the recommendation catalogue against Facts.
// It holds no per-evaluation state and is safe for concurrent use.
type RecommendationEngine struct {
	logger *logrus.Logger
	rules  []Rule
	index  map[string]int
}

// NewRecommendationEngine creates an engine over the built-in catalogue
func NewRecommendationEngine(logger *logrus.Logger) *RecommendationEngine {
	return newRecommendationEngine(logger, catalogue)
}

func newRecommendationEngine(logger *logrus.Logger, rules []Rule) *RecommendationEngine {
	index := make(map[string]int, len(rules))
	for i, r := range rules {
		index[r.ID] = i
	}
	return &RecommendationEngine{
		logger: logger,
		rules:  rules,
		index:  index,
	}
}

// Evaluate runs every rule in catalogue order, skipping rules with missing
// dependencies, and returns the matches sorted by priority (descending,
// stable). Overlapping rules all fire; nothing is deduplicated.
func (e *RecommendationEngine) Evaluate(facts Facts) Evaluation {
	var result Evaluation

	for _, rule := range e.rules {
		if missing := missingDependencies(rule, facts); len(missing) > 0 {
			for _, dep := range missing {
				result.Warnings = append(result.Warnings, domain.MissingDependencyWarning{
					RuleID:     rule.ID,
					Dependency: dep,
				})
			}
			e.logger.WithFields(logrus.Fields{
				"rule":    rule.ID,
				"missing": missing,
			}).Debug("Skipping recommendation rule with missing dependency")
			continue
		}

		if !rule.Matches(facts) {
			continue
		}

		rec := rule.Recommendation
		rec.RuleID = rule.ID
		result.Recommendations = append(result.Recommendations, rec)
		if rule.Arity == domain.HIGH_RISK_GATE {
			result.HighRisk = true
		}
	}

	sortByPriority(result.Recommendations)

	skipped, deps := summarizeWarnings(result.Warnings)
	if len(skipped) > 0 {
		e.logger.WithFields(logrus.Fields{
			"skipped_rules": skipped,
			"missing":       deps,
		}).Warn("Skipped recommendation rules with missing dependencies")
	}

	e.logger.WithFields(logrus.Fields{
		"total_rules":    len(e.rules),
		"matched_rules":  len(result.Recommendations),
		"skipped_rules":  len(skipped),
		"high_risk_gate": result.HighRisk,
	}).Debug("Completed recommendation rule evaluation")

	return result
}

// EvaluateRule evaluates a single catalogue rule by id
func (e *RecommendationEngine) EvaluateRule(ruleID string, facts Facts) (*RuleOutcome, error) {
	i, ok := e.index[ruleID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownRule, ruleID)
	}
	rule := e.rules[i]

	outcome := &RuleOutcome{Rule: describeRule(rule)}
	if missing := missingDependencies(rule, facts); len(missing) > 0 {
		outcome.Missing = missing
		return outcome, nil
	}

	if rule.Matches(facts) {
		rec := rule.Recommendation
		rec.RuleID = rule.ID
		outcome.Matched = true
		outcome.Recommendation = &rec
	}
	return outcome, nil
}

// Rules lists the catalogue in evaluation order
func (e *RecommendationEngine) Rules() []RuleInfo {
	infos := make([]RuleInfo, 0, len(e.rules))
	for _, r := range e.rules {
		infos = append(infos, describeRule(r))
	}
	return infos
}

func describeRule(r Rule) RuleInfo {
	requires := make([]domain.Dependency, len(r.Requires))
	copy(requires, r.Requires)
	return RuleInfo{
		ID:       r.ID,
		Arity:    r.Arity,
		Requires: requires,
		Title:    r.Recommendation.Title,
		Source:   r.Recommendation.Source,
		Priority: r.Recommendation.Priority,
	}
}

func missingDependencies(rule Rule, facts Facts) []domain.Dependency {
	var missing []domain.Dependency
	for _, dep := range rule.Requires {
		if !facts.Has(dep) {
			missing = append(missing, dep)
		}
	}
	return missing
}

// sortByPriority orders by priority descending, keeping catalogue order for ties
func sortByPriority(recs domain.Recommendations) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority > recs[j].Priority
	})
}

// summarizeWarnings returns the distinct skipped rule ids and missing
// dependencies, in first-seen order.
func summarizeWarnings(warnings []domain.MissingDependencyWarning) ([]string, []domain.Dependency) {
	var rules []string
	var deps []domain.Dependency
	seenRules := make(map[string]struct{}, len(warnings))
	seenDeps := make(map[domain.Dependency]struct{})
	for _, w := range warnings {
		if _, ok := seenRules[w.RuleID]; !ok {
			seenRules[w.RuleID] = struct{}{}
			rules = append(rules, w.RuleID)
		}
		if _, ok := seenDeps[w.Dependency]; !ok {
			seenDeps[w.Dependency] = struct{}{}
			deps = append(deps, w.Dependency)
		}
	}
	return rules, deps
}
