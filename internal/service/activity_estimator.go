package service

import (
	"github.com/osa-screening-server/internal/domain"
)

const (
	stepsPerActivityMinute = 100
	maxActivityMinutes     = 300

	lightActivityCeiling    = 20 // minutes, exclusive
	moderateActivityCeiling = 60 // minutes, exclusive

	minSleepHours = 4.0
	maxSleepHours = 10.0
	essMaxScore   = 24.0
)

// ActivityMinutes converts daily steps to active minutes, clamped to [0, 300].
func ActivityMinutes(dailySteps int) int {
	minutes := dailySteps / stepsPerActivityMinute
	if minutes < 0 {
		return 0
	}
	if minutes > maxActivityMinutes {
		return maxActivityMinutes
	}
	return minutes
}

// ClassifyActivity maps active minutes to an intensity class.
func ClassifyActivity(minutes int) domain.ActivityType {
	switch {
	case minutes < lightActivityCeiling:
		return domain.LIGHT
	case minutes < moderateActivityCeiling:
		return domain.MODERATE
	default:
		return domain.VIGOROUS
	}
}

// EstimateSleepDuration derives nightly sleep hours from questionnaire scores
// when no measured sample exists. The result is clamped to [4, 10].
func EstimateSleepDuration(essScore int, berlinCategory string) float64 {
	ess := float64(essScore)

	var hours float64
	if berlinCategory == domain.HIGH_RISK.String() {
		hours = 5.5 + (ess/essMaxScore)*2.0
	} else {
		hours = 6.5 + ((essMaxScore-ess)/essMaxScore)*1.5
	}

	if hours < minSleepHours {
		return minSleepHours
	}
	if hours > maxSleepHours {
		return maxSleepHours
	}
	return hours
}

// ResolveActivity builds the activity summary for one evaluation. A measured
// sample always wins; otherwise sleep is estimated from ESS and Berlin. When
// neither is possible the sleep source is unavailable. ess and berlin may be
// nil when those scores could not be computed.
func ResolveActivity(sample *domain.ActivitySample, ess, berlin *domain.ScoreResult) domain.ActivitySummary {
	summary := domain.ActivitySummary{SleepSource: domain.SLEEP_NOT_AVAILABLE}

	if sample != nil {
		summary.Available = true
		summary.DailySteps = sample.DailySteps
		summary.Minutes = ActivityMinutes(sample.DailySteps)
		summary.Type = ClassifyActivity(summary.Minutes)

		if sample.WeeklySleepHours != nil {
			summary.SleepHours = *sample.WeeklySleepHours
			summary.SleepSource = domain.SLEEP_FROM_SAMPLE
			return summary
		}
	}

	if ess != nil && berlin != nil {
		summary.SleepHours = EstimateSleepDuration(ess.Score, berlin.Category)
		summary.SleepSource = domain.SLEEP_ESTIMATED
	}

	return summary
}
