package service

import (
	"io"

	"github.com/sirupsen/logrus"

	"github.com/osa-screening-server/internal/domain"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.DebugLevel)
	return logger
}

func floatPtr(v float64) *float64 {
	return &v
}

// baselineInput is a low-risk respondent with a measured activity sample.
func baselineInput() domain.SurveyInput {
	return domain.SurveyInput{
		Demographics: domain.Demographics{
			Age:                 30,
			Sex:                 domain.FEMALE,
			HeightCm:            165,
			WeightKg:            60,
			NeckCircumferenceCm: 33,
		},
		ESSResponses: domain.EssResponses{1, 1, 1, 1, 1, 1, 1, 1},
		ActivitySample: &domain.ActivitySample{
			DailySteps:       8000,
			WeeklySleepHours: floatPtr(7.5),
		},
	}
}

// scenarioAInput is a respondent positive on every screening factor.
func scenarioAInput() domain.SurveyInput {
	return domain.SurveyInput{
		Demographics: domain.Demographics{
			Age:                 55,
			Sex:                 domain.MALE,
			HeightCm:            175,
			WeightKg:            110,
			NeckCircumferenceCm: 43,
		},
		MedicalHistory: domain.MedicalHistory{Hypertension: true},
		ESSResponses:   domain.EssResponses{3, 3, 3, 3, 3, 3, 3, 3},
		BerlinResponses: domain.BerlinResponses{
			Category1:       domain.BerlinCategory1{Item2: true, Item3: true, Item4: true, Item5: true, Item6: true},
			Category2:       domain.BerlinCategory2{Item7: true, Item8: true, Item9: true},
			Category3Sleepy: true,
		},
		StopBangFactors: domain.StopBangFactors{Snoring: true, Tired: true, ObservedApnea: true, Hypertension: true},
	}
}

func ruleIDs(recs domain.Recommendations) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.RuleID)
	}
	return ids
}
