package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() SurveyInput {
	return SurveyInput{
		Demographics: Demographics{Age: 45, Sex: FEMALE, HeightCm: 165, WeightKg: 60, NeckCircumferenceCm: 34},
		ESSResponses: EssResponses{1, 1, 1, 1, 1, 1, 1, 1},
	}
}

func fieldsOf(t *testing.T, err error) []string {
	t.Helper()
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	return fields
}

func TestSurveyInput_Validate(t *testing.T) {
	negative := -1.0

	tests := []struct {
		name   string
		modify func(in *SurveyInput)
		fields []string
	}{
		{"Valid", func(in *SurveyInput) {}, nil},
		{"Zero height and weight accepted", func(in *SurveyInput) { in.Demographics.HeightCm, in.Demographics.WeightKg = 0, 0 }, nil},
		{"Negative age", func(in *SurveyInput) { in.Demographics.Age = -3 }, []string{"demographics.age"}},
		{"Invalid sex", func(in *SurveyInput) { in.Demographics.Sex = "unknown" }, []string{"demographics.sex"}},
		{"Negative measurements", func(in *SurveyInput) {
			in.Demographics.HeightCm = -170
			in.Demographics.WeightKg = -70
			in.Demographics.NeckCircumferenceCm = -1
		}, []string{"demographics.heightCm", "demographics.weightKg", "demographics.neckCircumferenceCm"}},
		{"Short ESS", func(in *SurveyInput) { in.ESSResponses = EssResponses{1, 1, 1} }, []string{"essResponses"}},
		{"Out of range ESS items", func(in *SurveyInput) {
			in.ESSResponses = EssResponses{0, 4, 0, 0, 0, 0, -1, 0}
		}, []string{"essResponses[1]", "essResponses[6]"}},
		{"Negative activity", func(in *SurveyInput) {
			in.ActivitySample = &ActivitySample{DailySteps: -5, WeeklySleepHours: &negative}
		}, []string{"activitySample.dailySteps", "activitySample.weeklySleepHours"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.modify(&in)

			err := in.Validate()
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ElementsMatch(t, tt.fields, fieldsOf(t, err))
		})
	}
}

func TestDemographics_Validate(t *testing.T) {
	valid := Demographics{Age: 50, Sex: MALE, HeightCm: 180, WeightKg: 90, NeckCircumferenceCm: 41}
	assert.NoError(t, valid.Validate(""))

	bad := Demographics{Age: -1, Sex: MALE, HeightCm: -180, WeightKg: 90, NeckCircumferenceCm: -41}
	err := bad.Validate("demographics.")
	require.Error(t, err)
	assert.Equal(t, []string{"demographics.age", "demographics.heightCm", "demographics.neckCircumferenceCm"}, fieldsOf(t, err))

	err = bad.Validate("")
	require.Error(t, err)
	assert.Equal(t, []string{"age", "heightCm", "neckCircumferenceCm"}, fieldsOf(t, err))
}

func TestValidateMeasurements(t *testing.T) {
	assert.NoError(t, ValidateMeasurements("", 0, 0))
	assert.NoError(t, ValidateMeasurements("", 170, 70))

	err := ValidateMeasurements("", -170, -70)
	require.Error(t, err)
	assert.Equal(t, []string{"heightCm", "weightKg"}, fieldsOf(t, err))
}

func TestBerlinCategoryConstructors(t *testing.T) {
	cat1 := NewBerlinCategory1(map[string]bool{"item2": true, "item6": true, "item9": true, "bogus": true})
	assert.Equal(t, BerlinCategory1{Item2: true, Item6: true}, cat1)
	assert.Equal(t, 2, cat1.PositiveCount())

	cat2 := NewBerlinCategory2(map[string]bool{"item7": true, "item8": true, "item2": true})
	assert.Equal(t, BerlinCategory2{Item7: true, Item8: true}, cat2)
	assert.Equal(t, 2, cat2.PositiveCount())

	assert.Zero(t, NewBerlinCategory1(nil).PositiveCount())
}

func TestBMI(t *testing.T) {
	unavailable := BMI{Value: 99}
	assert.False(t, unavailable.AtLeast(30))
	assert.False(t, unavailable.Above(30))
	assert.Equal(t, "unavailable", unavailable.String())

	bmi := BMI{Value: 30, Available: true}
	assert.True(t, bmi.AtLeast(30))
	assert.False(t, bmi.Above(30))
	assert.Equal(t, "30.0", bmi.String())
}

func TestRecommendations(t *testing.T) {
	recs := Recommendations{
		{RuleID: "a", Title: "First", Description: "Do this.", Source: "Src A", Priority: 9},
		{RuleID: "b", Title: "Second", Description: "Then that.", Source: "Src B", Priority: 5},
	}

	assert.Equal(t, "First: Do this. [Src A] | Second: Then that. [Src B]", recs.Format())
	assert.Equal(t, "", Recommendations{}.Format())

	assert.True(t, recs.Contains("b"))
	assert.False(t, recs.Contains("c"))

	assert.Len(t, recs.Top(1), 1)
	assert.Len(t, recs.Top(5), 2)

	many := make(Recommendations, DefaultDisplayLimit+4)
	assert.Len(t, many.Top(0), DefaultDisplayLimit)
	assert.Equal(t, len(many), strings.Count(many.Format(), " | ")+1)
}
