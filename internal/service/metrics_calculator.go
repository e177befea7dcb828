package service

import (
	"github.com/osa-screening-server/internal/domain"
)

// WHO adult BMI cut-points
const (
	bmiUnderweight = 18.5
	bmiOverweight  = 25.0
	bmiObeseI      = 30.0
	bmiObeseII     = 35.0
	bmiObeseIII    = 40.0
)

// ComputeBMI returns weightKg / (heightCm/100)^2. When either measurement is
// not positive no division is performed and the result is unavailable.
func ComputeBMI(heightCm, weightKg float64) domain.BMI {
	if heightCm <= 0 || weightKg <= 0 {
		return domain.BMI{}
	}
	heightM := heightCm / 100
	return domain.BMI{
		Value:     weightKg / (heightM * heightM),
		Available: true,
	}
}

// ComputeBMIStrict is ComputeBMI for callers that prefer an error over the
// unavailable state.
func ComputeBMIStrict(heightCm, weightKg float64) (float64, error) {
	bmi := ComputeBMI(heightCm, weightKg)
	if !bmi.Available {
		return 0, domain.ErrBMIUnavailable
	}
	return bmi.Value, nil
}

// BMICategory returns the WHO weight-status label, or "" when BMI is unavailable.
func BMICategory(bmi domain.BMI) string {
	if !bmi.Available {
		return ""
	}
	switch v := bmi.Value; {
	case v < bmiUnderweight:
		return "Underweight"
	case v < bmiOverweight:
		return "Normal weight"
	case v < bmiObeseI:
		return "Overweight"
	case v < bmiObeseII:
		return "Obese (class I)"
	case v < bmiObeseIII:
		return "Obese (class II)"
	default:
		return "Obese (class III)"
	}
}
