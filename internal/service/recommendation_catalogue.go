package service

import (
	"github.com/osa-screening-server/internal/domain"
)

// Recommendation priorities. Higher is more urgent; the high-risk gate
// holds the maximum.
const (
	priorityHighRiskGate = 12
	priorityCritical     = 11
	priorityUrgent       = 10
	priorityHigh         = 9
	priorityElevated     = 8
	priorityImportant    = 7
	priorityModerate     = 6
	priorityStandard     = 5
	priorityAdvisory     = 4
	priorityMaintenance  = 3
)

// Clinical thresholds used by the catalogue
const (
	recommendedSleepHours = 7.0
	veryShortSleepHours   = 5.0
	longSleepHours        = 9.0
	obeseBMI              = 30.0
	overweightBMI         = 25.0
	excessiveSleepiness   = 11
	severeSleepiness      = 16
	stopBangHigh          = 5
	stopBangIntermediate  = 3
	largeNeckCm           = 40.0
	olderAdultAge         = 50
	dailyActivityTarget   = 30
)

// Citation strings
const (
	sourceSleepDuration  = "AASM/SRS Consensus Statement on Recommended Sleep Duration (Watson et al., 2015)"
	sourceWeightOSA      = "AASM Clinical Practice Guideline: Management of Obesity in OSA (Hudgel et al., 2018)"
	sourceStopBang       = "STOP-Bang Questionnaire (Chung et al., Chest 2016)"
	sourceBerlin         = "Berlin Questionnaire (Netzer et al., Ann Intern Med 1999)"
	sourceESS            = "Epworth Sleepiness Scale (Johns, Sleep 1991)"
	sourceDrowsyDriving  = "AASM Position Statement on Drowsy Driving (2021)"
	sourceHypertension   = "ACC/AHA Guideline for High Blood Pressure in Adults (2017)"
	sourceDiabetes       = "ADA Standards of Care in Diabetes: Sleep Health (2024)"
	sourceSmoking        = "USPSTF Recommendation: Tobacco Smoking Cessation in Adults (2021)"
	sourceAlcohol        = "Alcohol consumption and OSA risk meta-analysis (Taveira et al., Sleep Med Rev 2018)"
	sourcePositional     = "AASM Clinical Practice Guideline: Positional Therapy (2015)"
	sourceActivity       = "WHO Guidelines on Physical Activity and Sedentary Behaviour (2020)"
	sourceExerciseOSA    = "Exercise training and OSA severity meta-analysis (Iftikhar et al., Sleep Med 2014)"
	sourceNeck           = "Neck circumference as an OSA predictor (Davies & Stradling, Eur Respir J 1990)"
	sourceAging          = "Age and sleep-disordered breathing (Young et al., Arch Intern Med 2002)"
	sourceCardioOSA      = "AHA Scientific Statement: OSA and Cardiovascular Disease (Yeghiazarians et al., 2021)"
	sourceDiagnostic     = "AASM Clinical Practice Guideline for Diagnostic Testing for Adult OSA (Kapur et al., 2017)"
)

// catalogue is the ordered rule list. It is built once and never mutated;
// evaluation order is authoring order, which also breaks priority ties.
var catalogue = []Rule{
	// Single-factor rules

	{
		ID:       "sleep_short",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_SLEEP},
		Matches:  func(f Facts) bool { return f.sleepBelow(recommendedSleepHours) },
		Recommendation: domain.Recommendation{
			Title:       "Extend Sleep Duration",
			Description: "Aim for at least 7 hours of sleep per night by keeping a consistent bedtime and wake time.",
			Source:      sourceSleepDuration,
			Priority:    priorityImportant,
		},
	},
	{
		ID:       "sleep_very_short",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_SLEEP},
		Matches:  func(f Facts) bool { return f.sleepBelow(veryShortSleepHours) },
		Recommendation: domain.Recommendation{
			Title:       "Prioritize Sleep Recovery",
			Description: "Sleeping under 5 hours a night impairs alertness and metabolic health; protect a full sleep window before adding other changes.",
			Source:      sourceSleepDuration,
			Priority:    priorityHigh,
		},
	},
	{
		ID:       "sleep_long",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_SLEEP},
		Matches:  func(f Facts) bool { return f.sleepAbove(longSleepHours) },
		Recommendation: domain.Recommendation{
			Title:       "Review Long Sleep Duration",
			Description: "Regularly sleeping more than 9 hours can signal poor sleep quality; mention it to your clinician.",
			Source:      sourceSleepDuration,
			Priority:    priorityAdvisory,
		},
	},
	{
		ID:      "bmi_obese",
		Arity:   domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool { return f.BMI.AtLeast(obeseBMI) },
		Recommendation: domain.Recommendation{
			Title:       "Weight Management Program",
			Description: "A structured weight-loss program combining diet and exercise reduces apnea severity in people with obesity.",
			Source:      sourceWeightOSA,
			Priority:    priorityHigh,
		},
	},
	{
		ID:    "bmi_overweight",
		Arity: domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool {
			return f.BMI.AtLeast(overweightBMI) && !f.BMI.AtLeast(obeseBMI)
		},
		Recommendation: domain.Recommendation{
			Title:       "Maintain a Healthy Weight",
			Description: "Modest weight loss lowers airway collapsibility during sleep; aim for gradual, sustainable changes.",
			Source:      sourceWeightOSA,
			Priority:    priorityStandard,
		},
	},
	{
		ID:       "stopbang_high",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_STOPBANG},
		Matches:  func(f Facts) bool { return f.stopBangAtLeast(stopBangHigh) },
		Recommendation: domain.Recommendation{
			Title:       "High STOP-BANG Score",
			Description: "A STOP-BANG score of 5 or more indicates a high probability of moderate-to-severe obstructive sleep apnea.",
			Source:      sourceStopBang,
			Priority:    priorityUrgent,
		},
	},
	{
		ID:       "stopbang_intermediate",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_STOPBANG},
		Matches: func(f Facts) bool {
			return f.stopBangAtLeast(stopBangIntermediate) && !f.stopBangAtLeast(stopBangHigh)
		},
		Recommendation: domain.Recommendation{
			Title:       "Intermediate STOP-BANG Score",
			Description: "Your STOP-BANG score suggests intermediate risk; track snoring and daytime tiredness and discuss them at your next check-up.",
			Source:      sourceStopBang,
			Priority:    priorityImportant,
		},
	},
	{
		ID:       "berlin_high",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_BERLIN},
		Matches:  func(f Facts) bool { return f.berlinHigh() },
		Recommendation: domain.Recommendation{
			Title:       "Berlin Questionnaire High Risk",
			Description: "Two or more positive Berlin categories place you in the high-risk group for sleep apnea.",
			Source:      sourceBerlin,
			Priority:    priorityHigh,
		},
	},
	{
		ID:       "ess_excessive",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_ESS},
		Matches:  func(f Facts) bool { return f.essAtLeast(excessiveSleepiness) },
		Recommendation: domain.Recommendation{
			Title:       "Address Excessive Daytime Sleepiness",
			Description: "Your Epworth score indicates excessive daytime sleepiness; schedule short planned naps and avoid monotonous tasks when drowsy.",
			Source:      sourceESS,
			Priority:    priorityElevated,
		},
	},
	{
		ID:       "ess_drowsy_driving",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_ESS},
		Matches:  func(f Facts) bool { return f.essAtLeast(severeSleepiness) },
		Recommendation: domain.Recommendation{
			Title:       "Avoid Drowsy Driving",
			Description: "Severe daytime sleepiness raises crash risk; do not drive or operate machinery when sleepy.",
			Source:      sourceDrowsyDriving,
			Priority:    priorityUrgent,
		},
	},
	{
		ID:      "neck_large",
		Arity:   domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool { return f.neckAtLeast(largeNeckCm) },
		Recommendation: domain.Recommendation{
			Title:       "Neck Circumference Risk Factor",
			Description: "A neck circumference of 40 cm or more is associated with airway narrowing during sleep.",
			Source:      sourceNeck,
			Priority:    priorityModerate,
		},
	},
	{
		ID:      "hypertension",
		Arity:   domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool { return f.MedicalHistory.Hypertension },
		Recommendation: domain.Recommendation{
			Title:       "Blood Pressure Monitoring",
			Description: "Monitor blood pressure regularly and follow your treatment plan; untreated sleep apnea can make hypertension harder to control.",
			Source:      sourceHypertension,
			Priority:    priorityImportant,
		},
	},
	{
		ID:      "diabetes",
		Arity:   domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool { return f.MedicalHistory.Diabetes },
		Recommendation: domain.Recommendation{
			Title:       "Glycemic Control and Sleep",
			Description: "Poor sleep worsens insulin resistance; keep regular sleep hours and review glucose control with your care team.",
			Source:      sourceDiabetes,
			Priority:    priorityModerate,
		},
	},
	{
		ID:      "smoking",
		Arity:   domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool { return f.MedicalHistory.Smokes },
		Recommendation: domain.Recommendation{
			Title:       "Smoking Cessation",
			Description: "Smoking inflames the upper airway and worsens snoring; ask about cessation support and nicotine replacement.",
			Source:      sourceSmoking,
			Priority:    priorityImportant,
		},
	},
	{
		ID:      "alcohol",
		Arity:   domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool { return f.MedicalHistory.Alcohol },
		Recommendation: domain.Recommendation{
			Title:       "Limit Evening Alcohol",
			Description: "Alcohol relaxes throat muscles and increases apnea events; avoid drinking within 3 hours of bedtime.",
			Source:      sourceAlcohol,
			Priority:    priorityModerate,
		},
	},
	{
		ID:      "snoring",
		Arity:   domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool { return f.StopBangFactors.Snoring },
		Recommendation: domain.Recommendation{
			Title:       "Positional Therapy for Snoring",
			Description: "Sleeping on your side instead of your back can reduce snoring and mild positional apnea.",
			Source:      sourcePositional,
			Priority:    priorityStandard,
		},
	},
	{
		ID:      "observed_apnea",
		Arity:   domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool { return f.StopBangFactors.ObservedApnea },
		Recommendation: domain.Recommendation{
			Title:       "Witnessed Breathing Pauses",
			Description: "Breathing pauses observed during sleep are a strong warning sign of sleep apnea and should be reported to a clinician.",
			Source:      sourceStopBang,
			Priority:    priorityHigh,
		},
	},
	{
		ID:      "daytime_tiredness",
		Arity:   domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool { return f.StopBangFactors.Tired },
		Recommendation: domain.Recommendation{
			Title:       "Daytime Fatigue",
			Description: "Frequent tiredness during the day can reflect fragmented sleep; keep a sleep diary for two weeks.",
			Source:      sourceStopBang,
			Priority:    priorityAdvisory,
		},
	},
	{
		ID:      "age_over_50",
		Arity:   domain.SINGLE_FACTOR,
		Matches: func(f Facts) bool { return f.Demographics.Age > olderAdultAge },
		Recommendation: domain.Recommendation{
			Title:       "Age-Related Sleep Changes",
			Description: "Sleep apnea becomes more common after 50; include sleep quality in routine health reviews.",
			Source:      sourceAging,
			Priority:    priorityMaintenance,
		},
	},
	{
		ID:       "activity_light",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_ACTIVITY},
		Matches:  func(f Facts) bool { return f.activityIs(domain.LIGHT) },
		Recommendation: domain.Recommendation{
			Title:       "Increase Physical Activity",
			Description: "Your daily activity is light; build toward 150 minutes of moderate activity per week, starting with short walks.",
			Source:      sourceActivity,
			Priority:    priorityModerate,
		},
	},
	{
		ID:       "activity_moderate",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_ACTIVITY},
		Matches:  func(f Facts) bool { return f.activityIs(domain.MODERATE) },
		Recommendation: domain.Recommendation{
			Title:       "Build on Moderate Activity",
			Description: "You are moderately active; adding two strength sessions per week further improves sleep quality.",
			Source:      sourceActivity,
			Priority:    priorityAdvisory,
		},
	},
	{
		ID:       "activity_vigorous",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_ACTIVITY},
		Matches:  func(f Facts) bool { return f.activityIs(domain.VIGOROUS) },
		Recommendation: domain.Recommendation{
			Title:       "Maintain Vigorous Activity",
			Description: "Keep up your activity level and finish intense workouts at least 2 hours before bedtime.",
			Source:      sourceExerciseOSA,
			Priority:    priorityMaintenance,
		},
	},
	{
		ID:       "activity_time_low",
		Arity:    domain.SINGLE_FACTOR,
		Requires: []domain.Dependency{domain.DEP_ACTIVITY},
		Matches:  func(f Facts) bool { return f.activityMinutesBelow(dailyActivityTarget) },
		Recommendation: domain.Recommendation{
			Title:       "Aim for 30 Active Minutes Daily",
			Description: "Fewer than 30 active minutes a day were recorded; regular exercise reduces apnea severity independent of weight loss.",
			Source:      sourceExerciseOSA,
			Priority:    priorityStandard,
		},
	},

	// Two-factor rules

	{
		ID:    "alcohol_hypertension",
		Arity: domain.TWO_FACTOR,
		Matches: func(f Facts) bool {
			return f.MedicalHistory.Alcohol && f.MedicalHistory.Hypertension
		},
		Recommendation: domain.Recommendation{
			Title:       "Alcohol and Blood Pressure",
			Description: "Alcohol raises blood pressure and worsens nocturnal apnea; reducing intake helps control both.",
			Source:      sourceHypertension,
			Priority:    priorityElevated,
		},
	},
	{
		ID:       "snoring_sleepiness",
		Arity:    domain.TWO_FACTOR,
		Requires: []domain.Dependency{domain.DEP_ESS},
		Matches: func(f Facts) bool {
			return f.StopBangFactors.Snoring && f.essAtLeast(excessiveSleepiness)
		},
		Recommendation: domain.Recommendation{
			Title:       "Snoring with Daytime Sleepiness",
			Description: "Loud snoring combined with excessive sleepiness is a classic apnea pattern; a sleep study is advisable.",
			Source:      sourceESS,
			Priority:    priorityHigh,
		},
	},
	{
		ID:    "snoring_hypertension",
		Arity: domain.TWO_FACTOR,
		Matches: func(f Facts) bool {
			return f.StopBangFactors.Snoring && f.MedicalHistory.Hypertension
		},
		Recommendation: domain.Recommendation{
			Title:       "Snoring and Hypertension",
			Description: "Snoring together with high blood pressure raises cardiovascular risk; share both with your physician.",
			Source:      sourceCardioOSA,
			Priority:    priorityElevated,
		},
	},
	{
		ID:    "smoking_snoring",
		Arity: domain.TWO_FACTOR,
		Matches: func(f Facts) bool {
			return f.MedicalHistory.Smokes && f.StopBangFactors.Snoring
		},
		Recommendation: domain.Recommendation{
			Title:       "Smoking Aggravates Snoring",
			Description: "Quitting smoking reduces airway swelling and can noticeably lessen snoring within weeks.",
			Source:      sourceSmoking,
			Priority:    priorityImportant,
		},
	},
	{
		ID:    "diabetes_obesity",
		Arity: domain.TWO_FACTOR,
		Matches: func(f Facts) bool {
			return f.MedicalHistory.Diabetes && f.BMI.AtLeast(obeseBMI)
		},
		Recommendation: domain.Recommendation{
			Title:       "Diabetes and Obesity",
			Description: "Diabetes with obesity strongly predicts sleep apnea; weight reduction improves both glucose control and breathing at night.",
			Source:      sourceDiabetes,
			Priority:    priorityElevated,
		},
	},
	{
		ID:       "inactive_obesity",
		Arity:    domain.TWO_FACTOR,
		Requires: []domain.Dependency{domain.DEP_ACTIVITY},
		Matches: func(f Facts) bool {
			return f.activityIs(domain.LIGHT) && f.BMI.AtLeast(obeseBMI)
		},
		Recommendation: domain.Recommendation{
			Title:       "Activity for Weight Control",
			Description: "Low activity with obesity compounds apnea risk; combine daily walking with dietary changes.",
			Source:      sourceExerciseOSA,
			Priority:    priorityImportant,
		},
	},
	{
		ID:       "short_sleep_sleepiness",
		Arity:    domain.TWO_FACTOR,
		Requires: []domain.Dependency{domain.DEP_SLEEP, domain.DEP_ESS},
		Matches: func(f Facts) bool {
			return f.sleepBelow(recommendedSleepHours) && f.essAtLeast(excessiveSleepiness)
		},
		Recommendation: domain.Recommendation{
			Title:       "Short Sleep with Sleepiness",
			Description: "Short sleep and excessive sleepiness together suggest sleep debt or disordered breathing; extend sleep and reassess in two weeks.",
			Source:      sourceSleepDuration,
			Priority:    priorityElevated,
		},
	},
	{
		ID:    "apnea_hypertension",
		Arity: domain.TWO_FACTOR,
		Matches: func(f Facts) bool {
			return f.StopBangFactors.ObservedApnea && f.MedicalHistory.Hypertension
		},
		Recommendation: domain.Recommendation{
			Title:       "Witnessed Apnea with Hypertension",
			Description: "Observed breathing pauses with high blood pressure warrant prompt evaluation because treatment can lower blood pressure.",
			Source:      sourceCardioOSA,
			Priority:    priorityUrgent,
		},
	},
	{
		ID:    "male_large_neck",
		Arity: domain.TWO_FACTOR,
		Matches: func(f Facts) bool {
			return f.Demographics.IsMale() && f.neckAtLeast(largeNeckCm)
		},
		Recommendation: domain.Recommendation{
			Title:       "Male Sex with Large Neck",
			Description: "Men with a neck circumference of 40 cm or more have markedly higher apnea prevalence.",
			Source:      sourceNeck,
			Priority:    priorityModerate,
		},
	},

	// Three-or-more-factor rules

	{
		ID:       "snoring_obesity_sleepiness",
		Arity:    domain.MULTI_FACTOR,
		Requires: []domain.Dependency{domain.DEP_ESS},
		Matches: func(f Facts) bool {
			return f.StopBangFactors.Snoring && f.BMI.AtLeast(obeseBMI) && f.essAtLeast(excessiveSleepiness)
		},
		Recommendation: domain.Recommendation{
			Title:       "Snoring, Obesity and Sleepiness",
			Description: "This combination is the strongest self-reported indicator of obstructive sleep apnea; arrange a sleep study soon.",
			Source:      sourceDiagnostic,
			Priority:    priorityCritical,
		},
	},
	{
		ID:    "cardiometabolic_cluster",
		Arity: domain.MULTI_FACTOR,
		Matches: func(f Facts) bool {
			return f.MedicalHistory.Hypertension && f.MedicalHistory.Diabetes && f.BMI.AtLeast(obeseBMI)
		},
		Recommendation: domain.Recommendation{
			Title:       "Cardiometabolic Risk Cluster",
			Description: "Hypertension, diabetes and obesity together substantially raise apnea and cardiovascular risk; coordinate care with your physician.",
			Source:      sourceCardioOSA,
			Priority:    priorityUrgent,
		},
	},
	{
		ID:    "smoking_alcohol_snoring",
		Arity: domain.MULTI_FACTOR,
		Matches: func(f Facts) bool {
			return f.MedicalHistory.Smokes && f.MedicalHistory.Alcohol && f.StopBangFactors.Snoring
		},
		Recommendation: domain.Recommendation{
			Title:       "Lifestyle Airway Irritants",
			Description: "Smoking and alcohol both worsen airway collapse in people who snore; reducing either lowers nightly apnea events.",
			Source:      sourceAlcohol,
			Priority:    priorityElevated,
		},
	},
	{
		ID:       "inactive_obesity_short_sleep",
		Arity:    domain.MULTI_FACTOR,
		Requires: []domain.Dependency{domain.DEP_ACTIVITY, domain.DEP_SLEEP},
		Matches: func(f Facts) bool {
			return f.activityIs(domain.LIGHT) && f.BMI.AtLeast(obeseBMI) && f.sleepBelow(recommendedSleepHours)
		},
		Recommendation: domain.Recommendation{
			Title:       "Sleep, Activity and Weight Plan",
			Description: "Short sleep, low activity and obesity reinforce each other; a combined plan addressing all three is most effective.",
			Source:      sourceWeightOSA,
			Priority:    priorityHigh,
		},
	},
	{
		ID:    "older_male_snorer_large_neck",
		Arity: domain.MULTI_FACTOR,
		Matches: func(f Facts) bool {
			return f.Demographics.Age > olderAdultAge && f.Demographics.IsMale() &&
				f.StopBangFactors.Snoring && f.neckAtLeast(largeNeckCm)
		},
		Recommendation: domain.Recommendation{
			Title:       "High-Prevalence Profile",
			Description: "Men over 50 who snore and have a large neck form the highest-prevalence apnea group; discuss screening with your doctor.",
			Source:      sourceStopBang,
			Priority:    priorityUrgent,
		},
	},

	// High-risk gate, evaluated last. Clauses with unavailable inputs do not match.

	{
		ID:    "high_risk_evaluation",
		Arity: domain.HIGH_RISK_GATE,
		Matches: func(f Facts) bool {
			return f.stopBangAtLeast(stopBangHigh) ||
				f.berlinHigh() ||
				(f.stopBangAtLeast(stopBangIntermediate) && f.BMI.AtLeast(obeseBMI)) ||
				f.essAtLeast(severeSleepiness) ||
				(f.stopBangAtLeast(stopBangIntermediate) && f.hypertensive() && f.neckAtLeast(largeNeckCm))
		},
		Recommendation: domain.Recommendation{
			Title:       "Seek Professional Sleep Evaluation",
			Description: "Your answers indicate a high risk of obstructive sleep apnea. Consult a sleep specialist about a diagnostic sleep study.",
			Source:      sourceDiagnostic,
			Priority:    priorityHighRiskGate,
		},
	},
}
