package fusion

import "github.com/healthassist/platform/internal/fusion/intent"

// Recommend maps (primary intent, health indicators, urgency) to a list
// of human-readable recommendations. Every applicable rule fires; the
// output is the ordered concatenation of all triggered strings.
func Recommend(primaryIntent string, indicators map[string]Indicator, urgencyLevel int) []string {
	recommendations := make([]string, 0)

	if urgencyLevel >= 4 {
		recommendations = append(recommendations, "Seek immediate medical attention.")
	}

	switch primaryIntent {
	case intent.IntentSymptomReport:
		recommendations = append(recommendations,
			"Schedule an appointment with your doctor to discuss these symptoms.",
			"Keep a symptom diary noting when symptoms occur and their severity.",
		)
	case intent.IntentMedicationQuery:
		recommendations = append(recommendations,
			"Consult your pharmacist for detailed medication information.",
		)
	case intent.IntentAppointmentRequest:
		recommendations = append(recommendations,
			"Contact your provider's office to arrange an appointment.",
		)
	case intent.IntentWellnessQuery:
		recommendations = append(recommendations,
			"Maintain a balanced diet and regular physical activity.",
			"Aim for 7-9 hours of sleep per night.",
		)
	}

	if hr, ok := indicators[IndicatorHeartRate]; ok {
		if hr.Value > 100 {
			recommendations = append(recommendations,
				"Your heart rate is elevated. Rest and monitor it; contact your doctor if it stays high.",
			)
		} else if hr.Value < 60 {
			recommendations = append(recommendations,
				"Your heart rate is low. If you feel dizzy or faint, contact your doctor.",
			)
		}
	}

	if bp, ok := indicators[IndicatorBloodPressure]; ok && bp.Systolic > 140 {
		recommendations = append(recommendations,
			"Your blood pressure is elevated. Re-measure after resting and consult your doctor.",
		)
	}

	return recommendations
}
