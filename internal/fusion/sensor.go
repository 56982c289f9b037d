package fusion

import (
	"fmt"
	"strconv"
	"strings"
)

// sensorConfidence is fixed: sensors are treated as inherently reliable,
// not subject to recognition uncertainty.
const sensorConfidence = 0.9

// processSensors derives health indicators from allow-listed reading
// types (latest reading per type wins) and synthesizes a natural-language
// description of every reading for the combined text.
func processSensors(readings []SensorReading) (*ModalityResult, map[string]Indicator) {
	result := &ModalityResult{
		Modality:   ModalitySensor,
		Confidence: sensorConfidence,
	}

	indicators := make(map[string]Indicator)
	var descriptions []string

	for _, reading := range readings {
		descriptions = append(descriptions, describeReading(reading))

		if !indicatorAllowList[reading.SensorType] {
			continue
		}

		current, exists := indicators[reading.SensorType]
		if exists && reading.Timestamp.Before(current.RecordedAt) {
			continue
		}

		indicators[reading.SensorType] = Indicator{
			Value:      reading.Value,
			Systolic:   reading.Systolic,
			Diastolic:  reading.Diastolic,
			Unit:       reading.Unit,
			RecordedAt: reading.Timestamp,
			DeviceID:   reading.DeviceID,
			Location:   reading.Location,
		}
	}

	result.Text = strings.Join(descriptions, ". ")

	return result, indicators
}

// describeReading renders one reading as text, e.g.
// "heart rate: 120 bpm at wrist".
func describeReading(r SensorReading) string {
	name := strings.ReplaceAll(r.SensorType, "_", " ")

	var value string
	if r.SensorType == IndicatorBloodPressure && r.Systolic != 0 {
		value = fmt.Sprintf("%s/%s",
			strconv.FormatFloat(r.Systolic, 'f', -1, 64),
			strconv.FormatFloat(r.Diastolic, 'f', -1, 64),
		)
	} else {
		value = strconv.FormatFloat(r.Value, 'f', -1, 64)
	}

	desc := fmt.Sprintf("%s: %s", name, value)
	if r.Unit != "" {
		desc += " " + r.Unit
	}
	if r.Location != "" {
		desc += " at " + r.Location
	}
	return desc
}
