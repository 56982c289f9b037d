package fusion

import (
	"time"

	"github.com/healthassist/platform/internal/fusion/intent"
	"github.com/healthassist/platform/internal/shared/types"
)

// Modality is one distinct channel of input.
type Modality string

const (
	ModalityVoice  Modality = "voice"
	ModalityText   Modality = "text"
	ModalityImage  Modality = "image"
	ModalitySensor Modality = "sensor"
)

// presentationOrder fixes combined-text ordering regardless of which
// modality finishes processing first.
var presentationOrder = []Modality{ModalityVoice, ModalityText, ModalityImage, ModalitySensor}

// VoiceInput references an uploaded audio file.
type VoiceInput struct {
	FileRef  string  `json:"file_ref"`
	Duration float64 `json:"duration_seconds"`
	Format   string  `json:"format"`
}

// TextInput carries raw text.
type TextInput struct {
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
	Source   string `json:"source,omitempty"`
}

// ImageInput references an uploaded image. OCRText, when present, is
// treated as first-class text input; pixel analysis is out of scope.
type ImageInput struct {
	FileRef string `json:"file_ref"`
	Format  string `json:"format"`
	OCRText string `json:"ocr_text,omitempty"`
}

// SensorReading is one structured reading from a device. Systolic and
// Diastolic are set only for blood_pressure readings.
type SensorReading struct {
	SensorType string    `json:"sensor_type"`
	Value      float64   `json:"sensor_value"`
	Systolic   float64   `json:"systolic,omitempty"`
	Diastolic  float64   `json:"diastolic,omitempty"`
	Unit       string    `json:"unit"`
	Timestamp  time.Time `json:"timestamp"`
	DeviceID   string    `json:"device_id,omitempty"`
	Location   string    `json:"location,omitempty"`
}

// Indicator is a health indicator derived from the latest sensor reading
// of an allow-listed type.
type Indicator struct {
	Value      float64   `json:"value"`
	Systolic   float64   `json:"systolic,omitempty"`
	Diastolic  float64   `json:"diastolic,omitempty"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recorded_at"`
	DeviceID   string    `json:"device_id,omitempty"`
	Location   string    `json:"location,omitempty"`
}

// Health indicator types accepted from sensors. Indicators are never
// inferred from voice, text or image content.
const (
	IndicatorHeartRate     = "heart_rate"
	IndicatorBloodPressure = "blood_pressure"
	IndicatorTemperature   = "temperature"
	IndicatorBloodSugar    = "blood_sugar"
)

var indicatorAllowList = map[string]bool{
	IndicatorHeartRate:     true,
	IndicatorBloodPressure: true,
	IndicatorTemperature:   true,
	IndicatorBloodSugar:    true,
}

// Request is one multi-modal fusion request. Each modality slot is
// optional; at least the presence of inputs is validated by the caller.
type Request struct {
	PatientID    types.ID        `json:"patient_id"`
	SessionID    string          `json:"session_id,omitempty"`
	Voice        *VoiceInput     `json:"voice_input,omitempty"`
	Text         *TextInput      `json:"text_input,omitempty"`
	Image        *ImageInput     `json:"image_input,omitempty"`
	Sensors      []SensorReading `json:"sensor_inputs,omitempty"`
	UrgencyLevel int             `json:"urgency_level,omitempty"`
	Context      map[string]any  `json:"context,omitempty"`
}

// HasInput reports whether any modality was supplied.
func (r *Request) HasInput() bool {
	return r.Voice != nil || r.Text != nil || r.Image != nil || len(r.Sensors) > 0
}

// ModalityResult is the normalized output of one modality processor.
// A failed processor still returns a result: empty text, confidence 0
// and the failure message in Err. One modality failing never aborts
// the fusion request.
type ModalityResult struct {
	Modality   Modality       `json:"modality"`
	Text       string         `json:"text"`
	Confidence float64        `json:"confidence"`
	Language   string         `json:"language,omitempty"`
	Quality    float64        `json:"audio_quality,omitempty"`
	Intent     *intent.Result `json:"intent_result,omitempty"`
	Err        string         `json:"error,omitempty"`
}

// Degraded reports whether this result carries a processing failure.
func (m *ModalityResult) Degraded() bool {
	return m.Err != ""
}

// Result is the unified outcome of one fusion request. It is built once
// and not mutated afterwards.
type Result struct {
	PatientID types.ID `json:"patient_id"`
	SessionID string   `json:"session_id,omitempty"`

	Voice  *ModalityResult `json:"voice_processing_result,omitempty"`
	Text   *ModalityResult `json:"text_processing_result,omitempty"`
	Image  *ModalityResult `json:"image_processing_result,omitempty"`
	Sensor *ModalityResult `json:"sensor_processing_result,omitempty"`

	CombinedText     string               `json:"combined_text"`
	PrimaryIntent    intent.Intent        `json:"primary_intent"`
	ConfidenceScore  float64              `json:"confidence_score"`
	Entities         []intent.Entity      `json:"entities"`
	HealthIndicators map[string]Indicator `json:"health_indicators"`
	UrgencyLevel     int                  `json:"urgency_level"`
	Recommendations  []string             `json:"recommendations"`

	ProcessingTimeMs int64     `json:"processing_time_ms"`
	ProcessedAt      time.Time `json:"processed_at"`
}

// modalityResult returns the slot for a modality, nil when absent.
func (r *Result) modalityResult(m Modality) *ModalityResult {
	switch m {
	case ModalityVoice:
		return r.Voice
	case ModalityText:
		return r.Text
	case ModalityImage:
		return r.Image
	case ModalitySensor:
		return r.Sensor
	}
	return nil
}
