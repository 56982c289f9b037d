package fusion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/healthassist/platform/internal/fusion/intent"
	"github.com/healthassist/platform/internal/shared/types"
)

type stubTranscriber struct {
	text       string
	confidence float64
	language   string
	err        error
}

func (s stubTranscriber) Transcribe(_ context.Context, _ VoiceInput) (Transcription, error) {
	if s.err != nil {
		return Transcription{}, s.err
	}
	return Transcription{Text: s.text, Confidence: s.confidence, Language: s.language}, nil
}

type stubScorer struct {
	score float64
	err   error
}

func (s stubScorer) Score(_ context.Context, _ VoiceInput) (float64, error) {
	return s.score, s.err
}

// --- Combined Text Tests ---

func TestFuseCombinedTextOrder(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil)

	req := &Request{
		PatientID: types.NewID(),
		Text:      &TextInput{Content: "I have chest pain"},
		Sensors: []SensorReading{
			{
				SensorType: IndicatorHeartRate,
				Value:      120,
				Unit:       "bpm",
				Location:   "wrist",
				Timestamp:  time.Now(),
			},
		},
	}

	result := engine.Fuse(context.Background(), req)

	expected := "I have chest pain heart rate: 120 bpm at wrist"
	if result.CombinedText != expected {
		t.Errorf("Expected combined text '%s', got '%s'", expected, result.CombinedText)
	}
}

func TestFuseVoiceBeforeText(t *testing.T) {
	engine := NewEngine(nil, stubTranscriber{text: "from voice", confidence: 0.9}, nil, nil)

	req := &Request{
		PatientID: types.NewID(),
		Voice:     &VoiceInput{FileRef: "audio-1", Format: "wav"},
		Text:      &TextInput{Content: "from text"},
	}

	result := engine.Fuse(context.Background(), req)

	if result.CombinedText != "from voice from text" {
		t.Errorf("Voice text must precede text input, got '%s'", result.CombinedText)
	}
}

// --- Primary Intent Tests ---

func TestFusePriorityWinsAcrossModalities(t *testing.T) {
	// Voice carries a lower-confidence appointment request, text a
	// higher-confidence medication query. Across modalities priority
	// decides, so the appointment intent wins.
	engine := NewEngine(nil, stubTranscriber{text: "appointment", confidence: 0.9}, nil, nil)

	req := &Request{
		PatientID: types.NewID(),
		Voice:     &VoiceInput{FileRef: "audio-1", Format: "wav"},
		Text:      &TextInput{Content: "what dosage of my prescription should I collect from the pharmacy"},
	}

	result := engine.Fuse(context.Background(), req)

	if result.Voice.Intent.Primary.Name != intent.IntentAppointmentRequest {
		t.Fatalf("Voice primary should be appointment_request, got '%s'", result.Voice.Intent.Primary.Name)
	}
	if result.Text.Intent.Primary.Name != intent.IntentMedicationQuery {
		t.Fatalf("Text primary should be medication_query, got '%s'", result.Text.Intent.Primary.Name)
	}
	if result.Text.Intent.Primary.Confidence <= result.Voice.Intent.Primary.Confidence {
		t.Fatal("Test requires the medication intent to carry higher confidence")
	}

	if result.PrimaryIntent.Name != intent.IntentAppointmentRequest {
		t.Errorf("Expected appointment_request to win on priority, got '%s'", result.PrimaryIntent.Name)
	}
}

func TestFuseNoIntentCandidates(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil)

	req := &Request{
		PatientID: types.NewID(),
		Sensors: []SensorReading{
			{SensorType: IndicatorTemperature, Value: 36.6, Unit: "C", Timestamp: time.Now()},
		},
	}

	result := engine.Fuse(context.Background(), req)

	if result.PrimaryIntent.Name != intent.IntentUnknown {
		t.Errorf("Sensor-only requests should yield the unknown intent, got '%s'", result.PrimaryIntent.Name)
	}
	if result.ConfidenceScore != 0 {
		t.Errorf("Expected confidence 0, got %f", result.ConfidenceScore)
	}
}

// --- Failure Isolation Tests ---

func TestFuseVoiceFailureDoesNotAbort(t *testing.T) {
	engine := NewEngine(nil, stubTranscriber{err: errors.New("asr unavailable")}, nil, nil)

	req := &Request{
		PatientID: types.NewID(),
		Voice:     &VoiceInput{FileRef: "audio-1", Format: "wav"},
		Text:      &TextInput{Content: "I have a fever"},
	}

	result := engine.Fuse(context.Background(), req)

	if result.Voice == nil {
		t.Fatal("A failed voice modality must still produce a result slot")
	}
	if !result.Voice.Degraded() {
		t.Error("Voice result should be degraded")
	}
	if result.Voice.Text != "" || result.Voice.Confidence != 0 {
		t.Error("Degraded voice result should carry empty text and zero confidence")
	}

	if result.Text == nil || result.Text.Degraded() {
		t.Fatal("Text modality must be unaffected by the voice failure")
	}
	if result.CombinedText != "I have a fever" {
		t.Errorf("Combined text should contain only the surviving modality, got '%s'", result.CombinedText)
	}
	if result.PrimaryIntent.Name != intent.IntentSymptomReport {
		t.Errorf("Expected symptom_report from text, got '%s'", result.PrimaryIntent.Name)
	}
}

func TestFuseQualityScorerFailure(t *testing.T) {
	engine := NewEngine(nil,
		stubTranscriber{text: "should not be reached"},
		stubScorer{err: errors.New("no signal")},
		nil,
	)

	req := &Request{
		PatientID: types.NewID(),
		Voice:     &VoiceInput{FileRef: "audio-1", Format: "wav"},
	}

	result := engine.Fuse(context.Background(), req)

	if !result.Voice.Degraded() {
		t.Error("Scorer failure should degrade the voice modality")
	}
}

func TestFuseNoTranscriberConfigured(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil)

	req := &Request{
		PatientID: types.NewID(),
		Voice:     &VoiceInput{FileRef: "audio-1", Format: "wav"},
	}

	result := engine.Fuse(context.Background(), req)

	if !result.Voice.Degraded() {
		t.Error("Voice without a transcriber should degrade")
	}
}

// --- Health Indicator Tests ---

func TestFuseIndicatorAllowList(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil)

	now := time.Now()
	req := &Request{
		PatientID: types.NewID(),
		Sensors: []SensorReading{
			{SensorType: IndicatorHeartRate, Value: 72, Unit: "bpm", Timestamp: now},
			{SensorType: "step_count", Value: 9000, Unit: "steps", Timestamp: now},
		},
	}

	result := engine.Fuse(context.Background(), req)

	if _, ok := result.HealthIndicators[IndicatorHeartRate]; !ok {
		t.Error("Heart rate should become a health indicator")
	}
	if _, ok := result.HealthIndicators["step_count"]; ok {
		t.Error("Non-allow-listed sensor types must not become indicators")
	}

	// Every reading still contributes to the sensor text.
	if result.Sensor.Text != "heart rate: 72 bpm. step count: 9000 steps" {
		t.Errorf("Unexpected sensor text '%s'", result.Sensor.Text)
	}
}

func TestFuseLatestReadingWins(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil)

	earlier := time.Now().Add(-time.Hour)
	later := time.Now()
	req := &Request{
		PatientID: types.NewID(),
		Sensors: []SensorReading{
			{SensorType: IndicatorHeartRate, Value: 110, Unit: "bpm", Timestamp: later},
			{SensorType: IndicatorHeartRate, Value: 70, Unit: "bpm", Timestamp: earlier},
		},
	}

	result := engine.Fuse(context.Background(), req)

	hr := result.HealthIndicators[IndicatorHeartRate]
	if hr.Value != 110 {
		t.Errorf("Latest reading should win regardless of list order, got %f", hr.Value)
	}
}

func TestFuseSensorContributesNoEntities(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil)

	req := &Request{
		PatientID: types.NewID(),
		Sensors: []SensorReading{
			{SensorType: IndicatorBloodSugar, Value: 5.4, Unit: "mmol/L", Timestamp: time.Now()},
		},
	}

	result := engine.Fuse(context.Background(), req)

	if len(result.Entities) != 0 {
		t.Errorf("Sensor modality must not contribute entities, got %v", result.Entities)
	}
	if result.Sensor.Confidence != 0.9 {
		t.Errorf("Sensor confidence is fixed at 0.9, got %f", result.Sensor.Confidence)
	}
}

// --- Urgency Tests ---

func TestFuseUrgencyIsMaximum(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil)

	req := &Request{
		PatientID:    types.NewID(),
		UrgencyLevel: 2,
		Text:         &TextInput{Content: "I have a headache"},
	}

	result := engine.Fuse(context.Background(), req)

	// Symptom report floors modality urgency at 4, beating the caller's 2.
	if result.UrgencyLevel != 4 {
		t.Errorf("Expected urgency 4, got %d", result.UrgencyLevel)
	}
}

func TestFuseCallerUrgencyKept(t *testing.T) {
	engine := NewEngine(nil, nil, nil, nil)

	req := &Request{
		PatientID:    types.NewID(),
		UrgencyLevel: 3,
		Sensors: []SensorReading{
			{SensorType: IndicatorTemperature, Value: 36.6, Unit: "C", Timestamp: time.Now()},
		},
	}

	result := engine.Fuse(context.Background(), req)

	if result.UrgencyLevel != 3 {
		t.Errorf("Caller urgency should be kept when no modality exceeds it, got %d", result.UrgencyLevel)
	}
}

// --- Describe Reading Tests ---

func TestDescribeReading(t *testing.T) {
	tests := []struct {
		name     string
		reading  SensorReading
		expected string
	}{
		{
			name:     "heart rate with location",
			reading:  SensorReading{SensorType: IndicatorHeartRate, Value: 120, Unit: "bpm", Location: "wrist"},
			expected: "heart rate: 120 bpm at wrist",
		},
		{
			name:     "blood pressure",
			reading:  SensorReading{SensorType: IndicatorBloodPressure, Systolic: 130, Diastolic: 85, Unit: "mmHg"},
			expected: "blood pressure: 130/85 mmHg",
		},
		{
			name:     "temperature without location",
			reading:  SensorReading{SensorType: IndicatorTemperature, Value: 37.5, Unit: "C"},
			expected: "temperature: 37.5 C",
		},
		{
			name:     "no unit",
			reading:  SensorReading{SensorType: "step_count", Value: 9000},
			expected: "step count: 9000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeReading(tt.reading); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

// --- Recommendation Tests ---

func TestRecommendUrgencyFirst(t *testing.T) {
	recs := Recommend(intent.IntentSymptomReport, nil, 5)

	if len(recs) == 0 || recs[0] != "Seek immediate medical attention." {
		t.Errorf("High urgency must prepend the immediate-attention advice, got %v", recs)
	}
}

func TestRecommendElevatedHeartRate(t *testing.T) {
	indicators := map[string]Indicator{
		IndicatorHeartRate: {Value: 115, Unit: "bpm"},
	}

	recs := Recommend(intent.IntentUnknown, indicators, 1)

	if len(recs) != 1 {
		t.Fatalf("Expected exactly one recommendation, got %v", recs)
	}
	if recs[0] != "Your heart rate is elevated. Rest and monitor it; contact your doctor if it stays high." {
		t.Errorf("Unexpected recommendation '%s'", recs[0])
	}
}

func TestRecommendLowHeartRate(t *testing.T) {
	indicators := map[string]Indicator{
		IndicatorHeartRate: {Value: 48, Unit: "bpm"},
	}

	recs := Recommend(intent.IntentUnknown, indicators, 1)

	if len(recs) != 1 {
		t.Fatalf("Expected exactly one recommendation, got %v", recs)
	}
}

func TestRecommendElevatedBloodPressure(t *testing.T) {
	indicators := map[string]Indicator{
		IndicatorBloodPressure: {Systolic: 150, Diastolic: 95, Unit: "mmHg"},
	}

	recs := Recommend(intent.IntentUnknown, indicators, 1)

	if len(recs) != 1 {
		t.Fatalf("Expected exactly one recommendation, got %v", recs)
	}
}

func TestRecommendNormalReadingsSilent(t *testing.T) {
	indicators := map[string]Indicator{
		IndicatorHeartRate:     {Value: 72, Unit: "bpm"},
		IndicatorBloodPressure: {Systolic: 120, Diastolic: 80, Unit: "mmHg"},
	}

	recs := Recommend(intent.IntentUnknown, indicators, 1)

	if len(recs) != 0 {
		t.Errorf("Normal readings should produce no recommendations, got %v", recs)
	}
}

func TestRecommendCumulative(t *testing.T) {
	indicators := map[string]Indicator{
		IndicatorHeartRate: {Value: 120, Unit: "bpm"},
	}

	recs := Recommend(intent.IntentSymptomReport, indicators, 5)

	// Urgency advice, two symptom strings, then the heart-rate rule.
	if len(recs) != 4 {
		t.Fatalf("Expected 4 recommendations, got %d: %v", len(recs), recs)
	}
	if recs[0] != "Seek immediate medical attention." {
		t.Error("Urgency advice should come first")
	}
}

// --- Request Tests ---

func TestRequestHasInput(t *testing.T) {
	empty := &Request{PatientID: types.NewID()}
	if empty.HasInput() {
		t.Error("Empty request should report no input")
	}

	withText := &Request{Text: &TextInput{Content: "hi"}}
	if !withText.HasInput() {
		t.Error("Request with text should report input")
	}

	withSensors := &Request{Sensors: []SensorReading{{SensorType: IndicatorHeartRate}}}
	if !withSensors.HasInput() {
		t.Error("Request with sensors should report input")
	}
}
