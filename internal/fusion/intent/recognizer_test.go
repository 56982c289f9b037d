package intent

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

type failingClassifier struct{}

func (failingClassifier) Classify(string) (string, error) {
	return "", errors.New("classifier unavailable")
}

type capturingClassifier struct {
	snippet string
}

func (c *capturingClassifier) Classify(text string) (string, error) {
	c.snippet = text
	return "neutral", nil
}

func TestRecognizeSymptomReport(t *testing.T) {
	r := NewRecognizer(nil)

	result := r.Recognize("I have a severe headache", nil)

	if !result.Successful {
		t.Fatal("Recognition should succeed")
	}

	if result.Primary.Name != IntentSymptomReport {
		t.Errorf("Expected primary intent symptom_report, got '%s'", result.Primary.Name)
	}

	if result.Primary.Confidence <= 0 || result.Primary.Confidence > 1 {
		t.Errorf("Confidence should be in (0,1], got %f", result.Primary.Confidence)
	}

	if !result.Primary.RequiresAction {
		t.Error("Symptom reports require action")
	}

	if result.UrgencyLevel != 4 {
		t.Errorf("Symptom report should floor urgency at its priority 4, got %d", result.UrgencyLevel)
	}
}

func TestRecognizeUnknown(t *testing.T) {
	r := NewRecognizer(nil)

	result := r.Recognize("the weather is nice", nil)

	if !result.Successful {
		t.Fatal("Recognition should succeed")
	}

	if result.Primary.Name != IntentUnknown {
		t.Errorf("Expected unknown intent, got '%s'", result.Primary.Name)
	}

	if result.Primary.Confidence != 0 {
		t.Errorf("Unknown intent should have confidence 0, got %f", result.Primary.Confidence)
	}

	if result.UrgencyLevel != 1 {
		t.Errorf("Urgency should floor at 1, got %d", result.UrgencyLevel)
	}
}

func TestRecognizeEmergencyKeywordForcesUrgency(t *testing.T) {
	r := NewRecognizer(nil)

	tests := []string{
		"this is an emergency",
		"I think he had a heart attack",
		"she is unconscious",
		"call an ambulance now",
	}

	for _, text := range tests {
		t.Run(text, func(t *testing.T) {
			result := r.Recognize(text, nil)
			if result.UrgencyLevel != 5 {
				t.Errorf("Emergency keyword should force urgency 5, got %d", result.UrgencyLevel)
			}
		})
	}
}

func TestRecognizeConfidenceBeatsPriority(t *testing.T) {
	r := NewRecognizer(nil)

	// Three medication pattern hits against one emergency hit: the
	// higher-confidence medication intent wins within one text, even
	// though emergency has the higher priority.
	result := r.Recognize("what dosage of my prescription should I get from the pharmacy after my chest pain", nil)

	if result.Primary.Name != IntentMedicationQuery {
		t.Errorf("Expected medication_query to win on confidence, got '%s'", result.Primary.Name)
	}

	// Urgency is still forced by the emergency keyword.
	if result.UrgencyLevel != 5 {
		t.Errorf("Expected urgency 5, got %d", result.UrgencyLevel)
	}

	found := false
	for _, s := range result.Secondary {
		if s.Name == IntentEmergencyAlert {
			found = true
		}
	}
	if !found {
		t.Error("Emergency alert should appear among secondary intents")
	}
}

func TestRecognizePriorityBreaksConfidenceTie(t *testing.T) {
	r := NewRecognizer(nil)

	// One hit each out of five patterns: equal confidence, so the
	// higher-priority appointment intent wins.
	result := r.Recognize("appointment medication", nil)

	if result.Primary.Name != IntentAppointmentRequest {
		t.Errorf("Expected appointment_request on priority tie-break, got '%s'", result.Primary.Name)
	}

	if len(result.Secondary) == 0 || result.Secondary[0].Name != IntentMedicationQuery {
		t.Error("Medication query should be the first secondary intent")
	}

	if result.Secondary[0].Confidence != result.Primary.Confidence {
		t.Error("Tie-break test requires equal confidences")
	}
}

func TestRecognizeConfidenceClamped(t *testing.T) {
	r := NewRecognizer(nil)

	// Many repeated matches must not push confidence past 1.
	result := r.Recognize("pain pain pain pain pain pain pain pain i have a headache and a fever and symptoms", nil)

	if result.Primary.Confidence > 1.0 {
		t.Errorf("Confidence should be clamped to 1.0, got %f", result.Primary.Confidence)
	}
}

func TestRecognizeIdempotent(t *testing.T) {
	r := NewRecognizer(nil)
	text := "I have had severe chest pain since 2 days ago, I took 400 mg ibuprofen"
	context := map[string]any{"channel": "mobile"}

	first := r.Recognize(text, context)
	second := r.Recognize(text, context)

	if !reflect.DeepEqual(first, second) {
		t.Error("Identical inputs should produce identical results")
	}
}

func TestRecognizeEntities(t *testing.T) {
	r := NewRecognizer(nil)

	result := r.Recognize("severe pain in my chest for 3 days, taking 200 mg ibuprofen", nil)

	byType := make(map[string][]string)
	for _, e := range result.Entities {
		byType[e.Type] = append(byType[e.Type], e.Value)

		if e.End <= e.Start {
			t.Errorf("Entity '%s' has invalid span [%d,%d)", e.Value, e.Start, e.End)
		}
	}

	if len(byType["body_part"]) == 0 {
		t.Error("Expected a body_part entity")
	}
	if len(byType["severity"]) == 0 {
		t.Error("Expected a severity entity")
	}
	if len(byType["duration"]) == 0 {
		t.Error("Expected a duration entity")
	}
	if len(byType["medication"]) == 0 {
		t.Error("Expected a medication entity")
	}

	for _, e := range result.Entities {
		if e.Metadata != nil && e.Metadata["source"] == "general_ner" {
			if e.Confidence != 0.9 {
				t.Errorf("General NER entities should have confidence 0.9, got %f", e.Confidence)
			}
		} else if e.Confidence != 0.8 {
			t.Errorf("Pattern entities should have confidence 0.8, got %f", e.Confidence)
		}
	}
}

func TestRecognizeContext(t *testing.T) {
	r := NewRecognizer(nil)

	result := r.Recognize("I saw dr smith at the hospital yesterday", map[string]any{
		"channel":  "mobile",
		"location": "home",
	})

	if result.Context == nil {
		t.Fatal("Context should be assembled")
	}

	temporal, ok := result.Context["temporal"].([]string)
	if !ok || len(temporal) == 0 || temporal[0] != "yesterday" {
		t.Errorf("Expected temporal [yesterday], got %v", result.Context["temporal"])
	}

	if result.Context["person"] != "dr smith" {
		t.Errorf("Expected person 'dr smith', got %v", result.Context["person"])
	}

	// Caller-supplied keys win over detected ones.
	if result.Context["location"] != "home" {
		t.Errorf("Caller context should override detected location, got %v", result.Context["location"])
	}

	if result.Context["channel"] != "mobile" {
		t.Errorf("Caller context keys should be carried through, got %v", result.Context["channel"])
	}
}

func TestRecognizeNoContext(t *testing.T) {
	r := NewRecognizer(nil)

	result := r.Recognize("fever", nil)

	if result.Context != nil {
		t.Errorf("Expected nil context for plain text, got %v", result.Context)
	}
}

func TestSentimentFailureDefaultsNeutral(t *testing.T) {
	r := NewRecognizer(failingClassifier{})

	result := r.Recognize("I feel terrible", nil)

	if !result.Successful {
		t.Fatal("A classifier failure must not fail recognition")
	}

	if result.Sentiment != "neutral" {
		t.Errorf("Expected neutral sentiment on classifier failure, got '%s'", result.Sentiment)
	}
}

func TestSentimentWindowCountsCharacters(t *testing.T) {
	classifier := &capturingClassifier{}
	r := NewRecognizer(classifier)

	// 600 three-byte runes: a byte-offset cut would split one.
	r.Recognize("fever "+strings.Repeat("€", 600), nil)

	if !utf8.ValidString(classifier.snippet) {
		t.Fatal("Classifier received invalid UTF-8")
	}
	if got := utf8.RuneCountInString(classifier.snippet); got != 512 {
		t.Errorf("Expected a 512-character window, got %d", got)
	}
}

func TestSentimentWindowKeepsShortMultiByteText(t *testing.T) {
	classifier := &capturingClassifier{}
	r := NewRecognizer(classifier)

	// 200 characters but over 512 bytes: under the character window,
	// so nothing is cut.
	text := strings.Repeat("€", 200)
	r.Recognize(text, nil)

	if classifier.snippet != text {
		t.Errorf("Expected the full text, got %d bytes of %d", len(classifier.snippet), len(text))
	}
}

func TestLexiconClassifier(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"I feel great and happy today", "positive"},
		{"I feel terrible, everything hurts and I am worried", "negative"},
		{"the reading was taken at noon", "neutral"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			sentiment, err := LexiconClassifier{}.Classify(tt.text)
			if err != nil {
				t.Fatalf("Classify failed: %v", err)
			}
			if sentiment != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, sentiment)
			}
		})
	}
}
