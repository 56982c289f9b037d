package fusion

import (
	"strings"

	"github.com/healthassist/platform/internal/fusion/intent"
)

// Health entity keyword lists for the specialized text-modality
// extractor. These supplement the recognizer's own entity pass.
var healthEntityKeywords = map[string][]string{
	"symptom": {
		"headache", "fever", "cough", "nausea", "dizziness", "fatigue",
		"pain", "rash", "swelling", "vomiting", "diarrhea", "shortness of breath",
	},
	"medication": {
		"aspirin", "ibuprofen", "paracetamol", "acetaminophen", "insulin",
		"metformin", "amoxicillin", "antibiotic", "antihistamine",
	},
	"body_part": {
		"head", "chest", "stomach", "back", "arm", "leg", "throat",
		"knee", "shoulder", "abdomen",
	},
	"severity": {
		"mild", "moderate", "severe", "intense", "unbearable",
	},
	"duration": {
		"days", "weeks", "hours", "minutes", "months",
	},
}

// processText runs intent recognition plus the specialized health-entity
// extractor over the supplied text.
func (e *Engine) processText(input TextInput, callerContext map[string]any) *ModalityResult {
	result := &ModalityResult{
		Modality: ModalityText,
		Text:     input.Content,
		Language: input.Language,
	}

	recognition := e.recognizer.Recognize(input.Content, callerContext)
	result.Intent = &recognition
	result.Confidence = recognition.Primary.Confidence

	recognition.Entities = append(recognition.Entities, extractHealthEntities(input.Content)...)

	return result
}

// extractHealthEntities scans for health keywords, recording every
// occurrence with its span. Duplicates are kept.
func extractHealthEntities(text string) []intent.Entity {
	lower := strings.ToLower(text)
	var entities []intent.Entity

	for _, entityType := range []string{"symptom", "medication", "body_part", "severity", "duration"} {
		for _, keyword := range healthEntityKeywords[entityType] {
			offset := 0
			for {
				idx := strings.Index(lower[offset:], keyword)
				if idx < 0 {
					break
				}
				start := offset + idx
				entities = append(entities, intent.Entity{
					Type:       entityType,
					Value:      keyword,
					Confidence: 0.8,
					Start:      start,
					End:        start + len(keyword),
					Metadata:   map[string]string{"source": "health_extractor"},
				})
				offset = start + len(keyword)
			}
		}
	}

	return entities
}
