package intent

import (
	"fmt"
	"sort"
	"strings"
)

// SentimentClassifier maps a text snippet to "positive", "negative" or
// "neutral". Implementations may call out to an external model; failures
// default the sentiment to neutral.
type SentimentClassifier interface {
	Classify(text string) (string, error)
}

// Recognizer maps free text to ranked intents, entities, sentiment,
// urgency and context. Recognize is a pure function of its inputs: two
// calls with identical text and context produce identical results.
type Recognizer struct {
	classifier SentimentClassifier
}

// NewRecognizer creates a recognizer. A nil classifier selects the
// built-in lexicon classifier.
func NewRecognizer(classifier SentimentClassifier) *Recognizer {
	if classifier == nil {
		classifier = LexiconClassifier{}
	}
	return &Recognizer{classifier: classifier}
}

// Recognize analyzes text and returns the recognition result. It never
// panics to the caller: unexpected failures come back as an unsuccessful
// result carrying the error intent.
func (r *Recognizer) Recognize(text string, callerContext map[string]any) (result Result) {
	defer func() {
		if rec := recover(); rec != nil {
			result = Result{
				Successful:   false,
				Primary:      Intent{Name: IntentError, Confidence: 0},
				Sentiment:    "neutral",
				UrgencyLevel: 1,
				Error:        fmt.Sprintf("recognition failed: %v", rec),
			}
		}
	}()

	lower := strings.ToLower(text)

	candidates := matchIntents(lower)

	// Intra-modality ranking: confidence first, priority breaks ties.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		return candidates[i].Priority > candidates[j].Priority
	})

	primary := Intent{Name: IntentUnknown, Confidence: 0}
	var secondary []Intent
	if len(candidates) > 0 {
		primary = candidates[0]
		secondary = candidates[1:]
	}

	entities := extractEntities(lower)

	return Result{
		Successful:   true,
		Primary:      primary,
		Secondary:    secondary,
		Entities:     entities,
		Sentiment:    r.classifySentiment(text),
		UrgencyLevel: urgencyLevel(lower, candidates),
		Context:      assembleContext(lower, entities, callerContext),
	}
}

// matchIntents counts pattern matches per category. A category becomes a
// candidate when it has at least one match; confidence is match count
// over pattern count, clamped to 1.0.
func matchIntents(lower string) []Intent {
	var candidates []Intent
	for _, spec := range intentTable {
		matches := 0
		for _, p := range spec.patterns {
			matches += len(p.FindAllString(lower, -1))
		}
		if matches == 0 {
			continue
		}

		confidence := float64(matches) / float64(len(spec.patterns))
		if confidence > 1.0 {
			confidence = 1.0
		}

		candidates = append(candidates, Intent{
			Name:           spec.category,
			Confidence:     confidence,
			Category:       spec.category,
			Priority:       spec.priority,
			RequiresAction: spec.requiresAction,
		})
	}
	return candidates
}

// sentimentWindow caps how many characters of the combined text the
// sentiment classifier sees.
const sentimentWindow = 512

func (r *Recognizer) classifySentiment(text string) string {
	// The window is 512 characters, not bytes; truncating on a byte
	// offset could hand the classifier a split rune.
	snippet := text
	if len(snippet) > sentimentWindow {
		runes := []rune(snippet)
		if len(runes) > sentimentWindow {
			runes = runes[:sentimentWindow]
		}
		snippet = string(runes)
	}

	sentiment, err := r.classifier.Classify(snippet)
	if err != nil {
		return "neutral"
	}
	switch sentiment {
	case "positive", "negative", "neutral":
		return sentiment
	default:
		return "neutral"
	}
}

// urgencyLevel starts at 1, is forced to 5 by any emergency keyword and
// otherwise floors at the highest priority among recognized intents.
func urgencyLevel(lower string, candidates []Intent) int {
	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return 5
		}
	}

	level := 1
	for _, c := range candidates {
		if c.Priority > level {
			level = c.Priority
		}
	}
	return level
}

// extractEntities runs the category-specific pattern tables (confidence
// 0.8) and the general named-entity pass (confidence 0.9). Entities are
// appended in a fixed table order so results are deterministic.
func extractEntities(lower string) []Entity {
	entities := make([]Entity, 0)

	for _, entityType := range []string{"body_part", "severity", "duration", "medication", "time"} {
		for _, p := range entityPatterns[entityType] {
			for _, loc := range p.FindAllStringIndex(lower, -1) {
				entities = append(entities, Entity{
					Type:       entityType,
					Value:      lower[loc[0]:loc[1]],
					Confidence: 0.8,
					Start:      loc[0],
					End:        loc[1],
				})
			}
		}
	}

	for _, entityType := range []string{"person", "org", "location", "date", "number"} {
		p := nerPatterns[entityType]
		for _, loc := range p.FindAllStringIndex(lower, -1) {
			entities = append(entities, Entity{
				Type:       entityType,
				Value:      lower[loc[0]:loc[1]],
				Confidence: 0.9,
				Start:      loc[0],
				End:        loc[1],
				Metadata:   map[string]string{"source": "general_ner"},
			})
		}
	}

	return entities
}

// assembleContext scans for temporal keywords and the first person and
// location entities, then merges in the caller-supplied context. Caller
// keys win on conflict.
func assembleContext(lower string, entities []Entity, callerContext map[string]any) map[string]any {
	context := make(map[string]any)

	var temporal []string
	for _, kw := range temporalKeywords {
		if strings.Contains(lower, kw) {
			temporal = append(temporal, kw)
		}
	}
	if len(temporal) > 0 {
		context["temporal"] = temporal
	}

	for _, e := range entities {
		if e.Type == "person" {
			context["person"] = e.Value
			break
		}
	}
	for _, e := range entities {
		if e.Type == "location" {
			context["location"] = e.Value
			break
		}
	}

	for k, v := range callerContext {
		context[k] = v
	}

	if len(context) == 0 {
		return nil
	}
	return context
}
