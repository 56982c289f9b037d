package intent

import "strings"

// LexiconClassifier is the built-in word-counting sentiment classifier.
// It exists so recognition works without an external model; a real
// classifier can be injected through the SentimentClassifier interface.
type LexiconClassifier struct{}

var positiveWords = []string{
	"good", "great", "better", "fine", "well", "happy", "improved",
	"relieved", "thanks", "thank you", "excellent",
}

var negativeWords = []string{
	"bad", "worse", "terrible", "awful", "pain", "hurts", "sick",
	"worried", "scared", "anxious", "horrible", "miserable",
}

func (LexiconClassifier) Classify(text string) (string, error) {
	lower := strings.ToLower(text)

	positive := 0
	for _, w := range positiveWords {
		positive += strings.Count(lower, w)
	}

	negative := 0
	for _, w := range negativeWords {
		negative += strings.Count(lower, w)
	}

	switch {
	case positive > negative:
		return "positive", nil
	case negative > positive:
		return "negative", nil
	default:
		return "neutral", nil
	}
}
