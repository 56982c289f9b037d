package intent

import "regexp"

// intentSpec binds a category to its match patterns and static routing
// attributes. Confidence is computed as match count over pattern count,
// clamped to 1.0.
type intentSpec struct {
	category       string
	priority       int
	requiresAction bool
	patterns       []*regexp.Regexp
}

var intentTable = []intentSpec{
	{
		category:       IntentEmergencyAlert,
		priority:       5,
		requiresAction: true,
		patterns: compileAll(
			`\bemergency\b`,
			`\bcall (?:911|an? ambulance)\b`,
			`\bcan'?t breathe\b`,
			`\bchest pain\b`,
			`\bunconscious\b`,
			`\bsevere bleeding\b`,
			`\boverdose\b`,
			`\bheart attack\b`,
			`\bstroke\b`,
		),
	},
	{
		category:       IntentSymptomReport,
		priority:       4,
		requiresAction: true,
		patterns: compileAll(
			`\bi (?:have|feel|am feeling|got)\b`,
			`\b(?:pain|ache|aching|hurts?|hurting)\b`,
			`\b(?:fever|cough|nausea|dizzy|dizziness|fatigue|tired)\b`,
			`\b(?:headache|migraine|sore throat|rash|swelling)\b`,
			`\bsymptoms?\b`,
			`\bnot feeling well\b`,
			`\bvomit(?:ing)?\b`,
		),
	},
	{
		category:       IntentAppointmentRequest,
		priority:       3,
		requiresAction: true,
		patterns: compileAll(
			`\b(?:book|schedule|make|set up)\b.*\bappointment\b`,
			`\bappointment\b`,
			`\bsee (?:a|my|the) doctor\b`,
			`\bvisit\b.*\b(?:clinic|doctor|hospital)\b`,
			`\bcheck-?up\b`,
		),
	},
	{
		category:       IntentMedicationQuery,
		priority:       2,
		requiresAction: false,
		patterns: compileAll(
			`\b(?:medication|medicine|drug|pill|tablet|dose|dosage)\b`,
			`\b(?:prescription|prescribed|refill)\b`,
			`\bside effects?\b`,
			`\b(?:take|taking)\b.*\b(?:mg|milligrams?)\b`,
			`\bpharmac(?:y|ist)\b`,
		),
	},
	{
		category:       IntentWellnessQuery,
		priority:       1,
		requiresAction: false,
		patterns: compileAll(
			`\b(?:diet|nutrition|exercise|workout|fitness)\b`,
			`\b(?:sleep|sleeping|insomnia)\b`,
			`\b(?:healthy|wellness|well-being)\b`,
			`\bhow (?:can|do) i (?:improve|stay|get)\b`,
			`\b(?:stress|relax|relaxation|meditation)\b`,
		),
	},
}

// emergencyKeywords force urgency level 5 wherever they appear.
var emergencyKeywords = []string{
	"emergency",
	"911",
	"ambulance",
	"can't breathe",
	"cannot breathe",
	"chest pain",
	"unconscious",
	"severe bleeding",
	"overdose",
	"heart attack",
	"stroke",
	"suicide",
}

// Category-specific entity patterns, matched with fixed confidence 0.8.
var entityPatterns = map[string][]*regexp.Regexp{
	"body_part": compileAll(
		`\b(?:head|neck|chest|back|stomach|abdomen|arm|leg|knee|ankle|wrist|shoulder|hip|throat|ear|eye|foot|hand)\b`,
	),
	"severity": compileAll(
		`\b(?:mild|moderate|severe|intense|unbearable|slight|sharp|dull|throbbing)\b`,
	),
	"duration": compileAll(
		`\b(?:for|since|over)\s+(?:\d+|a|an|the last|the past)\s*(?:minutes?|hours?|days?|weeks?|months?|years?)\b`,
		`\b\d+\s*(?:minutes?|hours?|days?|weeks?|months?|years?)\b`,
	),
	"medication": compileAll(
		`\b(?:aspirin|ibuprofen|paracetamol|acetaminophen|insulin|metformin|amoxicillin|lisinopril|atorvastatin|omeprazole)\b`,
		`\b\d+\s?(?:mg|mcg|ml|milligrams?)\b`,
	),
	"time": compileAll(
		`\b(?:today|tonight|tomorrow|yesterday|this (?:morning|afternoon|evening)|last night)\b`,
		`\b(?:\d{1,2}:\d{2}\s?(?:am|pm)?|\d{1,2}\s?(?:am|pm))\b`,
	),
}

// General named-entity patterns, matched with fixed confidence 0.9.
var nerPatterns = map[string]*regexp.Regexp{
	"person":   regexp.MustCompile(`\b(?:dr\.?|doctor|nurse|mr\.?|mrs\.?|ms\.?)\s+[a-z]+\b`),
	"org":      regexp.MustCompile(`\b(?:hospital|clinic|pharmacy|medical center|health center)\b`),
	"location": regexp.MustCompile(`\b(?:at|in|near)\s+(?:the\s+)?(?:home|work|school|office|hospital|clinic|pharmacy)\b`),
	"date":     regexp.MustCompile(`\b(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|january|february|march|april|may|june|july|august|september|october|november|december)\b|\b\d{1,2}[/-]\d{1,2}(?:[/-]\d{2,4})?\b`),
	"number":   regexp.MustCompile(`\b\d+(?:\.\d+)?\b`),
}

// temporalKeywords feed the assembled context.
var temporalKeywords = []string{
	"today", "tonight", "tomorrow", "yesterday",
	"this morning", "this afternoon", "this evening",
	"last night", "next week", "last week",
}

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}
