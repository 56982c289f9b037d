package intent

// Intent is a classified user goal with confidence and routing priority.
type Intent struct {
	Name           string  `json:"name"`
	Confidence     float64 `json:"confidence"`
	Category       string  `json:"category"`
	Priority       int     `json:"priority"`
	RequiresAction bool    `json:"requires_action"`
}

// Entity is a span of text tagged with a semantic type.
type Entity struct {
	Type       string            `json:"type"`
	Value      string            `json:"value"`
	Confidence float64           `json:"confidence"`
	Start      int               `json:"start_offset"`
	End        int               `json:"end_offset"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Result is the outcome of one recognition pass over a piece of text.
// Recognition never fails the caller: on internal error Successful is
// false, Primary is the zero-confidence error intent and Error carries
// the message.
type Result struct {
	Successful   bool           `json:"recognition_successful"`
	Primary      Intent         `json:"primary_intent"`
	Secondary    []Intent       `json:"secondary_intents,omitempty"`
	Entities     []Entity       `json:"entities"`
	Sentiment    string         `json:"sentiment"`
	UrgencyLevel int            `json:"urgency_level"`
	Context      map[string]any `json:"context,omitempty"`
	Error        string         `json:"error,omitempty"`
}

// Recognized intent categories.
const (
	IntentSymptomReport      = "symptom_report"
	IntentMedicationQuery    = "medication_query"
	IntentAppointmentRequest = "appointment_request"
	IntentEmergencyAlert     = "emergency_alert"
	IntentWellnessQuery      = "wellness_query"
	IntentUnknown            = "unknown"
	IntentError              = "error"
)
