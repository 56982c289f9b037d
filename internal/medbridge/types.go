package medbridge

import (
	"time"

	"github.com/healthassist/platform/internal/shared/types"
)

// AnalysisRequest is the wire payload sent to the external
// medical-analysis service.
type AnalysisRequest struct {
	PatientID      types.ID       `json:"patient_id"`
	SessionID      string         `json:"session_id,omitempty"`
	AnalysisType   string         `json:"analysis_type"`
	QueryText      string         `json:"query_text"`
	Symptoms       []string       `json:"symptoms"`
	MedicalHistory map[string]any `json:"medical_history"`
	Context        map[string]any `json:"context,omitempty"`
}

// AnalysisResponse is the analysis produced by the external service, or
// the deterministic fallback when the service cannot be reached.
type AnalysisResponse struct {
	RequestID        string    `json:"request_id"`
	Timestamp        time.Time `json:"timestamp"`
	ModelUsed        string    `json:"model_used"`
	Summary          string    `json:"summary,omitempty"`
	Findings         []string  `json:"findings,omitempty"`
	Recommendations  []string  `json:"recommendations"`
	Disclaimers      []string  `json:"disclaimers"`
	Confidence       float64   `json:"confidence"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
}

// FallbackModel marks responses synthesized locally after a bridge
// failure.
const FallbackModel = "fallback"
