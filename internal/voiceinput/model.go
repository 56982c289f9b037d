package voiceinput

import (
	"time"

	"github.com/healthassist/platform/internal/fusion"
	"github.com/healthassist/platform/internal/fusion/intent"
	"github.com/healthassist/platform/internal/medbridge"
	"github.com/healthassist/platform/internal/shared/types"
)

// InputType distinguishes how a record entered the system.
type InputType string

const (
	InputTypeVoice      InputType = "voice"
	InputTypeText       InputType = "text"
	InputTypeMultiModal InputType = "multi_modal"
)

// Record is one stored voice-input processing result.
type Record struct {
	ID               types.ID             `json:"id"`
	UserID           types.ID             `json:"user_id"`
	SessionID        string               `json:"session_id,omitempty"`
	InputType        InputType            `json:"input_type"`
	Transcription    string               `json:"transcription,omitempty"`
	Language         string               `json:"language,omitempty"`
	PrimaryIntent    string               `json:"primary_intent,omitempty"`
	Confidence       float64              `json:"confidence"`
	UrgencyLevel     int                  `json:"urgency_level"`
	CombinedText     string               `json:"combined_text,omitempty"`
	Entities         []intent.Entity      `json:"entities,omitempty"`
	HealthIndicators map[string]fusion.Indicator `json:"health_indicators,omitempty"`
	Recommendations  []string             `json:"recommendations,omitempty"`
	ProcessingTimeMs int64                `json:"processing_time_ms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRecordRequest stores a processed input directly.
type CreateRecordRequest struct {
	SessionID     string    `json:"session_id,omitempty"`
	InputType     InputType `json:"input_type,omitempty"`
	Transcription string    `json:"transcription"`
	Language      string    `json:"language,omitempty"`
}

// UpdateRecordRequest corrects a stored transcription.
type UpdateRecordRequest struct {
	Transcription *string `json:"transcription,omitempty"`
	Language      *string `json:"language,omitempty"`
}

// ListRecordsFilter defines filters for listing records.
type ListRecordsFilter struct {
	UserID    *types.ID
	SessionID string
	Intent    string
	Limit     int
	Offset    int
}

// ProcessResponse is the fusion result returned to the caller, with
// the optional medical analysis attached.
type ProcessResponse struct {
	*fusion.Result

	MedicalAnalysis *medbridge.AnalysisResponse `json:"medical_analysis,omitempty"`
	RecordID        *types.ID                   `json:"record_id,omitempty"`
}
