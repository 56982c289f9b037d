package medbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthassist/platform/internal/adapters/clinical"
	"github.com/healthassist/platform/internal/fusion/intent"
	"github.com/healthassist/platform/internal/shared/config"
	"github.com/healthassist/platform/internal/shared/metrics"
	"github.com/healthassist/platform/internal/shared/types"
)

// Intents that route a fused result to the medical-analysis service.
var medicalIntents = map[string]bool{
	intent.IntentSymptomReport:   true,
	intent.IntentMedicationQuery: true,
	intent.IntentEmergencyAlert:  true,
	intent.IntentWellnessQuery:   true,
}

// Medical vocabulary that triggers analysis even without a medical
// intent.
var medicalVocabulary = []string{
	"symptom", "pain", "diagnosis", "medication", "prescription",
	"doctor", "hospital", "treatment", "disease", "illness",
	"fever", "blood pressure", "heart rate", "allergy",
}

// Client forwards synthesized medical queries to an external analysis
// service. It never fails its caller: every transport error, timeout or
// non-200 response becomes the deterministic fallback response.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clinical   clinical.Adapter
	log        *zap.Logger
}

// NewClient creates a bridge client. The clinical adapter is optional;
// without one medical history is sent empty.
func NewClient(cfg config.MedBridgeConfig, clinicalAdapter clinical.Adapter, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		clinical:   clinicalAdapter,
		log:        log,
	}
}

// ShouldAnalyze reports whether a fused result warrants a bridge call:
// either the primary intent is medical, or the combined text matches the
// medical vocabulary.
func ShouldAnalyze(combinedText, primaryIntent string) bool {
	if medicalIntents[primaryIntent] {
		return true
	}
	lower := strings.ToLower(combinedText)
	for _, term := range medicalVocabulary {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// Analyze posts the request to the external service and returns its
// analysis, or the fallback on any failure. The HTTP call carries its
// own timeout, detached from the outer request's cancellation, so it can
// finish (or fall back) even if the caller goes away.
func (c *Client) Analyze(ctx context.Context, req AnalysisRequest) *AnalysisResponse {
	start := time.Now()

	if req.MedicalHistory == nil {
		req.MedicalHistory = c.fetchMedicalHistory(ctx, req.PatientID)
	}

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.httpClient.Timeout)
	defer cancel()

	body, err := json.Marshal(req)
	if err != nil {
		c.log.Error("failed to marshal bridge request", zap.Error(err))
		return c.fallback(req, start)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/api/v1/analyze", bytes.NewReader(body))
	if err != nil {
		c.log.Error("failed to build bridge request", zap.Error(err))
		return c.fallback(req, start)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("medical-analysis service unreachable",
			zap.String("patient_id", req.PatientID.String()),
			zap.Error(err),
		)
		return c.fallback(req, start)
	}
	defer resp.Body.Close()

	metrics.RecordBridgeRequest(time.Since(start))

	if resp.StatusCode != http.StatusOK {
		c.log.Warn("medical-analysis service returned error status",
			zap.Int("status", resp.StatusCode),
		)
		return c.fallback(req, start)
	}

	var analysis AnalysisResponse
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		c.log.Warn("failed to decode medical-analysis response", zap.Error(err))
		return c.fallback(req, start)
	}

	if analysis.RequestID == "" {
		analysis.RequestID = uuid.New().String()
	}
	if analysis.Timestamp.IsZero() {
		analysis.Timestamp = time.Now().UTC()
	}
	analysis.ProcessingTimeMs = time.Since(start).Milliseconds()

	return &analysis
}

// fetchMedicalHistory asks the clinical adapter for the patient's
// history, degrading to an empty map on any failure.
func (c *Client) fetchMedicalHistory(ctx context.Context, patientID types.ID) map[string]any {
	if c.clinical == nil || patientID.IsZero() {
		return map[string]any{}
	}

	record, err := c.clinical.FetchMedicalHistory(ctx, patientID)
	if err != nil {
		c.log.Warn("clinical history lookup failed",
			zap.String("source", c.clinical.SourceSystem()),
			zap.Error(err),
		)
		return map[string]any{}
	}

	conditions := make([]string, 0, len(record.Conditions))
	for _, cond := range record.Conditions {
		conditions = append(conditions, cond.Description)
	}
	medications := make([]string, 0, len(record.Medications))
	for _, med := range record.Medications {
		if med.Active {
			medications = append(medications, med.Name)
		}
	}

	return map[string]any{
		"conditions":  conditions,
		"medications": medications,
		"allergies":   record.Allergies,
		"source":      c.clinical.SourceSystem(),
	}
}

// fallback builds the deterministic local response used whenever the
// external service cannot provide an analysis.
func (c *Client) fallback(req AnalysisRequest, start time.Time) *AnalysisResponse {
	metrics.RecordBridgeFallback()

	return &AnalysisResponse{
		RequestID: uuid.New().String(),
		Timestamp: time.Now().UTC(),
		ModelUsed: FallbackModel,
		Summary:   fmt.Sprintf("Automated analysis is temporarily unavailable for this %s query.", req.AnalysisType),
		Recommendations: []string{
			"Consult a healthcare professional about your symptoms.",
			"If symptoms are severe or worsening, seek medical care promptly.",
		},
		Disclaimers: []string{
			"This response was generated without the medical-analysis service.",
			"It is not a diagnosis. Always consult a qualified healthcare provider.",
		},
		Confidence:       0,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}
}
