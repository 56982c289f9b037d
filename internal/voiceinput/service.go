package voiceinput

import (
	"context"

	"go.uber.org/zap"

	"github.com/healthassist/platform/internal/alerting"
	"github.com/healthassist/platform/internal/fusion"
	"github.com/healthassist/platform/internal/fusion/intent"
	"github.com/healthassist/platform/internal/medbridge"
	"github.com/healthassist/platform/internal/shared/events"
	"github.com/healthassist/platform/internal/shared/types"
)

// Service processes multi-modal requests: fusion first, then the
// medical-analysis bridge when the fused result warrants it, then
// persistence. Bridge and repository are optional; fusion is not.
type Service struct {
	engine *fusion.Engine
	bridge *medbridge.Client
	repo   *Repository
	bus    events.Publisher
	alerts *alerting.Dispatcher
	log    *zap.Logger
}

// NewService creates a voice-input service. bridge, repo and bus may be
// nil; those steps are skipped.
func NewService(engine *fusion.Engine, bridge *medbridge.Client, repo *Repository, bus events.Publisher, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		engine: engine,
		bridge: bridge,
		repo:   repo,
		bus:    bus,
		log:    log,
	}
}

// WithAlerts attaches an alert dispatcher for urgent fused results.
func (s *Service) WithAlerts(alerts *alerting.Dispatcher) *Service {
	s.alerts = alerts
	return s
}

// Process fuses a multi-modal request and attaches the medical analysis.
// Persistence failures degrade to a response without a record ID; the
// fusion result is never lost to a storage error.
func (s *Service) Process(ctx context.Context, req *fusion.Request) *ProcessResponse {
	result := s.engine.Fuse(ctx, req)

	resp := &ProcessResponse{Result: result}

	if s.bridge != nil && medbridge.ShouldAnalyze(result.CombinedText, result.PrimaryIntent.Name) {
		resp.MedicalAnalysis = s.bridge.Analyze(ctx, medbridge.AnalysisRequest{
			PatientID:    req.PatientID,
			SessionID:    req.SessionID,
			AnalysisType: result.PrimaryIntent.Name,
			QueryText:    result.CombinedText,
			Symptoms:     symptomEntities(result.Entities),
			Context:      req.Context,
		})
	}

	if s.repo != nil {
		rec := recordFromResult(req, result)
		if err := s.repo.Create(ctx, rec); err != nil {
			s.log.Warn("failed to persist fusion record",
				zap.String("patient_id", req.PatientID.String()),
				zap.Error(err))
		} else {
			resp.RecordID = &rec.ID
		}
	}

	if s.alerts != nil {
		s.alerts.NotifyUrgent(req.PatientID, result.UrgencyLevel, result.CombinedText)
	}

	if s.bus != nil {
		event := events.NewEvent("voice.fusion_processed", "voiceinput", map[string]any{
			"patient_id":     req.PatientID,
			"session_id":     req.SessionID,
			"primary_intent": result.PrimaryIntent.Name,
			"urgency_level":  result.UrgencyLevel,
		}).WithActor(req.PatientID, "patient")
		s.bus.Publish(ctx, event)
	}

	return resp
}

// recordFromResult flattens a fusion result into a storable record.
func recordFromResult(req *fusion.Request, result *fusion.Result) *Record {
	rec := &Record{
		ID:               types.NewID(),
		UserID:           req.PatientID,
		SessionID:        req.SessionID,
		InputType:        InputTypeMultiModal,
		PrimaryIntent:    result.PrimaryIntent.Name,
		Confidence:       result.ConfidenceScore,
		UrgencyLevel:     result.UrgencyLevel,
		CombinedText:     result.CombinedText,
		Entities:         result.Entities,
		HealthIndicators: result.HealthIndicators,
		Recommendations:  result.Recommendations,
		ProcessingTimeMs: result.ProcessingTimeMs,
	}

	if result.Voice != nil {
		rec.Transcription = result.Voice.Text
		rec.Language = result.Voice.Language
	}

	return rec
}

// symptomEntities extracts symptom-bearing entity values for the bridge
// payload.
func symptomEntities(entities []intent.Entity) []string {
	var symptoms []string
	seen := make(map[string]bool)
	for _, e := range entities {
		if e.Type != "symptom" && e.Type != "body_part" && e.Type != "severity" {
			continue
		}
		if seen[e.Value] {
			continue
		}
		seen[e.Value] = true
		symptoms = append(symptoms, e.Value)
	}
	return symptoms
}
