package fusion

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/healthassist/platform/internal/fusion/intent"
	"github.com/healthassist/platform/internal/shared/metrics"
)

// Engine combines independently processed modality outputs into one
// unified result. This is a late-fusion design: each modality is fully
// processed on its own, and only final-stage outputs are combined. That
// isolates modality failures and tolerates heterogeneous per-modality
// latencies.
type Engine struct {
	recognizer    *intent.Recognizer
	transcriber   TranscriptionEngine
	qualityScorer AudioQualityScorer
	log           *zap.Logger
}

// NewEngine creates a fusion engine. transcriber and qualityScorer are
// optional; without a transcriber the voice modality degrades.
func NewEngine(recognizer *intent.Recognizer, transcriber TranscriptionEngine, qualityScorer AudioQualityScorer, log *zap.Logger) *Engine {
	if recognizer == nil {
		recognizer = intent.NewRecognizer(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		recognizer:    recognizer,
		transcriber:   transcriber,
		qualityScorer: qualityScorer,
		log:           log,
	}
}

// Fuse processes every supplied modality concurrently, then combines the
// outputs. Modalities share no mutable state: each processor writes only
// its own slot, and this function is the single point that waits for all
// of them. Processing time is measured end to end.
func (e *Engine) Fuse(ctx context.Context, req *Request) *Result {
	start := time.Now()

	result := &Result{
		PatientID:        req.PatientID,
		SessionID:        req.SessionID,
		Entities:         []intent.Entity{},
		HealthIndicators: map[string]Indicator{},
	}

	var wg sync.WaitGroup
	var sensorIndicators map[string]Indicator

	if req.Voice != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Voice = e.runProcessor(ModalityVoice, func() *ModalityResult {
				return e.processVoice(ctx, *req.Voice, req.Context)
			})
		}()
	}

	if req.Text != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Text = e.runProcessor(ModalityText, func() *ModalityResult {
				return e.processText(*req.Text, req.Context)
			})
		}()
	}

	if req.Image != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Image = e.runProcessor(ModalityImage, func() *ModalityResult {
				return e.processImage(*req.Image, req.Context)
			})
		}()
	}

	if len(req.Sensors) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result.Sensor = e.runProcessor(ModalitySensor, func() *ModalityResult {
				var sensorResult *ModalityResult
				sensorResult, sensorIndicators = processSensors(req.Sensors)
				return sensorResult
			})
		}()
	}

	wg.Wait()

	result.CombinedText = e.combineText(result)
	result.PrimaryIntent, result.ConfidenceScore = e.selectPrimaryIntent(result)
	result.Entities = e.collectEntities(result)
	if sensorIndicators != nil {
		result.HealthIndicators = sensorIndicators
	}
	result.UrgencyLevel = e.fusedUrgency(req, result)
	result.Recommendations = Recommend(result.PrimaryIntent.Name, result.HealthIndicators, result.UrgencyLevel)

	result.ProcessedAt = time.Now().UTC()
	result.ProcessingTimeMs = time.Since(start).Milliseconds()

	metrics.RecordFusionRequest(result.PrimaryIntent.Name, time.Since(start))
	metrics.RecordIntentRecognized(result.PrimaryIntent.Name)

	return result
}

// runProcessor shields fusion from a panicking modality processor: the
// panic becomes a degraded result for that modality alone.
func (e *Engine) runProcessor(modality Modality, process func() *ModalityResult) (out *ModalityResult) {
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error("modality processor panicked",
				zap.String("modality", string(modality)),
				zap.Any("panic", rec),
			)
			out = &ModalityResult{
				Modality: modality,
				Err:      fmt.Sprintf("processing failed: %v", rec),
			}
		}
		if out != nil && out.Degraded() {
			metrics.RecordModalityFailure(string(modality))
		}
	}()
	return process()
}

// combineText joins non-empty modality texts with single spaces in the
// fixed presentation order voice, text, image, sensor.
func (e *Engine) combineText(result *Result) string {
	var parts []string
	for _, m := range presentationOrder {
		if mr := result.modalityResult(m); mr != nil && mr.Text != "" {
			parts = append(parts, mr.Text)
		}
	}
	return strings.Join(parts, " ")
}

// selectPrimaryIntent applies the inter-modality tie-break: intents are
// ranked by priority first, confidence second. With no candidates the
// unknown intent at confidence 0 wins.
func (e *Engine) selectPrimaryIntent(result *Result) (intent.Intent, float64) {
	var candidates []intent.Intent
	for _, m := range presentationOrder {
		mr := result.modalityResult(m)
		if mr == nil || mr.Intent == nil || !mr.Intent.Successful {
			continue
		}
		if mr.Intent.Primary.Name == intent.IntentUnknown {
			continue
		}
		candidates = append(candidates, mr.Intent.Primary)
	}

	if len(candidates) == 0 {
		return intent.Intent{Name: intent.IntentUnknown, Confidence: 0}, 0
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].Confidence > candidates[j].Confidence
	})

	winner := candidates[0]
	return winner, clamp01(winner.Confidence)
}

// collectEntities flattens entities from voice, text and image in
// presentation order. Sensor contributes none. Duplicates are kept.
func (e *Engine) collectEntities(result *Result) []intent.Entity {
	entities := make([]intent.Entity, 0)
	for _, m := range []Modality{ModalityVoice, ModalityText, ModalityImage} {
		mr := result.modalityResult(m)
		if mr == nil || mr.Intent == nil {
			continue
		}
		entities = append(entities, mr.Intent.Entities...)
	}
	return entities
}

// fusedUrgency is the maximum of the caller-declared urgency and every
// modality's recognized urgency, floored at 1.
func (e *Engine) fusedUrgency(req *Request, result *Result) int {
	level := req.UrgencyLevel
	if level < 1 {
		level = 1
	}
	for _, m := range presentationOrder {
		mr := result.modalityResult(m)
		if mr == nil || mr.Intent == nil {
			continue
		}
		if mr.Intent.UrgencyLevel > level {
			level = mr.Intent.UrgencyLevel
		}
	}
	if level > 5 {
		level = 5
	}
	return level
}
