package fusion

import (
	"context"
	"fmt"
)

// Transcription is the output of a speech-to-text engine.
type Transcription struct {
	Text       string
	Confidence float64
	Language   string
}

// TranscriptionEngine converts an uploaded audio file to text. Real
// implementations call an external ASR service; it is an injected
// collaborator, never simulated here.
type TranscriptionEngine interface {
	Transcribe(ctx context.Context, input VoiceInput) (Transcription, error)
}

// AudioQualityScorer estimates audio quality in [0,1] from signal
// heuristics (signal-to-noise ratio and the like).
type AudioQualityScorer interface {
	Score(ctx context.Context, input VoiceInput) (float64, error)
}

// processVoice runs the three voice stages in order: quality scoring,
// transcription, intent recognition over the transcript. Any stage
// failure degrades the result instead of failing the request.
func (e *Engine) processVoice(ctx context.Context, input VoiceInput, callerContext map[string]any) *ModalityResult {
	result := &ModalityResult{Modality: ModalityVoice}

	if e.transcriber == nil {
		result.Err = "no transcription engine configured"
		return result
	}

	if e.qualityScorer != nil {
		quality, err := e.qualityScorer.Score(ctx, input)
		if err != nil {
			result.Err = fmt.Sprintf("audio quality scoring failed: %v", err)
			return result
		}
		result.Quality = clamp01(quality)
	}

	transcript, err := e.transcriber.Transcribe(ctx, input)
	if err != nil {
		result.Err = fmt.Sprintf("transcription failed: %v", err)
		return result
	}

	result.Text = transcript.Text
	result.Confidence = clamp01(transcript.Confidence)
	result.Language = transcript.Language

	recognition := e.recognizer.Recognize(transcript.Text, callerContext)
	result.Intent = &recognition

	return result
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
