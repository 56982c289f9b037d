package medbridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/healthassist/platform/internal/fusion/intent"
	"github.com/healthassist/platform/internal/shared/config"
	"github.com/healthassist/platform/internal/shared/types"
)

// --- ShouldAnalyze Tests ---

func TestShouldAnalyzeMedicalIntents(t *testing.T) {
	tests := []struct {
		intentName string
		expected   bool
	}{
		{intent.IntentSymptomReport, true},
		{intent.IntentMedicationQuery, true},
		{intent.IntentEmergencyAlert, true},
		{intent.IntentWellnessQuery, true},
		{intent.IntentAppointmentRequest, false},
		{intent.IntentUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.intentName, func(t *testing.T) {
			if got := ShouldAnalyze("unrelated text", tt.intentName); got != tt.expected {
				t.Errorf("ShouldAnalyze(_, %s) = %v, want %v", tt.intentName, got, tt.expected)
			}
		})
	}
}

func TestShouldAnalyzeVocabulary(t *testing.T) {
	if !ShouldAnalyze("my blood pressure seems high", intent.IntentUnknown) {
		t.Error("Medical vocabulary should trigger analysis without a medical intent")
	}

	if ShouldAnalyze("see you tomorrow at noon", intent.IntentUnknown) {
		t.Error("Plain text without medical terms should not trigger analysis")
	}
}

// --- Analyze Tests ---

func newTestClient(url string, timeout time.Duration) *Client {
	return NewClient(config.MedBridgeConfig{URL: url, Timeout: timeout, Enabled: true}, nil, nil)
}

func TestAnalyzeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/analyze" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var req AnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.MedicalHistory == nil {
			t.Error("Medical history should be sent, empty at worst")
		}

		json.NewEncoder(w).Encode(AnalysisResponse{
			RequestID:   "req-1",
			ModelUsed:   "medical-llm-v2",
			Summary:     "Likely tension headache.",
			Findings:    []string{"no red flags"},
			Confidence:  0.82,
			Disclaimers: []string{"Not a diagnosis."},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)

	resp := client.Analyze(context.Background(), AnalysisRequest{
		PatientID:    types.NewID(),
		AnalysisType: intent.IntentSymptomReport,
		QueryText:    "I have a headache",
	})

	if resp.ModelUsed != "medical-llm-v2" {
		t.Errorf("Expected upstream model, got '%s'", resp.ModelUsed)
	}
	if resp.Summary != "Likely tension headache." {
		t.Errorf("Unexpected summary '%s'", resp.Summary)
	}
	if resp.Timestamp.IsZero() {
		t.Error("A missing timestamp should be filled in")
	}
}

func TestAnalyzeServerErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)

	resp := client.Analyze(context.Background(), AnalysisRequest{
		PatientID:    types.NewID(),
		AnalysisType: intent.IntentSymptomReport,
	})

	assertFallback(t, resp)
}

func TestAnalyzeUnreachableFallsBack(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1", 200*time.Millisecond)

	resp := client.Analyze(context.Background(), AnalysisRequest{
		PatientID:    types.NewID(),
		AnalysisType: intent.IntentMedicationQuery,
	})

	assertFallback(t, resp)
}

func TestAnalyzeGarbageResponseFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)

	resp := client.Analyze(context.Background(), AnalysisRequest{PatientID: types.NewID()})

	assertFallback(t, resp)
}

func TestAnalyzeSurvivesCancelledCaller(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AnalysisResponse{ModelUsed: "medical-llm-v2"})
	}))
	defer server.Close()

	client := newTestClient(server.URL, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := client.Analyze(ctx, AnalysisRequest{PatientID: types.NewID()})

	// The bridge call carries its own timeout, detached from the
	// caller's cancellation.
	if resp.ModelUsed != "medical-llm-v2" {
		t.Errorf("Expected the upstream response despite caller cancellation, got '%s'", resp.ModelUsed)
	}
}

func assertFallback(t *testing.T, resp *AnalysisResponse) {
	t.Helper()

	if resp == nil {
		t.Fatal("Analyze must never return nil")
	}
	if resp.ModelUsed != FallbackModel {
		t.Errorf("Expected fallback model, got '%s'", resp.ModelUsed)
	}
	if len(resp.Disclaimers) == 0 {
		t.Error("Fallback responses must carry disclaimers")
	}
	if len(resp.Recommendations) == 0 {
		t.Error("Fallback responses must carry recommendations")
	}
	if resp.Confidence != 0 {
		t.Errorf("Fallback confidence should be 0, got %f", resp.Confidence)
	}
}

func TestFallbackDeterministic(t *testing.T) {
	client := newTestClient("http://127.0.0.1:1", 100*time.Millisecond)

	req := AnalysisRequest{PatientID: types.NewID(), AnalysisType: intent.IntentSymptomReport}

	first := client.Analyze(context.Background(), req)
	second := client.Analyze(context.Background(), req)

	if first.Summary != second.Summary {
		t.Error("Fallback summary should be deterministic")
	}
	if len(first.Recommendations) != len(second.Recommendations) {
		t.Error("Fallback recommendations should be deterministic")
	}
	for i := range first.Recommendations {
		if first.Recommendations[i] != second.Recommendations[i] {
			t.Error("Fallback recommendations should be deterministic")
		}
	}
}
