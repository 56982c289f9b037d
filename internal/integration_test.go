package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/healthassist/platform/internal/alerting"
	"github.com/healthassist/platform/internal/fusion"
	"github.com/healthassist/platform/internal/fusion/intent"
	"github.com/healthassist/platform/internal/medbridge"
	"github.com/healthassist/platform/internal/shared/config"
	"github.com/healthassist/platform/internal/shared/types"
	"github.com/healthassist/platform/internal/voiceinput"
)

// TestMultiModalWorkflow runs the full pipeline: fusion over text and
// sensor input, bridge analysis, urgent alerting.
func TestMultiModalWorkflow(t *testing.T) {
	// External medical-analysis service
	analysisServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req medbridge.AnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode bridge request: %v", err)
		}
		if req.QueryText == "" {
			t.Error("Bridge request should carry the combined text")
		}

		json.NewEncoder(w).Encode(medbridge.AnalysisResponse{
			RequestID:   "req-42",
			ModelUsed:   "medical-llm-v2",
			Summary:     "Symptoms warrant prompt evaluation.",
			Confidence:  0.8,
			Disclaimers: []string{"Not a diagnosis."},
		})
	}))
	defer analysisServer.Close()

	bridge := medbridge.NewClient(config.MedBridgeConfig{
		URL:     analysisServer.URL,
		Timeout: time.Second,
		Enabled: true,
	}, nil, nil)

	alertProvider := alerting.NewMemoryProvider(nil)
	alerts := alerting.NewDispatcher(
		map[alerting.Channel]alerting.Provider{alerting.ChannelPush: alertProvider},
		alerting.Config{Workers: 1, BufferSize: 8, RetryDelay: time.Millisecond, UrgencyThreshold: 4},
		nil,
	)
	if err := alerts.Start(context.Background()); err != nil {
		t.Fatalf("Failed to start dispatcher: %v", err)
	}
	defer alerts.Stop()

	engine := fusion.NewEngine(nil, nil, nil, nil)
	service := voiceinput.NewService(engine, bridge, nil, nil, nil).WithAlerts(alerts)

	patientID := types.NewID()
	resp := service.Process(context.Background(), &fusion.Request{
		PatientID: patientID,
		SessionID: "session-9",
		Text:      &fusion.TextInput{Content: "I have severe chest pain"},
		Sensors: []fusion.SensorReading{
			{SensorType: fusion.IndicatorHeartRate, Value: 130, Unit: "bpm", Timestamp: time.Now()},
		},
	})

	// 1. Fusion combined both modalities.
	if resp.Result.CombinedText != "I have severe chest pain heart rate: 130 bpm" {
		t.Errorf("Unexpected combined text '%s'", resp.Result.CombinedText)
	}

	// 2. The emergency keyword forces maximum urgency.
	if resp.Result.UrgencyLevel != 5 {
		t.Errorf("Expected urgency 5, got %d", resp.Result.UrgencyLevel)
	}

	// 3. The heart-rate indicator was derived from the sensor.
	hr, ok := resp.Result.HealthIndicators[fusion.IndicatorHeartRate]
	if !ok || hr.Value != 130 {
		t.Errorf("Expected heart rate indicator 130, got %v", resp.Result.HealthIndicators)
	}

	// 4. The elevated reading produced a recommendation.
	if len(resp.Result.Recommendations) == 0 {
		t.Error("Expected recommendations for an urgent symptom report")
	}

	// 5. The bridge returned the upstream analysis.
	if resp.MedicalAnalysis == nil {
		t.Fatal("Expected a medical analysis")
	}
	if resp.MedicalAnalysis.ModelUsed != "medical-llm-v2" {
		t.Errorf("Expected the upstream model, got '%s'", resp.MedicalAnalysis.ModelUsed)
	}

	// 6. The urgent result triggered an alert.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(alertProvider.Sent()) == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	sent := alertProvider.Sent()
	if len(sent) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(sent))
	}
	if sent[0].PatientID != patientID {
		t.Error("Alert should carry the patient ID")
	}
}

// TestBridgeOutageDegradesGracefully verifies the pipeline survives a
// dead analysis service: fusion output intact, fallback analysis attached.
func TestBridgeOutageDegradesGracefully(t *testing.T) {
	bridge := medbridge.NewClient(config.MedBridgeConfig{
		URL:     "http://127.0.0.1:1",
		Timeout: 200 * time.Millisecond,
		Enabled: true,
	}, nil, nil)

	engine := fusion.NewEngine(nil, nil, nil, nil)
	service := voiceinput.NewService(engine, bridge, nil, nil, nil)

	resp := service.Process(context.Background(), &fusion.Request{
		PatientID: types.NewID(),
		Text:      &fusion.TextInput{Content: "I have a fever and a cough"},
	})

	if resp.Result.PrimaryIntent.Name != intent.IntentSymptomReport {
		t.Errorf("Fusion should be unaffected by the outage, got intent '%s'", resp.Result.PrimaryIntent.Name)
	}

	if resp.MedicalAnalysis == nil {
		t.Fatal("A bridge outage should still yield a fallback analysis")
	}
	if resp.MedicalAnalysis.ModelUsed != medbridge.FallbackModel {
		t.Errorf("Expected the fallback model, got '%s'", resp.MedicalAnalysis.ModelUsed)
	}
	if len(resp.MedicalAnalysis.Disclaimers) == 0 {
		t.Error("Fallback analyses must carry disclaimers")
	}
}

// TestNonMedicalTextSkipsBridge verifies the routing predicate.
func TestNonMedicalTextSkipsBridge(t *testing.T) {
	bridgeCalled := false
	analysisServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bridgeCalled = true
		json.NewEncoder(w).Encode(medbridge.AnalysisResponse{})
	}))
	defer analysisServer.Close()

	bridge := medbridge.NewClient(config.MedBridgeConfig{
		URL:     analysisServer.URL,
		Timeout: time.Second,
		Enabled: true,
	}, nil, nil)

	engine := fusion.NewEngine(nil, nil, nil, nil)
	service := voiceinput.NewService(engine, bridge, nil, nil, nil)

	resp := service.Process(context.Background(), &fusion.Request{
		PatientID: types.NewID(),
		Sensors: []fusion.SensorReading{
			{SensorType: "step_count", Value: 4000, Unit: "steps", Timestamp: time.Now()},
		},
	})

	if bridgeCalled {
		t.Error("Non-medical input should not reach the bridge")
	}
	if resp.MedicalAnalysis != nil {
		t.Error("No analysis should be attached")
	}
}
